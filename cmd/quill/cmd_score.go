package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/HendryAvila/quill/internal/voice"
)

const (
	ansiGreen = "\033[32m"
	ansiRed   = "\033[31m"
	ansiReset = "\033[0m"
)

func newScoreCmd(load loader) *cobra.Command {
	var (
		file    string
		asJSON  bool
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "score [text]",
		Short: "Score a draft against the voice profile",
		Long:  "Score a draft (0-100, passes at 70). Pass the text as arguments, with --file, or on stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := load()
			if err != nil {
				return err
			}

			content, err := readDraft(cmd.InOrStdin(), args, file, cfg.MaxContentBytes)
			if err != nil {
				return fmt.Errorf("score: %w", err)
			}
			if voice.LooksLikeHTML(content) {
				content = voice.PlainText(content)
			}

			profile := voice.ProfileStore{Path: cfg.ProfilePath()}.Load()
			result := voice.Score(content, profile)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			printScore(out, result, !noColor && isTerminal(out))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the draft from a file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable coloured output")
	return cmd
}

// readDraft picks the draft from args, a file, or stdin, in that order.
func readDraft(stdin io.Reader, args []string, file string, limit int64) (string, error) {
	switch {
	case len(args) > 0 && file != "":
		return "", errors.New("pass either text or --file, not both")
	case len(args) > 0:
		return strings.Join(args, " "), nil
	case file != "":
		f, err := os.Open(file)
		if err != nil {
			return "", err
		}
		defer func() { _ = f.Close() }()
		return readLimited(f, limit)
	default:
		return readLimited(stdin, limit)
	}
}

func readLimited(r io.Reader, limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("draft is larger than %d bytes", limit)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errors.New("empty draft")
	}
	return string(data), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func printScore(w io.Writer, r voice.Result, color bool) {
	verdict := "PASS"
	code := ansiGreen
	if !r.Passed {
		verdict = "FAIL"
		code = ansiRed
	}
	if color {
		verdict = code + verdict + ansiReset
	}

	fmt.Fprintf(w, "%s  %d/100\n\n", verdict, r.Overall)
	fmt.Fprintf(w, "  sentence structure  %3d\n", r.Categories.SentenceStructure)
	fmt.Fprintf(w, "  vocabulary match    %3d\n", r.Categories.VocabularyMatch)
	fmt.Fprintf(w, "  tone consistency    %3d\n", r.Categories.ToneConsistency)
	fmt.Fprintf(w, "  hook usage          %3d\n", r.Categories.HookUsage)
	fmt.Fprintf(w, "  taboo violations    %3d\n", r.Categories.TabooViolations)

	if len(r.Flags) > 0 {
		fmt.Fprintln(w, "\nFlags:")
		for _, f := range r.Flags {
			fmt.Fprintf(w, "  - %s\n", f)
		}
	}
	if len(r.Suggestions) > 0 {
		fmt.Fprintln(w, "\nSuggestions:")
		for _, s := range r.Suggestions {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
}
