package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/quill/internal/config"
	"github.com/HendryAvila/quill/internal/profile"
	"github.com/HendryAvila/quill/internal/voice"
)

func newProfileCmd(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the voice profile",
	}
	cmd.AddCommand(newProfileBuildCmd(load))
	return cmd
}

// newRebuilder wires a profile rebuilder from config. An empty dir means
// cfg.ContentDir.
func newRebuilder(cfg *config.Config, logger *slog.Logger, dir string, noLLM bool) *profile.Rebuilder {
	if dir == "" {
		dir = cfg.ContentDir
	}

	var analyst profile.Analyst
	switch {
	case noLLM:
	case cfg.AnthropicAPIKey == "":
		logger.Warn("ANTHROPIC_API_KEY not set; tone and structure use defaults")
	default:
		analyst = profile.NewAnthropicAnalyst(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	}

	return &profile.Rebuilder{
		Dir:     dir,
		Store:   voice.ProfileStore{Path: cfg.ProfilePath()},
		Builder: profile.NewBuilder(analyst, logger),
		Logger:  logger,
	}
}

func newProfileBuildCmd(load loader) *cobra.Command {
	var (
		dir   string
		noLLM bool
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the voice profile from the content corpus",
		Long: "Read tweets/, newsletters/, book/ and youtube/ under the content directory,\n" +
			"compute stylometrics and vocabulary, and (with an Anthropic API key) ask the\n" +
			"model for tone and structure. Writes the profile used by 'quill score'.\n\n" +
			"With --watch, keep running and rebuild whenever the corpus changes.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}

			rb := newRebuilder(cfg, logger, dir, noLLM)
			p, err := rb.Run(cmd.Context())
			if err != nil {
				return err
			}
			printProfileSummary(cmd, rb.Store.Path, p)

			if !watch {
				return nil
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return rb.Watch(ctx)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "content directory (default from config)")
	cmd.Flags().BoolVar(&noLLM, "no-llm", false, "skip the Anthropic tone analysis")
	cmd.Flags().BoolVar(&watch, "watch", false, "rebuild when files in the corpus change")
	return cmd
}

func printProfileSummary(cmd *cobra.Command, path string, p *voice.Profile) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Voice profile written: %s\n", path)
	st := p.SourceStats
	fmt.Fprintf(out, "  samples: %d tweets, %d newsletters, %d book chapters, %d transcripts (%d words)\n",
		st.TweetsAnalyzed, st.NewslettersAnalyzed, st.BookChaptersAnalyzed, st.YoutubeTranscriptsAnalyzed, st.TotalWords)
	fmt.Fprintf(out, "  avg sentence length: %.1f words\n", p.Stylometrics.AvgSentenceLength)
	fmt.Fprintf(out, "  signature phrases: %d\n", len(p.Vocabulary.SignaturePhrases))
}
