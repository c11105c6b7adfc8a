package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/quill/internal/patterns"
)

func newSuggestCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <title>",
		Short: "Suggest a title and project for a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}

			title := strings.Join(args, " ")
			engine := patterns.NewEngine(patterns.NewFileStore(cfg.PatternsPath()), nil, logger)
			s := engine.Suggest(title)
			rec := patterns.Recommend(s.Confidence)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Title:      %s\n", s.Title)
			project := "-"
			if s.Project != nil {
				project = *s.Project
			}
			fmt.Fprintf(out, "Project:    %s\n", project)
			fmt.Fprintf(out, "Confidence: %d (%s, %s)\n", s.Confidence, rec.Level, rec.Action)
			fmt.Fprintf(out, "Source:     %s\n", s.Source)
			if s.Rule != "" {
				fmt.Fprintf(out, "Rule:       %s\n", s.Rule)
			}
			return nil
		},
	}
}
