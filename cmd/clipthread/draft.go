package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"clipthread/internal/drafting"
	"clipthread/internal/research"
)

func newDraftCmd() *cobra.Command {
	var (
		reportPath        string
		notesPath         string
		sourcesPath       string
		transcriptionPath string
		runResearch       bool
		asJSON            bool
	)

	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Draft posts from a research report on disk",
		Long: `Runs the drafting pipeline once without the server.

The report is either a JSON file ({"research_notes": "...", "sources": [...]})
or a markdown notes file plus an optional JSON array of sources. With
--research the report is produced from the transcription first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			transcription, err := readOptional(transcriptionPath)
			if err != nil {
				return err
			}

			var report drafting.ResearchReport
			switch {
			case runResearch:
				r, err := research.NewResearcher(cfg.ResearchOptions()).Research(ctx, transcription)
				if err != nil {
					return err
				}
				report = *r
			case reportPath != "":
				if report, err = readReport(reportPath); err != nil {
					return err
				}
			default:
				if report.Notes, err = readOptional(notesPath); err != nil {
					return err
				}
				if report.Sources, err = readSources(sourcesPath); err != nil {
					return err
				}
			}

			drafts, err := runDrafting(ctx, cfg.BackendOptions(), cfg.DraftingOptions(), report, transcription)
			if err != nil {
				return err
			}
			return printDrafts(cmd, drafts, asJSON)
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "", "JSON research report")
	cmd.Flags().StringVar(&notesPath, "notes", "", "markdown research notes")
	cmd.Flags().StringVar(&sourcesPath, "sources", "", "JSON array of sources for --notes")
	cmd.Flags().StringVar(&transcriptionPath, "transcription", "", "original transcription text")
	cmd.Flags().BoolVar(&runResearch, "research", false, "run research on --transcription first")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print drafts as a JSON array")
	cmd.MarkFlagsMutuallyExclusive("report", "notes", "research")
	return cmd
}

func newChunksCmd() *cobra.Command {
	var notesPath string
	cmd := &cobra.Command{
		Use:   "chunks",
		Short: "Show how research notes are split into chunks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			notes, err := readOptional(notesPath)
			if err != nil {
				return err
			}
			backend := drafting.BackendFunc(func(context.Context, drafting.Request) (drafting.Response, error) {
				return nil, fmt.Errorf("no backend")
			})
			d, err := drafting.NewDrafter(backend, cfg.DraftingOptions())
			if err != nil {
				return err
			}
			for _, c := range d.Chunks(notes) {
				fmt.Fprintf(cmd.OutOrStdout(), "--- chunk %d (%d chars) ---\n%s\n", c.Index, len([]rune(c.Text)), c.Text)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&notesPath, "notes", "", "markdown research notes")
	_ = cmd.MarkFlagRequired("notes")
	return cmd
}

func runDrafting(ctx context.Context, backendOpts drafting.BackendOptions, opts drafting.Options, report drafting.ResearchReport, transcription string) ([]string, error) {
	backend, err := drafting.NewBackend(ctx, backendOpts)
	if err != nil {
		return nil, err
	}
	d, err := drafting.NewDrafter(backend, opts)
	if err != nil {
		return nil, err
	}
	return d.Draft(ctx, report, transcription)
}

func printDrafts(cmd *cobra.Command, drafts []string, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(drafts)
	}
	for i, d := range drafts {
		fmt.Fprintf(out, "%d/%d\n%s\n\n", i+1, len(drafts), d)
	}
	return nil
}

func readOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return strings.TrimSpace(string(b)), nil
}

func readReport(path string) (drafting.ResearchReport, error) {
	var report drafting.ResearchReport
	b, err := os.ReadFile(path)
	if err != nil {
		return report, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &report); err != nil {
		return report, fmt.Errorf("failed to parse report %s: %w", path, err)
	}
	return report, nil
}

func readSources(path string) ([]drafting.Source, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var sources []drafting.Source
	if err := json.Unmarshal(b, &sources); err != nil {
		return nil, fmt.Errorf("failed to parse sources %s: %w", path, err)
	}
	return sources, nil
}
