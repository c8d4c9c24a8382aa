// Package refs holds the commands for tuning the relevance extraction against the reference sources.
package refs

import (
	"fmt"
	"github.com/myrjola/casefile/internal/config"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/keywords"
	"github.com/myrjola/casefile/internal/legal"
	"github.com/myrjola/casefile/internal/models"
	"github.com/myrjola/casefile/internal/reference"
	"github.com/myrjola/casefile/internal/relevance"
	"github.com/spf13/cobra"
	"log/slog"
	"os"
	"strings"
)

var Group = &cobra.Group{
	ID:    "refs",
	Title: "Reference material",
}

func init() {
	for _, cmd := range []*cobra.Command{Keywords, Extract} {
		cmd.Flags().String("engine-config", os.Getenv("CASEFILE_ENGINE_CONFIG"), "engine config override")
		cmd.Flags().String("reference-dir", envOr("CASEFILE_REFERENCE_DIR", "./reference"),
			"directory of the reference sources")
		cmd.Flags().Int("age", -1, "victim age, negative when unknown")
		cmd.Flags().StringSlice("sections", nil, "sections already cited, e.g. \"IPC 354D\"")
	}
	Keywords.Flags().String("purpose", string(keywords.PurposeAnalysis), "keyword baseline to append")
	Extract.Flags().Bool("scores", false, "print every excerpt with its line range and score")
	Sections.Flags().String("legal-sections", os.Getenv("CASEFILE_LEGAL_SECTIONS"), "legal sections table override")
}

var Keywords = &cobra.Command{
	Use:     "keywords [description]",
	GroupID: "refs",
	Short:   "Print the keywords derived from a case description",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		in := input(cmd, args)
		purpose, _ := cmd.Flags().GetString("purpose")
		if _, ok := engine.Keywords.Baselines[keywords.Purpose(purpose)]; !ok {
			return errors.New("unknown purpose", slog.String("purpose", purpose))
		}
		builder := keywords.NewBuilder(engine.Keywords)
		flags := builder.Flags(in)
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "minor victim: %t, digital offense: %t\n", flags.MinorVictim, flags.DigitalOffense)
		for _, kw := range builder.Build(in, keywords.Purpose(purpose)) {
			_, _ = fmt.Fprintln(out, kw)
		}
		return nil
	},
}

var Extract = &cobra.Command{
	Use:     "extract [source-key|purpose] [description]",
	GroupID: "refs",
	Short:   "Print the excerpts of a reference source that are relevant to a case description",
	Args:    cobra.MinimumNArgs(2), //nolint:mnd // source key and description
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		source, ok := findSource(engine, args[0])
		if !ok {
			return errors.New("unknown source", slog.String("key", args[0]))
		}
		in := input(cmd, args[1:])
		text, err := reference.FileExtractor{}.ExtractText(cmd.Context(), source.Path)
		if err != nil {
			return errors.Wrap(err, "extract source text", slog.String("key", source.Key))
		}
		kws := keywords.NewBuilder(engine.Keywords).Build(in, source.Purpose)

		out := cmd.OutOrStdout()
		if scores, _ := cmd.Flags().GetBool("scores"); scores {
			for _, e := range relevance.Excerpts(text, kws, source.WindowSize) {
				_, _ = fmt.Fprintf(out, "lines %d-%d, score %d\n%s\n\n", e.StartLine, e.EndLine, e.Score, e.Text)
			}
			return nil
		}
		excerpt := relevance.Extract(text, kws, source.WindowSize)
		if excerpt == "" {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "no relevant excerpts")
			return nil
		}
		_, _ = fmt.Fprintln(out, excerpt)
		return nil
	},
}

var Sections = &cobra.Command{
	Use:     "sections [act]",
	GroupID: "refs",
	Short:   "List the legal sections table, optionally only the sections of one act",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := loadLegalTable(cmd)
		if err != nil {
			return err
		}
		act := ""
		if len(args) == 1 {
			act = table.CanonicalAct(args[0])
		}
		out := cmd.OutOrStdout()
		for _, s := range table.Sections() {
			if act != "" && s.Act != act {
				continue
			}
			_, _ = fmt.Fprintf(out, "%s %s\t%s\n", s.Act, s.Section, s.Title)
		}
		return nil
	},
}

// findSource looks the source up by key and falls back to the source serving the purpose of that name.
func findSource(engine *config.Engine, name string) (reference.Source, bool) {
	for _, s := range engine.Sources {
		if s.Key == name {
			return s, true
		}
	}
	return engine.Source(keywords.Purpose(name))
}

func loadLegalTable(cmd *cobra.Command) (*legal.Table, error) {
	path, _ := cmd.Flags().GetString("legal-sections")
	if path == "" {
		table, err := legal.Default()
		if err != nil {
			return nil, errors.Wrap(err, "default legal table")
		}
		return table, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open legal sections", slog.String("path", path))
	}
	defer f.Close()
	table, err := legal.Load(f)
	if err != nil {
		return nil, errors.Wrap(err, "load legal sections", slog.String("path", path))
	}
	return table, nil
}

func loadEngine(cmd *cobra.Command) (*config.Engine, error) {
	override, _ := cmd.Flags().GetString("engine-config")
	dir, _ := cmd.Flags().GetString("reference-dir")
	engine, err := config.LoadEngine(override, dir)
	if err != nil {
		return nil, errors.Wrap(err, "load engine config")
	}
	return engine, nil
}

// input builds the keyword input the same way a submitted case would.
func input(cmd *cobra.Command, args []string) keywords.Input {
	facts := models.Facts{models.FactDescription: strings.Join(args, " ")}
	age, _ := cmd.Flags().GetInt("age")
	if age >= 0 {
		facts[models.FactVictimAge] = float64(age)
	}
	if sections, _ := cmd.Flags().GetStringSlice("sections"); len(sections) > 0 {
		facts[models.FactSections] = sections
	}
	return keywords.InputFromFacts(facts)
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
