// Package cases holds the commands that work directly against the case store.
package cases

import (
	"encoding/json"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/logging"
	"github.com/myrjola/casefile/internal/models"
	"github.com/myrjola/casefile/internal/render"
	"github.com/myrjola/casefile/internal/repositories"
	"github.com/myrjola/casefile/internal/sqlite"
	"github.com/spf13/cobra"
	"log/slog"
	"os"
)

var Group = &cobra.Group{
	ID:    "cases",
	Title: "Case store",
}

func init() {
	defaultURL := "./casefile.sqlite3"
	if v, ok := os.LookupEnv("CASEFILE_SQLITE_URL"); ok {
		defaultURL = v
	}
	for _, cmd := range []*cobra.Command{ExportPDF, Dump, Restore} {
		cmd.Flags().String("db", defaultURL, "sqlite database URL")
	}
	ExportPDF.Flags().String("out", "", "path to the PDF file, defaults to <type>-<case reference>.pdf")
}

var ExportPDF = &cobra.Command{
	Use:     "export-pdf [case-id] [fir|chargesheet]",
	GroupID: "cases",
	Short:   "Write a drafted document of a case as PDF",
	Args:    cobra.ExactArgs(2), //nolint:mnd // case ID and document type
	RunE: func(cmd *cobra.Command, args []string) error {
		docType := models.DocumentType(args[1])
		if !docType.Valid() {
			return errors.New("unknown document type", slog.String("type", args[1]))
		}
		repo, closeDB, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		c, err := repo.Get(cmd.Context(), args[0])
		if err != nil {
			return errors.Wrap(err, "get case")
		}
		var doc *models.Document
		if c.Analysis != nil {
			doc = c.Analysis.Document(docType)
		}
		if doc == nil {
			return errors.Wrap(models.ErrNotFound, "document not drafted", slog.String("type", args[1]))
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = render.FileName(doc)
		}
		f, err := os.Create(out)
		if err != nil {
			return errors.Wrap(err, "create pdf file", slog.String("path", out))
		}
		if err = render.DocumentPDF(f, doc); err != nil {
			_ = f.Close()
			return errors.Wrap(err, "render pdf")
		}
		if err = f.Close(); err != nil {
			return errors.Wrap(err, "close pdf file", slog.String("path", out))
		}
		cmd.Printf("wrote %s\n", out)
		return nil
	},
}

var Dump = &cobra.Command{
	Use:     "dump [case-id]",
	GroupID: "cases",
	Short:   "Print a case as JSON",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, closeDB, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		c, err := repo.Get(cmd.Context(), args[0])
		if err != nil {
			return errors.Wrap(err, "get case")
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err = enc.Encode(c); err != nil {
			return errors.Wrap(err, "encode case")
		}
		return nil
	},
}

var Restore = &cobra.Command{
	Use:     "restore [file]",
	GroupID: "cases",
	Short:   "Write a case dumped with the dump command back to the store",
	Long:    `Writes the case whether or not it exists. A newer version of the case in the store is overwritten. The
investigator owning the case must already be registered.`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return errors.Wrap(err, "read case file")
		}
		var c models.Case
		if err = json.Unmarshal(data, &c); err != nil {
			return errors.Wrap(err, "decode case file", slog.String("path", args[0]))
		}
		if c.ID == "" || c.InvestigatorID == "" {
			return errors.New("case file needs id and investigatorId", slog.String("path", args[0]))
		}
		repo, closeDB, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		if err = repo.Upsert(cmd.Context(), &c); err != nil {
			return errors.Wrap(err, "upsert case", slog.String("case_id", c.ID))
		}
		cmd.Printf("restored %s\n", c.ID)
		return nil
	},
}

func openStore(cmd *cobra.Command) (*repositories.CaseRepository, func(), error) {
	url, _ := cmd.Flags().GetString("db")
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelWarn,
		ReplaceAttr: nil,
	})))
	dbs, err := sqlite.NewDatabase(cmd.Context(), url, logger)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open database", slog.String("url", url))
	}
	closeDB := func() {
		if err := dbs.Close(); err != nil {
			logger.LogAttrs(cmd.Context(), slog.LevelWarn, "close database", errors.SlogError(err))
		}
	}
	return repositories.NewCaseRepository(dbs, logger), closeDB, nil
}
