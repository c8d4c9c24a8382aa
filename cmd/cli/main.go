package main

import (
	"fmt"
	"github.com/joho/godotenv"
	"github.com/myrjola/casefile/cmd/cli/cases"
	"github.com/myrjola/casefile/cmd/cli/refs"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/spf13/cobra"
	"io/fs"
	"os"
)

func init() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	rootCmd.AddGroup(refs.Group)
	rootCmd.AddCommand(refs.Keywords, refs.Extract, refs.Sections)
	rootCmd.AddGroup(cases.Group)
	rootCmd.AddCommand(cases.ExportPDF, cases.Dump, cases.Restore)
}

var rootCmd = &cobra.Command{
	Use:           "casefile-cli",
	Long:          `Command line utilities for Casefile https://github.com/myrjola/casefile`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
