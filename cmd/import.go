package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/kotoba/internal/content"
)

var importCmd = &cobra.Command{
	Use:   "import <file.xlsx|file.csv>",
	Short: "Import a vocabulary sheet into a content bundle",
	Long: `Import reads rows of surface, reading, meanings, level and tags and adds
them to the content bundle as a new vocabulary pack. Meanings and tags are
separated by ';'. The bundle is read from --content (or the built-in seed)
and written to --out, which defaults to --content.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := resolveContentPath(cmd)
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = src
		}
		if out == "" {
			return errors.New("no bundle to write: pass --out or --content")
		}

		var (
			b   *content.Bundle
			err error
		)
		if src == "" {
			b, err = content.SeedBundle()
		} else {
			b, err = content.LoadBundleFile(src)
		}
		if err != nil {
			return err
		}

		opts := content.ImportOptions{}
		opts.Sheet, _ = cmd.Flags().GetString("sheet")
		opts.SkipHeader, _ = cmd.Flags().GetBool("header")
		opts.PackID, _ = cmd.Flags().GetInt("pack")
		opts.Level, _ = cmd.Flags().GetInt("level")
		if cmd.Flags().Changed("lesson") {
			lesson, _ := cmd.Flags().GetInt("lesson")
			if _, ok := content.NewCatalog(b).Lesson(lesson); !ok {
				return fmt.Errorf("lesson %d not found in bundle", lesson)
			}
			opts.LessonID = &lesson
		}

		res, err := content.ImportVocab(b, args[0], opts)
		if err != nil {
			return err
		}
		if err := b.Validate(); err != nil {
			return err
		}
		if err := b.WriteFile(out); err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Imported %d word(s) into pack %d (%d skipped) -> %s\n", res.Added, res.Pack.ID, res.Skipped, out)
		for _, e := range res.Errors {
			fmt.Fprintln(w, "  "+e)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringP("out", "o", "", "Bundle file to write (default: --content)")
	importCmd.Flags().String("sheet", "", "Sheet name for .xlsx files (default: first sheet)")
	importCmd.Flags().Bool("header", true, "First row is a header")
	importCmd.Flags().Int("pack", 0, "Pack id (default: next free id)")
	importCmd.Flags().Int("lesson", 0, "Attach the pack to this lesson")
	importCmd.Flags().Int("level", 1, "Level for rows without one")
}
