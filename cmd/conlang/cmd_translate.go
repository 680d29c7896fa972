package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/japaniel/conlang/pkg/db"
	"github.com/japaniel/conlang/pkg/document"
	"github.com/japaniel/conlang/pkg/translate"
)

func newTranslateCmd(a *app) *cobra.Command {
	var urlFlag, fileFlag string
	var printOut bool
	d := DefaultConfig()
	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate a web article or text file into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (urlFlag == "") == (fileFlag == "") {
				return fmt.Errorf("pass exactly one of --url or --file")
			}
			ctx := cmd.Context()

			l, hash, err := a.loadLanguage()
			if err != nil {
				return err
			}
			conn, err := db.Open(a.cfg.DB)
			if err != nil {
				return err
			}
			defer conn.Close()

			var text string
			var sourceID int64
			if urlFlag != "" {
				a.logger.Info("fetching", "url", urlFlag)
				art, err := document.NewFetcher().FetchArticle(ctx, urlFlag)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Title: %s\n", art.Title)
				text = art.Text
				sourceID, err = db.CreateOrGetSource(conn, "website_article", art.Title, art.Byline, art.SiteName, urlFlag, "")
				if err != nil {
					return fmt.Errorf("persist source: %w", err)
				}
			} else {
				data, err := os.ReadFile(fileFlag)
				if err != nil {
					return fmt.Errorf("read file: %w", err)
				}
				abs, err := filepath.Abs(fileFlag)
				if err != nil {
					return err
				}
				text = string(data)
				sourceID, err = db.CreateOrGetSource(conn, "file", filepath.Base(fileFlag), "", "", abs, "")
				if err != nil {
					return fmt.Errorf("persist source: %w", err)
				}
			}

			sentences := document.SplitSentences(text)
			a.logger.Info("split document", "source", sourceID, "sentences", len(sentences))

			tr, err := translate.NewTranslator(conn, l, hash)
			if err != nil {
				return err
			}
			tr.Workers = a.cfg.Workers
			tr.BatchSize = a.cfg.BatchSize
			tr.Logger = a.logger
			if tr.Prepare, err = a.segmenter(text); err != nil {
				return err
			}
			tr.OnProgress = func(current, total int) {
				a.logger.Debug("progress", "done", current, "total", total)
			}

			sum, err := tr.Translate(ctx, sourceID, sentences)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Translated %d sentences (%d skipped, %d word errors) in run %s\n",
				sum.Sentences, sum.Skipped, sum.Errors, sum.RunID)

			if printOut {
				rows, err := db.GetTranslations(conn, sourceID, tr.LanguageID)
				if err != nil {
					return err
				}
				for _, r := range rows {
					fmt.Fprintln(a.out, r.Output)
				}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&urlFlag, "url", "", "URL of an article to translate")
	f.StringVar(&fileFlag, "file", "", "plain text file to translate")
	f.BoolVar(&printOut, "print", false, "print the stored translation when done")
	f.Int("workers", d.Workers, "generator goroutines")
	f.Int("batch-size", d.BatchSize, "sentences per database transaction")
	return cmd
}
