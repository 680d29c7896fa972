package main

import (
	"database/sql"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/japaniel/conlang/pkg/db"
)

func newVocabCmd(a *app) *cobra.Command {
	var name string
	var limit int
	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "List the vocabulary stored for a language",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				l, _, err := a.loadLanguage()
				if err != nil {
					return err
				}
				name = l.Name
			}
			conn, err := db.Open(a.cfg.DB)
			if err != nil {
				return err
			}
			defer conn.Close()

			lang, err := db.GetLanguage(conn, name)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("language %q has not been used for translation yet", name)
			}
			if err != nil {
				return err
			}
			entries, err := db.ListVocabulary(conn, lang.ID)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WORD\tOUTPUT\tCOUNT")
			for i, e := range entries {
				if limit > 0 && i >= limit {
					break
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\n", e.Word, e.Output, e.OccurrenceCount)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "language name (defaults to the name in --language)")
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many words")
	return cmd
}
