package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/japaniel/conlang/pkg/language"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check [file]",
		Short: "Validate a language file as if it were strict",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Language
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("no language file given")
			}
			def, err := language.DecodeFile(path)
			if err != nil {
				return err
			}
			def.Strict = true
			l, err := language.Build(def, a.logger)
			var ve *language.ValidationError
			if errors.As(err, &ve) {
				for _, p := range ve.Problems {
					fmt.Fprintf(a.out, "%s: %s\n", path, p)
				}
				return fmt.Errorf("%s: %d problem(s)", path, len(ve.Problems))
			}
			if err != nil {
				return err
			}
			if err := a.registerEstimators(l); err != nil {
				return err
			}
			if _, err := l.NewGenerator(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s: ok (%s: %d letters, %d syllables, %d construction rules)\n",
				path, l.Name, len(l.Model.Alphabet.Letters()), len(l.Model.Syllables), len(def.Construction))
			return nil
		},
	}
}
