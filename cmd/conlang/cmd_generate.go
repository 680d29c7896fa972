package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/japaniel/conlang/pkg/construct"
)

func newGenerateCmd(a *app) *cobra.Command {
	var trace bool
	cmd := &cobra.Command{
		Use:   "generate [text...]",
		Short: "Generate text; reads lines from stdin when no text is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, _, err := a.loadLanguage()
			if err != nil {
				return err
			}
			g, err := l.NewGenerator()
			if err != nil {
				return err
			}

			var lines []string
			if len(args) > 0 {
				lines = []string{strings.Join(args, " ")}
			} else {
				sc := bufio.NewScanner(a.in)
				sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
				for sc.Scan() {
					lines = append(lines, sc.Text())
				}
				if err := sc.Err(); err != nil {
					return fmt.Errorf("read input: %w", err)
				}
			}

			prepare, err := a.segmenter(strings.Join(lines, "\n"))
			if err != nil {
				return err
			}
			for _, line := range lines {
				if prepare != nil {
					line = prepare(line)
				}
				res, err := g.Generate(line)
				if err != nil {
					return err
				}
				for _, e := range res.Errors {
					a.logger.Warn("word failed", "err", e)
				}
				if trace {
					if err := writeTrace(a, res); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintln(a.out, res.Output)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&trace, "trace", false, "print the per-word trace as JSON")
	return cmd
}

func writeTrace(a *app, res *construct.Result) error {
	data, err := json.MarshalIndent(res.Trace(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, string(data))
	return nil
}
