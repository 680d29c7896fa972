// Command conlang generates constructed-language text from a TOML language
// definition and translates whole documents into a sqlite store.
package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/zeebo/blake3"

	"github.com/japaniel/conlang/pkg/construct"
	"github.com/japaniel/conlang/pkg/document"
	"github.com/japaniel/conlang/pkg/language"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app carries what every subcommand shares.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	cfgFile string
	cfg     Config
	logger  *log.Logger

	analyzerOnce sync.Once
	analyzer     *document.Analyzer
	analyzerErr  error
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut}
	d := DefaultConfig()

	root := &cobra.Command{
		Use:           "conlang",
		Short:         "Deterministic constructed-language text generator",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(viper.New(), a.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			level, err := log.ParseLevel(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("log level: %w", err)
			}
			a.logger = log.NewWithOptions(a.errOut, log.Options{Prefix: "conlang", Level: level})
			return nil
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is ./conlang.toml)")
	pf.StringP("language", "l", d.Language, "language definition file")
	pf.String("db", d.DB, "path to SQLite database")
	pf.String("log-level", d.LogLevel, "debug, info, warn or error")
	pf.String("segment", d.Segment, "Japanese word segmentation: auto, on or off")

	root.AddCommand(
		newGenerateCmd(a),
		newTranslateCmd(a),
		newVocabCmd(a),
		newCheckCmd(a),
	)
	return root
}

// loadLanguage reads the configured language file and returns it with the
// BLAKE3 hash of its source.
func (a *app) loadLanguage() (*language.Language, string, error) {
	path := a.cfg.Language
	if path == "" {
		return nil, "", fmt.Errorf("no language file: pass --language or set CONLANG_LANGUAGE")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read language: %w", err)
	}
	def, err := language.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	l, err := language.Build(def, a.logger)
	if err != nil {
		return nil, "", err
	}
	sum := blake3.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	if err := a.registerEstimators(l); err != nil {
		return nil, "", err
	}
	return l, hash, nil
}

// registerEstimators adds the kagome mora counter when the language asks
// for it.
func (a *app) registerEstimators(l *language.Language) error {
	if !strings.EqualFold(l.Definition.Options.Estimator, "mora") {
		return nil
	}
	an, err := a.getAnalyzer()
	if err != nil {
		return err
	}
	l.Estimators["mora"] = an.MoraEstimator(construct.EnglishSyllables)
	return nil
}

// getAnalyzer loads the kagome dictionary on first use.
func (a *app) getAnalyzer() (*document.Analyzer, error) {
	a.analyzerOnce.Do(func() {
		a.logger.Debug("loading Japanese tokenizer")
		a.analyzer, a.analyzerErr = document.NewAnalyzer()
	})
	return a.analyzer, a.analyzerErr
}

// segmenter returns the sentence rewrite to apply before generation, or nil.
func (a *app) segmenter(sample string) (func(string) string, error) {
	switch a.cfg.Segment {
	case "off":
		return nil, nil
	case "auto":
		if !document.ContainsJapanese(sample) {
			return nil, nil
		}
	}
	an, err := a.getAnalyzer()
	if err != nil {
		return nil, err
	}
	return an.Segment, nil
}
