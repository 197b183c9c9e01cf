package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"linecalc/lang"
	"linecalc/rates"
)

var (
	offline   bool
	verbose   bool
	ratesURL  string
	cryptoURL string
)

var rootCmd = &cobra.Command{
	Use:   "linecalc [file]",
	Short: "linecalc — natural-language line calculator",
	Long: `linecalc evaluates each line of a document as a natural-language
calculation: arithmetic, variables, units, currencies, percentages, and
section aggregates (sum, average, count).

With a file argument the document is evaluated top to bottom and printed
with results; with no argument an interactive session starts.
`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		units := lang.NewUnitRegistry()
		var crypto lang.CryptoSource
		if !offline {
			provider := rates.NewProvider(ratesURL, log)
			provider.Start(cmd.Context(), 5*time.Minute)
			units.Rates = provider
			if cryptoURL != "" {
				crypto = rates.NewCryptoCache(cryptoURL, log)
			}
		}
		ev := lang.NewEvaluator(units, crypto)
		if len(args) == 1 {
			return evalFile(ev, args[0])
		}
		return runREPL(ev)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "use static exchange rates only")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&ratesURL, "rates-url", rates.DefaultFiatURL, "fiat rates endpoint")
	rootCmd.PersistentFlags().StringVar(&cryptoURL, "crypto-url", "", `crypto price endpoint (answers ?symbol= with {"usd": ...})`)
}

func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// evalFile evaluates a document top to bottom and prints each line with its
// result in a gutter on the right.
func evalFile(ev *lang.Evaluator, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")

	ev.Reset()
	results := make([]string, len(lines))
	width := 0
	for i, line := range lines {
		results[i] = lang.Format(ev.Evaluate(line))
		if len(line) > width {
			width = len(line)
		}
	}
	for i, line := range lines {
		if results[i] == "" {
			fmt.Println(line)
			continue
		}
		fmt.Printf("%-*s │ %s\n", width, line, results[i])
	}
	return nil
}
