// automod [--check]
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/qobs-build/automod/internal/builder"
	"github.com/qobs-build/automod/internal/msg"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
)

var (
	flagRootDir string
	flagCheck   bool
	flagVerbose bool
)

func doGenerate(cmd *cobra.Command, args []string) {
	b, err := builder.NewBuilderInDirectory(flagRootDir)
	if err != nil {
		msg.Fatal("%v", err)
	}

	if flagCheck {
		doCheck(b)
		return
	}

	changed, err := b.Generate()
	if err != nil {
		msg.Fatal("%v", err)
	}
	if changed {
		msg.Info("wrote %s", b.OutputPath())
	} else {
		msg.Info("%s is up to date", b.OutputPath())
	}
}

func doCheck(b *builder.Builder) {
	current, rendered, upToDate, err := b.Check()
	if err != nil {
		msg.Fatal("%v", err)
	}
	if upToDate {
		msg.Info("%s is up to date", b.OutputPath())
		return
	}

	msg.Error("%s is out of date", b.OutputPath())
	printDiff(current, rendered)
	os.Exit(1)
}

// printDiff prints a line diff between the old and new descriptor to stderr
func printDiff(before, after string) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	w := &msg.IndentWriter{Indent: "  ", W: os.Stderr}
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			continue
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				fmt.Fprintln(w, color.GreenString("+"+line))
			case diffmatchpatch.DiffDelete:
				fmt.Fprintln(w, color.RedString("-"+line))
			}
		}
	}
}

var rootCmd = &cobra.Command{
	Use:   "automod",
	Short: "Generate Makefile.am from module descriptors",
	Long: `Generate Makefile.am from the module descriptors under src/ and the
unit test suites under tests/, including CMock mocks and Unity test runners.`,
	Args: cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		msg.Verbose = flagVerbose
	},
	Run: doGenerate,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagRootDir, "root-dir", "C", ".", "The project root directory")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Print what is discovered")
	rootCmd.Flags().BoolVar(&flagCheck, "check", false, "Do not write; fail with a diff if the descriptor is out of date")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
