// automod clean [--dry-run]
package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/qobs-build/automod/internal/clean"
	"github.com/qobs-build/automod/internal/msg"
	"github.com/spf13/cobra"
)

var flagDryRun bool

func doClean(cmd *cobra.Command, args []string) {
	removed, err := clean.Clean(flagRootDir, flagDryRun)
	if err != nil {
		msg.Fatal("clean %s: %v", flagRootDir, err)
	}

	verb := color.HiRedString("Removed")
	if flagDryRun {
		verb = color.YellowString("Would remove")
	}
	for _, rel := range removed {
		fmt.Printf("%s %s\n", verb, rel)
	}
	if len(removed) == 0 {
		msg.Info("nothing to clean")
	}
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove git-ignored files and empty directories",
	Long: `Remove every untracked, git-ignored file and every empty directory, so the
tree holds only what is or would be committed. Run autoreconf and configure again
afterwards.`,
	Args: cobra.NoArgs,
	Run:  doClean,
}

func init() {
	// automod clean subcommand
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolVarP(&flagDryRun, "dry-run", "n", false, "Only print what would be removed")
}
