package main

import (
	"os"

	"github.com/asmkit/multik/internal/build"
	"github.com/asmkit/multik/internal/cmd"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   build.Slug,
	Short: "Multik runs a de Bruijn graph assembler over a series of k-mer sizes",
	Long: `Multik runs a de Bruijn graph assembler over a series of k-mer sizes.

Each pass assembles with one k, seeded with the contigs of the previous
pass. The schedule is cut short when k outgrows the estimated read length,
and interrupted runs can be continued or restarted from any pass.
`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(cmd.Run())
	rootCmd.AddCommand(cmd.Plan())
	rootCmd.AddCommand(cmd.Version())
}
