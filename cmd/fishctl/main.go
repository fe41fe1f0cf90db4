package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	cmd := newRootCmd(os.Stdout)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "fishctl",
		Short:         "Fish farm calculator and pond reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "Env file with FARM_API_* settings (default .env)")

	root.AddCommand(newPreviewCmd())
	root.AddCommand(newReportCmd(&envFile))
	root.AddCommand(newFcrAnalysisCmd(&envFile))
	root.AddCommand(newStocksCmd(&envFile))
	return root
}
