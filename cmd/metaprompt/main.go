// Command metaprompt runs meta-prompting experiments over JSONL benchmark
// datasets from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "metaprompt",
		Short:         "Meta-prompting orchestration over benchmark tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Provider keys come from the environment; a local .env is
			// a convenience, its absence is not an error.
			_ = godotenv.Load()
		},
	}
	root.AddCommand(newRunCmd())
	return root
}
