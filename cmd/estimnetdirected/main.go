// Command estimnetdirected estimates Exponential Random Graph Model
// parameters for a directed network using the Equilibrium Expectation
// algorithm.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "estimnetdirected",
		Short: "ERGM parameter estimation for directed networks",
		Long: `estimnetdirected estimates Exponential Random Graph Model parameters
for a directed network by MCMC simulation with the Equilibrium
Expectation algorithm: a bootstrap phase (Algorithm S) seeds the
parameters and adaptive step sizes, then the main phase (Algorithm EE)
refines them with persisted sampler moves.`,
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newEstimateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("estimnetdirected version %s\n", version)
		},
	}
}
