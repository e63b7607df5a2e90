package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/solaiys/MIOpen/internal/solver"
)

// solversCommand prints the static solver catalog.
func solversCommand() *cli.Command {
	return &cli.Command{
		Name:  "solvers",
		Usage: "List the registered convolution solvers",
		Action: func(c *cli.Context) error {
			fmt.Printf("%-6s %-36s %-14s %-8s %s\n", "ID", "NAME", "ALGORITHM", "DYNAMIC", "SEARCH")
			for _, id := range solver.GetSolversByPrimitive(solver.PrimitiveConvolution) {
				s, err := id.Solver()
				if err != nil {
					return err
				}
				fmt.Printf("%-6d %-36s %-14s %-8t %t\n",
					id.Value(), s.Name(), s.Algo(), s.IsDynamic(), s.RequiresSearch())
			}
			return nil
		},
	}
}
