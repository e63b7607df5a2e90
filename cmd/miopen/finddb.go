package main

import (
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/solaiys/MIOpen/internal/config"
	"github.com/solaiys/MIOpen/internal/finddb"
)

// finddbCommand inspects the persisted find-database.
func finddbCommand(cfg **config.Config, log **zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "finddb",
		Usage: "Inspect the persisted find-database",
		Subcommands: []*cli.Command{
			{
				Name:  "keys",
				Usage: "List the network configs with stored results",
				Action: func(c *cli.Context) error {
					db := openDb(*cfg, *log)
					keys := db.Keys()
					sort.Strings(keys)
					for _, k := range keys {
						fmt.Println(k)
					}
					return nil
				},
			},
			{
				Name:      "show",
				Usage:     "Print the stored record for a network config",
				ArgsUsage: "<network-config>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("expected exactly one network config")
					}
					db := openDb(*cfg, *log)
					rec, ok := db.Lookup(c.Args().First())
					if !ok {
						return fmt.Errorf("no record for %q", c.Args().First())
					}
					names := make([]string, 0, len(rec))
					for name := range rec {
						names = append(names, name)
					}
					sort.Slice(names, func(i, j int) bool {
						return rec[names[i]].Time < rec[names[j]].Time
					})
					fmt.Printf("%-36s %-34s %12s %12s\n", "SOLVER", "ALGORITHM", "TIME (ms)", "WORKSPACE")
					for _, name := range names {
						e := rec[name]
						fmt.Printf("%-36s %-34s %12.4f %12d\n", name, e.Algorithm, e.Time, e.Workspace)
					}
					return nil
				},
			},
		},
	}
}

func openDb(cfg *config.Config, log *zap.Logger) *finddb.DB {
	return finddb.New(cfg.Find.DbPath, log)
}
