package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reflux/pkg/reactive"
	"github.com/vango-dev/reflux/pkg/vdom"
	"github.com/vango-dev/reflux/pkg/vtest"
)

func demoCmd(opts *globalOptions) *cobra.Command {
	var (
		steps   int
		items   int
		seed    uint64
		showOps bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted reactive board in memory",
		Long: `Mount the demo board on an in-memory host, apply random mutations
and print the resulting tree and host operations after each step.

Examples:
  reflux demo
  reflux demo --steps=20 --items=8 --ops`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if items <= 0 {
				items = cfg.Serve.Items
			}

			logger := newLogger(cfg, os.Stderr)
			rt := reactive.New(runtimeOptions(cfg, logger)...)
			host := vtest.New()
			root := host.Container("root")
			r := vdom.NewRenderer(rt, host, vdom.WithRendererLogger(logger))
			b := newBoard(rt, items, seed)

			rt.Run(func() { r.Mount(b, nil, root) })
			printBanner()
			info("mounted %d rows with %d ops", items, len(host.Ops()))
			info("%s", vtest.Serialize(root))
			fmt.Println()

			for i := 1; i <= steps; i++ {
				host.Reset()
				var what string
				rt.Run(func() { what = b.Step() })

				success("step %d: %s (%d ops, %d moves)", i, what, len(host.Ops()), len(host.Moves()))
				if showOps {
					for _, op := range host.Ops() {
						info("  %s", op)
					}
				}
				info("%s", vtest.Serialize(root))
			}

			stats := rt.Stats()
			fmt.Println()
			info("graph: %d targets, %d deps", stats.Targets, stats.Deps)
			return nil
		},
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 10, "Number of mutations to apply")
	cmd.Flags().IntVar(&items, "items", 0, "Initial rows (default from reflux.json)")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "Random seed")
	cmd.Flags().BoolVar(&showOps, "ops", false, "Print every host operation")

	return cmd
}
