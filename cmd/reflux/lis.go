package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reflux/pkg/vdom"
)

func lisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lis N...",
		Short: "Print the longest increasing subsequence",
		Long: `Print the positions and values of the longest strictly increasing
subsequence, as used to decide which children stay in place. Zeros mark
new children and are skipped.

Example:
  reflux lis 2 3 1 5 6 8 7 9 4`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq := make([]int, len(args))
			for i, a := range args {
				n, err := strconv.Atoi(a)
				if err != nil {
					return usageError("%q is not an integer", a)
				}
				if n < 0 {
					return usageError("%d is negative", n)
				}
				seq[i] = n
			}

			positions := vdom.Sequence(seq)
			values := make([]int, len(positions))
			for i, p := range positions {
				values[i] = seq[p]
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "positions: %v\n", positions)
			fmt.Fprintf(out, "values:    %v\n", values)
			return nil
		},
	}
}
