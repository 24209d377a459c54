package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reflux/pkg/reactive"
	"github.com/vango-dev/reflux/pkg/vdom"
	"github.com/vango-dev/reflux/pkg/vtest"
)

func diffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Reconcile two keyed lists",
		Long: `Render a keyed list, re-render it with a new key order and print the
host operations the reconciler issued.

Keys are comma-separated.

Examples:
  reflux diff a,b,c,d,e a,c,b,e,d
  reflux diff a,b,c a,x,c`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			before, after := splitKeys(args[0]), splitKeys(args[1])
			if err := checkUnique(before); err != nil {
				return err
			}
			if err := checkUnique(after); err != nil {
				return err
			}

			result := diffLists(before, after)
			out := cmd.OutOrStdout()
			for _, op := range result.ops {
				fmt.Fprintf(out, "  %s\n", op)
			}
			fmt.Fprintf(out, "%d ops: %d created, %d removed, %d moved\n",
				len(result.ops), result.created, result.removed, len(result.moves))
			fmt.Fprintln(out, result.markup)
			return nil
		},
	}
	return cmd
}

type diffResult struct {
	ops     []vtest.Op
	moves   []string
	created int
	removed int
	markup  string
}

func diffLists(before, after []string) diffResult {
	rt := reactive.New()
	host := vtest.New()
	root := host.Container("root")
	r := vdom.NewRenderer(rt, host)

	r.Render(keyedList(before), root)
	host.Reset()
	r.Render(keyedList(after), root)

	return diffResult{
		ops:     host.Ops(),
		moves:   host.Moves(),
		created: host.Count(vdom.OpCreateElement),
		removed: host.Count(vdom.OpRemove),
		markup:  vtest.Serialize(root),
	}
}

func keyedList(keys []string) *vdom.Node {
	return vdom.Ul(vdom.Range(keys, func(_ int, k string) *vdom.Node {
		return vdom.Li(vdom.Key(k), k)
	}))
}

func splitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func checkUnique(keys []string) error {
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			return usageError("duplicate key %q", k)
		}
		seen[k] = true
	}
	return nil
}
