package main

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/vango-dev/reflux/pkg/reactive"
	"github.com/vango-dev/reflux/pkg/vdom"
)

// board is the demo application: a titled, keyed list of scored rows with
// a derived total. It is mutated one random step at a time.
type board struct {
	state *reactive.Object
	rows  *reactive.Array
	total *reactive.Computed[int]

	rnd  *rand.Rand
	next int
}

func newBoard(rt *reactive.Runtime, items int, seed uint64) *board {
	raw := make([]any, 0, items)
	b := &board{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
	for range items {
		raw = append(raw, b.newRow())
	}

	b.state = rt.Reactive(map[string]any{"title": "board", "steps": 0})
	b.rows = rt.ReactiveArray(&raw)
	b.total = reactive.NewComputed(rt, func() int {
		sum := 0
		b.rows.Range(func(_ int, v any) bool {
			sum += v.(*reactive.Object).Get("score").(int)
			return true
		})
		return sum
	}, reactive.ComputedName("total"))
	return b
}

func (b *board) newRow() map[string]any {
	b.next++
	return map[string]any{
		"id":    fmt.Sprintf("r%d", b.next),
		"label": fmt.Sprintf("row %d", b.next),
		"score": b.rnd.IntN(10),
	}
}

// Name implements vdom.Namer.
func (b *board) Name() string { return "Board" }

// Render implements vdom.Component.
func (b *board) Render(*vdom.Instance) *vdom.Node {
	var rows []*vdom.Node
	b.rows.Range(func(_ int, v any) bool {
		row := v.(*reactive.Object)
		rows = append(rows, vdom.Comp(rowView, vdom.Props{
			"label": row.Get("label"),
			"score": row.Get("score"),
		}).WithKey(row.Get("id")))
		return true
	})

	return vdom.Section(vdom.ID("board"),
		vdom.H1(vdom.Textf("%v", b.state.Get("title"))),
		vdom.P(vdom.Class("total"), vdom.Textf("total %d", b.total.Get())),
		vdom.Ul(rows),
	)
}

var rowView = vdom.ComponentFunc(func(inst *vdom.Instance) *vdom.Node {
	p := inst.Props()
	return vdom.Li(
		vdom.Data("score", fmt.Sprint(p["score"])),
		vdom.Textf("%v: %v", p["label"], p["score"]),
	)
})

// Step applies one random mutation and describes it.
func (b *board) Step() string {
	n := len(*b.rows.Raw())
	steps := b.state.Get("steps").(int) + 1
	b.state.Set("steps", steps)

	switch op := b.rnd.IntN(7); {
	case n == 0 || op == 0:
		row := b.newRow()
		b.rows.Append(row)
		return fmt.Sprintf("append %s", row["id"])

	case op == 1 && n > 2:
		i := b.rnd.IntN(n)
		removed := b.rows.RemoveAt(i).(*reactive.Object)
		return fmt.Sprintf("remove %s", removed.Get("id"))

	case op == 2 && n > 1:
		i, j := b.rnd.IntN(n), b.rnd.IntN(n)
		b.rows.Swap(i, j)
		return fmt.Sprintf("swap %d %d", i, j)

	case op == 3:
		rows := b.rows.Slice()
		b.rows.Replace(append([]any{rows[n-1]}, rows[:n-1]...)...)
		return "rotate"

	case op == 4:
		rows := b.rows.Slice()
		slices.Reverse(rows)
		b.rows.Replace(rows...)
		return "reverse"

	case op == 5:
		b.state.Set("title", fmt.Sprintf("board #%d", steps))
		return "retitle"

	default:
		row := b.rows.At(b.rnd.IntN(n)).(*reactive.Object)
		row.Set("score", row.Get("score").(int)+1)
		return fmt.Sprintf("bump %s", row.Get("id"))
	}
}
