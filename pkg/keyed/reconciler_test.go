package keyed

import (
	"math/rand/v2"
	"runtime"
	"slices"
	"strings"
	"testing"
	"time"

	klerrors "github.com/vango-dev/keyedlist/internal/errors"
	"github.com/vango-dev/keyedlist/pkg/cell"
	"github.com/vango-dev/keyedlist/pkg/dom"
	"github.com/vango-dev/keyedlist/pkg/lifecycle"
)

func li(s string) *dom.Node {
	n := dom.NewElement("li")
	n.Append(dom.NewText(s))
	return n
}

func renderString(s string, _ *cell.Cell[int], _ Source[string]) any {
	return li(s)
}

var byValue = WithKeyFunc(func(v any) any { return v })

// texts returns the text of every element child of parent.
func texts(parent *dom.Node) []string {
	var out []string
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Type == dom.ElementNode {
			out = append(out, c.TextContent())
		}
	}
	return out
}

type events struct {
	moves   [][]*dom.Node
	removed []*dom.Node
	indexes []int
	log     []string
}

func (e *events) options() []Option {
	return []Option{
		OnBeforeNodesMove(func(nodes []*dom.Node) {
			e.moves = append(e.moves, nodes)
			e.log = append(e.log, "move:"+nodes[0].TextContent())
		}),
		OnBeforeNodeRemove(func(n *dom.Node, lastIndex int) {
			e.removed = append(e.removed, n)
			e.indexes = append(e.indexes, lastIndex)
			e.log = append(e.log, "remove:"+n.TextContent())
		}),
	}
}

func mounted(t *testing.T, items []string, opts ...Option) (*cell.Cell[[]string], *Reconciler[string], *dom.Node) {
	t.Helper()
	src := cell.New(items)
	r, err := New[string](src, renderString, append([]Option{byValue}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	root := dom.NewElement("ul")
	r.Mount(root)
	return src, r, root
}

func nodesByKey(r *Reconciler[string]) map[string]*dom.Node {
	out := make(map[string]*dom.Node)
	for _, row := range r.Rows() {
		out[row.Nodes[0].TextContent()] = row.Nodes[0]
	}
	return out
}

func TestNewRendersBetweenMarkers(t *testing.T) {
	_, r, root := mounted(t, []string{"a", "b", "c"})

	nodes := r.Nodes()
	if len(nodes) != 5 {
		t.Fatalf("len(Nodes()) = %d, want 5", len(nodes))
	}
	start, end := r.Markers()
	if nodes[0] != start || nodes[4] != end {
		t.Error("region should be bracketed by its markers")
	}
	if start.Type != dom.CommentNode || start.Data != "" || end.Type != dom.CommentNode || end.Data != "" {
		t.Error("markers should be empty comments")
	}
	if root.FirstChild() != start || root.LastChild() != end {
		t.Error("Mount() should append the whole region")
	}
	if got := texts(root); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("order = %v", got)
	}
	for i, row := range r.Rows() {
		if row.Index.Get() != i {
			t.Errorf("row %d index = %d", i, row.Index.Get())
		}
	}
}

func TestIdentityStability(t *testing.T) {
	_, r, root := mounted(t, []string{"a", "b", "c"})
	before := nodesByKey(r)
	indexes := make(map[string]*cell.Cell[int])
	for _, row := range r.Rows() {
		indexes[row.Nodes[0].TextContent()] = row.Index
	}

	if _, err := r.Update([]string{"c", "a", "d", "b"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if got := texts(root); !slices.Equal(got, []string{"c", "a", "d", "b"}) {
		t.Fatalf("order = %v", got)
	}
	after := nodesByKey(r)
	for _, k := range []string{"a", "b", "c"} {
		if before[k] != after[k] {
			t.Errorf("row %q was re-rendered", k)
		}
		if after[k].Parent() != root {
			t.Errorf("row %q not in tree", k)
		}
	}
	want := map[string]int{"c": 0, "a": 1, "b": 3}
	for k, i := range want {
		if got := indexes[k].Get(); got != i {
			t.Errorf("index of %q = %d, want %d", k, got, i)
		}
	}
}

func TestSingleMoveIsOneRelocation(t *testing.T) {
	base := []string{"A", "B", "C", "D", "E"}
	for from := range base {
		for to := range base {
			if from == to {
				continue
			}
			next := slices.Clone(base)
			item := next[from]
			next = slices.Delete(next, from, from+1)
			next = slices.Insert(next, to, item)

			t.Run(strings.Join(next, ""), func(t *testing.T) {
				ev := &events{}
				_, r, root := mounted(t, base, ev.options()...)
				before := nodesByKey(r)

				st, err := r.Update(next)
				if err != nil {
					t.Fatalf("Update() error = %v", err)
				}
				if len(ev.moves) != 1 || st.Moved != 1 {
					t.Fatalf("moves = %d (stats %d), want 1", len(ev.moves), st.Moved)
				}
				// The callback reports the row being placed: the first
				// one whose position changed.
				first := 0
				for base[first] == next[first] {
					first++
				}
				if ev.moves[0][0] != before[next[first]] {
					t.Errorf("move callback got %v, want %s", ev.moves[0][0], next[first])
				}
				if st.Inserted != 0 || st.Removed != 0 {
					t.Errorf("stats = %+v", st)
				}
				if got := texts(root); !slices.Equal(got, next) {
					t.Errorf("order = %v, want %v", got, next)
				}
				for k, n := range nodesByKey(r) {
					if before[k] != n {
						t.Errorf("row %q was re-rendered", k)
					}
				}
			})
		}
	}
}

func TestPureAppend(t *testing.T) {
	ev := &events{}
	_, r, root := mounted(t, []string{"a", "b", "c"}, ev.options()...)

	st, err := r.Update([]string{"a", "b", "c", "d", "e"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if st.Inserted != 2 || st.Moved != 0 || st.Removed != 0 || st.Reused != 3 {
		t.Errorf("stats = %+v", st)
	}
	if len(ev.moves) != 0 || len(ev.removed) != 0 {
		t.Errorf("callbacks: %v", ev.log)
	}
	if got := texts(root); !slices.Equal(got, []string{"a", "b", "c", "d", "e"}) {
		t.Errorf("order = %v", got)
	}
	_, end := r.Markers()
	if root.LastChild() != end {
		t.Error("end marker should stay last")
	}
}

func TestPureRemoval(t *testing.T) {
	base := []string{"A", "B", "C", "D", "E"}
	for p := range base {
		t.Run(base[p], func(t *testing.T) {
			ev := &events{}
			_, r, root := mounted(t, base, ev.options()...)
			victim := nodesByKey(r)[base[p]]
			next := slices.Delete(slices.Clone(base), p, p+1)

			st, err := r.Update(next)
			if err != nil {
				t.Fatalf("Update() error = %v", err)
			}
			if len(ev.removed) != 1 || ev.removed[0] != victim || ev.indexes[0] != p {
				t.Errorf("removed = %v, indexes = %v", ev.log, ev.indexes)
			}
			if len(ev.moves) != 0 || st.Moved != 0 || st.Removed != 1 {
				t.Errorf("stats = %+v, callbacks = %v", st, ev.log)
			}
			if victim.Parent() != nil {
				t.Error("removed node still attached")
			}
			if got := texts(root); !slices.Equal(got, next) {
				t.Errorf("order = %v", got)
			}
		})
	}
}

func TestIdempotentUpdate(t *testing.T) {
	ev := &events{}
	_, r, _ := mounted(t, []string{"a", "b", "c"}, ev.options()...)

	for range 3 {
		st, err := r.Update([]string{"a", "b", "c"})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if st.Changed() {
			t.Errorf("stats = %+v, want no changes", st)
		}
	}
	if len(ev.log) != 0 {
		t.Errorf("callbacks = %v", ev.log)
	}
}

func TestRotateMovesOnlyTheHead(t *testing.T) {
	ev := &events{}
	_, r, root := mounted(t, []string{"A", "B", "C", "D", "E"}, ev.options()...)
	a, b := nodesByKey(r)["A"], nodesByKey(r)["B"]

	st, err := r.Update([]string{"B", "C", "D", "E", "A"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if st.Moved != 1 || len(ev.moves) != 1 {
		t.Fatalf("moves = %v", ev.log)
	}
	// A is relocated while placing B, so the callback reports B.
	if ev.moves[0][0] != b {
		t.Errorf("move callback got %v, want B", ev.moves[0][0])
	}
	if a.NextSibling() != r.end {
		t.Error("A should sit right before the end marker")
	}
	if got := texts(root); !slices.Equal(got, []string{"B", "C", "D", "E", "A"}) {
		t.Errorf("order = %v", got)
	}
	if nodesByKey(r)["A"] != a {
		t.Error("A was re-rendered")
	}
}

func TestRemoveHead(t *testing.T) {
	ev := &events{}
	_, r, root := mounted(t, []string{"A", "B", "C", "D", "E"}, ev.options()...)

	if _, err := r.Update([]string{"B", "C", "D", "E"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !slices.Equal(ev.log, []string{"remove:A"}) {
		t.Errorf("callbacks = %v", ev.log)
	}
	if got := texts(root); !slices.Equal(got, []string{"B", "C", "D", "E"}) {
		t.Errorf("order = %v", got)
	}
}

func TestInsertIntoEmptyRegion(t *testing.T) {
	ev := &events{}
	_, r, root := mounted(t, nil, ev.options()...)
	if len(r.Nodes()) != 2 {
		t.Fatalf("empty region should hold only its markers")
	}

	st, err := r.Update([]string{"X", "Y"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if st.Inserted != 2 || st.Moved != 0 || st.Removed != 0 {
		t.Errorf("stats = %+v", st)
	}
	start, end := r.Markers()
	kids := root.ChildNodes()
	if len(kids) != 4 || kids[0] != start || kids[3] != end {
		t.Fatalf("children = %v", kids)
	}
	if got := texts(root); !slices.Equal(got, []string{"X", "Y"}) {
		t.Errorf("order = %v", got)
	}
}

func TestEmptySequenceLeavesMarkers(t *testing.T) {
	_, r, root := mounted(t, []string{"a", "b"})

	st, err := r.Update(nil)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if st.Removed != 2 {
		t.Errorf("Removed = %d", st.Removed)
	}
	start, end := r.Markers()
	if kids := root.ChildNodes(); len(kids) != 2 || kids[0] != start || kids[1] != end {
		t.Errorf("children = %v", kids)
	}
}

func TestRemovalsRunBeforeMoves(t *testing.T) {
	ev := &events{}
	_, r, root := mounted(t, []string{"A", "B", "C"}, ev.options()...)

	if _, err := r.Update([]string{"C", "A"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !slices.Equal(ev.log, []string{"remove:B", "move:C"}) {
		t.Errorf("callbacks = %v", ev.log)
	}
	if got := texts(root); !slices.Equal(got, []string{"C", "A"}) {
		t.Errorf("order = %v", got)
	}
}

func TestSourceChangeTriggersCycle(t *testing.T) {
	src, r, root := mounted(t, []string{"a"})

	src.Set([]string{"b", "a"})
	if got := texts(root); !slices.Equal(got, []string{"b", "a"}) {
		t.Errorf("order = %v", got)
	}
	if st := r.LastStats(); st.Cycle != 1 || st.Inserted != 1 {
		t.Errorf("LastStats() = %+v", st)
	}

	src.Update(func(s []string) []string { return append(slices.Clone(s), "c") })
	if got := texts(root); !slices.Equal(got, []string{"b", "a", "c"}) {
		t.Errorf("order = %v", got)
	}
}

func TestZeroNodeRowsAreTransparent(t *testing.T) {
	render := func(s string, _ *cell.Cell[int], _ Source[string]) any {
		if strings.HasPrefix(s, "_") {
			return nil
		}
		return li(s)
	}
	src := cell.New([]string{"a", "_x", "b", "_y"})
	r, err := New[string](src, render, byValue)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	root := dom.NewElement("ul")
	r.Mount(root)

	steps := [][]string{
		{"b", "_x", "a"},
		{"_y", "a", "_x", "b", "c"},
		{"_x", "_y"},
		{"c", "_x", "a"},
	}
	for _, step := range steps {
		if _, err := r.Update(step); err != nil {
			t.Fatalf("Update(%v) error = %v", step, err)
		}
		var want []string
		for _, s := range step {
			if !strings.HasPrefix(s, "_") {
				want = append(want, s)
			}
		}
		if got := texts(root); !slices.Equal(got, want) {
			t.Errorf("Update(%v): order = %v, want %v", step, got, want)
		}
		if r.Len() != len(step) {
			t.Errorf("Len() = %d, want %d", r.Len(), len(step))
		}
	}
}

func TestRenderPanicAbortsCycle(t *testing.T) {
	render := func(s string, _ *cell.Cell[int], _ Source[string]) any {
		if s == "boom" {
			panic("exploded")
		}
		return li(s)
	}
	var handled []error
	src := cell.New([]string{"a", "b"})
	r, err := New[string](src, render, byValue, WithErrorHandler(func(err error) {
		handled = append(handled, err)
	}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	root := dom.NewElement("ul")
	r.Mount(root)

	_, err = r.Update([]string{"b", "boom", "a"})
	if !klerrors.HasCode(err, "E002") {
		t.Fatalf("Update() error = %v, want E002", err)
	}
	if got := texts(root); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("tree changed after failed cycle: %v", got)
	}
	if r.Err() == nil {
		t.Error("Err() should report the failed cycle")
	}

	src.Set([]string{"boom"})
	if len(handled) != 1 || !klerrors.HasCode(handled[0], "E002") {
		t.Errorf("handled = %v", handled)
	}

	if _, err := r.Update([]string{"b", "c"}); err != nil {
		t.Fatalf("Update() after failure error = %v", err)
	}
	if got := texts(root); !slices.Equal(got, []string{"b", "c"}) {
		t.Errorf("order = %v", got)
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v after successful cycle", r.Err())
	}
}

func TestNewPropagatesRenderPanic(t *testing.T) {
	render := func(int, *cell.Cell[int], Source[int]) any { panic("no") }
	if _, err := New[int](cell.New([]int{1}), render); !klerrors.HasCode(err, "E002") {
		t.Errorf("New() error = %v, want E002", err)
	}
}

func TestUnsupportedTemplateValue(t *testing.T) {
	render := func(int, *cell.Cell[int], Source[int]) any { return struct{}{} }
	if _, err := Static[int](Items[int]{1}, render); !klerrors.HasCode(err, "E001") {
		t.Errorf("Static() error = %v, want E001", err)
	}
}

func TestHandleSwap(t *testing.T) {
	_, r, root := mounted(t, []string{"a"})
	a := nodesByKey(r)["a"]

	old := r.Handle().Swap(func(s string, _ *cell.Cell[int], _ Source[string]) any {
		return li(strings.ToUpper(s))
	})
	if old == nil {
		t.Fatal("Swap() should return the previous function")
	}

	if _, err := r.Update([]string{"a", "b"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got := texts(root); !slices.Equal(got, []string{"a", "B"}) {
		t.Errorf("order = %v", got)
	}
	if root.ChildNodes()[1] != a {
		t.Error("existing row should be kept across a swap")
	}
}

type todo struct {
	ID    int
	Title string
}

func renderTodo(t todo, _ *cell.Cell[int], _ Source[todo]) any {
	return li(t.Title)
}

func TestWithKeyField(t *testing.T) {
	src := cell.New([]todo{{1, "one"}, {2, "two"}, {3, "three"}})
	r, err := New[todo](src, renderTodo, WithKey("ID"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	root := dom.NewElement("ul")
	r.Mount(root)
	first := root.ChildNodes()[1]

	src.Set([]todo{{3, "three"}, {2, "two"}, {1, "renamed"}})
	st := r.LastStats()
	if st.Reused != 3 || st.Inserted != 0 {
		t.Errorf("stats = %+v", st)
	}
	if got := texts(root); !slices.Equal(got, []string{"three", "two", "one"}) {
		t.Errorf("order = %v", got)
	}
	if root.ChildNodes()[3] != first {
		t.Error("row with the same ID should keep its nodes")
	}
}

func TestWithKeyMapEntry(t *testing.T) {
	render := func(m map[string]string, _ *cell.Cell[int], _ Source[map[string]string]) any {
		return li(m["name"])
	}
	src := cell.New([]map[string]string{{"id": "x", "name": "X"}, {"id": "y", "name": "Y"}})
	r, err := New[map[string]string](src, render, WithKey("id"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	root := dom.NewElement("ul")
	r.Mount(root)

	// Fresh maps with the same ids are the same rows.
	st, err := r.Update([]map[string]string{{"id": "y", "name": "Y"}, {"id": "x", "name": "X"}})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if st.Reused != 2 || st.Moved != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestMissingSelectedKeyFallsBack(t *testing.T) {
	a, b := &todo{Title: "a"}, &todo{Title: "b"}
	render := func(t *todo, _ *cell.Cell[int], _ Source[*todo]) any { return li(t.Title) }
	sel := WithKeyFunc(func(any) any { return nil })

	src := cell.New([]*todo{a, b})
	r, err := New[*todo](src, render, sel)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	st, err := r.Update([]*todo{b, a})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if st.Reused != 2 {
		t.Errorf("pointer items should fall back to instance identity: %+v", st)
	}
}

func TestPointerItemsKeyedByInstance(t *testing.T) {
	a, b := &todo{Title: "same"}, &todo{Title: "same"}
	render := func(t *todo, _ *cell.Cell[int], _ Source[*todo]) any { return li(t.Title) }

	src := cell.New([]*todo{a, b})
	r, err := New[*todo](src, render)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	root := dom.NewElement("ul")
	r.Mount(root)
	if r.Len() != 2 {
		t.Fatalf("equal pointees must stay distinct rows, Len() = %d", r.Len())
	}
	na, nb := root.ChildNodes()[1], root.ChildNodes()[2]

	st, err := r.Update([]*todo{b, a})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if st.Reused != 2 || st.Moved != 1 {
		t.Errorf("stats = %+v", st)
	}
	if root.ChildNodes()[1] != nb || root.ChildNodes()[2] != na {
		t.Error("rows should follow their items")
	}
	if a.Title != "same" || b.Title != "same" {
		t.Error("items must not be modified")
	}
}

func TestPrimitiveKeysIncludePosition(t *testing.T) {
	src := cell.New([]string{"a", "b"})
	r, err := New[string](src, renderString)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	root := dom.NewElement("ul")
	r.Mount(root)

	st, err := r.Update([]string{"b", "a"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if st.Inserted != 2 || st.Removed != 2 || st.Reused != 0 {
		t.Errorf("stats = %+v", st)
	}

	st, err = r.Update([]string{"b", "a", "c"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if st.Reused != 2 || st.Inserted != 1 {
		t.Errorf("stats = %+v", st)
	}
	if got := texts(root); !slices.Equal(got, []string{"b", "a", "c"}) {
		t.Errorf("order = %v", got)
	}
}

func TestDuplicateKeysKeepOneRow(t *testing.T) {
	_, r, root := mounted(t, []string{"a", "a", "b"})
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
	if _, err := r.Update([]string{"b", "a", "b"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got := texts(root); !slices.Equal(got, []string{"b", "a"}) {
		t.Errorf("order = %v", got)
	}
	assertIndexes(t, r)
}

func TestDuplicateKeyStaysAtFirstOccurrence(t *testing.T) {
	renders := 0
	src := cell.New([]string{"x"})
	r, err := New[string](src, func(s string, i *cell.Cell[int], l Source[string]) any {
		renders++
		return renderString(s, i, l)
	}, byValue)
	if err != nil {
		t.Fatal(err)
	}
	root := dom.NewElement("ul")
	r.Mount(root)

	st, err := r.Update([]string{"a", "b", "a"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got := texts(root); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("order = %v", got)
	}
	if renders != 3 {
		t.Errorf("renders = %d, want 3 (x, a, b)", renders)
	}
	if st.Inserted != 2 || st.Removed != 1 {
		t.Errorf("stats = %+v", st)
	}
	assertIndexes(t, r)

	// The surviving row is reused and keeps its first position.
	a := r.Rows()[0].Nodes[0]
	if _, err := r.Update([]string{"b", "a", "b", "a"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got := texts(root); !slices.Equal(got, []string{"b", "a"}) {
		t.Errorf("order = %v", got)
	}
	if r.Rows()[1].Nodes[0] != a {
		t.Error("a was re-rendered")
	}
	assertIndexes(t, r)
}

func assertIndexes(t *testing.T, r *Reconciler[string]) {
	t.Helper()
	for i, row := range r.Rows() {
		if got := row.Index.Get(); got != i {
			t.Errorf("row %s index = %d, want %d", row.Key, got, i)
		}
	}
}

func TestStaticMode(t *testing.T) {
	nodes, err := For[string](Items[string]{"a", "b"}, renderString)
	if err != nil {
		t.Fatalf("For() error = %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("len = %d, want 2 (no markers)", len(nodes))
	}
	for i, n := range nodes {
		if n.Type != dom.ElementNode {
			t.Errorf("node %d = %v", i, n)
		}
	}
}

func TestForReactive(t *testing.T) {
	src := cell.New([]string{"a"})
	nodes, err := For[string](src, renderString)
	if err != nil {
		t.Fatalf("For() error = %v", err)
	}
	if len(nodes) != 3 || nodes[0].Type != dom.CommentNode || nodes[2].Type != dom.CommentNode {
		t.Fatalf("nodes = %v", nodes)
	}
	root := dom.NewElement("ul")
	root.Append(nodes...)

	src.Set([]string{"a", "b"})
	if got := texts(root); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("order = %v", got)
	}
}

func TestRowsAreLinked(t *testing.T) {
	src := cell.New([]string{"a"})
	r, err := New[string](src, renderString)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	row := r.Rows()[0]
	b := lifecycle.BindingOf(row.Nodes[0])
	if b == nil {
		t.Fatal("node should carry a binding")
	}
	if b.Fn == nil || len(b.Args) != 3 || b.Args[0] != "a" || b.Args[1] != row.Index {
		t.Errorf("binding = %+v", b)
	}

	var linked int
	counting := lifecycle.LinkerFunc(func(nodes []*dom.Node, _ any, _ lifecycle.Args) { linked += len(nodes) })
	if _, err := Static[string](Items[string]{"x", "y"}, renderString, WithLinker(counting)); err != nil {
		t.Fatalf("Static() error = %v", err)
	}
	if linked != 2 {
		t.Errorf("linked = %d, want 2", linked)
	}
}

func TestObserversSeeEveryCycle(t *testing.T) {
	var seen []Stats
	var regions []string
	obs := ObserverFunc(func(region string, s Stats, err error) {
		regions = append(regions, region)
		seen = append(seen, s)
	})
	_, r, _ := mounted(t, []string{"a"}, WithObserver(obs), WithName("todos"))

	if _, err := r.Update([]string{"b", "a"}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Update([]string{"a"}); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 || seen[0].Cycle != 1 || seen[1].Cycle != 2 {
		t.Fatalf("seen = %+v", seen)
	}
	if seen[0].Inserted != 1 || seen[1].Removed != 1 {
		t.Errorf("seen = %+v", seen)
	}
	if regions[0] != "todos" {
		t.Errorf("region = %q", regions[0])
	}
}

func TestDetachedRegion(t *testing.T) {
	src := cell.New([]string{"a"})
	r, err := New[string](src, renderString, byValue)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.Update([]string{"b", "a"}); err != nil {
		t.Fatalf("Update() on detached region error = %v", err)
	}
	root := dom.NewElement("ul")
	r.Mount(root)
	if got := texts(root); !slices.Equal(got, []string{"b", "a"}) {
		t.Errorf("order = %v", got)
	}

	if _, err := r.Update([]string{"a", "c", "b"}); err != nil {
		t.Fatal(err)
	}
	if got := texts(root); !slices.Equal(got, []string{"a", "c", "b"}) {
		t.Errorf("order = %v", got)
	}
}

func TestDispose(t *testing.T) {
	src, r, root := mounted(t, []string{"a"})
	r.Dispose()
	r.Dispose()

	src.Set([]string{"b"})
	if got := texts(root); !slices.Equal(got, []string{"a"}) {
		t.Errorf("disposed region changed: %v", got)
	}
	if _, err := r.Update([]string{"c"}); err != ErrDisposed {
		t.Errorf("Update() error = %v, want ErrDisposed", err)
	}
	if src.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d", src.Subscribers())
	}
	start, _ := r.Markers()
	if start.HasPins() {
		t.Error("start marker still pinned")
	}
}

func collect(cond func() bool) bool {
	for range 10 {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
		if cond() {
			return true
		}
	}
	return false
}

func TestDiscardedRegionIsCollected(t *testing.T) {
	src := cell.New([]string{"a"})
	func() {
		if _, err := For[string](src, renderString); err != nil {
			t.Fatal(err)
		}
	}()
	if !collect(func() bool { return src.Subscribers() == 0 }) {
		t.Error("subscription of a discarded region should be collected")
	}
}

func TestMountedRegionIsRetained(t *testing.T) {
	src := cell.New([]string{"a"})
	root := dom.NewElement("ul")
	func() {
		nodes, err := For[string](src, renderString, byValue)
		if err != nil {
			t.Fatal(err)
		}
		root.Append(nodes...)
	}()
	collect(func() bool { return false })

	if src.Subscribers() != 1 {
		t.Fatalf("Subscribers() = %d, want 1", src.Subscribers())
	}
	src.Set([]string{"b", "a"})
	if got := texts(root); !slices.Equal(got, []string{"b", "a"}) {
		t.Errorf("order = %v", got)
	}
	runtime.KeepAlive(root)
}

func TestRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	pool := strings.Split("abcdefghijklmnop", "")

	_, r, root := mounted(t, nil)
	known := make(map[string]*dom.Node)
	for step := range 200 {
		var next []string
		for _, i := range rng.Perm(len(pool))[:rng.IntN(len(pool)+1)] {
			next = append(next, pool[i])
		}
		if _, err := r.Update(next); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		if got := texts(root); !slices.Equal(got, next) {
			t.Fatalf("step %d: order = %v, want %v", step, got, next)
		}
		current := nodesByKey(r)
		for k, n := range current {
			if old, ok := known[k]; ok && old.Parent() != nil && old != n {
				t.Fatalf("step %d: row %q re-rendered while live", step, k)
			}
		}
		for k := range known {
			if _, ok := current[k]; !ok {
				delete(known, k)
			}
		}
		for k, n := range current {
			known[k] = n
		}
		for i, row := range r.Rows() {
			if row.Index.Get() != i {
				t.Fatalf("step %d: index of row %d = %d", step, i, row.Index.Get())
			}
		}
	}
}

func renderPair(s string, _ *cell.Cell[int], _ Source[string]) any {
	return []*dom.Node{li(s + "1"), li(s + "2")}
}

func TestRandomMultiNodeSequences(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	pool := strings.Split("abcdefghijkl", "")

	var moved [][]*dom.Node
	removed := make(map[*dom.Node]int)
	src := cell.New[[]string](nil)
	r, err := New[string](src, renderPair, byValue,
		OnBeforeNodesMove(func(nodes []*dom.Node) { moved = append(moved, nodes) }),
		OnBeforeNodeRemove(func(n *dom.Node, _ int) { removed[n]++ }),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	root := dom.NewElement("ul")
	r.Mount(root)

	for step := range 200 {
		var next []string
		for _, i := range rng.Perm(len(pool))[:rng.IntN(len(pool)+1)] {
			next = append(next, pool[i])
		}
		before := r.Rows()
		moved = nil
		clear(removed)

		st, err := r.Update(next)
		if err != nil {
			t.Fatalf("step %d: %v", step, err)
		}

		var want []string
		for _, s := range next {
			want = append(want, s+"1", s+"2")
		}
		if got := texts(root); !slices.Equal(got, want) {
			t.Fatalf("step %d: order = %v, want %v", step, got, want)
		}

		rows := r.Rows()
		for i, row := range rows {
			if len(row.Nodes) != 2 || row.Nodes[0].NextSibling() != row.Nodes[1] {
				t.Fatalf("step %d: row %d is not a contiguous pair", step, i)
			}
			if row.Index.Get() != i {
				t.Fatalf("step %d: index of row %d = %d", step, i, row.Index.Get())
			}
		}

		if len(moved) != st.Moved {
			t.Fatalf("step %d: %d move callbacks for %d moves", step, len(moved), st.Moved)
		}
		for _, group := range moved {
			whole := slices.ContainsFunc(rows, func(row Row) bool {
				return slices.Equal(row.Nodes, group)
			})
			if !whole {
				t.Fatalf("step %d: move callback got a partial group %v", step, group)
			}
		}

		live := make(map[string]bool)
		for _, s := range next {
			live[s] = true
		}
		gone := 0
		for _, row := range before {
			if live[strings.TrimSuffix(row.Nodes[0].TextContent(), "1")] {
				continue
			}
			gone++
			for _, n := range row.Nodes {
				if removed[n] != 1 || n.Parent() != nil {
					t.Fatalf("step %d: node %v removed %d times, parent %v", step, n, removed[n], n.Parent())
				}
			}
		}
		if gone != st.Removed || len(removed) != 2*gone {
			t.Fatalf("step %d: removed rows = %d (stats %d), callbacks = %d", step, gone, st.Removed, len(removed))
		}
	}
}
