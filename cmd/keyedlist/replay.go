package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vango-dev/keyedlist/internal/config"
	"github.com/vango-dev/keyedlist/pkg/cell"
	"github.com/vango-dev/keyedlist/pkg/dom"
	"github.com/vango-dev/keyedlist/pkg/keyed"
	"github.com/vango-dev/keyedlist/pkg/live"
	"github.com/vango-dev/keyedlist/pkg/render"
)

type replayOptions struct {
	key        string
	patches    bool
	markStatic bool
}

func replayCmd() *cobra.Command {
	var opts replayOptions

	cmd := &cobra.Command{
		Use:   "replay <script.json>",
		Short: "Apply a script of list states and print the result",
		Long: `Replay renders the first list state of a script, then applies every
following state in order.

For each step it prints the reconciliation stats and, unless
--patches=false, the tree patches the step produced. The final tree
is printed as HTML.

Examples:
  keyedlist replay todo.json
  keyedlist replay todo.json --key=id --patches=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(".")
			if err != nil {
				return err
			}
			return runReplay(cmd.OutOrStdout(), cfg, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.key, "key", "k", "", "Item field used as the key (default from script)")
	cmd.Flags().BoolVar(&opts.patches, "patches", true, "Print the patches of every step")
	cmd.Flags().BoolVar(&opts.markStatic, "mark-static", false, "Mark static subtrees in the final HTML")

	return cmd
}

func runReplay(out io.Writer, cfg *config.Config, path string, opts replayOptions) error {
	script, err := loadScript(path)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, io.Discard)

	root := dom.NewElement("ul")
	rec := live.NewRecorder()
	root.Observe(rec)

	src := cell.New(script.Steps[0])
	kopts := append([]keyed.Option{
		keyed.WithName("replay"),
		keyed.WithLogger(logger),
	}, keyOption(opts.key, script, cfg.Replay.Key)...)
	r, err := keyed.New[any](src, renderItem, kopts...)
	if err != nil {
		return err
	}
	defer r.Dispose()
	r.Mount(root)

	fmt.Fprintf(out, "step 0: rows=%d\n", r.Len())
	printPatches(out, rec, opts.patches)

	for i, step := range script.Steps[1:] {
		src.Set(step)
		if err := r.Err(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		st := r.LastStats()
		fmt.Fprintf(out, "step %d: rows=%d reused=%d inserted=%d moved=%d removed=%d\n",
			i+1, st.Rows, st.Reused, st.Inserted, st.Moved, st.Removed)
		printPatches(out, rec, opts.patches)
	}

	html, err := render.NewRenderer(render.RendererConfig{MarkStatic: opts.markStatic}).RenderToString(root)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, html)
	return nil
}

func printPatches(out io.Writer, rec *live.Recorder, show bool) {
	pf, ok := rec.Flush()
	if !ok || !show {
		return
	}
	for _, p := range pf.Patches {
		info(out, "%s", p)
	}
}
