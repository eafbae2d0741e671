package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/tablefold/internal/config"
	"github.com/rshade/tablefold/internal/ingest"
	"github.com/rshade/tablefold/internal/logging"
	"github.com/rshade/tablefold/internal/rowkey"
	"github.com/rshade/tablefold/internal/tui"
	"github.com/rshade/tablefold/internal/watch"
)

// ViewFlags holds the flags of the view command.
type ViewFlags struct {
	DataPath     string
	KeyProp      string
	Select       string
	Checked      []string
	NoVirtual    bool
	TableHeight  int
	RowHeight    int
	SubRowHeight int
	Static       bool
	Watch        bool
}

// NewViewCmd creates the view command, which browses a rows file.
func NewViewCmd() *cobra.Command {
	var flags ViewFlags

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse rows with one expandable row at a time",
		Long: `Loads rows from a YAML or JSON file (a list of objects, or an object with a
"rows" list) and shows them as a table. Activating a row expands its details
and collapses any other expanded row.

When stdout is not a terminal, or with --static, a single frame is printed.`,
		Example: `  # Browse rows keyed by "id"
  tablefold view --data rows.yaml

  # Key rows by "name" and start with "web" expanded
  tablefold view --data rows.yaml --key-prop name --select web

  # Reload the view whenever rows.yaml is saved
  tablefold view --data rows.yaml --watch

  # Render every row without virtualization
  tablefold view --data rows.yaml --no-virtual --static`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runView(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.DataPath, "data", "", "path to a YAML or JSON rows file")
	cmd.Flags().StringVar(&flags.KeyProp, "key-prop", "", "row field holding the row key (overrides config)")
	cmd.Flags().StringVar(&flags.Select, "select", "", "key of the row to expand initially")
	cmd.Flags().StringSliceVar(&flags.Checked, "checked", nil, "keys of checked rows; shows the check column")
	cmd.Flags().BoolVar(&flags.NoVirtual, "no-virtual", false, "render every row instead of a virtualized window")
	cmd.Flags().IntVar(&flags.TableHeight, "table-height", 0, "virtualized table height in lines")
	cmd.Flags().IntVar(&flags.RowHeight, "row-height", 0, "collapsed row height in lines")
	cmd.Flags().IntVar(&flags.SubRowHeight, "sub-row-height", 0, "expanded row height in lines, sub row included")
	cmd.Flags().BoolVar(&flags.Static, "static", false, "print one frame instead of starting the interactive view")
	cmd.Flags().BoolVar(&flags.Watch, "watch", false, "reload rows when the data file changes")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func runView(cmd *cobra.Command, flags ViewFlags) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	opts, err := BuildBodyOptions(cmd, flags, config.GetGlobalConfig())
	if err != nil {
		return err
	}

	rows, err := ingest.LoadRows(ctx, flags.DataPath)
	if err != nil {
		return fmt.Errorf("loading rows: %w", err)
	}

	out := cmd.OutOrStdout()
	interactive := !flags.Static && isTerminal(out)

	viewLog := viewLogger(ctx, interactive)
	opts.Logger = viewLog
	opts.OnRowClicked = logRowClicks(ctx, viewLog)

	log.Info().Ctx(ctx).
		Str("data_path", flags.DataPath).
		Int("rows", len(rows)).
		Bool("virtualized", opts.Virtualisation != nil).
		Bool("interactive", interactive).
		Bool("log_to_file", logsToFile(ctx)).
		Msg("viewing rows")

	model := tui.NewBodyModel(rows, opts)
	if !interactive {
		_, err = fmt.Fprintln(out, model.View())
		return err
	}

	watchPath := ""
	if flags.Watch {
		watchPath = flags.DataPath
	}
	return runInteractive(ctx, model, watchPath, viewLog,
		tea.WithOutput(out),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
}

// viewLogger returns the logger the view logs through once the program
// owns the screen. Output that would go to stderr is dropped because it
// would tear the alternate screen.
func viewLogger(ctx context.Context, interactive bool) zerolog.Logger {
	if interactive && !logsToFile(ctx) {
		return zerolog.Nop()
	}
	return *logging.FromContext(ctx)
}

// logRowClicks returns an OnRowClicked callback that logs row activations.
func logRowClicks(ctx context.Context, log zerolog.Logger) func(tui.RowEvent) {
	return func(ev tui.RowEvent) {
		log.Debug().Ctx(ctx).
			Str("operation", "row_clicked").
			Str("key", string(ev.Key)).
			Int("index", ev.Index).
			Bool("was_expanded", ev.Expanded).
			Msg("row activated")
	}
}

// runInteractive runs the program and, when watchPath is set, the reload
// loop for it. Quitting the program stops the watcher; a watcher that fails
// stops the program.
func runInteractive(
	ctx context.Context,
	model tea.Model,
	watchPath string,
	log zerolog.Logger,
	opts ...tea.ProgramOption,
) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(runCtx)

	p := tea.NewProgram(model, append([]tea.ProgramOption{tea.WithContext(gCtx)}, opts...)...)

	g.Go(func() error {
		defer cancel()
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("failed to run interactive view: %w", err)
		}
		return nil
	})

	if watchPath != "" {
		watchCtx := log.WithContext(gCtx)
		g.Go(func() error {
			return watchRows(watchCtx, watchPath, p.Send)
		})
	}

	return g.Wait()
}

// watchRows sends a DataMsg whenever the data file changes, until ctx is
// done.
func watchRows(ctx context.Context, path string, send func(tea.Msg)) error {
	w, err := watch.New(path, watch.WithLogger(*logging.FromContext(ctx)))
	if err != nil {
		return err
	}
	if err = w.Start(ctx); err != nil {
		return fmt.Errorf("watching data file: %w", err)
	}
	defer w.Stop()

	reloadOnChange(ctx, w.Changed(), path, send)
	return nil
}

// reloadOnChange sends a DataMsg for every change until ctx is done. A file
// that fails to load keeps the current rows.
func reloadOnChange(ctx context.Context, changed <-chan struct{}, path string, send func(tea.Msg)) {
	log := logging.FromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-changed:
			rows, err := ingest.LoadRows(ctx, path)
			if err != nil {
				log.Warn().Ctx(ctx).Err(err).Str("data_path", path).Msg("reload failed; keeping current rows")
				continue
			}
			log.Debug().Ctx(ctx).Int("rows", len(rows)).Msg("rows reloaded")
			send(tui.DataMsg{Data: rows})
		}
	}
}

// BuildBodyOptions merges config and flags into body options. Flags that
// were set on the command line win over the config file.
func BuildBodyOptions(cmd *cobra.Command, flags ViewFlags, cfg *config.Config) (tui.BodyOptions, error) {
	opts := tui.BodyOptions{
		KeyProp:      cfg.Table.KeyProp,
		FixedHeader:  cfg.Table.FixedHeader,
		RenderSubRow: tui.FieldList,
		ClassStyles:  defaultClassStyles(),
	}
	if cmd.Flags().Changed("key-prop") {
		opts.KeyProp = flags.KeyProp
	}
	if cmd.Flags().Changed("select") {
		opts.SelectedRow = rowkey.Key(flags.Select).Ptr()
	}

	switch {
	case cmd.Flags().Changed("checked"):
		opts.CheckedRowKeys = make([]rowkey.Key, 0, len(flags.Checked))
		for _, k := range flags.Checked {
			opts.CheckedRowKeys = append(opts.CheckedRowKeys, rowkey.Key(k))
		}
	case cfg.Table.ShowCheckboxes:
		opts.CheckedRowKeys = []rowkey.Key{}
	}

	virt, err := virtualisation(cmd, flags, cfg.Virtualisation)
	if err != nil {
		return tui.BodyOptions{}, err
	}
	opts.Virtualisation = virt

	return opts, nil
}

// virtualisation applies the height flags to a copy of base.
func virtualisation(
	cmd *cobra.Command,
	flags ViewFlags,
	base *config.VirtualisationConfig,
) (*config.VirtualisationConfig, error) {
	if flags.NoVirtual {
		return nil, nil //nolint:nilnil // nil selects the non-virtualized body
	}

	changed := cmd.Flags().Changed("table-height") ||
		cmd.Flags().Changed("row-height") ||
		cmd.Flags().Changed("sub-row-height")
	if base == nil && !changed {
		return nil, nil //nolint:nilnil // virtualization is off in config
	}

	v := config.VirtualisationConfig{
		TableHeight:  config.DefaultTableHeight,
		RowHeight:    config.DefaultRowHeight,
		SubRowHeight: config.DefaultSubRowHeight,
	}
	if base != nil {
		v = *base
	}
	if cmd.Flags().Changed("table-height") {
		v.TableHeight = flags.TableHeight
	}
	if cmd.Flags().Changed("row-height") {
		v.RowHeight = flags.RowHeight
	}
	if cmd.Flags().Changed("sub-row-height") {
		v.SubRowHeight = flags.SubRowHeight
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return &v, nil
}

func defaultClassStyles() map[string]lipgloss.Style {
	return map[string]lipgloss.Style{
		"muted":     tui.FooterStyle,
		"highlight": tui.HeaderStyle,
	}
}
