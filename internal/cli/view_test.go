package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/tablefold/internal/config"
	"github.com/rshade/tablefold/internal/ingest"
	"github.com/rshade/tablefold/internal/rowkey"
	"github.com/rshade/tablefold/internal/table"
	"github.com/rshade/tablefold/internal/tui"
)

const sampleRows = `- id: 1
  name: alpha
- id: 2
  name: beta
- id: 3
  name: gamma
`

// isolate points config and log locations at temp dirs.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("TABLEFOLD_HOME", home)
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv("TABLEFOLD_KEY_PROP", "")
	t.Setenv("TABLEFOLD_LOG_LEVEL", "")
	t.Setenv("TABLEFOLD_LOG_FORMAT", "")
	t.Cleanup(config.ResetGlobalConfigForTest)
	return home
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd("test")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestView_StaticWithSelection(t *testing.T) {
	isolate(t)
	data := writeFile(t, "rows.yaml", sampleRows)

	out, _, err := execute(t, "view", "--data", data, "--select", "2")

	require.NoError(t, err)
	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "gamma")
	assert.Contains(t, out, "name: beta")
	assert.Contains(t, out, "3 rows, 1 expanded")
}

func TestView_NoVirtualWithChecked(t *testing.T) {
	isolate(t)
	data := writeFile(t, "rows.json", `[{"id": 1, "name": "alpha"}, {"id": 2, "name": "beta"}, {"id": 3}]`)

	out, _, err := execute(t, "view", "--data", data, "--no-virtual", "--checked", "1,3", "--static")

	require.NoError(t, err)
	assert.Contains(t, out, "[x] 1")
	assert.Contains(t, out, "[ ] 2")
	assert.Contains(t, out, "2 checked")
}

func TestView_KeyPropFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("TABLEFOLD_KEY_PROP", "name")
	data := writeFile(t, "rows.yaml", sampleRows)

	out, _, err := execute(t, "view", "--data", data, "--select", "gamma")

	require.NoError(t, err)
	assert.Contains(t, out, "1 expanded")
}

func TestView_Errors(t *testing.T) {
	isolate(t)
	scalar := writeFile(t, "scalar.yaml", "42\n")
	rows := writeFile(t, "rows.yaml", sampleRows)

	_, _, err := execute(t, "view")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data")

	_, _, err = execute(t, "view", "--data", scalar)
	require.ErrorIs(t, err, ingest.ErrUnsupportedShape)

	_, _, err = execute(t, "view", "--data", rows, "--row-height", "3", "--sub-row-height", "2")
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestView_InvalidConfigFails(t *testing.T) {
	home := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("schema_version: 2.0.0\n"), 0o600))
	data := writeFile(t, "rows.yaml", sampleRows)

	_, _, err := execute(t, "view", "--data", data)

	require.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "loading config")
}

func TestBuildBodyOptions(t *testing.T) {
	tests := []struct {
		name   string
		flags  ViewFlags
		mutate func(*config.Config)
		check  func(*testing.T, ViewFlags, *config.Config)
	}{
		{
			name: "defaults come from config",
			check: func(t *testing.T, f ViewFlags, cfg *config.Config) {
				opts := buildOpts(t, nil, f, cfg)
				assert.Equal(t, "id", opts.KeyProp)
				assert.True(t, opts.FixedHeader)
				assert.Nil(t, opts.CheckedRowKeys)
				assert.Nil(t, opts.SelectedRow)
				require.NotNil(t, opts.Virtualisation)
				assert.Equal(t, config.DefaultTableHeight, opts.Virtualisation.TableHeight)
				assert.NotNil(t, opts.RenderSubRow)
			},
		},
		{
			name:  "flags override config",
			flags: ViewFlags{KeyProp: "name", Select: "web", TableHeight: 5},
			check: func(t *testing.T, f ViewFlags, cfg *config.Config) {
				opts := buildOpts(t, []string{"--key-prop", "name", "--select", "web", "--table-height", "5"}, f, cfg)
				assert.Equal(t, "name", opts.KeyProp)
				assert.Equal(t, rowkey.Key("web"), *opts.SelectedRow)
				assert.Equal(t, 5, opts.Virtualisation.TableHeight)
				assert.Equal(t, config.DefaultSubRowHeight, opts.Virtualisation.SubRowHeight)
				assert.Equal(t, config.DefaultTableHeight, cfg.Virtualisation.TableHeight, "config is not modified")
			},
		},
		{
			name:   "virtualization off in config",
			mutate: func(c *config.Config) { c.Virtualisation = nil },
			check: func(t *testing.T, f ViewFlags, cfg *config.Config) {
				assert.Nil(t, buildOpts(t, nil, f, cfg).Virtualisation)
			},
		},
		{
			name:   "height flag turns virtualization on",
			mutate: func(c *config.Config) { c.Virtualisation = nil },
			flags:  ViewFlags{SubRowHeight: 4},
			check: func(t *testing.T, f ViewFlags, cfg *config.Config) {
				opts := buildOpts(t, []string{"--sub-row-height", "4"}, f, cfg)
				require.NotNil(t, opts.Virtualisation)
				assert.Equal(t, 4, opts.Virtualisation.SubRowHeight)
			},
		},
		{
			name:  "no-virtual wins",
			flags: ViewFlags{NoVirtual: true, TableHeight: 5},
			check: func(t *testing.T, f ViewFlags, cfg *config.Config) {
				assert.Nil(t, buildOpts(t, []string{"--no-virtual", "--table-height", "5"}, f, cfg).Virtualisation)
			},
		},
		{
			name:   "config checkboxes show an empty check column",
			mutate: func(c *config.Config) { c.Table.ShowCheckboxes = true },
			check: func(t *testing.T, f ViewFlags, cfg *config.Config) {
				opts := buildOpts(t, nil, f, cfg)
				require.NotNil(t, opts.CheckedRowKeys)
				assert.Empty(t, opts.CheckedRowKeys)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			tt.check(t, tt.flags, cfg)
		})
	}
}

func buildOpts(t *testing.T, args []string, flags ViewFlags, cfg *config.Config) tui.BodyOptions {
	t.Helper()
	cmd := NewViewCmd()
	require.NoError(t, cmd.ParseFlags(args))
	opts, err := BuildBodyOptions(cmd, flags, cfg)
	require.NoError(t, err)
	return opts
}

func nextData(t *testing.T, msgs <-chan tea.Msg) tui.DataMsg {
	t.Helper()
	select {
	case msg := <-msgs:
		data, ok := msg.(tui.DataMsg)
		require.True(t, ok, "got %T", msg)
		return data
	case <-time.After(3 * time.Second):
		t.Fatal("no reload")
		return tui.DataMsg{}
	}
}

func TestReloadOnChange(t *testing.T) {
	path := writeFile(t, "rows.yaml", sampleRows)
	changed := make(chan struct{})
	msgs := make(chan tea.Msg, 4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		reloadOnChange(ctx, changed, path, func(m tea.Msg) { msgs <- m })
	}()

	require.NoError(t, os.WriteFile(path, []byte("- id: 9\n"), 0o600))
	changed <- struct{}{}
	assert.Len(t, nextData(t, msgs).Data, 1)

	// a broken file sends nothing
	require.NoError(t, os.WriteFile(path, []byte("42\n"), 0o600))
	changed <- struct{}{}
	require.NoError(t, os.WriteFile(path, []byte(sampleRows), 0o600))
	changed <- struct{}{}
	assert.Len(t, nextData(t, msgs).Data, 3)

	cancel()
	<-done
}

func TestWatchRows(t *testing.T) {
	path := writeFile(t, "rows.yaml", sampleRows)
	msgs := make(chan tea.Msg, 32)
	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		result <- watchRows(ctx, path, func(m tea.Msg) { msgs <- m })
	}()

	// the watcher registers asynchronously; rewrite until a reload arrives
	deadline := time.Now().Add(3 * time.Second)
	var data tui.DataMsg
	for data.Data == nil && time.Now().Before(deadline) {
		require.NoError(t, os.WriteFile(path, []byte("- id: 7\n- id: 8\n"), 0o600))
		select {
		case msg := <-msgs:
			data, _ = msg.(tui.DataMsg)
		case <-time.After(300 * time.Millisecond):
		}
	}
	assert.Len(t, data.Data, 2)

	cancel()
	require.NoError(t, <-result)
}

func TestWatchRows_MissingDirectory(t *testing.T) {
	err := watchRows(context.Background(), filepath.Join(t.TempDir(), "absent", "rows.yaml"), func(tea.Msg) {})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "watching data file")
}

func testProgramOptions(input string) []tea.ProgramOption {
	return []tea.ProgramOption{
		tea.WithInput(bytes.NewBufferString(input)),
		tea.WithOutput(&bytes.Buffer{}),
		tea.WithoutSignalHandler(),
	}
}

func TestRunInteractive_WatchFailureStopsProgram(t *testing.T) {
	model := tui.NewBodyModel(nil, tui.BodyOptions{})
	missing := filepath.Join(t.TempDir(), "absent", "rows.yaml")

	err := runInteractive(context.Background(), model, missing, zerolog.Nop(), testProgramOptions("")...)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "watching data file")
}

func TestRunInteractive_QuitStopsWatcher(t *testing.T) {
	path := writeFile(t, "rows.yaml", sampleRows)
	rows, err := ingest.ParseRows([]byte(sampleRows))
	require.NoError(t, err)
	model := tui.NewBodyModel(rows, tui.BodyOptions{})

	done := make(chan error, 1)
	go func() {
		done <- runInteractive(context.Background(), model, path, zerolog.Nop(), testProgramOptions("q")...)
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("program and watcher did not stop")
	}
}

func TestViewLogger(t *testing.T) {
	isolate(t)
	blocker := writeFile(t, "not-a-dir", "x")

	tests := []struct {
		name        string
		file        string
		interactive bool
		wantFile    bool
		wantLevel   zerolog.Level
	}{
		{
			name:        "stderr fallback is silenced while the program runs",
			file:        filepath.Join(blocker, "tablefold.log"),
			interactive: true,
			wantLevel:   zerolog.Disabled,
		},
		{
			name:      "stderr fallback still logs for a static frame",
			file:      filepath.Join(blocker, "tablefold.log"),
			wantLevel: zerolog.InfoLevel,
		},
		{
			name:        "log file keeps logging while the program runs",
			file:        filepath.Join(t.TempDir(), "tablefold.log"),
			interactive: true,
			wantFile:    true,
			wantLevel:   zerolog.InfoLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			cfg.Logging.File = tt.file
			cfg.Logging.Level = "info"
			config.SetGlobalConfig(cfg)

			cmd := NewViewCmd()
			cmd.SetContext(context.Background())
			cmd.SetErr(&bytes.Buffer{})
			result := setupLogging(cmd)
			t.Cleanup(func() { _ = result.Close() })

			assert.Equal(t, tt.wantFile, logsToFile(cmd.Context()))
			assert.Equal(t, tt.wantLevel, viewLogger(cmd.Context(), tt.interactive).GetLevel())
		})
	}
}

func TestLogRowClicks(t *testing.T) {
	var buf bytes.Buffer
	onClick := logRowClicks(context.Background(), zerolog.New(&buf).Level(zerolog.DebugLevel))

	onClick(tui.RowEvent{Row: table.Row{Index: 1, Key: "2"}})

	assert.Contains(t, buf.String(), `"key":"2"`)
	assert.Contains(t, buf.String(), "row activated")

	buf.Reset()
	logRowClicks(context.Background(), zerolog.Nop())(tui.RowEvent{Row: table.Row{Key: "2"}})
	assert.Empty(t, buf.String())
}
