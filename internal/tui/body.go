package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/tablefold/internal/config"
	"github.com/rshade/tablefold/internal/expansion"
	"github.com/rshade/tablefold/internal/height"
	"github.com/rshade/tablefold/internal/logging"
	"github.com/rshade/tablefold/internal/rowkey"
	"github.com/rshade/tablefold/internal/table"
	"github.com/rshade/tablefold/internal/tui/list"
)

const (
	defaultWidth  = 80
	fallbackPage  = 10
	footerLines   = 2
	expandedGlyph = "▾"
	closedGlyph   = "▸"
	checkedBox    = "[x]"
	uncheckedBox  = "[ ]"
	emptyMessage  = "no rows"
)

// SelectRowMsg carries the externally selected row. A nil Key clears it.
type SelectRowMsg struct {
	Key *rowkey.Key
}

// DataMsg replaces the data set.
type DataMsg struct {
	Data []map[string]any
}

// CheckedRowsMsg replaces the checked row keys. Nil Keys hides the check column.
type CheckedRowsMsg struct {
	Keys []rowkey.Key
}

// RowEvent is passed to OnRowClicked.
type RowEvent struct {
	table.Row

	// CloseVirtualizedRow collapses the row. Nil when the body is not virtualized.
	CloseVirtualizedRow func()
}

// BodyOptions configures a BodyModel.
type BodyOptions struct {
	// Columns to display. Nil derives them from the data.
	Columns []Column
	// KeyProp names the payload field holding the row key.
	KeyProp string
	// CheckedRowKeys shows the check column when non-nil.
	CheckedRowKeys []rowkey.Key
	// SelectedRow is the initial selection signal.
	SelectedRow *rowkey.Key
	// Virtualisation enables the windowed body. Nil renders every row.
	Virtualisation *config.VirtualisationConfig
	// FixedHeader keeps the column header above the body.
	FixedHeader bool
	Width       int
	// ClassStyles styles rows by their className field.
	ClassStyles map[string]lipgloss.Style

	RenderSubRow func(row table.Row, rows []table.Row) string
	OnRowClicked func(RowEvent)
	// OnRowChecked receives check toggles. When nil the body toggles its
	// own checked set.
	OnRowChecked func(row table.Row)
	// CopyText receives the cursor row's detail on the copy key. Nil writes
	// to the system clipboard.
	CopyText func(string) error

	Logger zerolog.Logger
}

// BodyModel is the Bubble Tea model for the table body. At most one row is
// expanded at a time; expanded rows show their sub row underneath.
type BodyModel struct {
	engine     *table.Engine
	controller *expansion.Controller
	heights    *height.Reconciler

	// list is nil when the body is not virtualized
	list *list.VariableSizeListModel[rowkey.Key]
	virt *config.VirtualisationConfig

	columns     []Column
	autoColumns bool
	keyProp     string
	checked     rowkey.Set
	classStyles map[string]lipgloss.Style
	fixedHeader bool

	renderSubRow func(row table.Row, rows []table.Row) string
	onRowClicked func(RowEvent)
	onRowChecked func(row table.Row)
	copyText     func(string) error

	// status is a one-shot footer message
	status string

	// cursor is the selected row in fallback mode
	cursor int
	width  int

	keys    KeyMap
	help    help.Model
	printer *message.Printer
	logger  zerolog.Logger
}

// NewBodyModel creates a body over data.
func NewBodyModel(data []map[string]any, opts BodyOptions) *BodyModel {
	keyProp := opts.KeyProp
	if keyProp == "" {
		keyProp = rowkey.DefaultField
	}
	width := opts.Width
	if width <= 0 {
		width = defaultWidth
	}
	logger := logging.ComponentLogger(opts.Logger, "tui")

	m := &BodyModel{
		virt:         opts.Virtualisation,
		keyProp:      keyProp,
		classStyles:  opts.ClassStyles,
		fixedHeader:  opts.FixedHeader,
		renderSubRow: opts.RenderSubRow,
		onRowClicked: opts.OnRowClicked,
		onRowChecked: opts.OnRowChecked,
		copyText:     opts.CopyText,
		width:        width,
		keys:         DefaultKeyMap(),
		help:         help.New(),
		printer:      message.NewPrinter(language.English),
		logger:       logger,
	}
	m.help.Width = width
	if m.copyText == nil {
		m.copyText = clipboard.WriteAll
	}

	m.engine = table.New(data, table.WithKeyField(keyProp), table.WithLogger(logger))
	m.heights = height.New(m.engine, opts.Virtualisation, logger)
	m.controller = expansion.NewController(m.engine,
		expansion.WithNotifier(m.heights),
		expansion.WithLogger(logger))

	if opts.Columns == nil {
		m.autoColumns = true
		m.columns = ColumnsFor(data, keyProp)
	} else {
		m.columns = sizeColumns(opts.Columns, data)
	}
	if opts.CheckedRowKeys != nil {
		m.checked = rowkey.NewSet(opts.CheckedRowKeys...)
	}

	if v := opts.Virtualisation; v != nil {
		m.list = list.NewVariableSizeListModel(rowKeys(m.engine), v.TableHeight, width,
			m.heights.HeightOf, m.renderVirtualRow)
		m.heights.Bind(m.list)
	}

	if opts.SelectedRow != nil {
		m.selectRow(opts.SelectedRow)
	}

	logger.Debug().
		Int("rows", m.engine.Len()).
		Bool("virtualized", m.list != nil).
		Msg("body created")

	return m
}

func rowKeys(e *table.Engine) []rowkey.Key {
	rows := e.Rows()
	keys := make([]rowkey.Key, len(rows))
	for i, r := range rows {
		keys[i] = r.Key
	}
	return keys
}

// Init initializes the model (Bubble Tea interface).
func (m *BodyModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model state (Bubble Tea interface).
func (m *BodyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case SelectRowMsg:
		m.selectRow(msg.Key)
	case DataMsg:
		m.setData(msg.Data)
	case CheckedRowsMsg:
		m.setChecked(msg.Keys)
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.MouseMsg:
		m.handleMouseMsg(msg)
	}
	return m, nil
}

func (m *BodyModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Activate):
		m.activate(m.Cursor())
	case key.Matches(msg, m.keys.Check):
		m.toggleChecked(m.Cursor())
	case key.Matches(msg, m.keys.Collapse):
		if k, ok := m.controller.Expanded(); ok {
			m.controller.Collapse(k)
		}
	case key.Matches(msg, m.keys.Copy):
		m.copyRow(m.Cursor())
	case m.list != nil:
		_, _ = m.list.Update(msg)
	default:
		m.navigate(msg)
	}
	return m, nil
}

// navigate moves the fallback cursor.
func (m *BodyModel) navigate(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.setCursor(m.cursor - 1)
	case key.Matches(msg, m.keys.Down):
		m.setCursor(m.cursor + 1)
	case key.Matches(msg, m.keys.PageUp):
		m.setCursor(m.cursor - fallbackPage)
	case key.Matches(msg, m.keys.PageDown):
		m.setCursor(m.cursor + fallbackPage)
	case key.Matches(msg, m.keys.Top):
		m.setCursor(0)
	case key.Matches(msg, m.keys.Bottom):
		m.setCursor(m.engine.Len() - 1)
	}
}

func (m *BodyModel) handleMouseMsg(msg tea.MouseMsg) {
	if msg.Action != tea.MouseActionPress {
		return
	}
	switch msg.Button { //nolint:exhaustive // Only left click and the wheel are handled.
	case tea.MouseButtonLeft:
		index := m.indexAtLine(msg.Y - m.headerLines())
		if index < 0 {
			return
		}
		m.setCursor(index)
		m.activate(index)
	case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
		if m.list != nil {
			_, _ = m.list.Update(msg)
			return
		}
		if msg.Button == tea.MouseButtonWheelUp {
			m.setCursor(m.cursor - 1)
		} else {
			m.setCursor(m.cursor + 1)
		}
	}
}

// activate reports the click and toggles the row's expansion.
func (m *BodyModel) activate(index int) {
	row, ok := m.engine.Row(index)
	if !ok {
		return
	}
	if m.onRowClicked != nil {
		ev := RowEvent{Row: row}
		if m.list != nil {
			k := row.Key
			ev.CloseVirtualizedRow = func() { m.controller.Collapse(k) }
		}
		m.onRowClicked(ev)
	}
	m.controller.Toggle(row.Key)
}

// copyRow copies the detail of the row at index.
func (m *BodyModel) copyRow(index int) {
	row, ok := m.engine.Row(index)
	if !ok {
		return
	}
	render := m.renderSubRow
	if render == nil {
		render = FieldList
	}
	if err := m.copyText(render(row, m.engine.Rows())); err != nil {
		m.logger.Warn().Err(err).Str("key", string(row.Key)).Msg("copy to clipboard failed")
		m.status = fmt.Sprintf("copy failed: %v", err)
		return
	}
	m.status = fmt.Sprintf("copied row %s", row.Key)
}

func (m *BodyModel) toggleChecked(index int) {
	if m.checked == nil {
		return
	}
	row, ok := m.engine.Row(index)
	if !ok {
		return
	}
	if m.onRowChecked != nil {
		m.onRowChecked(row)
		return
	}
	if m.checked.Has(row.Key) {
		m.checked.Remove(row.Key)
	} else {
		m.checked.Add(row.Key)
	}
}

// selectRow applies a selection signal. Repeating the current signal is
// ignored, so rows toggled since it was applied keep their state.
func (m *BodyModel) selectRow(signal *rowkey.Key) {
	if rowkey.SameSignal(m.controller.Signal(), signal) {
		return
	}
	m.controller.ReconcileSelection(signal)
	if signal == nil {
		return
	}
	if index, ok := m.engine.IndexOf(*signal); ok {
		m.setCursor(index)
	}
}

func (m *BodyModel) setData(data []map[string]any) {
	m.engine.SetData(data)
	if m.autoColumns {
		m.columns = ColumnsFor(data, m.keyProp)
	} else {
		m.columns = sizeColumns(m.columns, data)
	}
	m.cursor = 0
	if m.list != nil {
		m.list.SetItems(rowKeys(m.engine))
	}
	m.controller.Reset()
}

func (m *BodyModel) setChecked(keys []rowkey.Key) {
	if keys == nil {
		m.checked = nil
		return
	}
	m.checked = rowkey.NewSet(keys...)
}

func (m *BodyModel) resize(width, height int) {
	m.width = width
	m.help.Width = width
	if m.list == nil {
		return
	}
	h := m.virt.TableHeight
	if avail := height - m.headerLines() - footerLines; avail < h {
		h = avail
	}
	m.list.SetSize(width, max(h, 1))
}

func (m *BodyModel) setCursor(index int) {
	if m.list != nil {
		m.list.SetSelected(index)
		return
	}
	m.cursor = max(0, min(index, m.engine.Len()-1))
}

// Cursor returns the index of the row under the cursor.
func (m *BodyModel) Cursor() int {
	if m.list != nil {
		return m.list.Selected()
	}
	return m.cursor
}

// Engine returns the row engine.
func (m *BodyModel) Engine() *table.Engine {
	return m.engine
}

// Controller returns the expansion controller.
func (m *BodyModel) Controller() *expansion.Controller {
	return m.controller
}

// List returns the virtualized list, or nil in fallback mode.
func (m *BodyModel) List() *list.VariableSizeListModel[rowkey.Key] {
	return m.list
}

// Checked returns the checked keys in order, or nil when the check column is hidden.
func (m *BodyModel) Checked() []rowkey.Key {
	if m.checked == nil {
		return nil
	}
	return m.checked.Sorted()
}

func (m *BodyModel) headerLines() int {
	if m.fixedHeader {
		return 1
	}
	return 0
}

// indexAtLine maps a body line to a row index, or -1.
func (m *BodyModel) indexAtLine(y int) int {
	if m.list != nil {
		return m.list.IndexAtLine(y)
	}
	if y < 0 {
		return -1
	}
	line := 0
	for _, row := range m.engine.Rows() {
		n := strings.Count(m.renderRowBlock(row, false), "\n") + 1
		if y < line+n {
			return row.Index
		}
		line += n
	}
	return -1
}
