// Package tui is a terminal client for the RMG dashboard service.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/goliatone/go-rmg-dashboard/components/dashboard"
	"github.com/goliatone/go-rmg-dashboard/components/dashboard/collab"
)

const refreshInterval = time.Second

var (
	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#2F80ED"))
	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#9A9A9A")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	optionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#2F80ED")).Underline(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	modalStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(0, 2)
)

// Dashboard is the slice of the dashboard service the terminal client drives.
type Dashboard interface {
	ConfigureLayout(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.Layout, error)
	RenderWidget(ctx context.Context, viewer dashboard.ViewerContext, instanceID string) (dashboard.WidgetInstance, error)
	SelectFilter(ctx context.Context, viewer dashboard.ViewerContext, instanceID, key, value string) error
	ToggleFilterMenu(ctx context.Context, viewer dashboard.ViewerContext, instanceID, key string) error
	OpenDetail(ctx context.Context, viewer dashboard.ViewerContext, instanceID, recordKey string) (dashboard.WidgetData, error)
	CloseDetail(ctx context.Context, viewer dashboard.ViewerContext, instanceID string) error
	ResetView(ctx context.Context, viewer dashboard.ViewerContext, instanceID string) error
	SendChatMessage(ctx context.Context, viewer dashboard.ViewerContext, instanceID, text string) (collab.Message, error)
	Definitions() []dashboard.WidgetDefinition
}

type tickMsg time.Time

// Model implements the Bubble Tea dashboard UI. Every key press maps to one
// service call followed by a re-render of the focused widget.
type Model struct {
	ctx    context.Context
	svc    Dashboard
	viewer dashboard.ViewerContext

	widgets []dashboard.WidgetInstance
	names   map[string]string
	focus   int
	filter  int
	row     int

	chatting bool
	input    textinput.Model

	errMsg string
	width  int
}

// NewModel resolves the viewer's layout and focuses the first widget.
func NewModel(ctx context.Context, svc Dashboard, viewer dashboard.ViewerContext) (Model, error) {
	layout, err := svc.ConfigureLayout(ctx, viewer)
	if err != nil {
		return Model{}, err
	}
	names := map[string]string{}
	for _, def := range svc.Definitions() {
		names[def.Code] = def.Name
	}
	input := textinput.New()
	input.Placeholder = "Message the RMG desk..."
	input.CharLimit = 500

	return Model{
		ctx:     ctx,
		svc:     svc,
		viewer:  viewer,
		widgets: flattenLayout(layout),
		names:   names,
		input:   input,
	}, nil
}

func flattenLayout(layout dashboard.Layout) []dashboard.WidgetInstance {
	known := map[string]bool{}
	var out []dashboard.WidgetInstance
	for _, area := range dashboard.DefaultAreaCodes() {
		known[area] = true
		out = append(out, layout.Areas[area]...)
	}
	var extra []string
	for area := range layout.Areas {
		if !known[area] {
			extra = append(extra, area)
		}
	}
	sort.Strings(extra)
	for _, area := range extra {
		out = append(out, layout.Areas[area]...)
	}
	return out
}

// Init starts the refresh ticker used to pick up chat replies.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update handles key presses and refresh ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-6, 10)
		return m, nil
	case tickMsg:
		if view, ok := m.view(); ok && view.CanChat {
			m.reload()
		}
		return m, tick()
	case tea.KeyMsg:
		if m.chatting {
			return m.updateChat(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.chatting = false
		m.input.Blur()
		m.input.Reset()
		return m, nil
	case "enter":
		text := m.input.Value()
		if w, ok := m.current(); ok {
			_, err := m.svc.SendChatMessage(m.ctx, m.viewer, w.ID, text)
			m.setErr(err)
		}
		if m.errMsg == "" {
			m.input.Reset()
		}
		m.reload()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	w, ok := m.current()
	if !ok {
		if k := msg.String(); k == "q" || k == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	}
	view, _ := m.view()

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab":
		m.moveFocus(1)
	case "shift+tab":
		m.moveFocus(-1)
	case "j", "down":
		if m.row < len(Records(m.data()))-1 {
			m.row++
		}
	case "k", "up":
		if m.row > 0 {
			m.row--
		}
	case "[":
		if len(view.Filters) > 0 {
			m.filter = (m.filter + len(view.Filters) - 1) % len(view.Filters)
		}
	case "]":
		if len(view.Filters) > 0 {
			m.filter = (m.filter + 1) % len(view.Filters)
		}
	case "f":
		if f, ok := m.activeFilter(view); ok {
			m.setErr(m.svc.ToggleFilterMenu(m.ctx, m.viewer, w.ID, f.Key))
			m.reload()
		}
	case "h", "left":
		m.stepOption(w, view, -1)
	case "l", "right":
		m.stepOption(w, view, 1)
	case "enter":
		records := Records(m.data())
		if view.CanDrillDown && m.row < len(records) {
			_, err := m.svc.OpenDetail(m.ctx, m.viewer, w.ID, records[m.row].Key)
			m.setErr(err)
			m.reload()
		}
	case "esc":
		if view.Detail != "" {
			m.setErr(m.svc.CloseDetail(m.ctx, m.viewer, w.ID))
			m.reload()
		}
	case "c":
		if view.CanChat {
			m.chatting = true
			return m, m.input.Focus()
		}
	case "x":
		m.setErr(m.svc.ResetView(m.ctx, m.viewer, w.ID))
		m.row = 0
		m.reload()
	}
	return m, nil
}

func (m *Model) moveFocus(delta int) {
	if len(m.widgets) == 0 {
		return
	}
	m.focus = (m.focus + delta + len(m.widgets)) % len(m.widgets)
	m.filter, m.row, m.errMsg = 0, 0, ""
	m.reload()
}

func (m *Model) stepOption(w dashboard.WidgetInstance, view dashboard.WidgetView, delta int) {
	f, ok := m.activeFilter(view)
	if !ok || len(f.Options) == 0 {
		return
	}
	idx := 0
	for i, opt := range f.Options {
		if opt.Value == f.Selected {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(f.Options)) % len(f.Options)
	m.setErr(m.svc.SelectFilter(m.ctx, m.viewer, w.ID, f.Key, f.Options[idx].Value))
	m.row = 0
	m.reload()
}

func (m Model) activeFilter(view dashboard.WidgetView) (dashboard.FilterView, bool) {
	if m.filter < 0 || m.filter >= len(view.Filters) {
		return dashboard.FilterView{}, false
	}
	return view.Filters[m.filter], true
}

func (m *Model) setErr(err error) {
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
}

// reload re-renders the focused widget so its view-state and data reflect
// the last service call.
func (m *Model) reload() {
	w, ok := m.current()
	if !ok {
		return
	}
	fresh, err := m.svc.RenderWidget(m.ctx, m.viewer, w.ID)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.widgets[m.focus] = fresh
}

func (m Model) current() (dashboard.WidgetInstance, bool) {
	if m.focus < 0 || m.focus >= len(m.widgets) {
		return dashboard.WidgetInstance{}, false
	}
	return m.widgets[m.focus], true
}

func (m Model) view() (dashboard.WidgetView, bool) {
	w, ok := m.current()
	if !ok {
		return dashboard.WidgetView{}, false
	}
	view, ok := w.Metadata["view"].(dashboard.WidgetView)
	return view, ok
}

func (m Model) data() dashboard.WidgetData {
	w, ok := m.current()
	if !ok {
		return nil
	}
	data, _ := w.Metadata["data"].(dashboard.WidgetData)
	return data
}

func (m Model) detail() dashboard.WidgetData {
	w, ok := m.current()
	if !ok {
		return nil
	}
	detail, _ := w.Metadata["detail"].(dashboard.WidgetData)
	return detail
}

// View renders the widget tabs, the focused widget and any open detail.
func (m Model) View() string {
	if len(m.widgets) == 0 {
		return mutedStyle.Render("No widgets assigned to this dashboard. Press q to quit.") + "\n"
	}
	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n")

	view, _ := m.view()
	b.WriteString(m.renderFilters(view))
	b.WriteString("\n\n")
	b.WriteString(m.renderBody())

	if detail := m.detail(); detail != nil {
		b.WriteString("\n")
		b.WriteString(modalStyle.Render(renderDetail(detail)))
	}
	if m.chatting {
		b.WriteString("\n")
		b.WriteString(m.input.View())
	}
	if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.errMsg))
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(m.help(view)))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderTabs() string {
	tabs := make([]string, len(m.widgets))
	for i, w := range m.widgets {
		label := m.names[w.DefinitionID]
		if label == "" {
			label = w.DefinitionID
		}
		if i == m.focus {
			tabs[i] = activeTabStyle.Render(label)
		} else {
			tabs[i] = inactiveTabStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderFilters(view dashboard.WidgetView) string {
	lines := make([]string, 0, len(view.Filters))
	for i, f := range view.Filters {
		marker := "  "
		if i == m.filter {
			marker = "> "
		}
		line := marker + f.Label + ": "
		if f.Open || view.OpenMenu == f.Key {
			opts := make([]string, len(f.Options))
			for j, opt := range f.Options {
				if opt.Value == f.Selected {
					opts[j] = optionStyle.Render(opt.Label)
				} else {
					opts[j] = opt.Label
				}
			}
			line += strings.Join(opts, " | ")
		} else {
			line += selectedStyle.Render(dashboard.OptionLabel(f.Options, f.Selected))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderBody() string {
	data := m.data()
	if data == nil {
		return mutedStyle.Render("no data")
	}
	var b strings.Builder
	if title, ok := data["title"].(string); ok && title != "" {
		b.WriteString(selectedStyle.Render(title))
		b.WriteString("\n")
	}
	if total, ok := data["total"]; ok {
		fmt.Fprintf(&b, "%s %v\n", mutedStyle.Render("total"), total)
	}
	if messages, ok := data["messages"].([]collab.Message); ok {
		for _, msg := range messages {
			fmt.Fprintf(&b, "%s %s\n", mutedStyle.Render(msg.Author+":"), msg.Text)
		}
		if pending, _ := data["pending"].(int); pending > 0 {
			b.WriteString(mutedStyle.Render("typing..."))
			b.WriteString("\n")
		}
		return b.String()
	}
	for i, rec := range Records(data) {
		if i == m.row {
			b.WriteString(selectedStyle.Render("› " + rec.Label))
		} else {
			b.WriteString("  " + rec.Label)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderDetail(detail dashboard.WidgetData) string {
	keys := make([]string, 0, len(detail))
	for k := range detail {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		switch v := detail[k].(type) {
		case string, int, float64, bool:
			lines = append(lines, fmt.Sprintf("%s: %v", k, v))
		default:
			if records := Records(dashboard.WidgetData{"rows": v}); len(records) > 0 {
				lines = append(lines, fmt.Sprintf("%s: %d records", k, len(records)))
			} else if records := Records(dashboard.WidgetData{"rows": []any{v}}); len(records) == 1 {
				lines = append(lines, fmt.Sprintf("%s: %s", k, records[0].Label))
			}
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) help(view dashboard.WidgetView) string {
	parts := []string{"tab widgets", "[ ] filter", "←/→ option", "f menu"}
	if view.CanDrillDown {
		parts = append(parts, "j/k row", "enter detail", "esc close")
	}
	if view.CanChat {
		parts = append(parts, "c chat")
	}
	parts = append(parts, "x reset", "q quit")
	return strings.Join(parts, " • ")
}

// Run starts the Bubble Tea program on the alternate screen.
func Run(ctx context.Context, svc Dashboard, viewer dashboard.ViewerContext) error {
	model, err := NewModel(ctx, svc, viewer)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
