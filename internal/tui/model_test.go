package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-rmg-dashboard/components/dashboard"
	dashboardpkg "github.com/goliatone/go-rmg-dashboard/pkg/dashboard"
)

var viewer = dashboard.ViewerContext{UserID: "rm-1", Locale: "en"}

func newTestModel(t *testing.T) Model {
	t.Helper()
	asOf := time.Date(2024, 6, 11, 9, 0, 0, 0, time.UTC)
	app, err := dashboardpkg.New(context.Background(), dashboardpkg.Config{
		AsOf:       func() time.Time { return asOf },
		Clock:      func() time.Time { return asOf },
		ReplyDelay: time.Hour,
	})
	require.NoError(t, err)
	t.Cleanup(app.Close)

	m, err := NewModel(context.Background(), app.Service, viewer)
	require.NoError(t, err)
	return m
}

func focusOn(t *testing.T, m Model, definition string) Model {
	t.Helper()
	for i, w := range m.widgets {
		if w.DefinitionID == definition {
			m.focus = i
			m.reload()
			return m
		}
	}
	t.Fatalf("widget %s not in layout", definition)
	return m
}

func press(m Model, msg tea.KeyMsg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModelListsEveryDefaultWidget(t *testing.T) {
	m := newTestModel(t)
	assert.Len(t, m.widgets, len(dashboard.DefaultWidgetDefinitions()))

	out := m.View()
	assert.Contains(t, out, m.names[m.widgets[0].DefinitionID])

	m = press(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 1, m.focus)
	m = press(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m = press(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, len(m.widgets)-1, m.focus)
}

func TestStepOptionSelectsNextFilterValue(t *testing.T) {
	m := focusOn(t, newTestModel(t), dashboard.WidgetRequestFunnel)
	before, ok := m.view()
	require.True(t, ok)
	require.NotEmpty(t, before.Filters)

	m = press(m, runes("l"))
	after, _ := m.view()
	assert.Empty(t, m.errMsg)
	assert.NotEqual(t, before.Filters[0].Selected, after.Filters[0].Selected)

	m = press(m, runes("x"))
	reset, _ := m.view()
	assert.Equal(t, before.Filters[0].Selected, reset.Filters[0].Selected)
}

func TestFilterMenuToggles(t *testing.T) {
	m := focusOn(t, newTestModel(t), dashboard.WidgetSLAOverview)
	m = press(m, runes("f"))
	view, _ := m.view()
	assert.Equal(t, view.Filters[0].Key, view.OpenMenu)

	m = press(m, runes("f"))
	view, _ = m.view()
	assert.Empty(t, view.OpenMenu)
}

func TestEnterOpensDetailAndEscCloses(t *testing.T) {
	m := focusOn(t, newTestModel(t), dashboard.WidgetSLAOverview)
	records := Records(m.data())
	require.NotEmpty(t, records)

	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Empty(t, m.errMsg)
	detail := m.detail()
	require.NotNil(t, detail)
	assert.Equal(t, "request", detail["kind"])
	assert.Contains(t, m.View(), records[0].Key)

	m = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.detail())
}

func TestChatSendsMessage(t *testing.T) {
	m := focusOn(t, newTestModel(t), dashboard.WidgetCollaboration)
	m = press(m, runes("c"))
	require.True(t, m.chatting)

	m = press(m, runes("Need two Go engineers"))
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Empty(t, m.errMsg)
	assert.Empty(t, m.input.Value())
	assert.Contains(t, m.View(), "Need two Go engineers")
	assert.Contains(t, m.View(), "typing...")

	m = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.chatting)
}

func TestBlankChatShowsError(t *testing.T) {
	m := focusOn(t, newTestModel(t), dashboard.WidgetCollaboration)
	m = press(m, runes("c"))
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.NotEmpty(t, m.errMsg)
}

func TestRecordsKeysByProviderLookup(t *testing.T) {
	data := dashboard.WidgetData{
		"stages": []dashboard.FunnelStage{{Status: "open", Count: 3}},
	}
	records := Records(data)
	require.Len(t, records, 1)
	assert.Equal(t, "open", records[0].Key)
	assert.Contains(t, records[0].Label, "count=3")

	assert.Empty(t, Records(dashboard.WidgetData{"title": "x"}))
}
