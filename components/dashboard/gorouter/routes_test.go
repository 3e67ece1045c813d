package gorouter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	router "github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-rmg-dashboard/components/dashboard"
	"github.com/goliatone/go-rmg-dashboard/components/dashboard/collab"
	"github.com/goliatone/go-rmg-dashboard/components/dashboard/commands"
	"github.com/goliatone/go-rmg-dashboard/components/dashboard/httpapi"
	"github.com/goliatone/go-rmg-dashboard/components/dashboard/queries"
)

func TestRegisterValidatesConfig(t *testing.T) {
	err := Register(Config[struct{}]{})
	if err == nil {
		t.Fatalf("expected error when router/controller missing")
	}
}

func TestRegisterHTMLRoute(t *testing.T) {
	mock := newMockRouter()
	layout := dashboard.Layout{
		Areas: map[string][]dashboard.WidgetInstance{
			dashboard.AreaMain: {
				{ID: "w1", DefinitionID: dashboard.WidgetSLAOverview},
			},
		},
	}
	renderer := &stubRenderer{}
	controller := dashboard.NewController(dashboard.ControllerOptions{
		Service:  &stubLayoutResolver{layout: layout},
		Renderer: renderer,
	})

	if err := Register(Config[struct{}]{Router: mock, Controller: controller, API: &stubExecutor{}}); err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	h, ok := mock.routes["GET:/rmg/dashboard"]
	if !ok {
		t.Fatalf("expected dashboard route to be registered")
	}
	ctx := newMockContext()
	if err := h(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if len(ctx.body) == 0 {
		t.Fatalf("expected response body")
	}
	if renderer.calls == 0 {
		t.Fatalf("renderer not invoked")
	}
	assert.Equal(t, "text/html; charset=utf-8", ctx.headers["Content-Type"])
	assert.Equal(t, []string{"/dashboard/static"}, mock.static)
}

func TestRegisterMountsRMGRoutes(t *testing.T) {
	mock := registerWithExecutor(t, &stubExecutor{}, "/ops")
	for _, key := range []string{
		"GET:/ops/dashboard/_layout",
		"POST:/ops/dashboard/widgets",
		"GET:/ops/dashboard/widgets/:id",
		"DELETE:/ops/dashboard/widgets/:id",
		"POST:/ops/dashboard/widgets/:id/filters",
		"POST:/ops/dashboard/widgets/:id/menu",
		"POST:/ops/dashboard/widgets/:id/detail",
		"DELETE:/ops/dashboard/widgets/:id/detail",
		"DELETE:/ops/dashboard/widgets/:id/view",
		"DELETE:/ops/dashboard/view",
		"GET:/ops/dashboard/widgets/:id/chat",
		"POST:/ops/dashboard/widgets/:id/chat",
		"POST:/ops/dashboard/widgets/:id/escalations",
		"POST:/ops/dashboard/widgets/refresh",
		"POST:/ops/dashboard/preferences",
	} {
		assert.Contains(t, mock.routes, key)
	}
	assert.Contains(t, mock.ws, "/ops/dashboard/ws")
}

func TestSelectFilterRouteRendersWidget(t *testing.T) {
	exec := &stubExecutor{widget: dashboard.WidgetInstance{ID: "w1", DefinitionID: dashboard.WidgetSLAOverview}}
	mock := registerWithExecutor(t, exec, "")

	ctx := newMockContext()
	ctx.params["id"] = "w1"
	ctx.locals["user_id"] = "rm-1"
	ctx.body = mustJSON(t, httpapi.FilterPayload{Filter: dashboard.FilterSLA, Value: "breached"})
	require.NoError(t, mock.routes["POST:/rmg/dashboard/widgets/:id/filters"](ctx))

	assert.Equal(t, http.StatusOK, ctx.status)
	assert.Equal(t, "rm-1", exec.selected.Viewer.UserID)
	assert.Equal(t, "en", exec.selected.Viewer.Locale)
	assert.Equal(t, "breached", exec.selected.Value)
	var inst dashboard.WidgetInstance
	require.NoError(t, json.Unmarshal(ctx.body, &inst))
	assert.Equal(t, "w1", inst.ID)
}

func TestOpenDetailRouteMapsErrors(t *testing.T) {
	exec := &stubExecutor{err: fmt.Errorf("lookup: %w", dashboard.ErrRecordNotFound)}
	mock := registerWithExecutor(t, exec, "")
	handler := mock.routes["POST:/rmg/dashboard/widgets/:id/detail"]

	ctx := newMockContext()
	ctx.params["id"] = "w1"
	ctx.body = mustJSON(t, httpapi.DetailPayload{Record: "RR-0000"})
	require.NoError(t, handler(ctx))
	assert.Equal(t, http.StatusNotFound, ctx.status)

	ctx = newMockContext()
	ctx.params["id"] = "w1"
	ctx.body = []byte("{")
	require.NoError(t, handler(ctx))
	assert.Equal(t, http.StatusBadRequest, ctx.status)

	ctx = newMockContext()
	ctx.body = mustJSON(t, httpapi.DetailPayload{Record: "RR-1001"})
	require.NoError(t, handler(ctx))
	assert.Equal(t, http.StatusBadRequest, ctx.status)
}

func TestOpenDetailRouteReturnsDetail(t *testing.T) {
	exec := &stubExecutor{detail: dashboard.WidgetData{"kind": "request"}}
	mock := registerWithExecutor(t, exec, "")

	ctx := newMockContext()
	ctx.params["id"] = "w1"
	ctx.body = mustJSON(t, httpapi.DetailPayload{Record: "RR-1001"})
	require.NoError(t, mock.routes["POST:/rmg/dashboard/widgets/:id/detail"](ctx))

	assert.Equal(t, http.StatusOK, ctx.status)
	assert.JSONEq(t, `{"kind":"request"}`, string(ctx.body))
}

func TestEscalationRouteReturnsAcknowledgment(t *testing.T) {
	exec := &stubExecutor{ack: dashboard.Acknowledgment{ID: "ack-1", RequestID: "RR-1001", Target: dashboard.EscalateToRMG}}
	mock := registerWithExecutor(t, exec, "")

	ctx := newMockContext()
	ctx.params["id"] = "w1"
	ctx.body = mustJSON(t, dashboard.EscalationRequest{RequestID: "RR-1001", Target: dashboard.EscalateToRMG})
	require.NoError(t, mock.routes["POST:/rmg/dashboard/widgets/:id/escalations"](ctx))

	assert.Equal(t, http.StatusAccepted, ctx.status)
	assert.Equal(t, "RR-1001", exec.escalated.Request.RequestID)
	var ack dashboard.Acknowledgment
	require.NoError(t, json.Unmarshal(ctx.body, &ack))
	assert.Equal(t, "ack-1", ack.ID)
}

func TestResetAllRouteResetsViewer(t *testing.T) {
	exec := &stubExecutor{}
	mock := registerWithExecutor(t, exec, "")

	ctx := newMockContext()
	ctx.locals["user_id"] = "rm-2"
	require.NoError(t, mock.routes["DELETE:/rmg/dashboard/view"](ctx))

	assert.Equal(t, http.StatusOK, ctx.status)
	assert.Equal(t, 1, exec.resets)
	assert.Empty(t, exec.reset.WidgetID)
	assert.Equal(t, "rm-2", exec.reset.Viewer.UserID)
}

func TestParseAcceptLanguage(t *testing.T) {
	assert.Equal(t, "es-mx", parseAcceptLanguage(" es-MX;q=0.9, en;q=0.8"))
	assert.Equal(t, "en", parseAcceptLanguage(",en"))
	assert.Equal(t, "", parseAcceptLanguage(""))
}

// --- Test helpers ---

func registerWithExecutor(t *testing.T, exec httpapi.Executor, base string) *mockRouter {
	t.Helper()
	mock := newMockRouter()
	controller := dashboard.NewController(dashboard.ControllerOptions{
		Service:  &stubLayoutResolver{},
		Renderer: &stubRenderer{},
	})
	err := Register(Config[struct{}]{
		Router:     mock,
		Controller: controller,
		API:        exec,
		Broadcast:  dashboard.NewBroadcastHook(),
		BasePath:   base,
	})
	require.NoError(t, err)
	return mock
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

// mockRouter records registrations. The embedded interface is nil; only the
// methods used by Register are implemented.
type mockRouter struct {
	router.Router[struct{}]
	prefix string
	routes map[string]router.HandlerFunc
	ws     map[string]func(router.WebSocketContext) error
	static []string
}

func newMockRouter() *mockRouter {
	return &mockRouter{
		routes: map[string]router.HandlerFunc{},
		ws:     map[string]func(router.WebSocketContext) error{},
	}
}

func (m *mockRouter) Group(prefix string) router.Router[struct{}] {
	return &mockRouter{
		prefix: m.prefix + prefix,
		routes: m.routes,
		ws:     m.ws,
	}
}

func (m *mockRouter) Static(prefix, root string, config ...router.Static) router.Router[struct{}] {
	m.static = append(m.static, m.prefix+prefix)
	return m
}

func (m *mockRouter) record(method, path string, handler router.HandlerFunc) {
	m.routes[method+":"+m.prefix+path] = handler
}

func (m *mockRouter) Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	m.record(string(router.GET), path, handler)
	return mockRouteInfo{}
}

func (m *mockRouter) Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	m.record(string(router.POST), path, handler)
	return mockRouteInfo{}
}

func (m *mockRouter) Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	m.record(string(router.DELETE), path, handler)
	return mockRouteInfo{}
}

func (m *mockRouter) WebSocket(path string, cfg router.WebSocketConfig, handler func(router.WebSocketContext) error) router.RouteInfo {
	m.ws[m.prefix+path] = handler
	return mockRouteInfo{}
}

type mockRouteInfo struct {
	router.RouteInfo
}

func (mockRouteInfo) SetName(string) router.RouteInfo { return mockRouteInfo{} }

// mockContext answers the viewer lookups from locals, so tests set
// locals["locale"] to keep query and header lookups out of the path.
type mockContext struct {
	router.Context
	ctx     context.Context
	headers map[string]string
	body    []byte
	locals  map[any]any
	params  map[string]string
	status  int
}

func newMockContext() *mockContext {
	return &mockContext{
		ctx:     context.Background(),
		headers: map[string]string{},
		locals:  map[any]any{"user_id": "viewer", "locale": "en"},
		params:  map[string]string{},
	}
}

func (m *mockContext) Context() context.Context {
	return m.ctx
}

func (m *mockContext) SetHeader(k, v string) router.Context {
	m.headers[k] = v
	return m
}

func (m *mockContext) Send(b []byte) error {
	m.body = append([]byte{}, b...)
	return nil
}

func (m *mockContext) JSON(code int, v any) error {
	m.status = code
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.body = data
	return nil
}

func (m *mockContext) Body() []byte { return m.body }

func (m *mockContext) Param(name string, defaultValue ...string) string {
	if v, ok := m.params[name]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *mockContext) Locals(key any, value ...any) any {
	if len(value) == 0 {
		return m.locals[key]
	}
	m.locals[key] = value[0]
	return value[0]
}

type stubLayoutResolver struct {
	layout dashboard.Layout
	err    error
}

func (s *stubLayoutResolver) ConfigureLayout(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.Layout, error) {
	return s.layout, s.err
}

type stubRenderer struct {
	calls int
}

func (s *stubRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	s.calls++
	if len(out) > 0 && out[0] != nil {
		out[0].Write([]byte("ok"))
	}
	return "ok", nil
}

type stubExecutor struct {
	err       error
	widget    dashboard.WidgetInstance
	detail    dashboard.WidgetData
	ack       dashboard.Acknowledgment
	selected  commands.SelectFilterInput
	escalated commands.EscalateRequestInput
	reset     commands.ResetViewInput
	resets    int
}

func (s *stubExecutor) Assign(context.Context, dashboard.AddWidgetRequest) error { return s.err }
func (s *stubExecutor) Remove(context.Context, commands.RemoveWidgetInput) error { return s.err }
func (s *stubExecutor) Refresh(context.Context, commands.RefreshWidgetInput) error {
	return s.err
}
func (s *stubExecutor) Preferences(context.Context, commands.SaveLayoutPreferencesInput) error {
	return s.err
}
func (s *stubExecutor) SelectFilter(_ context.Context, in commands.SelectFilterInput) error {
	s.selected = in
	return s.err
}
func (s *stubExecutor) ToggleMenu(context.Context, commands.ToggleFilterMenuInput) error {
	return s.err
}
func (s *stubExecutor) OpenDetail(_ context.Context, in commands.OpenDetailInput) error {
	if s.err != nil {
		return s.err
	}
	if in.Result != nil {
		*in.Result = s.detail
	}
	return nil
}
func (s *stubExecutor) CloseDetail(context.Context, commands.CloseDetailInput) error { return s.err }
func (s *stubExecutor) ResetView(_ context.Context, in commands.ResetViewInput) error {
	s.reset = in
	s.resets++
	return s.err
}
func (s *stubExecutor) SendChat(context.Context, commands.SendChatMessageInput) error { return s.err }
func (s *stubExecutor) Escalate(_ context.Context, in commands.EscalateRequestInput) error {
	s.escalated = in
	if in.Result != nil {
		*in.Result = s.ack
	}
	return s.err
}
func (s *stubExecutor) Widget(context.Context, queries.WidgetInput) (dashboard.WidgetInstance, error) {
	return s.widget, s.err
}
func (s *stubExecutor) Transcript(context.Context, queries.WidgetInput) (collab.Transcript, error) {
	return collab.Transcript{}, s.err
}
