package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-rmg-dashboard/components/dashboard"
	"github.com/goliatone/go-rmg-dashboard/components/dashboard/collab"
	"github.com/goliatone/go-rmg-dashboard/components/dashboard/commands"
	"github.com/goliatone/go-rmg-dashboard/components/dashboard/queries"
)

// Executor is the transport-facing surface of the dashboard commands and
// queries. Both the net/http handlers and the go-router adapter use it.
type Executor interface {
	Assign(ctx context.Context, req dashboard.AddWidgetRequest) error
	Remove(ctx context.Context, input commands.RemoveWidgetInput) error
	Refresh(ctx context.Context, input commands.RefreshWidgetInput) error
	Preferences(ctx context.Context, input commands.SaveLayoutPreferencesInput) error
	SelectFilter(ctx context.Context, input commands.SelectFilterInput) error
	ToggleMenu(ctx context.Context, input commands.ToggleFilterMenuInput) error
	OpenDetail(ctx context.Context, input commands.OpenDetailInput) error
	CloseDetail(ctx context.Context, input commands.CloseDetailInput) error
	ResetView(ctx context.Context, input commands.ResetViewInput) error
	SendChat(ctx context.Context, input commands.SendChatMessageInput) error
	Escalate(ctx context.Context, input commands.EscalateRequestInput) error
	Widget(ctx context.Context, input queries.WidgetInput) (dashboard.WidgetInstance, error)
	Transcript(ctx context.Context, input queries.WidgetInput) (collab.Transcript, error)
}

// ErrNotConfigured is returned when the executor lacks the command for a call.
var ErrNotConfigured = errors.New("httpapi: operation not configured")

// CommandExecutor adapts go-command commanders and queriers to Executor.
// Unset fields answer with ErrNotConfigured.
type CommandExecutor struct {
	AssignCommander      gocommand.Commander[dashboard.AddWidgetRequest]
	RemoveCommander      gocommand.Commander[commands.RemoveWidgetInput]
	RefreshCommander     gocommand.Commander[commands.RefreshWidgetInput]
	PreferencesCommander gocommand.Commander[commands.SaveLayoutPreferencesInput]
	SelectCommander      gocommand.Commander[commands.SelectFilterInput]
	MenuCommander        gocommand.Commander[commands.ToggleFilterMenuInput]
	OpenDetailCommander  gocommand.Commander[commands.OpenDetailInput]
	CloseDetailCommander gocommand.Commander[commands.CloseDetailInput]
	ResetCommander       gocommand.Commander[commands.ResetViewInput]
	ChatCommander        gocommand.Commander[commands.SendChatMessageInput]
	EscalateCommander    gocommand.Commander[commands.EscalateRequestInput]
	WidgetQuerier        gocommand.Querier[queries.WidgetInput, dashboard.WidgetInstance]
	TranscriptQuerier    gocommand.Querier[queries.WidgetInput, collab.Transcript]
}

// NewCommandExecutor wires every command and query against service.
func NewCommandExecutor(service *dashboard.Service, telemetry commands.Telemetry) *CommandExecutor {
	return &CommandExecutor{
		AssignCommander:      commands.NewAssignWidgetCommand(service, telemetry),
		RemoveCommander:      commands.NewRemoveWidgetCommand(service, telemetry),
		RefreshCommander:     commands.NewRefreshWidgetCommand(service, telemetry),
		PreferencesCommander: commands.NewSaveLayoutPreferencesCommand(service, telemetry),
		SelectCommander:      commands.NewSelectFilterCommand(service, telemetry),
		MenuCommander:        commands.NewToggleFilterMenuCommand(service, telemetry),
		OpenDetailCommander:  commands.NewOpenDetailCommand(service, telemetry),
		CloseDetailCommander: commands.NewCloseDetailCommand(service, telemetry),
		ResetCommander:       commands.NewResetViewCommand(service, telemetry),
		ChatCommander:        commands.NewSendChatMessageCommand(service, telemetry),
		EscalateCommander:    commands.NewEscalateRequestCommand(service, telemetry),
		WidgetQuerier:        queries.NewWidgetQuery(service),
		TranscriptQuerier:    queries.NewChatTranscriptQuery(service),
	}
}

var _ Executor = (*CommandExecutor)(nil)

func execute[T any](ctx context.Context, cmd gocommand.Commander[T], msg T) error {
	if cmd == nil {
		return ErrNotConfigured
	}
	return cmd.Execute(ctx, msg)
}

func (e *CommandExecutor) Assign(ctx context.Context, req dashboard.AddWidgetRequest) error {
	return execute(ctx, e.AssignCommander, req)
}

func (e *CommandExecutor) Remove(ctx context.Context, input commands.RemoveWidgetInput) error {
	return execute(ctx, e.RemoveCommander, input)
}

func (e *CommandExecutor) Refresh(ctx context.Context, input commands.RefreshWidgetInput) error {
	return execute(ctx, e.RefreshCommander, input)
}

func (e *CommandExecutor) Preferences(ctx context.Context, input commands.SaveLayoutPreferencesInput) error {
	return execute(ctx, e.PreferencesCommander, input)
}

func (e *CommandExecutor) SelectFilter(ctx context.Context, input commands.SelectFilterInput) error {
	return execute(ctx, e.SelectCommander, input)
}

func (e *CommandExecutor) ToggleMenu(ctx context.Context, input commands.ToggleFilterMenuInput) error {
	return execute(ctx, e.MenuCommander, input)
}

func (e *CommandExecutor) OpenDetail(ctx context.Context, input commands.OpenDetailInput) error {
	return execute(ctx, e.OpenDetailCommander, input)
}

func (e *CommandExecutor) CloseDetail(ctx context.Context, input commands.CloseDetailInput) error {
	return execute(ctx, e.CloseDetailCommander, input)
}

func (e *CommandExecutor) ResetView(ctx context.Context, input commands.ResetViewInput) error {
	return execute(ctx, e.ResetCommander, input)
}

func (e *CommandExecutor) SendChat(ctx context.Context, input commands.SendChatMessageInput) error {
	return execute(ctx, e.ChatCommander, input)
}

func (e *CommandExecutor) Escalate(ctx context.Context, input commands.EscalateRequestInput) error {
	return execute(ctx, e.EscalateCommander, input)
}

func (e *CommandExecutor) Widget(ctx context.Context, input queries.WidgetInput) (dashboard.WidgetInstance, error) {
	if e.WidgetQuerier == nil {
		return dashboard.WidgetInstance{}, ErrNotConfigured
	}
	return e.WidgetQuerier.Query(ctx, input)
}

func (e *CommandExecutor) Transcript(ctx context.Context, input queries.WidgetInput) (collab.Transcript, error) {
	if e.TranscriptQuerier == nil {
		return collab.Transcript{}, ErrNotConfigured
	}
	return e.TranscriptQuerier.Query(ctx, input)
}

// StatusFor maps dashboard errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, dashboard.ErrInstanceNotFound),
		errors.Is(err, dashboard.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, dashboard.ErrUnknownFilter),
		errors.Is(err, dashboard.ErrInvalidFilterOption),
		errors.Is(err, dashboard.ErrInvalidConfiguration),
		errors.Is(err, dashboard.ErrInvalidEscalationTarget),
		errors.Is(err, dashboard.ErrDetailUnsupported),
		errors.Is(err, dashboard.ErrChatUnsupported),
		errors.Is(err, dashboard.ErrEscalationUnsupported),
		errors.Is(err, collab.ErrEmptyMessage),
		errors.Is(err, collab.ErrUnknownConversation):
		return http.StatusBadRequest
	case errors.Is(err, collab.ErrPanelClosed):
		return http.StatusConflict
	case errors.Is(err, ErrNotConfigured):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// ViewerFunc extracts the viewer from an incoming request.
type ViewerFunc func(*http.Request) dashboard.ViewerContext

// Handlers exposes HTTP endpoints backed by an Executor.
type Handlers struct {
	API    Executor
	Viewer ViewerFunc
}

// FilterPayload is the body of a filter selection or menu toggle.
type FilterPayload struct {
	Filter string `json:"filter"`
	Value  string `json:"value,omitempty"`
}

// DetailPayload names the record to drill into.
type DetailPayload struct {
	Record string `json:"record"`
}

// ChatPayload is the body of a chat message.
type ChatPayload struct {
	Text string `json:"text"`
}

// QueryViewer reads the viewer from the user_id and locale query parameters,
// matching BroadcastHook.ServeWebSocket.
func QueryViewer(r *http.Request) dashboard.ViewerContext {
	q := r.URL.Query()
	locale := q.Get("locale")
	if locale == "" {
		locale = r.Header.Get("Accept-Language")
	}
	return dashboard.ViewerContext{UserID: q.Get("user_id"), Locale: locale}
}

func (h *Handlers) viewer(r *http.Request) dashboard.ViewerContext {
	if h.Viewer != nil {
		return h.Viewer(r)
	}
	return QueryViewer(r)
}

func (h *Handlers) HandleAssignWidget(w http.ResponseWriter, r *http.Request) {
	var payload dashboard.AddWidgetRequest
	if !decode(w, r, &payload) {
		return
	}
	if err := h.API.Assign(r.Context(), payload); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handlers) HandleRemoveWidget(w http.ResponseWriter, r *http.Request, widgetID string) {
	viewer := h.viewer(r)
	input := commands.RemoveWidgetInput{WidgetID: widgetID, UserID: viewer.UserID, ActorID: viewer.UserID}
	if err := h.API.Remove(r.Context(), input); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleRefreshWidget(w http.ResponseWriter, r *http.Request) {
	var payload commands.RefreshWidgetInput
	if !decode(w, r, &payload) {
		return
	}
	if err := h.API.Refresh(r.Context(), payload); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) HandlePreferences(w http.ResponseWriter, r *http.Request) {
	var payload commands.SaveLayoutPreferencesInput
	if !decode(w, r, &payload) {
		return
	}
	payload.Viewer = h.viewer(r)
	if err := h.API.Preferences(r.Context(), payload); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HandleWidget renders one widget with its data and view-state.
func (h *Handlers) HandleWidget(w http.ResponseWriter, r *http.Request, widgetID string) {
	inst, err := h.API.Widget(r.Context(), queries.WidgetInput{Viewer: h.viewer(r), WidgetID: widgetID})
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

func (h *Handlers) HandleSelectFilter(w http.ResponseWriter, r *http.Request, widgetID string) {
	var payload FilterPayload
	if !decode(w, r, &payload) {
		return
	}
	input := commands.SelectFilterInput{Viewer: h.viewer(r), WidgetID: widgetID, Filter: payload.Filter, Value: payload.Value}
	if err := h.API.SelectFilter(r.Context(), input); err != nil {
		WriteError(w, err)
		return
	}
	h.HandleWidget(w, r, widgetID)
}

func (h *Handlers) HandleToggleMenu(w http.ResponseWriter, r *http.Request, widgetID string) {
	var payload FilterPayload
	if !decode(w, r, &payload) {
		return
	}
	input := commands.ToggleFilterMenuInput{Viewer: h.viewer(r), WidgetID: widgetID, Filter: payload.Filter}
	if err := h.API.ToggleMenu(r.Context(), input); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleOpenDetail returns the resolved drill-down.
func (h *Handlers) HandleOpenDetail(w http.ResponseWriter, r *http.Request, widgetID string) {
	var payload DetailPayload
	if !decode(w, r, &payload) {
		return
	}
	var detail dashboard.WidgetData
	input := commands.OpenDetailInput{Viewer: h.viewer(r), WidgetID: widgetID, Record: payload.Record, Result: &detail}
	if err := h.API.OpenDetail(r.Context(), input); err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handlers) HandleCloseDetail(w http.ResponseWriter, r *http.Request, widgetID string) {
	input := commands.CloseDetailInput{Viewer: h.viewer(r), WidgetID: widgetID}
	if err := h.API.CloseDetail(r.Context(), input); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleResetView resets one widget, or every widget of the viewer when
// widgetID is empty.
func (h *Handlers) HandleResetView(w http.ResponseWriter, r *http.Request, widgetID string) {
	input := commands.ResetViewInput{Viewer: h.viewer(r), WidgetID: widgetID}
	if err := h.API.ResetView(r.Context(), input); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleSendChat(w http.ResponseWriter, r *http.Request, widgetID string) {
	var payload ChatPayload
	if !decode(w, r, &payload) {
		return
	}
	var sent collab.Message
	input := commands.SendChatMessageInput{Viewer: h.viewer(r), WidgetID: widgetID, Text: payload.Text, Result: &sent}
	if err := h.API.SendChat(r.Context(), input); err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sent)
}

func (h *Handlers) HandleTranscript(w http.ResponseWriter, r *http.Request, widgetID string) {
	transcript, err := h.API.Transcript(r.Context(), queries.WidgetInput{Viewer: h.viewer(r), WidgetID: widgetID})
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transcript)
}

func (h *Handlers) HandleEscalate(w http.ResponseWriter, r *http.Request, widgetID string) {
	var payload dashboard.EscalationRequest
	if !decode(w, r, &payload) {
		return
	}
	var ack dashboard.Acknowledgment
	input := commands.EscalateRequestInput{Viewer: h.viewer(r), WidgetID: widgetID, Request: payload, Result: &ack}
	if err := h.API.Escalate(r.Context(), input); err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ack)
}

// Mux mounts every handler on a ServeMux under prefix, e.g. "/rmg".
func (h *Handlers) Mux(prefix string) *http.ServeMux {
	mux := http.NewServeMux()
	withID := func(fn func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) { fn(w, r, r.PathValue("id")) }
	}
	mux.HandleFunc("POST "+prefix+"/widgets", h.HandleAssignWidget)
	mux.HandleFunc("POST "+prefix+"/widgets/refresh", h.HandleRefreshWidget)
	mux.HandleFunc("POST "+prefix+"/preferences", h.HandlePreferences)
	mux.HandleFunc("DELETE "+prefix+"/view", withID(h.HandleResetView))
	mux.HandleFunc("GET "+prefix+"/widgets/{id}", withID(h.HandleWidget))
	mux.HandleFunc("DELETE "+prefix+"/widgets/{id}", withID(h.HandleRemoveWidget))
	mux.HandleFunc("POST "+prefix+"/widgets/{id}/filters", withID(h.HandleSelectFilter))
	mux.HandleFunc("POST "+prefix+"/widgets/{id}/menu", withID(h.HandleToggleMenu))
	mux.HandleFunc("POST "+prefix+"/widgets/{id}/detail", withID(h.HandleOpenDetail))
	mux.HandleFunc("DELETE "+prefix+"/widgets/{id}/detail", withID(h.HandleCloseDetail))
	mux.HandleFunc("DELETE "+prefix+"/widgets/{id}/view", withID(h.HandleResetView))
	mux.HandleFunc("GET "+prefix+"/widgets/{id}/chat", withID(h.HandleTranscript))
	mux.HandleFunc("POST "+prefix+"/widgets/{id}/chat", withID(h.HandleSendChat))
	mux.HandleFunc("POST "+prefix+"/widgets/{id}/escalations", withID(h.HandleEscalate))
	return mux
}

// WriteError renders err as {"error": "..."} with the mapped status.
func WriteError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), map[string]string{"error": err.Error()})
}

func decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
