package gorouter

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-rmg-dashboard/components/dashboard"
	"github.com/goliatone/go-rmg-dashboard/components/dashboard/collab"
	"github.com/goliatone/go-rmg-dashboard/components/dashboard/commands"
	"github.com/goliatone/go-rmg-dashboard/components/dashboard/httpapi"
	"github.com/goliatone/go-rmg-dashboard/components/dashboard/queries"
)

// ViewerResolver converts a router.Context into a dashboard.ViewerContext.
type ViewerResolver func(router.Context) dashboard.ViewerContext

// Config wires go-router with the RMG dashboard controller, API and hooks.
type Config[T any] struct {
	Router         router.Router[T]
	Controller     *dashboard.Controller
	API            httpapi.Executor
	Broadcast      *dashboard.BroadcastHook
	ViewerResolver ViewerResolver
	BasePath       string
	Routes         RouteConfig
}

// RouteConfig customizes the relative paths used for dashboard endpoints.
type RouteConfig struct {
	HTML        string
	Layout      string
	Widgets     string
	WidgetID    string
	Filters     string
	Menu        string
	Detail      string
	View        string
	ResetAll    string
	Chat        string
	Escalations string
	Refresh     string
	Preferences string
	WebSocket   string
	Assets      string
}

// Register mounts dashboard routes (HTML, JSON, REST, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := cfg.BasePath
	if base == "" {
		base = "/rmg"
	}
	viewerResolver := cfg.ViewerResolver
	if viewerResolver == nil {
		viewerResolver = defaultViewerResolver
	}

	if routes.Assets != "" {
		cfg.Router.Static(strings.TrimSuffix(routes.Assets, "/"), ".", router.Static{
			FS:     dashboard.StaticAssets(),
			Root:   ".",
			MaxAge: 86400,
		})
	}

	group := cfg.Router.Group(base)

	group.Get(routes.HTML, router.WrapHandler(func(ctx router.Context) error {
		viewer := viewerResolver(ctx)
		var buf bytes.Buffer
		if err := cfg.Controller.RenderTemplate(ctx.Context(), viewer, &buf); err != nil {
			return respondError(ctx, err)
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.Send(buf.Bytes())
	}))

	group.Get(routes.Layout, router.WrapHandler(func(ctx router.Context) error {
		payload, err := cfg.Controller.LayoutPayload(ctx.Context(), viewerResolver(ctx))
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, payload)
	}))

	if cfg.API != nil {
		registerLayoutAPI(group, cfg.API, viewerResolver, routes)
		registerViewAPI(group, cfg.API, viewerResolver, routes)
		registerCollabAPI(group, cfg.API, viewerResolver, routes)
	}

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, viewerResolver, routes.WebSocket)
	}

	return nil
}

func registerLayoutAPI[T any](r router.Router[T], api httpapi.Executor, resolver ViewerResolver, routes RouteConfig) {
	r.Post(routes.Widgets, router.WrapHandler(func(ctx router.Context) error {
		var payload dashboard.AddWidgetRequest
		if err := decode(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		viewer := resolver(ctx)
		if payload.ActorID == "" {
			payload.ActorID = viewer.UserID
		}
		if err := api.Assign(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusCreated, map[string]string{"status": "created"})
	}))

	r.Get(routes.WidgetID, router.WrapHandler(func(ctx router.Context) error {
		return renderWidget(ctx, api, resolver, http.StatusOK)
	}))

	r.Delete(routes.WidgetID, router.WrapHandler(func(ctx router.Context) error {
		id, err := widgetID(ctx)
		if err != nil {
			return respondError(ctx, err)
		}
		viewer := resolver(ctx)
		input := commands.RemoveWidgetInput{WidgetID: id, ActorID: viewer.UserID, UserID: viewer.UserID}
		if err := api.Remove(ctx.Context(), input); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "removed"})
	}))

	r.Post(routes.Refresh, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.RefreshWidgetInput
		if err := decode(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		if err := api.Refresh(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusAccepted, map[string]string{"status": "queued"})
	}))

	r.Post(routes.Preferences, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.SaveLayoutPreferencesInput
		if err := decode(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		payload.Viewer = resolver(ctx)
		if err := api.Preferences(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "saved"})
	}))
}

func registerViewAPI[T any](r router.Router[T], api httpapi.Executor, resolver ViewerResolver, routes RouteConfig) {
	r.Post(routes.Filters, router.WrapHandler(func(ctx router.Context) error {
		id, err := widgetID(ctx)
		if err != nil {
			return respondError(ctx, err)
		}
		var payload httpapi.FilterPayload
		if err := decode(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		input := commands.SelectFilterInput{Viewer: resolver(ctx), WidgetID: id, Filter: payload.Filter, Value: payload.Value}
		if err := api.SelectFilter(ctx.Context(), input); err != nil {
			return respondError(ctx, err)
		}
		return renderWidget(ctx, api, resolver, http.StatusOK)
	}))

	r.Post(routes.Menu, router.WrapHandler(func(ctx router.Context) error {
		id, err := widgetID(ctx)
		if err != nil {
			return respondError(ctx, err)
		}
		var payload httpapi.FilterPayload
		if err := decode(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		input := commands.ToggleFilterMenuInput{Viewer: resolver(ctx), WidgetID: id, Filter: payload.Filter}
		if err := api.ToggleMenu(ctx.Context(), input); err != nil {
			return respondError(ctx, err)
		}
		return renderWidget(ctx, api, resolver, http.StatusOK)
	}))

	r.Post(routes.Detail, router.WrapHandler(func(ctx router.Context) error {
		id, err := widgetID(ctx)
		if err != nil {
			return respondError(ctx, err)
		}
		var payload httpapi.DetailPayload
		if err := decode(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		var detail dashboard.WidgetData
		input := commands.OpenDetailInput{Viewer: resolver(ctx), WidgetID: id, Record: payload.Record, Result: &detail}
		if err := api.OpenDetail(ctx.Context(), input); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, detail)
	}))

	r.Delete(routes.Detail, router.WrapHandler(func(ctx router.Context) error {
		id, err := widgetID(ctx)
		if err != nil {
			return respondError(ctx, err)
		}
		if err := api.CloseDetail(ctx.Context(), commands.CloseDetailInput{Viewer: resolver(ctx), WidgetID: id}); err != nil {
			return respondError(ctx, err)
		}
		return renderWidget(ctx, api, resolver, http.StatusOK)
	}))

	r.Delete(routes.View, router.WrapHandler(func(ctx router.Context) error {
		id, err := widgetID(ctx)
		if err != nil {
			return respondError(ctx, err)
		}
		if err := api.ResetView(ctx.Context(), commands.ResetViewInput{Viewer: resolver(ctx), WidgetID: id}); err != nil {
			return respondError(ctx, err)
		}
		return renderWidget(ctx, api, resolver, http.StatusOK)
	}))

	r.Delete(routes.ResetAll, router.WrapHandler(func(ctx router.Context) error {
		if err := api.ResetView(ctx.Context(), commands.ResetViewInput{Viewer: resolver(ctx)}); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "reset"})
	}))
}

func registerCollabAPI[T any](r router.Router[T], api httpapi.Executor, resolver ViewerResolver, routes RouteConfig) {
	r.Get(routes.Chat, router.WrapHandler(func(ctx router.Context) error {
		id, err := widgetID(ctx)
		if err != nil {
			return respondError(ctx, err)
		}
		transcript, err := api.Transcript(ctx.Context(), queries.WidgetInput{Viewer: resolver(ctx), WidgetID: id})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, transcript)
	}))

	r.Post(routes.Chat, router.WrapHandler(func(ctx router.Context) error {
		id, err := widgetID(ctx)
		if err != nil {
			return respondError(ctx, err)
		}
		var payload httpapi.ChatPayload
		if err := decode(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		var sent collab.Message
		input := commands.SendChatMessageInput{Viewer: resolver(ctx), WidgetID: id, Text: payload.Text, Result: &sent}
		if err := api.SendChat(ctx.Context(), input); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusCreated, sent)
	}))

	r.Post(routes.Escalations, router.WrapHandler(func(ctx router.Context) error {
		id, err := widgetID(ctx)
		if err != nil {
			return respondError(ctx, err)
		}
		var payload dashboard.EscalationRequest
		if err := decode(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		var ack dashboard.Acknowledgment
		input := commands.EscalateRequestInput{Viewer: resolver(ctx), WidgetID: id, Request: payload, Result: &ack}
		if err := api.Escalate(ctx.Context(), input); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusAccepted, ack)
	}))
}

// registerWebSocket streams the viewer's refresh events. Events scoped to
// another viewer are filtered by the hook.
func registerWebSocket[T any](r router.Router[T], hook *dashboard.BroadcastHook, resolver ViewerResolver, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe(resolver(ws).UserID)
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func renderWidget(ctx router.Context, api httpapi.Executor, resolver ViewerResolver, status int) error {
	id, err := widgetID(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	inst, err := api.Widget(ctx.Context(), queries.WidgetInput{Viewer: resolver(ctx), WidgetID: id})
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(status, inst)
}

// requestError marks malformed input, answered with 400.
type requestError struct{ err error }

func (e requestError) Error() string { return e.err.Error() }
func (e requestError) Unwrap() error { return e.err }

var errWidgetIDRequired = errors.New("widget id is required")

func widgetID(ctx router.Context) (string, error) {
	id := strings.TrimSpace(ctx.Param("id"))
	if id == "" {
		return "", requestError{errWidgetIDRequired}
	}
	return id, nil
}

func decode(ctx router.Context, target any) error {
	body := ctx.Body()
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return requestError{err}
	}
	return nil
}

func defaultViewerResolver(ctx router.Context) dashboard.ViewerContext {
	var viewer dashboard.ViewerContext
	if v, ok := ctx.Locals("user_id").(string); ok {
		viewer.UserID = v
	}
	if viewer.UserID == "" {
		viewer.UserID = strings.TrimSpace(ctx.Query("user_id"))
	}
	if roles, ok := ctx.Locals("roles").([]string); ok {
		viewer.Roles = roles
	}
	viewer.Locale = inferLocale(ctx)
	return viewer
}

func inferLocale(ctx router.Context) string {
	if locale, ok := ctx.Locals("locale").(string); ok && locale != "" {
		return locale
	}
	if locale := strings.TrimSpace(ctx.Param("locale")); locale != "" {
		return strings.ToLower(locale)
	}
	if locale := strings.TrimSpace(ctx.Query("locale")); locale != "" {
		return strings.ToLower(locale)
	}
	if header := ctx.Header("Accept-Language"); header != "" {
		if lang := parseAcceptLanguage(header); lang != "" {
			return lang
		}
	}
	return ""
}

func parseAcceptLanguage(header string) string {
	for _, token := range strings.Split(header, ",") {
		token = strings.TrimSpace(token)
		if idx := strings.Index(token, ";"); idx >= 0 {
			token = token[:idx]
		}
		if token != "" {
			return strings.ToLower(token)
		}
	}
	return ""
}

func respondError(ctx router.Context, err error) error {
	status := httpapi.StatusFor(err)
	var reqErr requestError
	if errors.As(err, &reqErr) {
		status = http.StatusBadRequest
	}
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	set := func(field *string, value string) {
		if *field == "" {
			*field = value
		}
	}
	set(&routes.HTML, "/dashboard")
	set(&routes.Layout, "/dashboard/_layout")
	set(&routes.Widgets, "/dashboard/widgets")
	set(&routes.WidgetID, "/dashboard/widgets/:id")
	set(&routes.Filters, "/dashboard/widgets/:id/filters")
	set(&routes.Menu, "/dashboard/widgets/:id/menu")
	set(&routes.Detail, "/dashboard/widgets/:id/detail")
	set(&routes.View, "/dashboard/widgets/:id/view")
	set(&routes.ResetAll, "/dashboard/view")
	set(&routes.Chat, "/dashboard/widgets/:id/chat")
	set(&routes.Escalations, "/dashboard/widgets/:id/escalations")
	set(&routes.Refresh, "/dashboard/widgets/refresh")
	set(&routes.Preferences, "/dashboard/preferences")
	set(&routes.WebSocket, "/dashboard/ws")
	set(&routes.Assets, dashboard.DefaultStaticPath)
	return routes
}
