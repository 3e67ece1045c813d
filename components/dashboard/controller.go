package dashboard

import (
	"context"
	"errors"
	"io"
	"sort"
)

const defaultDashboardTemplate = "dashboard.html"

// LayoutResolver resolves the widget layout for a viewer.
type LayoutResolver interface {
	ConfigureLayout(ctx context.Context, viewer ViewerContext) (Layout, error)
}

// DefinitionLister lists widget definitions for display names.
type DefinitionLister interface {
	Definitions() []WidgetDefinition
}

// ControllerOptions wires the controller collaborators. Definitions is
// optional; when set widget names are localized for the viewer.
type ControllerOptions struct {
	Service     LayoutResolver
	Renderer    Renderer
	Template    string
	Definitions DefinitionLister
	Areas       []WidgetAreaDefinition
	AssetsHost  string
	StaticPath  string
}

// Controller turns resolved layouts into JSON payloads and HTML pages.
type Controller struct {
	opts ControllerOptions
}

// NewController applies defaults to opts.
func NewController(opts ControllerOptions) *Controller {
	if opts.Template == "" {
		opts.Template = defaultDashboardTemplate
	}
	if len(opts.Areas) == 0 {
		opts.Areas = DefaultAreaDefinitions()
	}
	if opts.AssetsHost == "" {
		opts.AssetsHost = DefaultEChartsAssetsHost()
	}
	if opts.StaticPath == "" {
		opts.StaticPath = DefaultStaticPath
	}
	return &Controller{opts: opts}
}

// WidgetPayload is one widget as published to templates and clients.
type WidgetPayload struct {
	ID            string         `json:"id"`
	DefinitionID  string         `json:"definition_id"`
	Name          string         `json:"name"`
	AreaCode      string         `json:"area_code"`
	Configuration map[string]any `json:"configuration,omitempty"`
	View          any            `json:"view,omitempty"`
	Data          WidgetData     `json:"data,omitempty"`
	Detail        WidgetData     `json:"detail,omitempty"`
}

// AreaPayload groups the widgets of one area.
type AreaPayload struct {
	Code    string          `json:"code"`
	Name    string          `json:"name"`
	Widgets []WidgetPayload `json:"widgets"`
}

// LayoutPayload is the serialized dashboard for one viewer.
type LayoutPayload struct {
	Viewer ViewerContext `json:"viewer"`
	Areas  []AreaPayload `json:"areas"`
}

// Render resolves the layout for a viewer.
func (c *Controller) Render(ctx context.Context, viewer ViewerContext) (Layout, error) {
	if c.opts.Service == nil {
		return Layout{}, errors.New("dashboard: controller requires a layout resolver")
	}
	return c.opts.Service.ConfigureLayout(ctx, viewer)
}

// LayoutPayload resolves the layout and shapes it per area, in area
// declaration order. Areas not declared are appended sorted by code.
func (c *Controller) LayoutPayload(ctx context.Context, viewer ViewerContext) (LayoutPayload, error) {
	layout, err := c.Render(ctx, viewer)
	if err != nil {
		return LayoutPayload{}, err
	}
	names := c.definitionNames(viewer.Locale)
	payload := LayoutPayload{Viewer: viewer}
	seen := make(map[string]struct{}, len(c.opts.Areas))
	for _, area := range c.opts.Areas {
		seen[area.Code] = struct{}{}
		payload.Areas = append(payload.Areas, areaPayload(area.Code, area.Name, layout.Areas[area.Code], names))
	}
	var extra []string
	for code := range layout.Areas {
		if _, ok := seen[code]; !ok {
			extra = append(extra, code)
		}
	}
	sort.Strings(extra)
	for _, code := range extra {
		payload.Areas = append(payload.Areas, areaPayload(code, code, layout.Areas[code], names))
	}
	return payload, nil
}

// RenderTemplate renders the dashboard page into out.
func (c *Controller) RenderTemplate(ctx context.Context, viewer ViewerContext, out io.Writer) error {
	if c.opts.Renderer == nil {
		return errors.New("dashboard: controller requires a renderer")
	}
	payload, err := c.LayoutPayload(ctx, viewer)
	if err != nil {
		return err
	}
	_, err = c.opts.Renderer.Render(c.opts.Template, map[string]any{
		"viewer":      payload.Viewer,
		"areas":       payload.Areas,
		"assets_host": c.opts.AssetsHost,
		"static_path": ensureTrailingSlash(c.opts.StaticPath),
	}, out)
	return err
}

func (c *Controller) definitionNames(locale string) map[string]string {
	if c.opts.Definitions == nil {
		return nil
	}
	defs := c.opts.Definitions.Definitions()
	names := make(map[string]string, len(defs))
	for _, def := range defs {
		names[def.Code] = def.NameForLocale(locale)
	}
	return names
}

func areaPayload(code, name string, widgets []WidgetInstance, names map[string]string) AreaPayload {
	area := AreaPayload{Code: code, Name: name, Widgets: make([]WidgetPayload, 0, len(widgets))}
	for _, w := range widgets {
		item := WidgetPayload{
			ID:            w.ID,
			DefinitionID:  w.DefinitionID,
			Name:          names[w.DefinitionID],
			AreaCode:      code,
			Configuration: w.Configuration,
			View:          w.Metadata["view"],
		}
		if item.Name == "" {
			item.Name = w.DefinitionID
		}
		if data, ok := w.Metadata["data"].(WidgetData); ok {
			item.Data = data
		}
		if detail, ok := w.Metadata["detail"].(WidgetData); ok {
			item.Detail = detail
		}
		area.Widgets = append(area.Widgets, item)
	}
	return area
}
