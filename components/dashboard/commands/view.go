package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-rmg-dashboard/components/dashboard"
)

// SelectFilterInput picks an option of one widget filter or tab.
type SelectFilterInput struct {
	Viewer   dashboard.ViewerContext `json:"viewer"`
	WidgetID string                  `json:"widget_id"`
	Filter   string                  `json:"filter"`
	Value    string                  `json:"value"`
}

// ToggleFilterMenuInput opens or closes a filter's option menu.
type ToggleFilterMenuInput struct {
	Viewer   dashboard.ViewerContext `json:"viewer"`
	WidgetID string                  `json:"widget_id"`
	Filter   string                  `json:"filter"`
}

// OpenDetailInput opens the drill-down of one record. Result, when set,
// receives the resolved detail.
type OpenDetailInput struct {
	Viewer   dashboard.ViewerContext `json:"viewer"`
	WidgetID string                  `json:"widget_id"`
	Record   string                  `json:"record"`
	Result   *dashboard.WidgetData   `json:"-"`
}

// WidgetViewInput addresses a viewer's view of one widget.
type WidgetViewInput struct {
	Viewer   dashboard.ViewerContext `json:"viewer"`
	WidgetID string                  `json:"widget_id"`
}

// CloseDetailInput dismisses the open drill-down.
type CloseDetailInput WidgetViewInput

// ResetViewInput drops the viewer's view-state for a widget, or for every
// widget when WidgetID is empty.
type ResetViewInput WidgetViewInput

type viewService interface {
	SelectFilter(ctx context.Context, viewer dashboard.ViewerContext, instanceID, key, value string) error
	ToggleFilterMenu(ctx context.Context, viewer dashboard.ViewerContext, instanceID, key string) error
	OpenDetail(ctx context.Context, viewer dashboard.ViewerContext, instanceID, recordKey string) (dashboard.WidgetData, error)
	CloseDetail(ctx context.Context, viewer dashboard.ViewerContext, instanceID string) error
	ResetView(ctx context.Context, viewer dashboard.ViewerContext, instanceID string) error
	ResetViewer(ctx context.Context, viewer dashboard.ViewerContext) error
}

var errViewServiceMissing = errors.New("view command requires service")

func requireWidget(id string) error {
	if id == "" {
		return errors.New("view command requires widget id")
	}
	return nil
}

// SelectFilterCommand wraps Service.SelectFilter.
type SelectFilterCommand struct {
	service   viewService
	telemetry Telemetry
}

// NewSelectFilterCommand creates the command.
func NewSelectFilterCommand(service viewService, telemetry Telemetry) *SelectFilterCommand {
	return &SelectFilterCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SelectFilterInput] = (*SelectFilterCommand)(nil)

// Execute applies the selection.
func (c *SelectFilterCommand) Execute(ctx context.Context, msg SelectFilterInput) error {
	if c.service == nil {
		return errViewServiceMissing
	}
	if err := requireWidget(msg.WidgetID); err != nil {
		return err
	}
	if err := c.service.SelectFilter(ctx, msg.Viewer, msg.WidgetID, msg.Filter, msg.Value); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.select_filter", map[string]any{
		"widget_id": msg.WidgetID,
		"filter":    msg.Filter,
		"value":     msg.Value,
	})
	return nil
}

// ToggleFilterMenuCommand wraps Service.ToggleFilterMenu.
type ToggleFilterMenuCommand struct {
	service   viewService
	telemetry Telemetry
}

// NewToggleFilterMenuCommand creates the command.
func NewToggleFilterMenuCommand(service viewService, telemetry Telemetry) *ToggleFilterMenuCommand {
	return &ToggleFilterMenuCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ToggleFilterMenuInput] = (*ToggleFilterMenuCommand)(nil)

// Execute toggles the menu.
func (c *ToggleFilterMenuCommand) Execute(ctx context.Context, msg ToggleFilterMenuInput) error {
	if c.service == nil {
		return errViewServiceMissing
	}
	if err := requireWidget(msg.WidgetID); err != nil {
		return err
	}
	return c.service.ToggleFilterMenu(ctx, msg.Viewer, msg.WidgetID, msg.Filter)
}

// OpenDetailCommand wraps Service.OpenDetail.
type OpenDetailCommand struct {
	service   viewService
	telemetry Telemetry
}

// NewOpenDetailCommand creates the command.
func NewOpenDetailCommand(service viewService, telemetry Telemetry) *OpenDetailCommand {
	return &OpenDetailCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[OpenDetailInput] = (*OpenDetailCommand)(nil)

// Execute resolves and opens the record.
func (c *OpenDetailCommand) Execute(ctx context.Context, msg OpenDetailInput) error {
	if c.service == nil {
		return errViewServiceMissing
	}
	if err := requireWidget(msg.WidgetID); err != nil {
		return err
	}
	if msg.Record == "" {
		return errors.New("open detail command requires record key")
	}
	detail, err := c.service.OpenDetail(ctx, msg.Viewer, msg.WidgetID, msg.Record)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = detail
	}
	c.telemetry.Record(ctx, "dashboard.command.open_detail", map[string]any{
		"widget_id": msg.WidgetID,
		"record":    msg.Record,
	})
	return nil
}

// CloseDetailCommand wraps Service.CloseDetail.
type CloseDetailCommand struct {
	service   viewService
	telemetry Telemetry
}

// NewCloseDetailCommand creates the command.
func NewCloseDetailCommand(service viewService, telemetry Telemetry) *CloseDetailCommand {
	return &CloseDetailCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[CloseDetailInput] = (*CloseDetailCommand)(nil)

// Execute closes the drill-down.
func (c *CloseDetailCommand) Execute(ctx context.Context, msg CloseDetailInput) error {
	if c.service == nil {
		return errViewServiceMissing
	}
	if err := requireWidget(msg.WidgetID); err != nil {
		return err
	}
	return c.service.CloseDetail(ctx, msg.Viewer, msg.WidgetID)
}

// ResetViewCommand wraps Service.ResetView and Service.ResetViewer.
type ResetViewCommand struct {
	service   viewService
	telemetry Telemetry
}

// NewResetViewCommand creates the command.
func NewResetViewCommand(service viewService, telemetry Telemetry) *ResetViewCommand {
	return &ResetViewCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ResetViewInput] = (*ResetViewCommand)(nil)

// Execute resets one widget, or the whole dashboard when no widget is named.
func (c *ResetViewCommand) Execute(ctx context.Context, msg ResetViewInput) error {
	if c.service == nil {
		return errViewServiceMissing
	}
	if msg.WidgetID == "" {
		return c.service.ResetViewer(ctx, msg.Viewer)
	}
	if err := c.service.ResetView(ctx, msg.Viewer, msg.WidgetID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.reset_view", map[string]any{"widget_id": msg.WidgetID})
	return nil
}
