package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-rmg-dashboard/components/dashboard"
)

// RefreshWidgetInput asks connected viewers to reload one widget. An empty
// UserID reaches every viewer.
type RefreshWidgetInput struct {
	WidgetID string `json:"widget_id"`
	AreaCode string `json:"area_code"`
	UserID   string `json:"user_id,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type refreshNotifier interface {
	NotifyWidgetUpdated(ctx context.Context, event dashboard.WidgetEvent) error
}

// RefreshWidgetCommand triggers refresh hooks, e.g. after the upstream
// dataset changed.
type RefreshWidgetCommand struct {
	service   refreshNotifier
	telemetry Telemetry
}

// NewRefreshWidgetCommand creates the command.
func NewRefreshWidgetCommand(service refreshNotifier, telemetry Telemetry) *RefreshWidgetCommand {
	return &RefreshWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RefreshWidgetInput] = (*RefreshWidgetCommand)(nil)

// Execute notifies the dashboard service's refresh hooks.
func (c *RefreshWidgetCommand) Execute(ctx context.Context, msg RefreshWidgetInput) error {
	if c.service == nil {
		return errors.New("refresh command requires service")
	}
	if msg.WidgetID == "" && msg.AreaCode == "" {
		return errors.New("refresh command requires widget id or area code")
	}
	reason := msg.Reason
	if reason == "" {
		reason = "refresh"
	}
	event := dashboard.WidgetEvent{
		AreaCode: msg.AreaCode,
		UserID:   msg.UserID,
		Instance: dashboard.WidgetInstance{ID: msg.WidgetID, AreaCode: msg.AreaCode},
		Reason:   reason,
	}
	if err := c.service.NotifyWidgetUpdated(ctx, event); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.widget.refresh", map[string]any{
		"area_code": msg.AreaCode,
		"widget_id": msg.WidgetID,
	})
	return nil
}
