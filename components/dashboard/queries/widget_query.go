package queries

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-rmg-dashboard/components/dashboard"
	"github.com/goliatone/go-rmg-dashboard/components/dashboard/collab"
)

// WidgetInput identifies one widget as seen by a viewer.
type WidgetInput struct {
	Viewer   dashboard.ViewerContext `json:"viewer"`
	WidgetID string                  `json:"widget_id"`
}

var errWidgetRequired = errors.New("query requires widget id")

type widgetService interface {
	RenderWidget(ctx context.Context, viewer dashboard.ViewerContext, instanceID string) (dashboard.WidgetInstance, error)
}

// WidgetQuery renders a single widget with its data, view-state and open
// detail, e.g. after a filter change or a pushed refresh.
type WidgetQuery struct {
	service widgetService
}

// NewWidgetQuery builds the query.
func NewWidgetQuery(service widgetService) *WidgetQuery {
	return &WidgetQuery{service: service}
}

var _ gocommand.Querier[WidgetInput, dashboard.WidgetInstance] = (*WidgetQuery)(nil)

// Query renders the widget for the viewer.
func (q *WidgetQuery) Query(ctx context.Context, input WidgetInput) (dashboard.WidgetInstance, error) {
	if input.WidgetID == "" {
		return dashboard.WidgetInstance{}, errWidgetRequired
	}
	return q.service.RenderWidget(ctx, input.Viewer, input.WidgetID)
}

type transcriptService interface {
	ChatTranscript(ctx context.Context, viewer dashboard.ViewerContext, instanceID string) (collab.Transcript, error)
}

// ChatTranscriptQuery reads the viewer's collaboration transcript.
type ChatTranscriptQuery struct {
	service transcriptService
}

// NewChatTranscriptQuery builds the query.
func NewChatTranscriptQuery(service transcriptService) *ChatTranscriptQuery {
	return &ChatTranscriptQuery{service: service}
}

var _ gocommand.Querier[WidgetInput, collab.Transcript] = (*ChatTranscriptQuery)(nil)

// Query returns the active conversation log.
func (q *ChatTranscriptQuery) Query(ctx context.Context, input WidgetInput) (collab.Transcript, error) {
	if input.WidgetID == "" {
		return collab.Transcript{}, errWidgetRequired
	}
	return q.service.ChatTranscript(ctx, input.Viewer, input.WidgetID)
}
