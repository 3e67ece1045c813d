package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-rmg-dashboard/pkg/activity"
)

func newActivityHarness(t *testing.T) (*serviceHarness, *activity.CaptureHook) {
	t.Helper()
	capture := &activity.CaptureHook{}
	h := newServiceHarness(t, func(o *Options) {
		o.ActivityHooks = activity.Hooks{capture}
		o.ActivityConfig = activity.Config{Enabled: true, Channel: "rmg"}
	})
	return h, capture
}

func lastEvent(t *testing.T, capture *activity.CaptureHook) activity.Event {
	t.Helper()
	events := capture.Snapshot()
	require.NotEmpty(t, events)
	return events[len(events)-1]
}

func TestAddWidgetEmitsActivity(t *testing.T) {
	h, capture := newActivityHarness(t)
	seeded := len(capture.Snapshot())

	req := AddWidgetRequest{
		DefinitionID: WidgetSkillGap,
		AreaCode:     AreaMain,
		ActorID:      "actor-1",
		UserID:       "user-1",
		TenantID:     "tenant-1",
	}
	if err := h.service.AddWidget(context.Background(), req); err != nil {
		t.Fatalf("AddWidget returned error: %v", err)
	}
	if got := len(capture.Snapshot()); got != seeded+1 {
		t.Fatalf("expected 1 new activity event, got %d", got-seeded)
	}
	event := lastEvent(t, capture)
	if event.Verb != "dashboard.widget.add" || event.ObjectType != "widget_instance" {
		t.Fatalf("unexpected event payload: %+v", event)
	}
	if event.ActorID != "actor-1" || event.UserID != "user-1" || event.TenantID != "tenant-1" {
		t.Fatalf("unexpected actor context: %+v", event)
	}
	if event.Channel != "rmg" || event.Metadata["area_code"] != AreaMain {
		t.Fatalf("expected channel and area metadata, got %+v", event)
	}
}

func TestRemoveWidgetEmitsActivity(t *testing.T) {
	h, capture := newActivityHarness(t)
	id := h.widgetID(t, WidgetBenchAging)
	ctx := ContextWithActivity(context.Background(), ActivityContext{ActorID: "admin-1", TenantID: "acme"})

	require.NoError(t, h.service.RemoveWidget(ctx, id))
	event := lastEvent(t, capture)
	assert.Equal(t, "dashboard.widget.remove", event.Verb)
	assert.Equal(t, id, event.ObjectID)
	assert.Equal(t, WidgetBenchAging, event.DefinitionCode)
	assert.Equal(t, "admin-1", event.ActorID)
	assert.Equal(t, "acme", event.TenantID)
	assert.Equal(t, fixtureAsOf, event.OccurredAt)
}

func TestDetailChatAndEscalationEmitActivity(t *testing.T) {
	h, capture := newActivityHarness(t)
	ctx := context.Background()

	_, err := h.service.OpenDetail(ctx, rm, h.widgetID(t, WidgetSLAOverview), "REQ-1")
	require.NoError(t, err)
	event := lastEvent(t, capture)
	assert.Equal(t, "dashboard.detail.open", event.Verb)
	assert.Equal(t, "widget_record", event.ObjectType)
	assert.Equal(t, "REQ-1", event.ObjectID)
	assert.Equal(t, rm.UserID, event.ActorID, "actor falls back to the viewer")

	msg, err := h.service.SendChatMessage(ctx, rm, h.widgetID(t, WidgetCollaboration), "status?")
	require.NoError(t, err)
	event = lastEvent(t, capture)
	assert.Equal(t, "dashboard.chat.send", event.Verb)
	assert.Equal(t, msg.ID, event.ObjectID)
	assert.Equal(t, "rmg", event.Metadata["conversation"])

	_, err = h.service.EscalateRequest(ctx, rm, h.widgetID(t, WidgetSLAOverview), EscalationRequest{RequestID: "REQ-2", Target: EscalateToTAG})
	require.NoError(t, err)
	event = lastEvent(t, capture)
	assert.Equal(t, "dashboard.request.escalate", event.Verb)
	assert.Equal(t, "resource_request", event.ObjectType)
	assert.Equal(t, []string{EscalateToTAG}, event.Recipients)
}

func TestActivityDisabledEmitsNothing(t *testing.T) {
	capture := &activity.CaptureHook{}
	h := newServiceHarness(t, func(o *Options) {
		o.ActivityHooks = activity.Hooks{capture}
	})
	_, err := h.service.OpenDetail(context.Background(), rm, h.widgetID(t, WidgetSLAOverview), "REQ-1")
	require.NoError(t, err)
	assert.Empty(t, capture.Snapshot())
}
