package dashboard

import (
	"context"
	"fmt"

	"github.com/goliatone/go-rmg-dashboard/components/dashboard/collab"
	"github.com/goliatone/go-rmg-dashboard/pkg/activity"
)

// SendChatMessage appends the viewer's message to the collaboration panel and
// schedules the counterpart reply. The panel is created on first use, on the
// conversation currently selected for the widget.
func (s *Service) SendChatMessage(ctx context.Context, viewer ViewerContext, instanceID, text string) (collab.Message, error) {
	inst, def, provider, err := s.resolveWidget(ctx, viewer, instanceID)
	if err != nil {
		return collab.Message{}, err
	}
	chat, ok := provider.(ChatProvider)
	if !ok {
		return collab.Message{}, fmt.Errorf("%w: %s", ErrChatUnsupported, def.Code)
	}
	meta, err := s.widgetContext(ctx, viewer, inst, def, provider)
	if err != nil {
		return collab.Message{}, err
	}
	conv, err := collab.ParseConversation(meta.Filter(chat.ConversationFilter(), string(collab.Conversations[0])))
	if err != nil {
		return collab.Message{}, err
	}
	session := NewSessionKey(viewer, inst.ID)
	panel := s.opts.Chat.Panel(session, conv, s.chatReplyNotifier(viewer, inst))
	if panel.Conversation() != conv {
		if err := panel.Switch(conv); err != nil {
			return collab.Message{}, err
		}
	}
	msg, err := panel.Send(session.UserID, text)
	if err != nil {
		return collab.Message{}, err
	}
	s.recordTelemetry(ctx, "dashboard.chat.send", map[string]any{
		"widget_id":    inst.ID,
		"conversation": string(conv),
	})
	s.emitActivity(ctx, activity.Event{
		Verb:           "dashboard.chat.send",
		UserID:         viewer.UserID,
		ObjectType:     "chat_message",
		ObjectID:       msg.ID,
		DefinitionCode: def.Code,
		Metadata: map[string]any{
			"widget_id":    inst.ID,
			"conversation": string(conv),
		},
	})
	return msg, nil
}

// chatReplyNotifier pushes a refresh when a scheduled reply lands. It runs on
// the scheduler's goroutine, after the originating request has returned.
func (s *Service) chatReplyNotifier(viewer ViewerContext, inst WidgetInstance) func(collab.Message) {
	event := WidgetEvent{
		AreaCode: inst.AreaCode,
		UserID:   viewer.UserID,
		Instance: WidgetInstance{ID: inst.ID, DefinitionID: inst.DefinitionID, AreaCode: inst.AreaCode},
		Reason:   "chat.reply",
	}
	return func(collab.Message) {
		ctx := context.Background()
		if err := s.NotifyWidgetUpdated(ctx, event); err != nil {
			s.recordTelemetry(ctx, "dashboard.chat.notify_error", map[string]any{
				"widget_id": inst.ID,
				"error":     err.Error(),
			})
		}
	}
}

// ChatTranscript returns the viewer's transcript for a collaboration widget.
// Before any message is sent it is empty, on the selected conversation.
func (s *Service) ChatTranscript(ctx context.Context, viewer ViewerContext, instanceID string) (collab.Transcript, error) {
	inst, def, provider, err := s.resolveWidget(ctx, viewer, instanceID)
	if err != nil {
		return collab.Transcript{}, err
	}
	chat, ok := provider.(ChatProvider)
	if !ok {
		return collab.Transcript{}, fmt.Errorf("%w: %s", ErrChatUnsupported, def.Code)
	}
	meta, err := s.widgetContext(ctx, viewer, inst, def, provider)
	if err != nil {
		return collab.Transcript{}, err
	}
	if meta.Chat != nil {
		return *meta.Chat, nil
	}
	conv, err := collab.ParseConversation(meta.Filter(chat.ConversationFilter(), string(collab.Conversations[0])))
	if err != nil {
		return collab.Transcript{}, err
	}
	return collab.Transcript{Conversation: conv, Counterpart: conv.Counterpart()}, nil
}

// EscalateRequest forwards a request to RMG or TAG through the widget's
// Escalator. The acknowledgment is stamped with the service clock.
func (s *Service) EscalateRequest(ctx context.Context, viewer ViewerContext, instanceID string, req EscalationRequest) (Acknowledgment, error) {
	inst, def, provider, err := s.resolveWidget(ctx, viewer, instanceID)
	if err != nil {
		return Acknowledgment{}, err
	}
	escalator, ok := provider.(Escalator)
	if !ok {
		return Acknowledgment{}, fmt.Errorf("%w: %s", ErrEscalationUnsupported, def.Code)
	}
	meta, err := s.widgetContext(ctx, viewer, inst, def, provider)
	if err != nil {
		return Acknowledgment{}, err
	}
	ack, err := escalator.Escalate(ctx, meta, req)
	if err != nil {
		return Acknowledgment{}, err
	}
	if ack.At.IsZero() {
		ack.At = s.opts.Clock().UTC()
	}
	s.recordTelemetry(ctx, "dashboard.request.escalate", map[string]any{
		"widget_id":  inst.ID,
		"request_id": ack.RequestID,
		"target":     ack.Target,
	})
	s.emitActivity(ctx, activity.Event{
		Verb:           "dashboard.request.escalate",
		UserID:         viewer.UserID,
		ObjectType:     "resource_request",
		ObjectID:       ack.RequestID,
		DefinitionCode: def.Code,
		Recipients:     []string{ack.Target},
		Metadata: map[string]any{
			"widget_id":      inst.ID,
			"acknowledgment": ack.ID,
			"team":           ack.Team,
		},
	})
	return ack, nil
}
