package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-rmg-dashboard/components/dashboard"
	"github.com/goliatone/go-rmg-dashboard/components/dashboard/collab"
)

// SendChatMessageInput posts a message on a collaboration widget. Result, when
// set, receives the stored message.
type SendChatMessageInput struct {
	Viewer   dashboard.ViewerContext `json:"viewer"`
	WidgetID string                  `json:"widget_id"`
	Text     string                  `json:"text"`
	Result   *collab.Message         `json:"-"`
}

type chatService interface {
	SendChatMessage(ctx context.Context, viewer dashboard.ViewerContext, instanceID, text string) (collab.Message, error)
}

// SendChatMessageCommand wraps Service.SendChatMessage.
type SendChatMessageCommand struct {
	service   chatService
	telemetry Telemetry
}

// NewSendChatMessageCommand creates the command.
func NewSendChatMessageCommand(service chatService, telemetry Telemetry) *SendChatMessageCommand {
	return &SendChatMessageCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SendChatMessageInput] = (*SendChatMessageCommand)(nil)

// Execute sends the message; the reply arrives through the refresh hooks.
func (c *SendChatMessageCommand) Execute(ctx context.Context, msg SendChatMessageInput) error {
	if c.service == nil {
		return errors.New("chat command requires service")
	}
	if msg.WidgetID == "" {
		return errors.New("chat command requires widget id")
	}
	sent, err := c.service.SendChatMessage(ctx, msg.Viewer, msg.WidgetID, msg.Text)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = sent
	}
	c.telemetry.Record(ctx, "dashboard.command.chat_send", map[string]any{
		"widget_id":    msg.WidgetID,
		"conversation": string(sent.Conversation),
	})
	return nil
}

// EscalateRequestInput escalates a request to RMG or TAG. Result, when set,
// receives the acknowledgment.
type EscalateRequestInput struct {
	Viewer   dashboard.ViewerContext     `json:"viewer"`
	WidgetID string                      `json:"widget_id"`
	Request  dashboard.EscalationRequest `json:"request"`
	Result   *dashboard.Acknowledgment   `json:"-"`
}

type escalationService interface {
	EscalateRequest(ctx context.Context, viewer dashboard.ViewerContext, instanceID string, req dashboard.EscalationRequest) (dashboard.Acknowledgment, error)
}

// EscalateRequestCommand wraps Service.EscalateRequest.
type EscalateRequestCommand struct {
	service   escalationService
	telemetry Telemetry
}

// NewEscalateRequestCommand creates the command.
func NewEscalateRequestCommand(service escalationService, telemetry Telemetry) *EscalateRequestCommand {
	return &EscalateRequestCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[EscalateRequestInput] = (*EscalateRequestCommand)(nil)

// Execute forwards the escalation.
func (c *EscalateRequestCommand) Execute(ctx context.Context, msg EscalateRequestInput) error {
	if c.service == nil {
		return errors.New("escalation command requires service")
	}
	if msg.WidgetID == "" {
		return errors.New("escalation command requires widget id")
	}
	ack, err := c.service.EscalateRequest(ctx, msg.Viewer, msg.WidgetID, msg.Request)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = ack
	}
	c.telemetry.Record(ctx, "dashboard.command.escalate", map[string]any{
		"widget_id":  msg.WidgetID,
		"request_id": ack.RequestID,
		"target":     ack.Target,
	})
	return nil
}
