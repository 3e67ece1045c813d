package dashboard

import (
	"context"

	"github.com/goliatone/go-rmg-dashboard/components/dashboard/collab"
)

// CollaborationProvider renders the viewer's chat panel. The service owns the
// panel and passes its transcript through WidgetContext.Chat.
type CollaborationProvider struct{}

var (
	_ Provider     = CollaborationProvider{}
	_ ChatProvider = CollaborationProvider{}
)

// ConversationFilter implements ChatProvider.
func (CollaborationProvider) ConversationFilter() string {
	return FilterConversation
}

// Fetch implements Provider.
func (CollaborationProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	var transcript collab.Transcript
	if meta.Chat != nil {
		transcript = *meta.Chat
	} else {
		conv, err := collab.ParseConversation(meta.Filter(FilterConversation, string(collab.Conversations[0])))
		if err != nil {
			return nil, err
		}
		transcript = collab.Transcript{Conversation: conv, Counterpart: conv.Counterpart()}
	}
	title := stringValue(meta.Instance.Configuration["title"], "Collaboration")
	title = translateOrFallback(ctx, meta.Translator, "dashboard.widget.collaboration.title", meta.Viewer.Locale, title, nil)
	return WidgetData{
		"title":         title,
		"conversation":  transcript.Conversation,
		"counterpart":   transcript.Counterpart,
		"messages":      transcript.Messages,
		"pending":       transcript.Pending,
		"awaiting":      transcript.Pending > 0,
		"conversations": conversationOptions,
	}, nil
}
