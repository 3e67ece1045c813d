package collab

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Options configures panels created by a Hub.
type Options struct {
	Delay     time.Duration
	Scheduler Scheduler
	Responder Responder
	Clock     func() time.Time
	NewID     func() string
}

func (o Options) normalize() Options {
	if o.Delay <= 0 {
		o.Delay = DefaultReplyDelay
	}
	if o.Scheduler == nil {
		o.Scheduler = TimerScheduler{}
	}
	if o.Responder == nil {
		o.Responder = CannedResponder
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

// Panel is one viewer's collaboration panel. The log is append-only for the
// lifetime of a conversation; switching conversations starts a new log.
type Panel struct {
	opts    Options
	onReply func(Message)

	mu           sync.Mutex
	conversation Conversation
	log          []Message
	replies      int
	generation   uint64
	nextTask     uint64
	pending      map[uint64]func() bool
	closed       bool
}

// NewPanel creates a panel on conversation. onReply, when set, is called
// after each delivered reply, outside the panel lock.
func NewPanel(conversation Conversation, opts Options, onReply func(Message)) *Panel {
	if conversation == "" {
		conversation = Conversations[0]
	}
	return &Panel{
		opts:         opts.normalize(),
		onReply:      onReply,
		conversation: conversation,
		pending:      map[uint64]func() bool{},
	}
}

// Send appends the viewer's message and schedules exactly one reply.
func (p *Panel) Send(author, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return Message{}, ErrPanelClosed
	}
	msg := Message{
		ID:           p.opts.NewID(),
		Conversation: p.conversation,
		Role:         RoleViewer,
		Author:       author,
		Text:         text,
		SentAt:       p.opts.Clock(),
	}
	p.log = append(p.log, msg)

	gen := p.generation
	task := p.nextTask
	p.nextTask++
	// fn runs on another goroutine and blocks on mu until the task is registered
	p.pending[task] = p.opts.Scheduler.AfterFunc(p.opts.Delay, func() {
		p.deliver(gen, task, text)
	})
	return msg, nil
}

func (p *Panel) deliver(gen, task uint64, text string) {
	p.mu.Lock()
	if p.closed || gen != p.generation {
		p.mu.Unlock()
		return
	}
	if _, ok := p.pending[task]; !ok {
		p.mu.Unlock()
		return
	}
	delete(p.pending, task)
	reply := Message{
		ID:           p.opts.NewID(),
		Conversation: p.conversation,
		Role:         RoleCounterpart,
		Author:       p.conversation.Counterpart(),
		Text:         p.opts.Responder.Reply(p.conversation, text, p.replies),
		SentAt:       p.opts.Clock(),
	}
	p.replies++
	p.log = append(p.log, reply)
	onReply := p.onReply
	p.mu.Unlock()

	if onReply != nil {
		onReply(reply)
	}
}

// Switch moves the panel to conversation, cancelling pending replies and
// clearing the log. Switching to the active conversation is a no-op.
func (p *Panel) Switch(conversation Conversation) error {
	if _, err := ParseConversation(string(conversation)); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.conversation == conversation {
		return nil
	}
	p.invalidateLocked()
	p.conversation = conversation
	p.log = nil
	p.replies = 0
	return nil
}

// Close cancels pending replies. A closed panel rejects new messages.
func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.invalidateLocked()
	p.closed = true
}

func (p *Panel) invalidateLocked() {
	p.generation++
	for task, cancel := range p.pending {
		cancel()
		delete(p.pending, task)
	}
}

// Conversation returns the active conversation.
func (p *Panel) Conversation() Conversation {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conversation
}

// Transcript returns a copy of the active conversation log.
func (p *Panel) Transcript() Transcript {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Transcript{
		Conversation: p.conversation,
		Counterpart:  p.conversation.Counterpart(),
		Messages:     append([]Message(nil), p.log...),
		Pending:      len(p.pending),
	}
}
