package session

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/orbitcrm/assist/internal/assistant/classify"
	"github.com/orbitcrm/assist/internal/assistant/kb"
	"github.com/orbitcrm/assist/internal/assistant/llm"
	"github.com/orbitcrm/assist/internal/assistant/textutil"
)

var (
	// ErrBusy rejects a send while another one is in flight.
	ErrBusy = errors.New("session: a send is already in flight")
	// ErrStale drops a completion that finished after the session was reset.
	ErrStale = errors.New("session: reply discarded, session was reset")
)

const fallbackApology = "I'm sorry, something went wrong while preparing an answer. Please try again in a moment."

// Retriever answers a query from the local knowledge base, or defers.
type Retriever interface {
	Retrieve(query string, role kb.Role, isAuthenticated bool) (string, bool)
}

// Generator produces a reply from the external provider tiers.
type Generator interface {
	Generate(ctx context.Context, req llm.Request) (string, error)
}

// Config carries the collaborators of one conversation controller.
type Config struct {
	Key           string
	Role          kb.Role
	Authenticated bool
	Classifier    *classify.Classifier
	Retriever     Retriever
	Generator     Generator
	Store         Store
	Logger        *log.Logger
}

// Controller serializes one conversation: at most one in-flight send,
// retrieval before provider fallback, append-then-persist before a send
// returns. A sequence counter invalidates completions that outlive a Reset.
type Controller struct {
	mu      sync.Mutex
	sending bool
	seq     uint64
	msgs    []ChatMessage

	key        string
	role       kb.Role
	auth       bool
	classifier *classify.Classifier
	retriever  Retriever
	generator  Generator
	store      Store
	logger     *log.Logger
}

func NewController(cfg Config) *Controller {
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.Writer(), "[SESSION] ", log.LstdFlags)
	}
	return &Controller{
		key:        cfg.Key,
		role:       cfg.Role,
		auth:       cfg.Authenticated,
		classifier: cfg.Classifier,
		retriever:  cfg.Retriever,
		generator:  cfg.Generator,
		store:      cfg.Store,
		logger:     cfg.Logger,
	}
}

// Restore loads any persisted transcript into the in-memory log. It is a
// no-op once the log has messages.
func (c *Controller) Restore(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.msgs) > 0 {
		return nil
	}
	msgs, err := c.store.Load(ctx, c.key)
	if err != nil {
		return err
	}
	c.msgs = msgs
	return nil
}

// History returns a copy of the committed log.
func (c *Controller) History() []ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]ChatMessage, len(c.msgs))
	copy(cp, c.msgs)
	return cp
}

// Reset clears the conversation and invalidates any in-flight send.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	c.seq++
	c.msgs = nil
	c.mu.Unlock()
	return c.store.Save(ctx, c.key, nil)
}

// Send appends the user message, answers it from the knowledge base or the
// provider tiers, commits the assistant message and persists the log before
// returning. A second Send while one is in flight returns ErrBusy; a send
// that finishes after Reset returns ErrStale and commits nothing.
func (c *Controller) Send(ctx context.Context, text string) (ChatMessage, error) {
	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return ChatMessage{}, ErrBusy
	}
	c.sending = true
	seq := c.seq
	c.msgs = append(c.msgs, newMessage(RoleUser, text))
	history := make([]ChatMessage, len(c.msgs))
	copy(history, c.msgs)
	c.mu.Unlock()

	reply := c.answer(ctx, text, history)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sending = false
	if seq != c.seq {
		c.logger.Printf("dropping stale reply for %s (seq %d, now %d)", c.key, seq, c.seq)
		return ChatMessage{}, ErrStale
	}
	msg := newMessage(RoleAssistant, reply)
	c.msgs = append(c.msgs, msg)
	if err := c.store.Save(ctx, c.key, c.msgs); err != nil {
		c.logger.Printf("persist transcript %s: %v", c.key, err)
	}
	return msg, nil
}

// answer resolves the user text to a reply string. It never returns an
// error: provider failures collapse into a categorized apology.
func (c *Controller) answer(ctx context.Context, text string, history []ChatMessage) string {
	if ans, ok := c.retriever.Retrieve(text, c.role, c.auth); ok {
		return ans
	}

	cls := c.classifier.Classify(text)
	req := llm.Request{
		Messages: toWire(history),
		Role:     string(c.role),
		Context: llm.QueryContext{
			Classification:  cls.Type,
			Confidence:      cls.Confidence,
			QuestionType:    classify.QuestionType(text),
			WordCount:       textutil.WordCount(text),
			IsAuthenticated: c.auth,
		},
	}
	reply, err := c.generator.Generate(ctx, req)
	if err == nil {
		return reply
	}
	var agg *llm.AggregateError
	if errors.As(err, &agg) {
		c.logger.Printf("all provider tiers failed for %s: %v", c.key, agg)
		return agg.UserMessage()
	}
	c.logger.Printf("generation failed for %s: %v", c.key, err)
	return fallbackApology
}

func toWire(history []ChatMessage) []llm.Message {
	msgs := make([]llm.Message, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}
	return msgs
}
