package turn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sandevgo/vitalbot/internal/config"
	"github.com/sandevgo/vitalbot/internal/core"
	"github.com/sandevgo/vitalbot/internal/service/memory"
	"github.com/sandevgo/vitalbot/internal/service/prompt"
	"github.com/sandevgo/vitalbot/pkg/log"
	"github.com/sandevgo/vitalbot/pkg/retry"
)

// FallbackMessage is sent when the model could not answer.
const FallbackMessage = "I'm sorry, I'm having trouble processing your request right now. Please try again in a moment."

var (
	ErrSessionEnded = errors.New("session has ended")
	ErrEmptyMessage = errors.New("empty message")
)

type ContextLoader interface {
	Assemble(ctx context.Context, userID string, state memory.SessionState) core.AssembledContext
}

type PromptBuilder interface {
	Build(ac core.AssembledContext, cfg prompt.BehaviorConfig) string
}

type MemoryWriter interface {
	Update(ctx context.Context, userID, sessionID string, ex memory.Exchange) ([]core.Highlight, error)
}

type HistoryReader interface {
	GetMessages(ctx context.Context, sessionID string, limit int) ([]core.Message, error)
	CountMessages(ctx context.Context, sessionID string) (int, error)
}

type ConversationStore interface {
	StartConversation(ctx context.Context, conv core.Conversation) error
	EndConversation(ctx context.Context, id string, status core.ConversationStatus, at time.Time) error
}

type TokenCounter interface {
	Count(text string) int
}

type Deps struct {
	Context       ContextLoader
	Prompts       PromptBuilder
	Model         core.ModelClient
	Memory        MemoryWriter
	History       HistoryReader
	Conversations ConversationStore
	// Tokens is optional; it only feeds debug logging.
	Tokens TokenCounter
}

type Config struct {
	Conversation  config.ConversationConfig
	AssistantName string
	HistoryLimit  int
	ModelTimeout  time.Duration
	Retry         *retry.Config
}

type TurnResult struct {
	Reply      core.Message
	Highlights []core.Highlight
	Usage      core.Usage
	// Failed marks a fallback reply after the model gave up.
	Failed   bool
	Terminal bool
	Reason   StopReason
	// Trace lists the states the turn went through.
	Trace []State
}

type Controller struct {
	deps Deps
	cfg  Config
	stop *StopMatcher
	now  func() time.Time
}

func NewController(cfg Config, deps Deps) *Controller {
	if cfg.ModelTimeout <= 0 {
		cfg.ModelTimeout = 60 * time.Second
	}
	if cfg.Retry == nil {
		cfg.Retry = retry.NewDefaultConfig()
	}
	return &Controller{
		deps: deps,
		cfg:  cfg,
		stop: NewStopMatcher(cfg.Conversation.MessageCap, cfg.Conversation.EndIntentPhrases),
		now:  time.Now,
	}
}

func (c *Controller) WithClock(now func() time.Time) *Controller {
	c.now = now
	return c
}

// Turn runs the state machine for one user message. It returns once the
// conversation either ends or is ready for the next message. Model failures
// never surface as errors: they produce a fallback reply with Failed set.
func (c *Controller) Turn(ctx context.Context, sess *Session, userText string) (TurnResult, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.ended {
		return TurnResult{}, ErrSessionEnded
	}
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return TurnResult{}, ErrEmptyMessage
	}

	logger := log.FromCtx(ctx).With().Str("session", sess.ID).Str("user", sess.UserID).Logger()
	ctx = logger.WithContext(ctx)

	if !sess.started {
		err := c.deps.Conversations.StartConversation(ctx, core.Conversation{
			ID:        sess.ID,
			UserID:    sess.UserID,
			Status:    core.ConversationActive,
			StartedAt: c.now().UTC(),
		})
		if err != nil {
			return TurnResult{}, fmt.Errorf("start conversation: %w", err)
		}
		sess.started = true
	}

	userMsg := core.NewMessage(core.RoleUser, userText, c.now().UTC())

	var (
		res     TurnResult
		ac      core.AssembledContext
		system  string
		history []core.Message
		reply   core.ModelResponse
	)

	state := StateLoadContext
	for {
		res.Trace = append(res.Trace, state)

		var ev Event
		switch state {
		case StateLoadContext:
			ac = c.deps.Context.Assemble(ctx, sess.UserID, memory.SessionState{SessionID: sess.ID, Query: userText})
			ev = EventDone

		case StateBuildPrompt:
			system = c.deps.Prompts.Build(ac, prompt.BehaviorConfig{
				Style:         c.cfg.Conversation.CommunicationStyle,
				AssistantName: c.cfg.AssistantName,
			})
			history = c.loadHistory(ctx, sess.ID)
			history = append(history, userMsg)
			if c.deps.Tokens != nil {
				logger.Debug().Int("prompt_tokens", c.deps.Tokens.Count(system)).Int("history", len(history)).Msg("prompt built")
			}
			ev = EventDone

		case StateGetResponse:
			var err error
			reply, err = c.invoke(ctx, system, history)
			if err != nil {
				logger.Error().Err(err).Msg("model call failed, ending conversation")
				res.Failed = true
				res.Reason = StopModelError
				ev = EventFailed
				break
			}
			res.Usage = reply.Usage
			ev = EventDone

		case StateUpdateMemory:
			res.Reply = core.NewMessage(core.RoleAssistant, reply.Text, c.now().UTC())
			hs, err := c.deps.Memory.Update(ctx, sess.UserID, sess.ID, memory.Exchange{User: userMsg, Assistant: res.Reply})
			if err != nil {
				return res, fmt.Errorf("update memory: %w", err)
			}
			res.Highlights = hs
			ev = EventDone

		case StateCheckStop:
			count, err := c.deps.History.CountMessages(ctx, sess.ID)
			if err != nil {
				return res, fmt.Errorf("count messages: %w", err)
			}
			res.Reason = c.stop.Check(count, userText)
			if res.Reason == StopNone {
				ev = EventContinue
			} else {
				logger.Info().Str("reason", string(res.Reason)).Int("messages", count).Msg("conversation complete")
				ev = EventStop
			}

		case StateEnd:
			return c.finish(ctx, sess, res)
		}

		nextState, err := next(state, ev)
		if err != nil {
			return res, err
		}
		if state == StateCheckStop && nextState == StateLoadContext {
			// Wait for the next user message.
			return res, nil
		}
		state = nextState
	}
}

func (c *Controller) finish(ctx context.Context, sess *Session, res TurnResult) (TurnResult, error) {
	res.Terminal = true
	sess.ended = true

	status := core.ConversationCompleted
	if res.Failed {
		status = core.ConversationFailed
		res.Reply = core.NewMessage(core.RoleAssistant, FallbackMessage, c.now().UTC())
	}
	if err := c.deps.Conversations.EndConversation(ctx, sess.ID, status, c.now().UTC()); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Str("status", string(status)).Msg("failed to close conversation")
	}
	return res, nil
}

func (c *Controller) loadHistory(ctx context.Context, sessionID string) []core.Message {
	history, err := c.deps.History.GetMessages(ctx, sessionID, c.cfg.HistoryLimit)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("failed to load history, continuing without it")
		return nil
	}
	return history
}

func (c *Controller) invoke(ctx context.Context, system string, history []core.Message) (core.ModelResponse, error) {
	logger := log.FromCtx(ctx)

	rc := *c.cfg.Retry
	rc.Retryable = core.IsTransient
	rc.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("model call failed, retrying")
	}

	var resp core.ModelResponse
	err := retry.NewRetrier(&rc).Do(ctx, func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.ModelTimeout)
		defer cancel()

		r, err := c.deps.Model.Invoke(attemptCtx, system, history)
		if err != nil {
			if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
				return &core.ModelTransientError{Err: err}
			}
			return err
		}
		if strings.TrimSpace(r.Text) == "" {
			return &core.ModelTransientError{Err: errors.New("empty completion")}
		}
		resp = r
		return nil
	})
	return resp, err
}

type Input interface {
	// Next blocks until the user sends a message. io.EOF ends the conversation.
	Next(ctx context.Context) (string, error)
}

type Output interface {
	Send(ctx context.Context, text string) error
}

// Run drives a whole conversation. It blocks only while waiting on in.
func (c *Controller) Run(ctx context.Context, sess *Session, in Input, out Output) error {
	for {
		text, err := in.Next(ctx)
		if errors.Is(err, io.EOF) {
			c.Abandon(ctx, sess)
			return nil
		}
		if err != nil {
			return err
		}

		res, err := c.Turn(ctx, sess, text)
		if errors.Is(err, ErrEmptyMessage) {
			continue
		}
		if err != nil {
			return err
		}

		if err := out.Send(ctx, res.Reply.Content); err != nil {
			return fmt.Errorf("send reply: %w", err)
		}
		if res.Terminal {
			return nil
		}
	}
}

// Abandon closes a conversation the user walked away from. Sessions that
// never started or already ended are left alone.
func (c *Controller) Abandon(ctx context.Context, sess *Session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.started || sess.ended {
		return
	}
	sess.ended = true
	if err := c.deps.Conversations.EndConversation(ctx, sess.ID, core.ConversationCompleted, c.now().UTC()); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("failed to close conversation")
	}
}
