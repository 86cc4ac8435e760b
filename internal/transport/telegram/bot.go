package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sandevgo/vitalbot/internal/config"
	"github.com/sandevgo/vitalbot/internal/service/turn"
	"github.com/sandevgo/vitalbot/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const baseContextKey = "base_context"

const (
	endedNotice = "_This conversation has ended. Send a new message whenever you want to talk again._"
	resetNotice = "Starting a fresh conversation."
)

// TurnRunner is the slice of turn.Controller the bot drives.
type TurnRunner interface {
	Turn(ctx context.Context, sess *turn.Session, text string) (turn.TurnResult, error)
	Abandon(ctx context.Context, sess *turn.Session)
}

type Bot struct {
	bot      *tele.Bot
	sender   *sender
	turns    TurnRunner
	sessions *sessions
	ownerID  int64
	name     string
}

func NewBot(
	ctx context.Context,
	cfg *config.TelegramConfig,
	turns TurnRunner,
	userID string,
	assistantName string,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: cfg.PollTimeout},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:      b,
		sender:   newSender(b),
		turns:    turns,
		sessions: newSessions(userID),
		ownerID:  cfg.OwnerID,
		name:     assistantName,
	}

	ctx = log.WithComponent(ctx, "telegram")
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	// Health data is personal; only the owner gets answers.
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender() == nil || c.Sender().ID != bot.ownerID {
				return nil
			}
			return next(c)
		}
	})

	b.Handle("/start", bot.handleStart)
	b.Handle("/new", bot.handleNew)
	b.Handle(tele.OnText, bot.handleMessage)

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	for _, sess := range b.sessions.drain() {
		b.turns.Abandon(ctx, sess)
	}
	return nil
}

func (b *Bot) handleStart(c tele.Context) error {
	return c.Send(fmt.Sprintf("Hi, I'm %s. Ask me anything about your sleep, activity or how you're feeling.", b.name))
}

func (b *Bot) handleNew(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	if sess := b.sessions.drop(c.Chat().ID); sess != nil {
		b.turns.Abandon(ctx, sess)
	}
	return c.Send(resetNotice)
}

func (b *Bot) handleMessage(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)

	_ = c.Notify(tele.Typing)

	res, err := b.runTurn(ctx, c.Chat().ID, c.Text())
	switch {
	case errors.Is(err, turn.ErrEmptyMessage):
		return nil
	case err != nil:
		return c.Send(turn.FallbackMessage)
	}

	if err := b.sender.sendMarkdown(ctx, c.Chat(), res.Reply.Content, false); err != nil {
		return err
	}
	if res.Terminal {
		return b.sender.sendMarkdown(ctx, c.Chat(), endedNotice, true)
	}
	return nil
}

// runTurn answers text in the chat's session and retires the session once
// it ends or fails. Empty messages leave the session untouched.
func (b *Bot) runTurn(ctx context.Context, chatID int64, text string) (turn.TurnResult, error) {
	logger := log.FromCtx(ctx).With().Int64("chat", chatID).Logger()

	sess := b.sessions.get(chatID)
	res, err := b.turns.Turn(ctx, sess, text)
	switch {
	case errors.Is(err, turn.ErrEmptyMessage):
		return res, err
	case err != nil:
		logger.Error().Err(err).Str("session", sess.ID).Msg("turn failed")
		b.turns.Abandon(ctx, sess)
		b.sessions.drop(chatID)
		return res, err
	}

	if res.Terminal {
		b.sessions.drop(chatID)
		logger.Info().Str("session", sess.ID).Str("reason", string(res.Reason)).Msg("conversation ended")
	}
	return res, nil
}

// sessions keeps one live conversation per chat.
type sessions struct {
	mu     sync.Mutex
	userID string
	byChat map[int64]*turn.Session
}

func newSessions(userID string) *sessions {
	return &sessions{userID: userID, byChat: make(map[int64]*turn.Session)}
}

// get returns the chat's session, replacing one that has already ended.
// Ended blocks while a turn is running, so it is checked outside s.mu.
func (s *sessions) get(chatID int64) *turn.Session {
	s.mu.Lock()
	sess, ok := s.byChat[chatID]
	s.mu.Unlock()
	if ok && !sess.Ended() {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.byChat[chatID]; ok && cur != sess {
		return cur
	}
	fresh := turn.NewSession(s.userID)
	s.byChat[chatID] = fresh
	return fresh
}

func (s *sessions) drop(chatID int64) *turn.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.byChat[chatID]
	delete(s.byChat, chatID)
	return sess
}

func (s *sessions) drain() []*turn.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*turn.Session, 0, len(s.byChat))
	for id, sess := range s.byChat {
		out = append(out, sess)
		delete(s.byChat, id)
	}
	return out
}
