package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sandevgo/vitalbot/internal/service/turn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitHTML(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		maxLen int
		want   []string
	}{
		{
			name:   "fits",
			text:   "  short reply  ",
			maxLen: 50,
			want:   []string{"short reply"},
		},
		{
			name:   "prefers newline",
			text:   "line one\nline two\nline three",
			maxLen: 20,
			want:   []string{"line one\nline two", "line three"},
		},
		{
			name:   "falls back to space",
			text:   "walk more every single day",
			maxLen: 12,
			want:   []string{"walk more", "every", "single day"},
		},
		{
			name:   "hard cut",
			text:   strings.Repeat("a", 25),
			maxLen: 10,
			want:   []string{strings.Repeat("a", 10), strings.Repeat("a", 10), strings.Repeat("a", 5)},
		},
		{
			name:   "does not cut inside a tag",
			text:   "aaaaaaaa<b>x</b>",
			maxLen: 10,
			want:   []string{"aaaaaaaa", "<b>x</b>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitHTML(tt.text, tt.maxLen))
		})
	}
}

func TestSplitHTML_KeepsRunesWhole(t *testing.T) {
	text := strings.Repeat("é", 10)

	chunks := splitHTML(text, 5)

	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c), "chunk %q", c)
		assert.LessOrEqual(t, len(c), 5)
	}
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSessions(t *testing.T) {
	s := newSessions("demo")

	first := s.get(1)
	assert.Equal(t, "demo", first.UserID)
	assert.Same(t, first, s.get(1), "live session is reused")
	assert.NotSame(t, first, s.get(2), "chats are independent")

	assert.Same(t, first, s.drop(1))
	assert.NotSame(t, first, s.get(1), "dropped chat gets a fresh session")
	assert.Nil(t, s.drop(42))

	assert.Len(t, s.drain(), 2)
	assert.Empty(t, s.drain())
}

type fakeTurns struct {
	res       turn.TurnResult
	err       error
	abandoned []*turn.Session
}

func (f *fakeTurns) Turn(ctx context.Context, sess *turn.Session, text string) (turn.TurnResult, error) {
	return f.res, f.err
}

func (f *fakeTurns) Abandon(ctx context.Context, sess *turn.Session) {
	f.abandoned = append(f.abandoned, sess)
}

func TestBot_RunTurn(t *testing.T) {
	tests := []struct {
		name         string
		turns        *fakeTurns
		wantErr      error
		wantAbandon  bool
		keepsSession bool
	}{
		{
			name:         "reply keeps the session",
			turns:        &fakeTurns{res: turn.TurnResult{}},
			keepsSession: true,
		},
		{
			name:         "empty message is ignored",
			turns:        &fakeTurns{err: turn.ErrEmptyMessage},
			wantErr:      turn.ErrEmptyMessage,
			keepsSession: true,
		},
		{
			name:        "failure closes the conversation",
			turns:       &fakeTurns{err: errors.New("disk full")},
			wantErr:     errors.New("disk full"),
			wantAbandon: true,
		},
		{
			name:  "terminal reply retires the session",
			turns: &fakeTurns{res: turn.TurnResult{Terminal: true, Reason: turn.StopEndIntent}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Bot{turns: tt.turns, sessions: newSessions("demo")}
			sess := b.sessions.get(7)

			_, err := b.runTurn(context.Background(), 7, "hello")

			if tt.wantErr != nil {
				assert.EqualError(t, err, tt.wantErr.Error())
			} else {
				assert.NoError(t, err)
			}
			if tt.wantAbandon {
				require.Len(t, tt.turns.abandoned, 1)
				assert.Same(t, sess, tt.turns.abandoned[0])
			} else {
				assert.Empty(t, tt.turns.abandoned)
			}
			if tt.keepsSession {
				assert.Same(t, sess, b.sessions.get(7))
			} else {
				assert.NotSame(t, sess, b.sessions.get(7))
			}
		})
	}
}
