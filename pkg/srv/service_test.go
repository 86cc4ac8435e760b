package srv

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, s)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

type blocking struct {
	name     string
	rec      *recorder
	startErr error
}

func (b *blocking) Start(ctx context.Context) error {
	if b.startErr != nil {
		return b.startErr
	}
	<-ctx.Done()
	return nil
}

func (b *blocking) Shutdown(ctx context.Context) error {
	b.rec.add(b.name)
	return nil
}

func TestRun_ShutsDownInReverseOrder(t *testing.T) {
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, []Service{
			&blocking{name: "db", rec: rec},
			&blocking{name: "compactor", rec: rec},
			&blocking{name: "bot", rec: rec},
		})
	}()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, []string{"bot", "compactor", "db"}, rec.list())
}

func TestRun_StartFailureStopsEverything(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("boom")

	err := Run(context.Background(), []Service{
		&blocking{name: "db", rec: rec},
		&blocking{name: "bot", rec: rec, startErr: boom},
	})

	require.ErrorIs(t, err, boom)
	assert.ElementsMatch(t, []string{"db", "bot"}, rec.list())
}

func TestCleanup(t *testing.T) {
	called := false
	svc := NewCleanup(func() error {
		called = true
		return nil
	})

	require.NoError(t, svc.Start(context.Background()))
	assert.False(t, called)
	require.NoError(t, svc.Shutdown(context.Background()))
	assert.True(t, called)

	assert.NoError(t, NewCleanup(nil).Shutdown(context.Background()))
}
