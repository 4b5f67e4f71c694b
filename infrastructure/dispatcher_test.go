package infrastructure_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ats/domain"
	"ats/infrastructure"
)

type recordingSink struct {
	mu    sync.Mutex
	got   []domain.Notification
	err   error
	block chan struct{}
}

func (s *recordingSink) Deliver(ctx context.Context, n domain.Notification) error {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, n)
	return s.err
}

func (s *recordingSink) delivered() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Notification(nil), s.got...)
}

func notification(email string) domain.Notification {
	return domain.Notification{
		Kind:           domain.NotifyCandidateConfirmation,
		RecipientEmail: email,
		Context:        map[string]string{"candidate": "candidate1", "job_title": "Backend Developer"},
	}
}

func runDispatcher(d *infrastructure.Dispatcher) <-chan error {
	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()
	return done
}

func TestDispatcherDeliversAndDrainsOnClose(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	sink := &recordingSink{}
	d := infrastructure.NewDispatcher(sink, 3, 16, log)

	for i := 0; i < 10; i++ {
		d.Notify(context.Background(), notification("candidate1@example.com"))
	}
	done := runDispatcher(d)
	d.Close()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not stop after Close")
	}

	got := sink.delivered()
	require.Len(t, got, 10)
	ids := make(map[string]bool)
	for _, n := range got {
		assert.NotEmpty(t, n.ID)
		ids[n.ID] = true
	}
	assert.Len(t, ids, 10)

	delivered, failed, dropped := d.Stats()
	assert.EqualValues(t, 10, delivered)
	assert.Zero(t, failed)
	assert.Zero(t, dropped)
}

func TestDispatcherCountsFailures(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	sink := &recordingSink{err: errors.New("smtp down")}
	d := infrastructure.NewDispatcher(sink, 1, 4, log)

	d.Notify(context.Background(), notification("candidate1@example.com"))
	d.Notify(context.Background(), notification("recruiter1@example.com"))
	done := runDispatcher(d)
	d.Close()
	require.NoError(t, <-done)

	delivered, failed, _ := d.Stats()
	assert.Zero(t, delivered)
	assert.EqualValues(t, 2, failed)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "notification delivery failed", hook.LastEntry().Message)
}

func TestDispatcherNotifyNeverBlocks(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	sink := &recordingSink{block: make(chan struct{})}
	d := infrastructure.NewDispatcher(sink, 1, 2, log)
	done := runDispatcher(d)

	returned := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			d.Notify(context.Background(), notification("candidate1@example.com"))
		}
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a stalled sink")
	}

	close(sink.block)
	d.Close()
	require.NoError(t, <-done)

	delivered, _, dropped := d.Stats()
	assert.EqualValues(t, 50, delivered+dropped)
	assert.NotZero(t, dropped)
}

func TestDispatcherDropsAfterClose(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	sink := &recordingSink{}
	d := infrastructure.NewDispatcher(sink, 1, 1, log)

	d.Notify(context.Background(), notification("candidate1@example.com"))
	d.Notify(context.Background(), notification("candidate1@example.com"))
	d.Close()
	d.Close()
	d.Notify(context.Background(), notification("candidate1@example.com"))

	require.NoError(t, <-runDispatcher(d))

	delivered, _, dropped := d.Stats()
	assert.EqualValues(t, 1, delivered)
	assert.EqualValues(t, 2, dropped)
}
