package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type MockFinalizer struct {
	mock.Mock
}

func (m *MockFinalizer) FinalizeElapsed(ctx context.Context, grace time.Duration, batch int) (int, error) {
	args := m.Called(ctx, grace, batch)
	return args.Int(0), args.Error(1)
}

func TestFinalizeJob_Run(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc := new(MockFinalizer)
	svc.On("FinalizeElapsed", mock.Anything, time.Hour, defaultBatch).Return(3, nil).Once()

	NewFinalizeJob(svc, time.Hour, 0, zap.New(core)).Run(context.Background())

	svc.AssertExpectations(t)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(3), logs.All()[0].ContextMap()["finalized"])
}

func TestFinalizeJob_RunLogsFailure(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc := new(MockFinalizer)
	svc.On("FinalizeElapsed", mock.Anything, 10*time.Minute, 5).Return(1, errors.New("db down")).Once()

	NewFinalizeJob(svc, 10*time.Minute, 5, zap.New(core)).Run(context.Background())

	require.Equal(t, 1, logs.FilterMessage("finalize elapsed reservations").Len())
	assert.Equal(t, zap.ErrorLevel, logs.All()[0].Level)
}

type countingFinalizer struct {
	mu    sync.Mutex
	calls int
	done  chan struct{}
}

func (c *countingFinalizer) FinalizeElapsed(context.Context, time.Duration, int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.calls == 1 {
		close(c.done)
	}
	return 0, nil
}

func TestSchedule_RunsOnInterval(t *testing.T) {
	s, err := gocron.NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })

	svc := &countingFinalizer{done: make(chan struct{})}
	job, err := Schedule(context.Background(), s, 20*time.Millisecond, NewFinalizeJob(svc, time.Hour, 10, zap.NewNop()))
	require.NoError(t, err)
	assert.Equal(t, "finalize-elapsed-reservations", job.Name())

	s.Start()
	select {
	case <-svc.done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
}
