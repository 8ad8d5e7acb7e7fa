package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoJob struct {
	Value string `json:"value"`
	out   chan string
}

func (j *echoJob) Handle() error {
	if j.out != nil {
		j.out <- j.Value
	}
	return nil
}

type failingJob struct{}

func (j *failingJob) Handle() error { return errors.New("boom") }

func newTestManager(maxRetry int) *Manager {
	return &Manager{
		registry: map[string]func() Job{},
		maxRetry: maxRetry,
		driver:   NewMemoryDriver(),
	}
}

func TestJobRoundTrip(t *testing.T) {
	out := make(chan string, 1)
	m := newTestManager(3)
	m.registry["*queue.echoJob"] = func() Job { return &echoJob{out: out} }

	require.NoError(t, m.push(&echoJob{Value: "hello"}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	raw, err := m.driver.Pop(ctx)
	require.NoError(t, err)

	m.process(raw)
	assert.Equal(t, "hello", <-out)
}

func TestExhaustedJobIsRecorded(t *testing.T) {
	m := newTestManager(1)
	m.registry["*queue.failingJob"] = func() Job { return &failingJob{} }

	require.NoError(t, m.push(&failingJob{}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	raw, err := m.driver.Pop(ctx)
	require.NoError(t, err)

	m.process(raw)

	m.mu.RLock()
	defer m.mu.RUnlock()
	require.Len(t, m.failed, 1)
	assert.Equal(t, 1, m.failed[0].Attempts)
	assert.EqualError(t, m.failed[0].Err, "boom")
}

func TestUnregisteredJobTypeIsDropped(t *testing.T) {
	m := newTestManager(3)

	require.NoError(t, m.push(&echoJob{Value: "orphan"}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	raw, err := m.driver.Pop(ctx)
	require.NoError(t, err)

	// No registered factory: the envelope is logged and discarded.
	m.process(raw)

	m.mu.RLock()
	defer m.mu.RUnlock()
	assert.Empty(t, m.failed)
}
