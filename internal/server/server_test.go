package server

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/rollcall/internal/config"
)

func newTestServer() (*Server, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{config: &config.Config{}, logger: zerolog.Nop(), cancel: cancel}
	return s, ctx
}

func TestShutdown_WaitsForWorkers(t *testing.T) {
	s, ctx := newTestServer()

	var sweeping atomic.Bool
	var finished atomic.Bool
	s.startWorker(func() {
		<-ctx.Done()
		sweeping.Store(true)
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
	})

	require.NoError(t, s.Shutdown(context.Background()))
	assert.True(t, sweeping.Load())
	assert.True(t, finished.Load(), "shutdown returned while a worker was still running")
}

func TestStopWorkers_Timeout(t *testing.T) {
	s, _ := newTestServer()

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	s.startWorker(func() { <-release })

	assert.False(t, s.stopWorkers(10*time.Millisecond))
}
