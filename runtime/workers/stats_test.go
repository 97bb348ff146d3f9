package workers

import (
	"bytes"
	"chat-relay/domain"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeStatsSource struct {
	calls atomic.Int32
	stats domain.RelayStats
}

func (f *fakeStatsSource) Stats(context.Context) (domain.RelayStats, error) {
	f.calls.Add(1)
	return f.stats, nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestStatsReporter_Logs_Relay_Stats_Periodically(t *testing.T) {
	req := require.New(t)
	out := &syncBuffer{}
	log := slog.New(slog.NewTextHandler(out, nil))
	source := &fakeStatsSource{stats: domain.RelayStats{Connections: 3, StoredMessages: 7}}

	reporter := NewStatsReporter(log, source, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- reporter.Run(ctx) }()

	// Then the reporter queries the relay on every tick
	req.Eventually(func() bool { return source.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	req.ErrorIs(<-done, context.Canceled)

	req.Contains(out.String(), "connections=3")
	req.Contains(out.String(), "stored_messages=7")
}
