package workers

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

var _ contract.Worker = (*StatsReporter)(nil)

type StatsSource interface {
	Stats(ctx context.Context) (domain.RelayStats, error)
}

// StatsReporter logs the relay counters and the process health on a fixed interval.
type StatsReporter struct {
	log      *slog.Logger
	source   StatsSource
	interval time.Duration
}

func NewStatsReporter(log *slog.Logger, source StatsSource, interval time.Duration) *StatsReporter {
	return &StatsReporter{log: log, source: source, interval: interval}
}

func (w *StatsReporter) Run(ctx context.Context) error {
	w.log.Info("Starting stats reporter", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.report(ctx, p)
		}
	}
}

func (w *StatsReporter) report(ctx context.Context, p *process.Process) {
	stats, err := w.source.Stats(ctx)
	if err != nil {
		w.log.Warn("Relay stats unavailable", "error", err)
		return
	}
	attrs := []any{
		"connections", stats.Connections,
		"online_users", len(stats.OnlineUsers),
		"stored_messages", stats.StoredMessages,
	}
	rss, cpu, err := selfStats(p)
	if err != nil {
		w.log.Debug("Failed to collect self stats", "error", err)
	} else {
		attrs = append(attrs, "rss_mb", rss/1024/1024, "cpu_percent", cpu)
	}
	w.log.Info("Relay stats", attrs...)
}

// selfStats retrieves the resident memory and CPU usage of the given process.
func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
