// Package runtime hosts the relay state and the event loop driving it.
// Connection sessions only ever talk to it through commands.
package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/runtime/workers"
	"context"
	"fmt"
	"log/slog"
	"sync"
)

var _ contract.IOrchestrator = (*Orchestrator)(nil)

// Orchestrator owns the command channel feeding the relay worker and the supervisor running it.
type Orchestrator struct {
	mu         sync.Mutex
	log        *slog.Logger
	supervisor contract.ISupervisor
	relay      contract.IRelay
	commands   chan domain.Command
	extra      []contract.Worker
	started    bool
	stopped    chan struct{}
	stopOnce   sync.Once
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	relay contract.IRelay, bufferSize int) *Orchestrator {
	return &Orchestrator{
		log:        log,
		supervisor: supervisor,
		relay:      relay,
		commands:   make(chan domain.Command, bufferSize),
		stopped:    make(chan struct{}),
	}
}

// Add registers side workers supervised along with the relay worker.
func (o *Orchestrator) Add(w ...contract.Worker) *Orchestrator {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.extra = append(o.extra, w...)
	return o
}

// Dispatch queues a command for the event loop.
// It blocks while the queue is full so that commands of a connection are never reordered or dropped.
func (o *Orchestrator) Dispatch(ctx context.Context, cmd domain.Command) error {
	select {
	case <-o.stopped:
		return errors.ErrRelayStopped
	default:
	}
	select {
	case o.commands <- cmd:
		return nil
	case <-o.stopped:
		return errors.ErrRelayStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats is answered by the event loop, so the snapshot is consistent with the commands before it.
func (o *Orchestrator) Stats(ctx context.Context) (domain.RelayStats, error) {
	reply := make(chan domain.RelayStats, 1)
	if err := o.Dispatch(ctx, domain.StatsQuery{Reply: reply}); err != nil {
		return domain.RelayStats{}, err
	}
	select {
	case stats := <-reply:
		return stats, nil
	case <-o.stopped:
		return domain.RelayStats{}, errors.ErrRelayStopped
	case <-ctx.Done():
		return domain.RelayStats{}, ctx.Err()
	}
}

// Start registers the relay worker and the side workers, then blocks running the supervisor
// until the context is cancelled or Stop is called. It may only be called once.
func (o *Orchestrator) Start(ctx context.Context) error {
	select {
	case <-o.stopped:
		return errors.ErrRelayStopped
	default:
	}

	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return errors.ErrRelayAlreadyStarted
	}
	o.started = true
	o.supervisor.Add(workers.NewRelayWorker(o.log, o.relay, o.commands))
	if len(o.extra) > 0 {
		o.supervisor.Add(o.extra...)
	}
	count := len(o.extra) + 1
	o.mu.Unlock()

	o.log.Info(fmt.Sprintf("Starting orchestrator with %d supervised workers", count))
	o.supervisor.Run(ctx)
	return nil
}

// Stop cancels the supervised workers. Pending and later commands are refused with ErrRelayStopped.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		o.log.Info("Requesting orchestrator shutdown")
		close(o.stopped)
		o.supervisor.Stop()
	})
}
