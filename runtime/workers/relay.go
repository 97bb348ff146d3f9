package workers

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"context"
	"fmt"
	"log/slog"
)

var _ contract.Worker = (*RelayWorker)(nil)

// RelayWorker is the single event loop of the relay.
// It drains the command channel and hands each command to the relay, one at a time,
// so the relay state never needs a lock.
type RelayWorker struct {
	log      *slog.Logger
	relay    contract.IRelay
	commands <-chan domain.Command
}

func NewRelayWorker(log *slog.Logger, relay contract.IRelay, commands <-chan domain.Command) *RelayWorker {
	return &RelayWorker{log: log, relay: relay, commands: commands}
}

func (w *RelayWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping relay worker")
			return ctx.Err()
		case cmd, ok := <-w.commands:
			if !ok {
				w.log.Debug("Command channel is closed")
				return nil
			}
			w.Handle(cmd)
		}
	}
}

// Handle runs one command to completion against the relay state.
func (w *RelayWorker) Handle(cmd domain.Command) {
	switch c := cmd.(type) {
	case contract.ConnectCommand:
		w.relay.OnConnect(c.Connection)
	case domain.JoinCommand:
		if err := w.relay.OnJoin(c.User, c.Conn); err != nil {
			w.log.Error("Join failed", "conn_id", c.Conn, "user_id", c.User.ID, "error", err)
		}
	case domain.SendCommand:
		// Rejections are already reported to the originating connection by the relay.
		_, _ = w.relay.OnSend(c.Conn, c.Input)
	case domain.DisconnectCommand:
		w.relay.OnDisconnect(c.Conn)
	case domain.StatsQuery:
		c.Reply <- w.relay.Stats()
	default:
		w.log.Warn(fmt.Sprintf("Unsupported command %T", cmd), "conn_id", cmd.Origin())
	}
}
