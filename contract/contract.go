//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Connection is the server-side handle of one live transport connection.
// Deliver must not block: writes are fire-and-forget from the relay's point of view.
type Connection interface {
	ID() domain.ConnID
	Deliver(e event.DomainEvent) error
}

// ConnectCommand hands a freshly accepted connection to the event loop.
type ConnectCommand struct {
	Connection Connection
}

func (c ConnectCommand) Origin() domain.ConnID { return c.Connection.ID() }

// IRelay is the control surface invoked by the event loop, one call at a time.
type IRelay interface {
	OnConnect(conn Connection)
	OnJoin(user domain.User, connID domain.ConnID) error
	OnSend(connID domain.ConnID, input domain.MessageInput) (domain.Message, error)
	OnDisconnect(connID domain.ConnID)
	Stats() domain.RelayStats
}

// IDispatcher accepts commands from connection sessions.
type IDispatcher interface {
	Dispatch(ctx context.Context, cmd domain.Command) error
}

type IRegistry interface {
	Register(user domain.User, connID domain.ConnID)
	Unregister(connID domain.ConnID) (domain.User, bool)
	Lookup(userID domain.UserID) (domain.ConnID, bool)
	Snapshot() []domain.OnlineUser
}

type IOrchestrator interface {
	IDispatcher
	Stats(ctx context.Context) (domain.RelayStats, error)
	Start(ctx context.Context) error
	Stop()
}
