package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"sort"
)

var _ contract.IRegistry = (*Registry)(nil)

type binding struct {
	user   domain.User
	connID domain.ConnID
}

// Registry is the presence directory: at most one live connection per user.
// It is owned by the event loop and is not safe for concurrent use.
type Registry struct {
	byUser map[domain.UserID]binding
	byConn map[domain.ConnID]domain.UserID // reverse index so Unregister doesn't scan
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[domain.UserID]binding),
		byConn: make(map[domain.ConnID]domain.UserID),
	}
}

// Register binds the user to the connection, replacing any previous binding (last join wins).
// A connection re-joining under another identity drops its former identity.
func (r *Registry) Register(user domain.User, connID domain.ConnID) {
	if previous, ok := r.byUser[user.ID]; ok {
		delete(r.byConn, previous.connID)
	}
	if formerUserID, ok := r.byConn[connID]; ok && formerUserID != user.ID {
		delete(r.byUser, formerUserID)
	}
	r.byUser[user.ID] = binding{user: user, connID: connID}
	r.byConn[connID] = user.ID
}

// Unregister removes the entry bound to the connection.
// A connection that never joined, or was superseded, is a no-op.
func (r *Registry) Unregister(connID domain.ConnID) (domain.User, bool) {
	userID, ok := r.byConn[connID]
	if !ok {
		return domain.User{}, false
	}
	delete(r.byConn, connID)
	b := r.byUser[userID]
	delete(r.byUser, userID)
	return b.user, true
}

func (r *Registry) Lookup(userID domain.UserID) (domain.ConnID, bool) {
	b, ok := r.byUser[userID]
	return b.connID, ok
}

// Snapshot lists every bound user sorted by id.
func (r *Registry) Snapshot() []domain.OnlineUser {
	res := make([]domain.OnlineUser, 0, len(r.byUser))
	for _, b := range r.byUser {
		res = append(res, domain.OnlineUser{User: b.user, ConnID: b.connID})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}
