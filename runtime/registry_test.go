package runtime

import (
	"chat-relay/domain"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	alisha = domain.User{ID: 1, Name: "Alisha", Profile: "alisha.png"}
	john   = domain.User{ID: 2, Name: "John Doe", Profile: "john.png"}
	maddie = domain.User{ID: 3, Name: "Maddie", Profile: "maddie.png"}
)

func TestRegistry_Register_And_Lookup(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given no user is connected
	req.Empty(registry.Snapshot())
	_, ok := registry.Lookup(alisha.ID)
	req.False(ok)

	// When a user registers a connection
	registry.Register(alisha, "conn-a")

	// Then the user resolves to it
	connID, ok := registry.Lookup(alisha.ID)
	req.True(ok)
	req.Equal(domain.ConnID("conn-a"), connID)
	req.Equal([]domain.OnlineUser{{User: alisha, ConnID: "conn-a"}}, registry.Snapshot())
}

func TestRegistry_Last_Writer_Wins(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given a user joined on connection A
	registry.Register(alisha, "conn-a")

	// When the same user joins on connection B
	registry.Register(alisha, "conn-b")

	// Then only B is bound
	connID, ok := registry.Lookup(alisha.ID)
	req.True(ok)
	req.Equal(domain.ConnID("conn-b"), connID)
	req.Len(registry.Snapshot(), 1)

	// And disconnecting A does not evict the newer binding
	_, removed := registry.Unregister("conn-a")
	req.False(removed)
	connID, ok = registry.Lookup(alisha.ID)
	req.True(ok)
	req.Equal(domain.ConnID("conn-b"), connID)
}

func TestRegistry_Rejoin_Under_Another_Identity(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given a connection bound to Alisha
	registry.Register(alisha, "conn-a")

	// When the same connection joins as John
	registry.Register(john, "conn-a")

	// Then Alisha is no longer present
	_, ok := registry.Lookup(alisha.ID)
	req.False(ok)
	req.Equal([]domain.OnlineUser{{User: john, ConnID: "conn-a"}}, registry.Snapshot())
}

func TestRegistry_Unregister_Unknown_Connection_Is_Noop(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.Register(john, "conn-j")

	user, ok := registry.Unregister("never-joined")

	req.False(ok)
	req.Equal(domain.User{}, user)
	req.Len(registry.Snapshot(), 1)
}

func TestRegistry_Unregister_Removes_Binding(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.Register(alisha, "conn-a")
	registry.Register(john, "conn-j")

	user, ok := registry.Unregister("conn-a")

	req.True(ok)
	req.Equal(alisha, user)
	_, ok = registry.Lookup(alisha.ID)
	req.False(ok)
	req.Equal([]domain.OnlineUser{{User: john, ConnID: "conn-j"}}, registry.Snapshot())
}

func TestRegistry_Snapshot_Sorted_By_User(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.Register(maddie, "conn-m")
	registry.Register(alisha, "conn-a")
	registry.Register(john, "conn-j")

	snapshot := registry.Snapshot()

	req.Len(snapshot, 3)
	req.Equal(alisha.ID, snapshot[0].ID)
	req.Equal(john.ID, snapshot[1].ID)
	req.Equal(maddie.ID, snapshot[2].ID)
}
