// Package domain contains core concepts of the chat relay.
// This file defines User identities and the live bindings tracked by presence.
// No runtime, network, or UI logic should be added here.
package domain

// UserID is supplied by the user directory and treated as opaque.
type UserID int64

// ConnID identifies one live transport connection.
type ConnID string

type User struct {
	ID      UserID
	Name    string
	Profile string
}

// OnlineUser is a user currently bound to a connection.
type OnlineUser struct {
	User
	ConnID ConnID
}
