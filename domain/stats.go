package domain

type RelayStats struct {
	Connections    int
	OnlineUsers    []OnlineUser
	StoredMessages int
}
