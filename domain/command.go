package domain

// Command is an inbound intent emitted by one connection.
// Commands from the same connection are processed in the order they were dispatched.
type Command interface {
	Origin() ConnID
}

type JoinCommand struct {
	Conn ConnID
	User User
}

func (c JoinCommand) Origin() ConnID { return c.Conn }

type SendCommand struct {
	Conn  ConnID
	Input MessageInput
}

func (c SendCommand) Origin() ConnID { return c.Conn }

type DisconnectCommand struct {
	Conn ConnID
}

func (c DisconnectCommand) Origin() ConnID { return c.Conn }

// StatsQuery asks the event loop for a consistent view of its state.
// The reply channel must be buffered.
type StatsQuery struct {
	Reply chan RelayStats
}

func (StatsQuery) Origin() ConnID { return "" }
