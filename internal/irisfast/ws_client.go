package irisfast

// MessageCallback receives every chat message Iris pushes over the socket.
type MessageCallback func(message *Message)

// StateCallback observes socket state transitions.
type StateCallback func(state WebSocketState)

// Inbound is the receiving side of the Iris socket.
type Inbound interface {
	OnMessage(cb MessageCallback)
	OnStateChange(cb StateCallback)
}

var _ Inbound = (*WebSocket)(nil)
