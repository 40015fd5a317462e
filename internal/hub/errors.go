package hub

import "fmt"

// ClientProtocolError marks a client frame that could not be parsed as a
// topic/body control message. The session continues reading afterward.
type ClientProtocolError struct {
	ClientID uint32
	Reason   string
}

func (e *ClientProtocolError) Error() string {
	return fmt.Sprintf("hub: client %d protocol error: %s", e.ClientID, e.Reason)
}

// ClientIOError marks a read or write failure that ends a session.
type ClientIOError struct {
	ClientID uint32
	Err      error
}

func (e *ClientIOError) Error() string {
	return fmt.Sprintf("hub: client %d io error: %v", e.ClientID, e.Err)
}

func (e *ClientIOError) Unwrap() error { return e.Err }

// BusFull is logged when the broadcast message bus has no room for a new
// message. The message is not retried.
type BusFull struct {
	Topic string
}

func (e *BusFull) Error() string {
	return fmt.Sprintf("hub: broadcast bus full, dropping message on topic %q", e.Topic)
}

// ClientQueueFull is logged when a single client's outbound queue has no
// room for a message; only that client misses the message.
type ClientQueueFull struct {
	ClientID uint32
}

func (e *ClientQueueFull) Error() string {
	return fmt.Sprintf("hub: client %d outbound queue full, dropping message", e.ClientID)
}

// FatalIOError marks a bind or accept-loop failure that ends Run.
type FatalIOError struct {
	Err error
}

func (e *FatalIOError) Error() string {
	return fmt.Sprintf("hub: fatal io error: %v", e.Err)
}

func (e *FatalIOError) Unwrap() error { return e.Err }
