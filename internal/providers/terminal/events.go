package terminal

import (
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/pubsub"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/types"
)

// Event is one of Output, Exited, Created or Failed
type Event interface {
	terminalEvent()
}

// Output carries bytes read from a session's pty, in production order
type Output struct {
	ID   types.TerminalID
	Data []byte
}

// Exited is published once a shell ends on its own, after its last Output
type Exited struct {
	ID   types.TerminalID
	Code int
}

// Created is published after a successful spawn
type Created struct {
	ID types.TerminalID
}

// Failed is published when Create returns an error
type Failed struct {
	Reason string
}

func (Output) terminalEvent()  {}
func (Exited) terminalEvent()  {}
func (Created) terminalEvent() {}
func (Failed) terminalEvent()  {}

const subscriberDepth = pubsub.DefaultDepth

// Subscription receives registry events. Publishing blocks on a full
// subscriber, so every subscriber must keep reading or Cancel.
type Subscription = pubsub.Subscription[Event]

// NewEventBus creates a bus of registry events. Test doubles of the
// registry use it to hand out real subscriptions.
func NewEventBus() *pubsub.Bus[Event] {
	return pubsub.New[Event](subscriberDepth)
}
