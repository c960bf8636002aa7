// ABOUTME: Notification relay: best-effort, fire-and-forget favorite-state signals
// ABOUTME: Message shapes match the extension protocol {action, data: {pageKey}}

package relay

import (
	"context"

	"github.com/harper/wikifaves/internal/models"
)

// Data carries the page a message refers to.
type Data struct {
	PageKey models.PageKey `json:"pageKey"`
}

// Message is one relay notification. Data is nil for toggleFavorite requests.
type Message struct {
	Action models.Action `json:"action"`
	Data   *Data         `json:"data,omitempty"`
}

// FromEvent converts an engine event into a relay message.
func FromEvent(e models.Event) Message {
	return Message{Action: e.Action, Data: &Data{PageKey: e.PageKey}}
}

// Relay delivers messages at most once. Notify never fails; delivery
// problems are swallowed by the implementation.
type Relay interface {
	Notify(ctx context.Context, msg Message)
}

// Discard drops every message.
type Discard struct{}

// Notify implements Relay.
func (Discard) Notify(context.Context, Message) {}

// Func adapts a function to Relay.
type Func func(ctx context.Context, msg Message)

// Notify implements Relay.
func (f Func) Notify(ctx context.Context, msg Message) { f(ctx, msg) }
