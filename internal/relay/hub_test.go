// ABOUTME: Tests for the relay hub fan-out, drop policy and websocket observers
// ABOUTME: Websocket tests run an httptest server and dial it with nhooyr.io/websocket

package relay

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/harper/wikifaves/internal/models"
)

func TestMessageJSON(t *testing.T) {
	data, err := json.Marshal(FromEvent(models.Event{Action: models.ActionFavorited, PageKey: "X"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"favorited","data":{"pageKey":"X"}}`, string(data))

	data, err = json.Marshal(Message{Action: models.ActionToggleFavorite})
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"toggleFavorite"}`, string(data))
}

func TestHub_Fanout(t *testing.T) {
	h := NewHub()
	_, a, cancelA := h.Subscribe()
	defer cancelA()
	_, b, cancelB := h.Subscribe()

	msg := FromEvent(models.Event{Action: models.ActionUnfavorited, PageKey: "Y"})
	h.Notify(context.Background(), msg)

	assert.Equal(t, msg, <-a)
	assert.Equal(t, msg, <-b)

	cancelB()
	cancelB()
	assert.Equal(t, 1, h.Subscribers())
	_, open := <-b
	assert.False(t, open)
}

func TestHub_DropsWhenFull(t *testing.T) {
	h := NewHub(WithBuffer(1))
	_, ch, cancel := h.Subscribe()
	defer cancel()

	msg := Message{Action: models.ActionToggleFavorite}
	h.Notify(context.Background(), msg)
	h.Notify(context.Background(), msg)
	h.Notify(context.Background(), msg)

	assert.Equal(t, 2, h.Dropped())
	assert.Len(t, ch, 1)
}

func TestDiscardAndFunc(t *testing.T) {
	Discard{}.Notify(context.Background(), Message{})

	var got []Message
	var r Relay = Func(func(_ context.Context, m Message) { got = append(got, m) })
	r.Notify(context.Background(), Message{Action: models.ActionFavorited})
	assert.Len(t, got, 1)
}

func dialHub(t *testing.T, h *Hub) (*websocket.Conn, context.Context) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	conn, _, err := websocket.Dial(ctx, "ws://"+strings.TrimPrefix(srv.URL, "http://"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })

	require.Eventually(t, func() bool { return h.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)
	return conn, ctx
}

func TestHub_WebsocketObserver(t *testing.T) {
	h := NewHub()
	conn, ctx := dialHub(t, h)

	h.Notify(ctx, FromEvent(models.Event{Action: models.ActionFavorited, PageKey: "Z"}))

	var got Message
	require.NoError(t, wsjson.Read(ctx, conn, &got))
	assert.Equal(t, models.ActionFavorited, got.Action)
	require.NotNil(t, got.Data)
	assert.Equal(t, models.PageKey("Z"), got.Data.PageKey)
}

func TestHub_InboundToggle(t *testing.T) {
	received := make(chan Message, 1)
	h := NewHub(WithHandler(func(_ context.Context, m Message) { received <- m }))
	conn, ctx := dialHub(t, h)

	require.NoError(t, wsjson.Write(ctx, conn, Message{Action: models.ActionToggleFavorite, Data: &Data{PageKey: "Q"}}))

	select {
	case m := <-received:
		assert.Equal(t, models.PageKey("Q"), m.Data.PageKey)
	case <-ctx.Done():
		t.Fatal("handler was not called")
	}
}
