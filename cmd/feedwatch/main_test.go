package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-feed/pkg/simplefeed"
)

// streamServer writes frames to every viewer, then closes with code.
func streamServer(t *testing.T, frames [][]byte, code int) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, f); err != nil {
				return
			}
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, ""), time.Now().Add(time.Second))
		// Wait for the viewer to answer the close.
		_, _, _ = conn.ReadMessage()
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func encodedPost(t *testing.T, post *simplefeed.Post) []byte {
	t.Helper()
	data, err := simplefeed.EncodeEvent(simplefeed.NewPostEvent{Post: post})
	require.NoError(t, err)
	return data
}

func TestRun_PrintsEventsUntilNormalClose(t *testing.T) {
	post := &simplefeed.Post{
		ID:         3,
		Title:      "Bridge closed",
		Type:       simplefeed.PostTypeBreaking,
		IsBreaking: true,
		Tags:       []string{"traffic"},
		CreatedAt:  time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	addr := streamServer(t, [][]byte{
		encodedPost(t, post),
		[]byte(`{"type":"DELETED_POST","post":null}`),
		[]byte(`not json`),
	}, websocket.CloseNormalClosure)

	var out bytes.Buffer
	code := run(context.Background(), addr, &out)

	assert.Equal(t, 0, code)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "#3")
	assert.Contains(t, lines[0], "[BREAKING]")
	assert.Contains(t, lines[0], "Bridge closed (traffic)")
}

func TestRun_AbnormalCloseFails(t *testing.T) {
	addr := streamServer(t, nil, websocket.CloseInternalServerErr)

	var out bytes.Buffer
	assert.Equal(t, 1, run(context.Background(), addr, &out))
	assert.Empty(t, out.String())
}

func TestRun_ConnectFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	assert.Equal(t, 1, run(context.Background(), addr, &bytes.Buffer{}))
	assert.Equal(t, 2, run(context.Background(), "://bad", &bytes.Buffer{}))
}

func TestFormatEvent(t *testing.T) {
	line := formatEvent(simplefeed.NewPostEvent{Post: &simplefeed.Post{
		ID:    1,
		Title: "Quiet update",
		Type:  simplefeed.PostTypeQuote,
	}})
	assert.Contains(t, line, "#1 quote")
	assert.NotContains(t, line, "BREAKING")
	assert.True(t, strings.HasSuffix(line, "Quiet update"))
}
