package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-feed/pkg/simplefeed"
	"github.com/tendant/simple-feed/pkg/simplefeed/bus"
	"github.com/tendant/simple-feed/pkg/simplefeed/repo/memory"
)

// setupStreamTest serves the post API under /api and the stream under /ws on a live listener.
func setupStreamTest(t *testing.T, allowedOrigins []string) (*httptest.Server, *bus.Bus) {
	t.Helper()
	b := bus.New(nil)
	svc, err := simplefeed.New(
		simplefeed.WithRepository(memory.New()),
		simplefeed.WithPublisher(b),
	)
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Handle("/ws", NewStreamHandler(b, bus.DefaultWSConfig(), allowedOrigins, nil))
	router.Mount("/api", NewPostHandler(svc, nil).Routes())

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, b
}

func dialStream(t *testing.T, srv *httptest.Server, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return websocket.DefaultDialer.DialContext(ctx, url, header)
}

func TestStreamHandler_BroadcastsNewPosts(t *testing.T) {
	srv, b := setupStreamTest(t, nil)

	viewers := make([]*websocket.Conn, 2)
	for i := range viewers {
		conn, _, err := dialStream(t, srv, nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		viewers[i] = conn
	}
	require.Eventually(t, func() bool { return b.Len() == 2 }, 2*time.Second, 10*time.Millisecond)

	body := `{"title":"Bridge closed","content":"Closed for inspection.","type":"breaking","isBreaking":true}`
	resp, err := http.Post(srv.URL+"/api/posts", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created simplefeed.Post
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	for _, conn := range viewers {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		ev, err := simplefeed.DecodeEvent(data)
		require.NoError(t, err)
		np, ok := ev.(simplefeed.NewPostEvent)
		require.True(t, ok)
		assert.Equal(t, created.ID, np.Post.ID)
		assert.Equal(t, "Bridge closed", np.Post.Title)
		assert.True(t, np.Post.IsBreaking)
	}
}

func TestStreamHandler_UnregistersOnDisconnect(t *testing.T) {
	srv, b := setupStreamTest(t, nil)

	conn, _, err := dialStream(t, srv, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return b.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	assert.Eventually(t, func() bool { return b.Len() == 0 }, 2*time.Second, 10*time.Millisecond)

	// Publishing with nobody listening is not an error.
	resp, err := http.Post(srv.URL+"/api/posts", "application/json",
		strings.NewReader(`{"title":"t","content":"c","type":"quote"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestStreamHandler_OriginCheck(t *testing.T) {
	srv, b := setupStreamTest(t, []string{"https://feed.example.com"})

	_, resp, err := dialStream(t, srv, http.Header{"Origin": {"https://evil.example.com"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, b.Len())

	conn, _, err := dialStream(t, srv, http.Header{"Origin": {"https://feed.example.com"}})
	require.NoError(t, err)
	defer conn.Close()
	assert.Eventually(t, func() bool { return b.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestStreamHandler_PlainHTTPIsRejected(t *testing.T) {
	srv, b := setupStreamTest(t, nil)

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, b.Len())
}

func TestOriginChecker(t *testing.T) {
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	open := originChecker(nil)
	assert.True(t, open(req("https://anything.test")))

	restricted := originChecker([]string{"https://a.test"})
	assert.True(t, restricted(req("https://a.test")))
	assert.True(t, restricted(req("")))
	assert.False(t, restricted(req("https://b.test")))
}

func TestStreamHandler_ServerShutdownClosesViewersCleanly(t *testing.T) {
	b := bus.New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := httptest.NewUnstartedServer(NewStreamHandler(b, bus.DefaultWSConfig(), nil, nil))
	srv.Config.BaseContext = func(net.Listener) context.Context { return ctx }
	srv.Start()
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return b.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	assert.Eventually(t, func() bool { return b.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}
