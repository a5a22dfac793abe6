package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tendant/simple-feed/pkg/simplefeed"
)

func main() {
	addr := flag.String("addr", "ws://localhost:5000/ws", "push endpoint URL")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, *addr, os.Stdout)
	stop()
	os.Exit(code)
}

// run prints every event from the stream at addr until ctx is done or the
// server closes the connection. It returns the process exit code.
func run(ctx context.Context, addr string, out io.Writer) int {
	u, err := url.Parse(addr)
	if err != nil {
		slog.Error("Invalid address", "addr", addr, "err", err)
		return 2
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		slog.Error("Failed to connect", "addr", u.String(), "err", err)
		return 1
	}
	defer conn.Close()

	slog.Info("Watching feed", "addr", u.String())

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return 0
			}
			slog.Error("Connection lost", "err", err)
			return 1
		}

		event, err := simplefeed.DecodeEvent(data)
		if err != nil {
			if errors.Is(err, simplefeed.ErrUnknownEvent) {
				slog.Warn("Skipping unknown event", "err", err)
				continue
			}
			slog.Error("Undecodable event", "err", err)
			continue
		}
		fmt.Fprintln(out, formatEvent(event))
	}
}

func formatEvent(event simplefeed.Event) string {
	switch ev := event.(type) {
	case simplefeed.NewPostEvent:
		p := ev.Post
		marker := ""
		if p.IsBreaking {
			marker = " [BREAKING]"
		}
		line := fmt.Sprintf("%s #%d %-9s%s %s", p.CreatedAt.Local().Format(time.TimeOnly), p.ID, p.Type, marker, p.Title)
		if len(p.Tags) > 0 {
			line += " (" + strings.Join(p.Tags, ", ") + ")"
		}
		return line
	default:
		return fmt.Sprintf("%s event", event.Kind())
	}
}
