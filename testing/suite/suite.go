// Package suite boots the full game stack in-process for end-to-end
// tests: a real GameManager behind a real TCP listener on a loopback
// port, plus a line-protocol test client.
package suite

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/rocketscienceinc/caro-backend/internal/protocol"
	"github.com/rocketscienceinc/caro-backend/internal/transport/tcp"
	"github.com/rocketscienceinc/caro-backend/internal/usecase"
)

const (
	maxWaitDuration = 30 * time.Second
	readTimeout     = 5 * time.Second
)

type Suite struct {
	*testing.T
	Logger *slog.Logger

	Game *usecase.GameManager

	addr string
}

// New starts the game server on an ephemeral loopback port and tears it
// down with the test.
func New(t *testing.T, moveTimeout time.Duration) (context.Context, *Suite) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), maxWaitDuration)
	t.Cleanup(func() {
		cancel()
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	game := usecase.NewGameManager(logger, moveTimeout)
	server := tcp.New(logger, game)
	game.SetNotifier(server)

	if err := server.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("could not start game server: %v", err)
	}

	go func() {
		if err := server.Serve(ctx); err != nil {
			logger.Error("game server stopped", "error", err)
		}
	}()

	return ctx, &Suite{
		T:      t,
		Logger: logger,
		Game:   game,
		addr:   server.Addr(),
	}
}

// Client is one test-side connection speaking the newline-delimited JSON
// protocol. Every read carries a deadline so a missing message fails the
// test instead of hanging it.
type Client struct {
	t       *testing.T
	conn    net.Conn
	scanner *bufio.Scanner
}

// Dial - connects a fresh client to the in-process server.
func (that *Suite) Dial() *Client {
	that.Helper()

	conn, err := net.Dial("tcp", that.addr)
	if err != nil {
		that.Fatalf("could not dial game server: %v", err)
	}

	that.Cleanup(func() {
		_ = conn.Close()
	})

	return &Client{
		t:       that.T,
		conn:    conn,
		scanner: bufio.NewScanner(conn),
	}
}

// Send - writes one framed message.
func (that *Client) Send(msgType string, payload any) {
	that.t.Helper()

	message, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		that.t.Fatalf("could not build %s message: %v", msgType, err)
	}

	data, err := json.Marshal(message)
	if err != nil {
		that.t.Fatalf("could not marshal %s message: %v", msgType, err)
	}

	if _, err = that.conn.Write(append(data, '\n')); err != nil {
		that.t.Fatalf("could not send %s message: %v", msgType, err)
	}
}

// SendRaw - writes one raw line, for protocol-abuse tests.
func (that *Client) SendRaw(line string) {
	that.t.Helper()

	if _, err := that.conn.Write([]byte(line + "\n")); err != nil {
		that.t.Fatalf("could not send raw line: %v", err)
	}
}

// Recv - reads the next framed message.
func (that *Client) Recv() *protocol.Message {
	that.t.Helper()

	if err := that.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		that.t.Fatalf("could not set read deadline: %v", err)
	}

	if !that.scanner.Scan() {
		that.t.Fatalf("connection closed while waiting for a message: %v", that.scanner.Err())
	}

	var message protocol.Message
	if err := json.Unmarshal(that.scanner.Bytes(), &message); err != nil {
		that.t.Fatalf("could not unmarshal message %q: %v", that.scanner.Text(), err)
	}

	return &message
}

// Expect - reads the next message and requires its type.
func (that *Client) Expect(msgType string) *protocol.Message {
	that.t.Helper()

	message := that.Recv()
	if message.Type != msgType {
		that.t.Fatalf("expected %s message, got %s with data %s", msgType, message.Type, message.Data)
	}

	return message
}

// Close - drops the connection, simulating an abrupt disconnect.
func (that *Client) Close() {
	_ = that.conn.Close()
}
