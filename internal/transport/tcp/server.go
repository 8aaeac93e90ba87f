package tcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/rocketscienceinc/caro-backend/internal/pkg"
	"github.com/rocketscienceinc/caro-backend/internal/protocol"
	"github.com/rocketscienceinc/caro-backend/internal/usecase"
)

// maxLineBytes bounds one framed message; a full board update is well
// under 4 KiB.
const maxLineBytes = 64 * 1024

var ErrServerNotListening = errors.New("server is not listening")

type gameManager interface {
	Register(playerID string) []usecase.Event
	SetUsername(playerID, username string) []usecase.Event
	MakeMove(playerID string, row, col int) []usecase.Event
	SendChat(playerID, text string) []usecase.Event
	RequestRematch(playerID string) []usecase.Event
	DeclineRematch(playerID string) []usecase.Event
	Disconnect(playerID string) []usecase.Event
}

// client is one live connection. The write mutex keeps concurrently
// fanned-out events from interleaving inside a frame.
type client struct {
	conn    net.Conn
	writeMu sync.Mutex
}

func (that *client) send(message *protocol.Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if _, err = that.conn.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

// Server accepts TCP connections and runs one read loop per connection.
// Messages are newline-delimited JSON envelopes; all game state lives in
// the game manager, the server only frames, dispatches and delivers.
type Server struct {
	logger   *slog.Logger
	game     gameManager
	handlers map[string]func(playerID string, data json.RawMessage) ([]usecase.Event, error)

	listener net.Listener

	connectionsMutex sync.RWMutex
	connections      map[string]*client
}

func New(logger *slog.Logger, game gameManager) *Server {
	server := &Server{
		logger:      logger,
		game:        game,
		handlers:    make(map[string]func(string, json.RawMessage) ([]usecase.Event, error)),
		connections: make(map[string]*client),
	}

	server.handlers[protocol.TypeUsernameSet] = server.handleUsernameSet
	server.handlers[protocol.TypeMove] = server.handleMove
	server.handlers[protocol.TypeChat] = server.handleChat
	server.handlers[protocol.TypeRematchRequest] = server.handleRematchRequest
	server.handlers[protocol.TypeRematchDeclined] = server.handleRematchDeclined
	server.handlers[protocol.TypeRematchStart] = server.handleRematchStart

	return server
}

// Start - listens on addr and serves until the context is canceled.
func (that *Server) Start(ctx context.Context, addr string) error {
	if err := that.Listen(addr); err != nil {
		return err
	}

	return that.Serve(ctx)
}

// Listen - binds the listener without serving, so callers can learn the
// bound address before any connection is accepted.
func (that *Server) Listen(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	that.listener = listener

	return nil
}

// Addr - the bound listen address.
func (that *Server) Addr() string {
	if that.listener == nil {
		return ""
	}

	return that.listener.Addr().String()
}

// Serve - runs the accept loop. Each accepted connection gets its own
// goroutine owning that connection's read loop.
func (that *Server) Serve(ctx context.Context) error {
	log := that.logger.With("method", "Serve")

	if that.listener == nil {
		return ErrServerNotListening
	}

	go func() {
		<-ctx.Done()
		if err := that.listener.Close(); err != nil {
			log.Error("failed to close listener", "error", err)
		}
	}()

	for {
		conn, err := that.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("failed to accept connection: %w", err)
		}

		go that.handleConnection(conn)
	}
}

// Notify - implements usecase.Notifier for timer-driven events.
func (that *Server) Notify(events []usecase.Event) {
	that.deliver(events)
}

// handleConnection - owns one connection: issues the player handle, runs
// the framed read loop and funnels any exit through the disconnect path.
func (that *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	playerID := pkg.NewPlayerID()
	log := that.logger.With("method", "handleConnection", "playerID", playerID)

	that.addClient(playerID, &client{conn: conn})
	that.deliver(that.game.Register(playerID))

	log.Info("connection established", "remote", conn.RemoteAddr().String())

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var message protocol.Message
		if err := json.Unmarshal(line, &message); err != nil {
			// Malformed line: log and drop, the connection stays up.
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Type]
		if !ok {
			log.Error("unknown message type", "type", message.Type)
			continue
		}

		events, err := handler(playerID, message.Data)
		if err != nil {
			log.Error("failed to process message", "type", message.Type, "error", err)
			continue
		}

		that.deliver(events)
	}

	if err := scanner.Err(); err != nil {
		log.Info("read loop ended", "error", err)
	}

	that.deliver(that.game.Disconnect(playerID))
	that.removeClient(playerID)

	log.Info("connection closed")
}

// deliver - sends each event to its recipient. This always runs outside
// the manager lock. A failed send closes the recipient's connection; its
// own read loop then runs the regular disconnect path.
func (that *Server) deliver(events []usecase.Event) {
	log := that.logger.With("method", "deliver")

	for _, event := range events {
		that.connectionsMutex.RLock()
		recipient, ok := that.connections[event.PlayerID]
		that.connectionsMutex.RUnlock()

		if !ok {
			log.Warn("connection not found for player", "playerID", event.PlayerID, "type", event.Type)
			continue
		}

		message, err := protocol.NewMessage(event.Type, event.Payload)
		if err != nil {
			log.Error("failed to build message", "type", event.Type, "error", err)
			continue
		}

		if err = recipient.send(message); err != nil {
			log.Error("failed to send message", "playerID", event.PlayerID, "error", err)

			if closeErr := recipient.conn.Close(); closeErr != nil {
				log.Error("failed to close connection", "playerID", event.PlayerID, "error", closeErr)
			}
		}
	}
}

func (that *Server) addClient(playerID string, cl *client) {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	that.connections[playerID] = cl
}

func (that *Server) removeClient(playerID string) {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	delete(that.connections, playerID)
}
