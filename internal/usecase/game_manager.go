package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/caro-backend/internal/apperror"
	"github.com/rocketscienceinc/caro-backend/internal/entity"
	"github.com/rocketscienceinc/caro-backend/internal/protocol"
	"github.com/rocketscienceinc/caro-backend/internal/repository"
)

// Event is one outbound message addressed to one player. Manager
// operations compute the full event set while holding the lock; the
// transport delivers them after the lock is released, so a stalled peer
// never blocks other sessions.
type Event struct {
	PlayerID string
	Type     string
	Payload  any
}

// Notifier delivers events that do not originate from an inbound message,
// such as a move-timeout forfeit.
type Notifier interface {
	Notify(events []Event)
}

type Stats struct {
	ConnectedPlayers int `json:"connected_players"`
	WaitingPlayers   int `json:"waiting_players"`
	ActiveSessions   int `json:"active_sessions"`
}

const msgRequeued = "Game over. Waiting for a new opponent..."

// GameManager owns every shared registry: players, sessions, waitlist and
// the turn timers. A single mutex spans each read-check-write-notify
// sequence, so pairing, move application, rematch counting and disconnect
// cleanup can never interleave.
type GameManager struct {
	logger *slog.Logger

	mu       sync.Mutex
	players  *repository.PlayerRegistry
	sessions *repository.SessionRegistry
	waitlist *repository.Waitlist
	timers   map[string]*time.Timer

	moveTimeout time.Duration
	notifier    Notifier
}

func NewGameManager(logger *slog.Logger, moveTimeout time.Duration) *GameManager {
	return &GameManager{
		logger: logger,

		players:  repository.NewPlayerRegistry(),
		sessions: repository.NewSessionRegistry(),
		waitlist: repository.NewWaitlist(),
		timers:   make(map[string]*time.Timer),

		moveTimeout: moveTimeout,
	}
}

// SetNotifier - binds the transport that delivers timer-driven events.
// Must be called before the server starts accepting connections.
func (that *GameManager) SetNotifier(notifier Notifier) {
	that.notifier = notifier
}

// Register - creates the player handle for a fresh connection.
func (that *GameManager) Register(playerID string) []Event {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.players.CreateOrUpdate(&entity.Player{ID: playerID})

	return []Event{{
		PlayerID: playerID,
		Type:     protocol.TypeWait,
		Payload:  protocol.WaitPayload{Message: "Welcome! Please set a username to start."},
	}}
}

// SetUsername - enrolls a player into matchmaking and pairs the two oldest
// waiting players when possible.
func (that *GameManager) SetUsername(playerID, username string) []Event {
	log := that.logger.With("method", "SetUsername")

	that.mu.Lock()
	defer that.mu.Unlock()

	player, err := that.players.GetByID(playerID)
	if err != nil {
		log.Error("failed to get player", "error", err)
		return nil
	}

	// The display name is set once and immutable thereafter.
	if !player.IsEnrolled() {
		player.Name = username
	}

	var events []Event

	if player.GameID == "" && !that.waitlist.Contains(playerID) {
		that.waitlist.Push(playerID)
		log.Info("player enrolled", "playerID", playerID, "username", player.Name)

		events = append(events, Event{
			PlayerID: playerID,
			Type:     protocol.TypeWait,
			Payload:  protocol.WaitPayload{Message: fmt.Sprintf("Welcome %s! Waiting for an opponent...", player.Name)},
		})
	} else {
		events = append(events, Event{
			PlayerID: playerID,
			Type:     protocol.TypeWait,
			Payload:  protocol.WaitPayload{Message: fmt.Sprintf("Welcome %s! You are already waiting or in a game.", player.Name)},
		})
	}

	return append(events, that.tryPair()...)
}

// MakeMove - applies one move: validation, board write, fan-out of the
// board update and the outcome. Rule violations answer the sender only.
func (that *GameManager) MakeMove(playerID string, row, col int) []Event {
	log := that.logger.With("method", "MakeMove")

	that.mu.Lock()
	defer that.mu.Unlock()

	session, player, err := that.sessionForPlayer(playerID)
	if err != nil {
		return errorEvent(playerID, "You are not in a game or the game has ended.")
	}

	outcome, err := session.MakeMove(playerID, row, col)
	switch {
	case errors.Is(err, apperror.ErrNotYourTurn):
		return errorEvent(playerID, "It's not your turn.")
	case errors.Is(err, apperror.ErrCellOccupied), errors.Is(err, apperror.ErrCellOutOfBounds):
		return errorEvent(playerID, "That cell is occupied or out of range.")
	case errors.Is(err, apperror.ErrGameFinished):
		return errorEvent(playerID, "The game is already finished.")
	case err != nil:
		log.Error("failed to make move", "playerID", playerID, "error", err)
		return errorEvent(playerID, "Invalid move.")
	}

	opponent := session.Opponent(playerID)

	events := make([]Event, 0, 4)
	for _, participant := range session.Players {
		events = append(events, Event{
			PlayerID: participant.ID,
			Type:     protocol.TypeUpdateBoard,
			Payload:  protocol.UpdateBoardPayload{Board: *session.Board, LastMove: session.LastMove},
		})
	}

	switch outcome {
	case entity.MoveWin:
		that.cancelTurnTimer(session.ID)
		log.Info("game won", "gameID", session.ID, "winner", player.Name)

		events = append(events,
			gameOverEvent(player.ID, winnerFlag(true), fmt.Sprintf("You won! Congratulations, %s!", player.Name)),
			gameOverEvent(opponent.ID, winnerFlag(false), fmt.Sprintf("You lost! %s is the winner.", player.Name)),
		)
	case entity.MoveDraw:
		that.cancelTurnTimer(session.ID)
		log.Info("game drawn", "gameID", session.ID)

		events = append(events,
			gameOverEvent(player.ID, nil, "Draw! The board is full."),
			gameOverEvent(opponent.ID, nil, "Draw! The board is full."),
		)
	case entity.MoveContinue:
		events = append(events,
			Event{PlayerID: opponent.ID, Type: protocol.TypeYourTurn, Payload: protocol.EmptyPayload{}},
			Event{PlayerID: player.ID, Type: protocol.TypeWaitTurn, Payload: protocol.EmptyPayload{}},
		)
		that.scheduleTurnTimer(session)
	}

	return events
}

// SendChat - relays a chat line to the session opponent. Chat is never
// queued or persisted.
func (that *GameManager) SendChat(playerID, text string) []Event {
	that.mu.Lock()
	defer that.mu.Unlock()

	session, player, err := that.sessionForPlayer(playerID)
	if err != nil {
		return errorEvent(playerID, "No opponent to chat with.")
	}

	return []Event{{
		PlayerID: session.Opponent(playerID).ID,
		Type:     protocol.TypeChat,
		Payload:  protocol.ChatPayload{Message: text, Sender: player.Name},
	}}
}

// RequestRematch - records a rematch vote; when both participants have
// requested one, the same session restarts with a fresh board.
func (that *GameManager) RequestRematch(playerID string) []Event {
	log := that.logger.With("method", "RequestRematch")

	that.mu.Lock()
	defer that.mu.Unlock()

	session, _, err := that.sessionForPlayer(playerID)
	if err != nil {
		return errorEvent(playerID, "No opponent for a rematch.")
	}

	events := []Event{{
		PlayerID: session.Opponent(playerID).ID,
		Type:     protocol.TypeRematchRequest,
		Payload:  protocol.EmptyPayload{},
	}}

	if !session.RequestRematch(playerID) {
		return events
	}

	for _, participant := range session.Players {
		events = append(events, Event{
			PlayerID: participant.ID,
			Type:     protocol.TypeRematchStart,
			Payload:  protocol.EmptyPayload{},
		})
	}

	session.Restart()
	log.Info("rematch started", "gameID", session.ID)

	events = append(events, that.gameStartEvents(session)...)
	that.scheduleTurnTimer(session)

	return events
}

// DeclineRematch - records a decline vote. A unilateral decline only
// notifies the opponent; once both sides decline, the session is destroyed
// and both players rejoin the waitlist.
func (that *GameManager) DeclineRematch(playerID string) []Event {
	log := that.logger.With("method", "DeclineRematch")

	that.mu.Lock()
	defer that.mu.Unlock()

	session, _, err := that.sessionForPlayer(playerID)
	if err != nil {
		return errorEvent(playerID, "No opponent for a rematch.")
	}

	events := []Event{{
		PlayerID: session.Opponent(playerID).ID,
		Type:     protocol.TypeRematchDeclined,
		Payload:  protocol.EmptyPayload{},
	}}

	if !session.DeclineRematch(playerID) {
		return events
	}

	log.Info("rematch declined by both players", "gameID", session.ID)

	participants := session.Players
	that.destroySession(session)

	for _, participant := range participants {
		if _, err = that.players.GetByID(participant.ID); err != nil {
			continue
		}

		that.waitlist.Push(participant.ID)
		events = append(events, Event{
			PlayerID: participant.ID,
			Type:     protocol.TypeWait,
			Payload:  protocol.WaitPayload{Message: msgRequeued},
		})
	}

	// Requeued players are paired on the next enrollment round; pairing
	// them against each other right after a mutual decline would undo the
	// decline.
	return events
}

// Disconnect - the single teardown path for every transport failure. The
// survivor is notified, the session destroyed and the survivor requeued.
func (that *GameManager) Disconnect(playerID string) []Event {
	log := that.logger.With("method", "Disconnect")

	that.mu.Lock()
	defer that.mu.Unlock()

	player, err := that.players.GetByID(playerID)
	if err != nil {
		return nil
	}

	that.waitlist.Remove(playerID)

	var events []Event

	if session, _, sErr := that.sessionForPlayer(playerID); sErr == nil {
		opponent := session.Opponent(playerID)

		events = append(events, Event{
			PlayerID: opponent.ID,
			Type:     protocol.TypeOpponentDisconnected,
			Payload: protocol.OpponentDisconnectedPayload{
				Message: fmt.Sprintf("Opponent %s disconnected. The game is over.", player.Name),
			},
		})

		that.destroySession(session)

		that.waitlist.Push(opponent.ID)
		events = append(events, Event{
			PlayerID: opponent.ID,
			Type:     protocol.TypeWait,
			Payload:  protocol.WaitPayload{Message: msgRequeued},
		})
	}

	that.players.DeleteByID(playerID)
	log.Info("player disconnected", "playerID", playerID, "username", player.Name)

	return events
}

// Stats - a consistent snapshot for the status endpoint.
func (that *GameManager) Stats() Stats {
	that.mu.Lock()
	defer that.mu.Unlock()

	return Stats{
		ConnectedPlayers: that.players.Len(),
		WaitingPlayers:   that.waitlist.Len(),
		ActiveSessions:   that.sessions.Len(),
	}
}

// tryPair - pops the two oldest waiting handles and starts a game. A
// handle that lost its registration between enqueue and pairing is never
// paired; its still-valid partner keeps the head of the queue.
func (that *GameManager) tryPair() []Event {
	log := that.logger.With("method", "tryPair")

	if that.waitlist.Len() < 2 {
		return nil
	}

	firstID, _ := that.waitlist.PopFront()
	secondID, _ := that.waitlist.PopFront()

	first, firstOK := that.pairingCandidate(firstID)
	second, secondOK := that.pairingCandidate(secondID)

	if !firstOK || !secondOK {
		log.Info("stale waitlist entry, skipping pairing round")

		if firstOK {
			that.waitlist.PushFront(firstID)
		} else if secondOK {
			that.waitlist.PushFront(secondID)
		}

		return nil
	}

	session := entity.NewSession(repository.PairKey(firstID, secondID), first, second)
	that.sessions.CreateOrUpdate(session)

	log.Info("game started", "gameID", session.ID, "players", []string{first.Name, second.Name})
	log.Debug("active sessions", "sessions", that.sessions.String())

	that.scheduleTurnTimer(session)

	return that.gameStartEvents(session)
}

func (that *GameManager) pairingCandidate(playerID string) (*entity.Player, bool) {
	player, err := that.players.GetByID(playerID)
	if err != nil || !player.IsEnrolled() || player.GameID != "" {
		return nil, false
	}

	return player, true
}

func (that *GameManager) gameStartEvents(session *entity.Session) []Event {
	events := make([]Event, 0, len(session.Players))

	for _, participant := range session.Players {
		events = append(events, Event{
			PlayerID: participant.ID,
			Type:     protocol.TypeGameStart,
			Payload: protocol.GameStartPayload{
				Symbol:       participant.Mark,
				IsTurn:       session.Turn == participant.ID,
				Board:        *session.Board,
				OpponentName: session.Opponent(participant.ID).Name,
			},
		})
	}

	return events
}

// destroySession - removes the session and clears the participants' turn,
// symbol and vote bookkeeping.
func (that *GameManager) destroySession(session *entity.Session) {
	that.cancelTurnTimer(session.ID)
	that.sessions.DeleteByID(session.ID)

	for _, participant := range session.Players {
		participant.GameID = ""
		participant.Mark = ""
	}
}

func (that *GameManager) sessionForPlayer(playerID string) (*entity.Session, *entity.Player, error) {
	player, err := that.players.GetByID(playerID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get player: %w", err)
	}

	if player.GameID == "" {
		return nil, nil, apperror.ErrNoOpponent
	}

	session, err := that.sessions.GetByID(player.GameID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get game: %w", err)
	}

	return session, player, nil
}

// scheduleTurnTimer - arms the forfeit timer for the new turn owner. The
// move sequence number lets an expired timer detect that the position has
// moved on since it was armed.
func (that *GameManager) scheduleTurnTimer(session *entity.Session) {
	if that.moveTimeout <= 0 || !session.IsOngoing() {
		return
	}

	that.cancelTurnTimer(session.ID)

	sessionID := session.ID
	moveSeq := session.MoveSeq
	that.timers[sessionID] = time.AfterFunc(that.moveTimeout, func() {
		that.expireTurn(sessionID, moveSeq)
	})
}

func (that *GameManager) cancelTurnTimer(sessionID string) {
	if timer, ok := that.timers[sessionID]; ok {
		timer.Stop()
		delete(that.timers, sessionID)
	}
}

// expireTurn - forfeits the game against a turn owner that did not move in
// time. Runs on the timer goroutine; events go out via the notifier after
// the lock is released.
func (that *GameManager) expireTurn(sessionID string, moveSeq int) {
	log := that.logger.With("method", "expireTurn")

	that.mu.Lock()

	session, err := that.sessions.GetByID(sessionID)
	if err != nil || session.MoveSeq != moveSeq || session.IsFinished() {
		that.mu.Unlock()
		return
	}

	loser := session.Turn
	winner := session.Opponent(loser)
	session.Forfeit()
	delete(that.timers, sessionID)

	log.Info("turn timed out", "gameID", sessionID, "winner", winner.Name)

	events := []Event{
		gameOverEvent(winner.ID, winnerFlag(true), "Your opponent ran out of time. You win!"),
		gameOverEvent(loser, winnerFlag(false), "You ran out of time. You lose."),
	}

	that.mu.Unlock()

	if that.notifier != nil {
		that.notifier.Notify(events)
	}
}

func errorEvent(playerID, message string) []Event {
	return []Event{{
		PlayerID: playerID,
		Type:     protocol.TypeError,
		Payload:  protocol.ErrorPayload{Message: message},
	}}
}

func gameOverEvent(playerID string, winner *bool, message string) Event {
	return Event{
		PlayerID: playerID,
		Type:     protocol.TypeGameOver,
		Payload:  protocol.GameOverPayload{Winner: winner, Message: message},
	}
}

func winnerFlag(won bool) *bool {
	return &won
}
