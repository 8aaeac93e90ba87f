package repository

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/caro-backend/internal/apperror"
	"github.com/rocketscienceinc/caro-backend/internal/entity"
)

// PairKey - derives the session key from an unordered pair of player
// handles, so both participants resolve to the same session.
func PairKey(playerID, opponentID string) string {
	if playerID > opponentID {
		playerID, opponentID = opponentID, playerID
	}

	return playerID + ":" + opponentID
}

type SessionRegistry struct {
	sessions map[string]*entity.Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*entity.Session),
	}
}

func (that *SessionRegistry) CreateOrUpdate(session *entity.Session) {
	that.sessions[session.ID] = session
}

func (that *SessionRegistry) GetByID(id string) (*entity.Session, error) {
	session, ok := that.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrGameNotFound, id)
	}

	return session, nil
}

func (that *SessionRegistry) DeleteByID(id string) {
	delete(that.sessions, id)
}

func (that *SessionRegistry) Len() int {
	return len(that.sessions)
}

// String - used only by debug logging.
func (that *SessionRegistry) String() string {
	keys := make([]string, 0, len(that.sessions))
	for key := range that.sessions {
		keys = append(keys, key)
	}

	return strings.Join(keys, ", ")
}
