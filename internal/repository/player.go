// Package repository holds the in-memory registries behind the game
// manager: players, sessions and the waitlist. The containers do no
// locking of their own; every access is serialized by the manager's lock.
package repository

import (
	"fmt"

	"github.com/rocketscienceinc/caro-backend/internal/apperror"
	"github.com/rocketscienceinc/caro-backend/internal/entity"
)

type PlayerRegistry struct {
	players map[string]*entity.Player
}

func NewPlayerRegistry() *PlayerRegistry {
	return &PlayerRegistry{
		players: make(map[string]*entity.Player),
	}
}

func (that *PlayerRegistry) CreateOrUpdate(player *entity.Player) {
	that.players[player.ID] = player
}

func (that *PlayerRegistry) GetByID(id string) (*entity.Player, error) {
	player, ok := that.players[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrPlayerNotFound, id)
	}

	return player, nil
}

func (that *PlayerRegistry) DeleteByID(id string) {
	delete(that.players, id)
}

func (that *PlayerRegistry) Len() int {
	return len(that.players)
}
