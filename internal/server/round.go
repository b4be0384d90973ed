package server

import (
	"errors"
	"time"

	"github.com/typerush/go-typerush/internal/game"
)

// startRound starts the one-second countdown loop for a room, cancelling any
// loop left over from a previous round so a restart never double-ticks.
func (gs *GameServer) startRound(roomId string) {
	gs.roundsLock.Lock()
	if stop, ok := gs.rounds[roomId]; ok {
		close(stop)
	}
	stop := make(chan struct{})
	gs.rounds[roomId] = stop
	gs.roundsLock.Unlock()

	go gs.runRound(roomId, stop)
}

// runRound holds no room state: every tick re-fetches through the game so a
// room that restarted, emptied or ended underneath the loop is observed, not
// raced.
func (gs *GameServer) runRound(roomId string, stop chan struct{}) {
	ticker := gs.clock.NewTicker(time.Second)
	defer ticker.Stop()
	defer gs.deregisterRound(roomId, stop)

	for {
		select {
		case <-ticker.Chan():
			res, err := gs.game.TickRoom(roomId)
			if err != nil {
				if !errors.Is(err, game.ErrRoundNotActive) && !errors.Is(err, game.ErrRoomNotFound) {
					gs.log.Error().Err(err).Str("room", roomId).Msg("tick failed")
				}
				return
			}

			gs.broadcastRoom(res.Room, newUpdateTime(res.Timer))

			if res.Ended {
				gs.log.Info().Str("room", roomId).Msg("round finished")
				gs.broadcastRoom(res.Room, newGameFinish(res.Room))
				return
			}
		case <-stop:
			return
		}
	}
}

func (gs *GameServer) cancelRound(roomId string) {
	gs.roundsLock.Lock()
	defer gs.roundsLock.Unlock()

	if stop, ok := gs.rounds[roomId]; ok {
		close(stop)
		delete(gs.rounds, roomId)
	}
}

// deregisterRound removes the loop's own entry, leaving any newer loop that
// replaced it untouched.
func (gs *GameServer) deregisterRound(roomId string, stop chan struct{}) {
	gs.roundsLock.Lock()
	defer gs.roundsLock.Unlock()

	if cur, ok := gs.rounds[roomId]; ok && cur == stop {
		delete(gs.rounds, roomId)
	}
}
