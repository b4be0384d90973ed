package server

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/typerush/go-typerush/internal/game"
	"github.com/typerush/go-typerush/internal/stats"
	"github.com/typerush/go-typerush/internal/types"
)

const (
	MetricConnectedClients = "ConnectedClients"
	MetricActiveRooms      = "ActiveRooms"
	MetricGamesStarted     = "GamesStarted"
	MetricWordsCompleted   = "WordsCompleted"
)

// GameServer is the hub between websocket clients and the game state. It owns
// the per-room round loops and the per-connection disconnect grace timers;
// all wall-clock use goes through the injected clock so tests can drive time.
type GameServer struct {
	log   zerolog.Logger
	game  *game.Game
	stats stats.StatsProvider
	clock clockwork.Clock

	clients     map[string]*Client
	clientsLock sync.Mutex

	rounds     map[string]chan struct{}
	roundsLock sync.Mutex

	graceTimers     map[string]clockwork.Timer
	graceTimersLock sync.Mutex

	gracePeriod time.Duration
}

func NewGameServer(logger zerolog.Logger, g *game.Game, st stats.StatsProvider,
	clock clockwork.Clock, gracePeriod time.Duration) (*GameServer, error) {
	gs := &GameServer{
		log:         logger,
		game:        g,
		stats:       st,
		clock:       clock,
		clients:     make(map[string]*Client),
		rounds:      make(map[string]chan struct{}),
		graceTimers: make(map[string]clockwork.Timer),
		gracePeriod: gracePeriod,
	}

	for _, name := range []string{
		MetricConnectedClients,
		MetricActiveRooms,
		MetricGamesStarted,
		MetricWordsCompleted,
	} {
		st.RegisterMetric(name)
	}

	return gs, nil
}

func (gs *GameServer) RegisterClient(c *Client) {
	gs.clientsLock.Lock()
	defer gs.clientsLock.Unlock()

	gs.clients[c.connId] = c
	gs.stats.Incr(MetricConnectedClients)
	gs.log.Info().Str("conn_id", c.connId).Msg("client connected")
}

func (gs *GameServer) DeregisterClient(c *Client) {
	gs.clientsLock.Lock()
	defer gs.clientsLock.Unlock()

	if _, ok := gs.clients[c.connId]; !ok {
		return
	}

	delete(gs.clients, c.connId)
	gs.stats.Decr(MetricConnectedClients)
	gs.log.Info().Str("conn_id", c.connId).Msg("client disconnected")
}

func (gs *GameServer) handleCreateUser(c *Client, msg *ClientMessage) {
	req := msg.CreateUser
	user := gs.game.CreateUser(c.connId, req.Username, req.Avatar, req.Color, req.SessionId)
	c.queueMessage(newSuccessCreateUser(msg.Id, user))
}

func (gs *GameServer) handleHostRoom(c *Client, msg *ClientMessage) {
	room, err := gs.game.CreateRoom(c.connId, msg.HostRoom.Settings)
	if err != nil {
		c.queueMessage(newError(msg.Id, err))
		return
	}

	gs.stats.Incr(MetricActiveRooms)
	c.queueMessage(newSuccessHostRoom(msg.Id, room.Id))
	gs.broadcastRoom(room, newRefreshRoom(room))
}

func (gs *GameServer) handleJoin(c *Client, msg *ClientMessage) {
	// the join flow skips create_user; register the connection if it hasn't
	// been yet, keeping any session id an earlier create_user established
	if _, ok := gs.game.User(c.connId); !ok {
		gs.game.CreateUser(c.connId, msg.Join.Username, "", "", "")
	}

	room, err := gs.game.JoinRoom(c.connId, msg.Join.Code)
	if err != nil {
		c.queueMessage(newError(msg.Id, err))
		return
	}

	c.queueMessage(newSuccessJoin(msg.Id, room))
	gs.broadcastRoom(room, newRefreshRoom(room))
}

func (gs *GameServer) handleStartGame(c *Client, msg *ClientMessage) {
	room, err := gs.game.StartGame(c.connId, msg.StartGame.Settings)
	if err != nil {
		c.queueMessage(newError(msg.Id, err))
		return
	}

	gs.stats.Incr(MetricGamesStarted)
	gs.broadcastRoom(room, newGameStarted(room))
	gs.startRound(room.Id)
}

func (gs *GameServer) handleInput(c *Client, msg *ClientMessage) {
	res, err := gs.game.HandleInput(c.connId, msg.Input.Input)
	if err != nil {
		if errors.Is(err, game.ErrRoundNotActive) {
			// stale keystroke from after the round ended
			return
		}
		c.queueMessage(newError(msg.Id, err))
		return
	}

	switch res.Kind {
	case game.InputCompleted:
		gs.stats.Incr(MetricWordsCompleted)
		gs.broadcastRoom(res.Room, newWordFinish(res.Word, c.connId, res.Score, res.Combo))
		gs.broadcastRoom(res.Room, newRefreshRoom(res.Room))
	case game.InputProgress:
		gs.broadcastRoom(res.Room, newUpdateLetter(res.WordId, res.Owner, res.Typed))
	case game.InputNoMatch:
		// the typist's local state changed but nobody needs to hear about it
	}
}

func (gs *GameServer) handleRejoin(c *Client, msg *ClientMessage) {
	room, user, err := gs.game.Rejoin(msg.Rejoin.SessionId, msg.Rejoin.RoomCode, c.connId)
	if err != nil {
		c.queueMessage(newError(msg.Id, err))
		return
	}

	c.queueMessage(newSuccessRejoin(msg.Id, room, user))
	gs.broadcastRoom(room, newRefreshRoom(room))
}

// broadcastRoom queues a message to every connected member of the room
// snapshot.
func (gs *GameServer) broadcastRoom(room *types.Room, msg *ServerMessage) {
	gs.clientsLock.Lock()
	defer gs.clientsLock.Unlock()

	for _, u := range room.Users {
		client, ok := gs.clients[u.Id]
		if !ok || client == msg.SkipClient {
			continue
		}
		client.queueMessage(msg)
	}
}

// scheduleRemoval starts the disconnect grace period for a connection. The
// timer checks at fire time whether the connection id is still registered;
// a rejoin re-keys the user to a new id, turning the removal into a no-op.
func (gs *GameServer) scheduleRemoval(connId string) {
	gs.graceTimersLock.Lock()
	defer gs.graceTimersLock.Unlock()

	if _, exists := gs.graceTimers[connId]; exists {
		return
	}

	gs.graceTimers[connId] = gs.clock.AfterFunc(gs.gracePeriod, func() {
		gs.removeDisconnected(connId)
	})
}

func (gs *GameServer) removeDisconnected(connId string) {
	gs.graceTimersLock.Lock()
	delete(gs.graceTimers, connId)
	gs.graceTimersLock.Unlock()

	room, left, removed := gs.game.DropConnection(connId)
	if !removed {
		return
	}

	gs.log.Info().Str("conn_id", connId).Msg("grace period expired, removing user")

	if left == "" {
		return
	}
	if room == nil {
		// the room emptied and was deleted with its last member
		gs.stats.Decr(MetricActiveRooms)
		gs.cancelRound(left)
		return
	}

	gs.broadcastRoom(room, newRefreshRoom(room))
}

// Shutdown stops round loops, grace timers and client pumps. It does not wait
// for in-flight broadcasts; the process is exiting.
func (gs *GameServer) Shutdown() {
	gs.log.Info().Msg("shutting down game server")

	gs.roundsLock.Lock()
	for id, stop := range gs.rounds {
		close(stop)
		delete(gs.rounds, id)
	}
	gs.roundsLock.Unlock()

	gs.graceTimersLock.Lock()
	for id, timer := range gs.graceTimers {
		timer.Stop()
		delete(gs.graceTimers, id)
	}
	gs.graceTimersLock.Unlock()

	gs.clientsLock.Lock()
	for _, c := range gs.clients {
		c.stopClient()
	}
	gs.clientsLock.Unlock()
}
