package game

import (
	crand "crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"slices"

	"github.com/typerush/go-typerush/internal/types"
)

const (
	roomCodeLength   = 6
	roomCodeAttempts = 10
)

// roomCodeAlphabet deliberately has no lowercase: codes are read aloud and
// typed by hand.
const roomCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// CreateRoom creates a room owned by the connection's user. The max-player
// ceiling is enforced server-side regardless of what the client sent; the
// rest of the settings are taken as-is.
func (g *Game) CreateRoom(connId string, settings types.RoomSettings) (*types.Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	owner, ok := g.users[connId]
	if !ok {
		return nil, ErrUserNotFound
	}

	code, err := g.newRoomCodeLocked()
	if err != nil {
		return nil, err
	}

	settings.MaxPlayers = g.maxPlayers

	room := &types.Room{
		Id:       code,
		Users:    []*types.User{owner},
		State:    types.RoomStateWaiting,
		Settings: settings,
		Timer:    settings.Duration,
	}
	g.rooms[code] = room

	owner.Room = code
	owner.IsOwner = true

	g.log.Info().Str("room", code).Str("owner", connId).Msg("room created")

	return snapshotRoom(room), nil
}

func (g *Game) newRoomCodeLocked() (string, error) {
	for attempt := 0; attempt < roomCodeAttempts; attempt++ {
		code, err := roomCode()
		if err != nil {
			return "", err
		}
		if _, taken := g.rooms[code]; !taken {
			return code, nil
		}
	}

	return "", errors.New("room code space exhausted")
}

func roomCode() (string, error) {
	buf := make([]byte, roomCodeLength)
	for i := range buf {
		n, err := crand.Int(crand.Reader, big.NewInt(int64(len(roomCodeAlphabet))))
		if err != nil {
			return "", fmt.Errorf("generate room code: %w", err)
		}
		buf[i] = roomCodeAlphabet[n.Int64()]
	}

	return string(buf), nil
}

// JoinRoom adds the connection's user to the room with the given code. Rooms
// only admit players while WAITING; a session id already seated in the room
// is rejected because that seat is reserved for the rejoin path.
func (g *Game) JoinRoom(connId, code string) (*types.Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	user, ok := g.users[connId]
	if !ok {
		return nil, ErrUserNotFound
	}

	room, ok := g.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if len(room.Users) >= room.Settings.MaxPlayers {
		return nil, ErrRoomFull
	}
	if room.State != types.RoomStateWaiting {
		return nil, ErrRoomNotJoinable
	}
	for _, member := range room.Users {
		if member.SessionId == user.SessionId {
			return nil, ErrRoomNotJoinable
		}
	}

	room.Users = append(room.Users, user)
	user.Room = code
	user.IsOwner = false

	return snapshotRoom(room), nil
}

// LeaveRoom removes the connection's user from their room. It returns the
// surviving room for broadcast (nil when the user was in no room, or the room
// emptied and was deleted) and the id of the room that was left.
func (g *Game) LeaveRoom(connId string) (*types.Room, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.leaveLocked(connId)
}

func (g *Game) leaveLocked(connId string) (*types.Room, string) {
	user, ok := g.users[connId]
	if !ok || user.Room == "" {
		return nil, ""
	}

	code := user.Room
	user.Room = ""
	user.IsOwner = false

	room, ok := g.rooms[code]
	if !ok {
		return nil, ""
	}

	for i, member := range room.Users {
		if member.Id == connId {
			room.Users = slices.Delete(room.Users, i, i+1)
			break
		}
	}

	// a departed player cannot keep holding a word
	for _, w := range room.Words {
		removeTyper(w, connId)
	}

	if len(room.Users) == 0 {
		delete(g.rooms, code)
		g.log.Info().Str("room", code).Msg("room emptied, deleting")
		return nil, code
	}

	if !slices.ContainsFunc(room.Users, func(u *types.User) bool { return u.IsOwner }) {
		room.Users[0].IsOwner = true
	}

	return snapshotRoom(room), code
}

// DropConnection performs the deferred removal for a disconnected connection.
// A rejoin re-keys the user to a new connection id, so if connId is no longer
// registered the grace timer lost the race and must do nothing.
func (g *Game) DropConnection(connId string) (*types.Room, string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.users[connId]; !ok {
		return nil, "", false
	}

	room, left := g.leaveLocked(connId)
	delete(g.users, connId)

	return room, left, true
}

// StartGame transitions the room of the connection's user to PLAYING,
// applying optional setting overrides, refilling the word grid and resetting
// every member's score and combo. Only the owner may start, and only from
// WAITING or ENDED; the caller must cancel any previous round loop first.
func (g *Game) StartGame(connId string, override *types.SettingsOverride) (*types.Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	user, ok := g.users[connId]
	if !ok {
		return nil, ErrUserNotFound
	}

	room, ok := g.rooms[user.Room]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if !user.IsOwner {
		return nil, ErrNotOwner
	}
	if room.State == types.RoomStatePlaying {
		return nil, ErrGameInProgress
	}

	settings := room.Settings
	if override != nil {
		if override.Duration > 0 {
			settings.Duration = override.Duration
		}
		if override.WordCount > 0 {
			settings.WordCount = override.WordCount
		}
		if override.Language != "" {
			settings.Language = override.Language
		}
	}

	// fill the grid before touching room state so a pool failure leaves the
	// room unchanged
	grid := make([]*types.Word, 0, settings.WordCount)
	for i := 0; i < settings.WordCount; i++ {
		word, err := g.pool.Pick(settings.Language, grid)
		if err != nil {
			return nil, fmt.Errorf("fill word grid: %w", err)
		}
		grid = append(grid, word)
	}

	room.Settings = settings
	room.State = types.RoomStatePlaying
	room.Timer = settings.Duration
	room.Words = grid
	for _, member := range room.Users {
		member.Score = 0
		member.Combo = 0
	}

	g.log.Info().Str("room", room.Id).Int("words", len(grid)).
		Int("duration", settings.Duration).Msg("game started")

	return snapshotRoom(room), nil
}

// Rejoin re-keys a disconnected user's registry entry to a new connection id.
// The user record itself is kept, so score, combo and ownership survive the
// reconnect, and any typing progress keyed by the stale id follows the user.
func (g *Game) Rejoin(sessionId, code, newConnId string) (*types.Room, *types.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.rooms[code]
	if !ok {
		return nil, nil, ErrRoomNotFound
	}

	var member *types.User
	for _, u := range room.Users {
		if u.SessionId == sessionId {
			member = u
			break
		}
	}
	if member == nil {
		return nil, nil, ErrUserNotFoundInRoom
	}

	oldConnId := member.Id
	delete(g.users, oldConnId)
	member.Id = newConnId
	g.users[newConnId] = member

	for _, w := range room.Words {
		for i := range w.TypingUsers {
			if w.TypingUsers[i].UserId == oldConnId {
				w.TypingUsers[i].UserId = newConnId
			}
		}
		if w.Owner == oldConnId {
			w.Owner = newConnId
		}
	}

	g.log.Info().Str("room", code).Str("old_conn", oldConnId).
		Str("new_conn", newConnId).Msg("user rejoined")

	return snapshotRoom(room), snapshotUser(member), nil
}

// TickResult is one second of round progress.
type TickResult struct {
	Timer int
	Ended bool
	Room  *types.Room
}

// TickRoom advances a room's countdown by one second. When the countdown hits
// zero the room transitions to ENDED and the result carries the final
// snapshot. A room that is gone or no longer PLAYING reports an error so the
// caller's loop stops itself.
func (g *Game) TickRoom(code string) (TickResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.rooms[code]
	if !ok {
		return TickResult{}, ErrRoomNotFound
	}
	if room.State != types.RoomStatePlaying {
		return TickResult{}, ErrRoundNotActive
	}

	room.Timer--
	if room.Timer <= 0 {
		room.Timer = 0
		room.State = types.RoomStateEnded
		return TickResult{Timer: 0, Ended: true, Room: snapshotRoom(room)}, nil
	}

	return TickResult{Timer: room.Timer, Room: snapshotRoom(room)}, nil
}
