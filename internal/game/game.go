package game

import (
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/typerush/go-typerush/internal/types"
	"github.com/typerush/go-typerush/internal/words"
)

// Game owns all live rooms and users. Every inbound event handler and timer
// tick mutates this state through its methods, which serialize access with a
// single mutex so a start and the input that races it are linearized.
type Game struct {
	mu    sync.Mutex
	users map[string]*types.User
	rooms map[string]*types.Room

	pool       *words.Pool
	maxPlayers int
	log        zerolog.Logger
}

func New(pool *words.Pool, maxPlayers int, logger zerolog.Logger) *Game {
	return &Game{
		users:      make(map[string]*types.User),
		rooms:      make(map[string]*types.Room),
		pool:       pool,
		maxPlayers: maxPlayers,
		log:        logger,
	}
}

// snapshotRoom copies a room for use outside the store lock. Broadcast
// payloads must never alias live state.
func snapshotRoom(r *types.Room) *types.Room {
	cp := *r

	cp.Users = make([]*types.User, len(r.Users))
	for i, u := range r.Users {
		cp.Users[i] = snapshotUser(u)
	}

	cp.Words = make([]*types.Word, len(r.Words))
	for i, w := range r.Words {
		cp.Words[i] = snapshotWord(w)
	}

	return &cp
}

func snapshotUser(u *types.User) *types.User {
	cp := *u
	return &cp
}

func snapshotWord(w *types.Word) *types.Word {
	cp := *w
	cp.TypingUsers = slices.Clone(w.TypingUsers)
	return &cp
}
