package game

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/typerush/go-typerush/internal/types"
)

var avatars = []string{
	"avatar_1.png", "avatar_2.png", "avatar_3.png", "avatar_4.png",
	"avatar_5.png", "avatar_6.png", "avatar_7.png", "avatar_8.png",
	"avatar_9.png", "avatar_10.png", "avatar_11.png", "avatar_12.png",
	"avatar_13.png", "avatar_14.png", "avatar_15.png", "avatar_16.png",
	"avatar_17.png", "avatar_18.png",
}

var colors = []string{
	"#FFD700", // yellow
	"#FF69B4", // pink
	"#9370DB", // purple
	"#4169E1", // blue
	"#32CD32", // green
	"#A0522D", // brown
}

// CreateUser registers a user for a connection. An omitted avatar or color is
// drawn uniformly from the fixed palettes; an omitted session id gets a fresh
// one, which the client is expected to persist for rejoins.
func (g *Game) CreateUser(connId, username, avatar, color, sessionId string) *types.User {
	g.mu.Lock()
	defer g.mu.Unlock()

	return snapshotUser(g.createUserLocked(connId, username, avatar, color, sessionId))
}

func (g *Game) createUserLocked(connId, username, avatar, color, sessionId string) *types.User {
	if avatar == "" {
		avatar = avatars[rand.Intn(len(avatars))]
	}
	if color == "" {
		color = colors[rand.Intn(len(colors))]
	}
	if sessionId == "" {
		sessionId = uuid.NewString()
	}

	user := &types.User{
		Id:        connId,
		SessionId: sessionId,
		Username:  username,
		Avatar:    avatar,
		Color:     color,
	}
	g.users[connId] = user

	return user
}

// RemoveUser deletes the registry entry for a connection. Removing an unknown
// connection is a no-op.
func (g *Game) RemoveUser(connId string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.users, connId)
}

// User returns a copy of the user registered for a connection.
func (g *Game) User(connId string) (*types.User, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	user, ok := g.users[connId]
	if !ok {
		return nil, false
	}

	return snapshotUser(user), true
}
