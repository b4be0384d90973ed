package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/typerush/go-typerush/internal/types"
)

// startTypingGame deals a grid from a fixed list so tests can type against
// known texts. wordCount equal to the list length puts every word on the grid.
func startTypingGame(t *testing.T, g *Game, wordCount int, conns ...string) *types.Room {
	t.Helper()

	for i, conn := range conns {
		g.CreateUser(conn, "player", "", "", "")
		if i == 0 {
			if _, err := g.CreateRoom(conn, types.RoomSettings{
				MaxPlayers: 6, Language: "en", Duration: 60, WordCount: wordCount,
			}); err != nil {
				t.Fatalf("create room: %v", err)
			}
			continue
		}
		if _, err := g.JoinRoom(conn, g.users[conns[0]].Room); err != nil {
			t.Fatalf("join room: %v", err)
		}
	}

	room, err := g.StartGame(conns[0], nil)
	if err != nil {
		t.Fatalf("start game: %v", err)
	}

	return room
}

func findWord(t *testing.T, room *types.Room, text string) *types.Word {
	t.Helper()

	for _, w := range room.Words {
		if w.Text == text {
			return w
		}
	}
	t.Fatalf("word %q not on the grid", text)
	return nil
}

func TestHandleInput(t *testing.T) {
	t.Run("progress updates the word's display cache", func(t *testing.T) {
		g := newTestGame(t, 6, []string{"alpha", "bravo"})
		room := startTypingGame(t, g, 2, "conn-1")

		res, err := g.HandleInput("conn-1", "al")
		assert.NoError(t, err)

		assert.Equal(t, InputProgress, res.Kind)
		assert.Equal(t, "conn-1", res.Owner)
		assert.Equal(t, "al", res.Typed)
		assert.Equal(t, findWord(t, room, "alpha").Id, res.WordId)

		w := findWord(t, res.Room, "alpha")
		assert.Equal(t, "conn-1", w.Owner)
		assert.Equal(t, "al", w.Typed)
	})

	t.Run("the longest prefix owns the word", func(t *testing.T) {
		g := newTestGame(t, 6, []string{"alpha", "bravo"})
		startTypingGame(t, g, 2, "conn-1", "conn-2")

		_, err := g.HandleInput("conn-1", "a")
		assert.NoError(t, err)
		res, err := g.HandleInput("conn-2", "alp")
		assert.NoError(t, err)

		assert.Equal(t, "conn-2", res.Owner, "the longer prefix takes the word")
		assert.Equal(t, "alp", res.Typed)
	})

	t.Run("ties keep the earlier entrant", func(t *testing.T) {
		g := newTestGame(t, 6, []string{"alpha", "bravo"})
		startTypingGame(t, g, 2, "conn-1", "conn-2")

		_, err := g.HandleInput("conn-1", "al")
		assert.NoError(t, err)
		res, err := g.HandleInput("conn-2", "al")
		assert.NoError(t, err)

		assert.Equal(t, "conn-1", res.Owner, "an equal prefix must not steal the word")
	})

	t.Run("switching words abandons the old one", func(t *testing.T) {
		g := newTestGame(t, 6, []string{"alpha", "bravo"})
		startTypingGame(t, g, 2, "conn-1")

		_, err := g.HandleInput("conn-1", "al")
		assert.NoError(t, err)
		res, err := g.HandleInput("conn-1", "br")
		assert.NoError(t, err)

		alpha := findWord(t, res.Room, "alpha")
		assert.Empty(t, alpha.TypingUsers, "progress on the abandoned word must be gone")
		assert.Empty(t, alpha.Owner)

		bravo := findWord(t, res.Room, "bravo")
		assert.Equal(t, "conn-1", bravo.Owner)
	})

	t.Run("a mistype resets the combo and clears progress", func(t *testing.T) {
		g := newTestGame(t, 6, []string{"alpha", "bravo", "chess"})
		startTypingGame(t, g, 3, "conn-1")

		_, err := g.HandleInput("conn-1", "alpha")
		assert.NoError(t, err)
		user, _ := g.User("conn-1")
		assert.Equal(t, 1, user.Combo)

		_, err = g.HandleInput("conn-1", "br")
		assert.NoError(t, err)

		res, err := g.HandleInput("conn-1", "zz")
		assert.NoError(t, err)
		assert.Equal(t, InputNoMatch, res.Kind)

		user, _ = g.User("conn-1")
		assert.Zero(t, user.Combo, "a mistype breaks the streak")

		for _, w := range res.Room.Words {
			assert.Empty(t, w.TypingUsers)
			assert.Empty(t, w.Owner)
		}
	})

	t.Run("completion scores by length and combo", func(t *testing.T) {
		g := newTestGame(t, 6, []string{"alpha", "bravo", "chess"})
		startTypingGame(t, g, 3, "conn-1")

		g.mu.Lock()
		g.users["conn-1"].Combo = 3
		g.mu.Unlock()

		res, err := g.HandleInput("conn-1", "alpha")
		assert.NoError(t, err)

		assert.Equal(t, InputCompleted, res.Kind)
		assert.Equal(t, "alpha", res.Word.Text)
		assert.Equal(t, 12, res.Score, "5 letters at a 2.5x multiplier, floored")
		assert.Equal(t, 4, res.Combo)
	})

	t.Run("multiplier grows with consecutive completions", func(t *testing.T) {
		g := newTestGame(t, 6, []string{"alpha", "bravo", "chess", "delta", "every", "fancy", "grape"})
		startTypingGame(t, g, 2, "conn-1")

		// every list word is 5 letters, so the running totals isolate the
		// multiplier ladder: 1x, 1.5x, 2x, 2.5x, 3x, 3x
		wantTotals := []int{5, 12, 22, 34, 49, 64}

		for i, want := range wantTotals {
			g.mu.Lock()
			user := g.users["conn-1"]
			next := g.rooms[user.Room].Words[0].Text
			g.mu.Unlock()

			res, err := g.HandleInput("conn-1", next)
			assert.NoError(t, err)
			assert.Equal(t, InputCompleted, res.Kind)
			assert.Equal(t, want, res.Score, "completion %d", i+1)
			assert.Equal(t, i+1, res.Combo)
		}
	})

	t.Run("rivals on the completed word lose their combo", func(t *testing.T) {
		g := newTestGame(t, 6, []string{"alpha", "bravo", "chess"})
		startTypingGame(t, g, 3, "conn-1", "conn-2")

		// give the rival a streak, then park them on alpha
		_, err := g.HandleInput("conn-2", "bravo")
		assert.NoError(t, err)
		_, err = g.HandleInput("conn-2", "al")
		assert.NoError(t, err)

		res, err := g.HandleInput("conn-1", "alpha")
		assert.NoError(t, err)
		assert.Equal(t, InputCompleted, res.Kind)

		rival, _ := g.User("conn-2")
		assert.Zero(t, rival.Combo, "losing the race breaks the streak")
		assert.Equal(t, 5, rival.Score, "the rival keeps their score")
	})

	t.Run("a completed word is replaced from the pool", func(t *testing.T) {
		g := newTestGame(t, 6, []string{"alpha", "bravo", "chess"})
		started := startTypingGame(t, g, 3, "conn-1")

		completed := findWord(t, started, "alpha")

		res, err := g.HandleInput("conn-1", "alpha")
		assert.NoError(t, err)

		assert.Len(t, res.Room.Words, 3, "the grid stays full")
		texts := make(map[string]struct{})
		for _, w := range res.Room.Words {
			assert.NotEqual(t, completed.Id, w.Id, "the finished word instance is retired")
			assert.NotContains(t, texts, w.Text)
			texts[w.Text] = struct{}{}
		}
	})

	t.Run("input outside an active round", func(t *testing.T) {
		g := newTestGame(t, 6, []string{"alpha", "bravo"})
		g.CreateUser("conn-1", "alice", "", "", "")
		_, err := g.CreateRoom("conn-1", defaultSettings())
		assert.NoError(t, err)

		_, err = g.HandleInput("conn-1", "al")
		assert.ErrorIs(t, err, ErrRoundNotActive)
	})

	t.Run("input from an unknown connection", func(t *testing.T) {
		g := newTestGame(t, 6, []string{"alpha", "bravo"})

		_, err := g.HandleInput("ghost", "al")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}
