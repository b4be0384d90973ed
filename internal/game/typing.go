package game

import (
	"math"
	"slices"
	"strings"

	"github.com/typerush/go-typerush/internal/types"
)

type InputKind int

const (
	// InputNoMatch means the buffer prefixes no word; the typist's combo was
	// reset and their progress cleared everywhere.
	InputNoMatch InputKind = iota
	// InputProgress means the buffer advanced a word without completing it.
	InputProgress
	// InputCompleted means the buffer equals a word's full text.
	InputCompleted
)

// InputResult reports how a keystroke buffer resolved. Room is a snapshot of
// the room after the update; Word, Score and Combo are set on completion.
type InputResult struct {
	Kind InputKind

	WordId string
	Owner  string
	Typed  string

	Word  *types.Word
	Score int
	Combo int

	Room *types.Room
}

// HandleInput applies one keystroke buffer from a connection to its room's
// word grid and resolves the typing race:
//
//  1. find the word the buffer prefixes; none means the typist mistyped, so
//     their combo resets and they stop racing every word
//  2. a player races one word at a time, so they are removed from all others
//  3. their progress on the target is upserted
//  4. the target's display cache follows the longest prefix held by anyone
//  5. a buffer equal to the full text completes the word
func (g *Game) HandleInput(connId, input string) (*InputResult, error) {
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
	if room.State != types.RoomStatePlaying {
		return nil, ErrRoundNotActive
	}

	var target *types.Word
	for _, w := range room.Words {
		if strings.HasPrefix(w.Text, input) {
			target = w
			break
		}
	}

	if target == nil {
		user.Combo = 0
		for _, w := range room.Words {
			removeTyper(w, connId)
		}
		return &InputResult{Kind: InputNoMatch, Room: snapshotRoom(room)}, nil
	}

	for _, w := range room.Words {
		if w.Id != target.Id {
			removeTyper(w, connId)
		}
	}

	upsertTyper(target, connId, input)
	recomputeOwner(target)

	if input == target.Text {
		return g.completeWordLocked(room, user, target), nil
	}

	return &InputResult{
		Kind:   InputProgress,
		WordId: target.Id,
		Owner:  target.Owner,
		Typed:  target.Typed,
		Room:   snapshotRoom(room),
	}, nil
}

func (g *Game) completeWordLocked(room *types.Room, user *types.User, target *types.Word) *InputResult {
	earned := int(math.Floor(float64(len(target.Text)) * comboMultiplier(user.Combo)))
	user.Score += earned
	user.Combo++

	// everyone else still racing this word lost; their combo breaks but they
	// keep their score
	for _, tu := range target.TypingUsers {
		if tu.UserId == user.Id {
			continue
		}
		if rival, ok := g.users[tu.UserId]; ok {
			rival.Combo = 0
		}
	}

	completed := snapshotWord(target)

	for i, w := range room.Words {
		if w.Id == target.Id {
			room.Words = slices.Delete(room.Words, i, i+1)
			break
		}
	}

	replacement, err := g.pool.Pick(room.Settings.Language, room.Words)
	if err != nil {
		g.log.Error().Err(err).Str("room", room.Id).Msg("could not draw replacement word")
	} else {
		room.Words = append(room.Words, replacement)
	}

	return &InputResult{
		Kind:  InputCompleted,
		Word:  completed,
		Score: user.Score,
		Combo: user.Combo,
		Room:  snapshotRoom(room),
	}
}

// comboMultiplier is keyed off the combo value before it is incremented for
// the completed word.
func comboMultiplier(combo int) float64 {
	switch {
	case combo >= 4:
		return 3
	case combo == 3:
		return 2.5
	case combo == 2:
		return 2
	case combo == 1:
		return 1.5
	default:
		return 1
	}
}

func upsertTyper(w *types.Word, connId, typed string) {
	for i := range w.TypingUsers {
		if w.TypingUsers[i].UserId == connId {
			w.TypingUsers[i].Typed = typed
			return
		}
	}
	w.TypingUsers = append(w.TypingUsers, types.TypingUser{UserId: connId, Typed: typed})
}

func removeTyper(w *types.Word, connId string) {
	for i := range w.TypingUsers {
		if w.TypingUsers[i].UserId == connId {
			w.TypingUsers = slices.Delete(w.TypingUsers, i, i+1)
			recomputeOwner(w)
			return
		}
	}
}

// recomputeOwner derives the display cache from the typer holding the longest
// prefix. Equal lengths keep the earlier entrant, so the tie-break is
// deterministic rather than iteration-order luck.
func recomputeOwner(w *types.Word) {
	w.Owner = ""
	w.Typed = ""

	best := -1
	for _, tu := range w.TypingUsers {
		if len(tu.Typed) > best {
			best = len(tu.Typed)
			w.Owner = tu.UserId
			w.Typed = tu.Typed
		}
	}
}
