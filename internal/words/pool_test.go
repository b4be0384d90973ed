package words

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/typerush/go-typerush/internal/testutil"
	"github.com/typerush/go-typerush/internal/types"
)

func newTestPool(t *testing.T, list []string) *Pool {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "en.txt"), []byte(strings.Join(list, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("failed to write word list: %v", err)
	}

	return NewPool(dir, map[string]string{"en": "en.txt"}, testutil.TestLogger(t))
}

func wordAt(text string, cell int) *types.Word {
	return &types.Word{
		Id:   text,
		Text: text,
		X:    cell % GridColumns,
		Y:    cell / GridColumns,
	}
}

func TestWords(t *testing.T) {
	t.Run("loads and trims the list", func(t *testing.T) {
		p := newTestPool(t, []string{"alpha", " bravo ", "", "charlie"})

		list := p.Words("en")
		assert.Equal(t, []string{"alpha", "bravo", "charlie"}, list, "expected trimmed, non-empty lines")
	})

	t.Run("caches the list after first load", func(t *testing.T) {
		p := newTestPool(t, []string{"alpha"})

		first := p.Words("en")
		assert.Len(t, first, 1)

		// overwrite the file; the cached list must not change
		err := os.WriteFile(filepath.Join(p.dir, "en.txt"), []byte("bravo\ncharlie\n"), 0o644)
		assert.NoError(t, err)

		assert.Equal(t, first, p.Words("en"), "expected cached list to be served")
	})

	t.Run("unknown language degrades to an empty list", func(t *testing.T) {
		p := newTestPool(t, []string{"alpha"})

		assert.Empty(t, p.Words("xx"), "expected empty list for unknown language")
	})
}

func TestPick(t *testing.T) {
	t.Run("never duplicates an existing word", func(t *testing.T) {
		p := newTestPool(t, []string{"alpha", "bravo"})
		existing := []*types.Word{wordAt("alpha", 0)}

		for i := 0; i < 20; i++ {
			w, err := p.Pick("en", existing)
			assert.NoError(t, err)
			assert.Equal(t, "bravo", w.Text, "expected the only unused word")
		}
	})

	t.Run("avoids used first letters when possible", func(t *testing.T) {
		p := newTestPool(t, []string{"alpha", "apple", "avocado", "bravo"})
		existing := []*types.Word{wordAt("alpha", 0)}

		w, err := p.Pick("en", existing)
		assert.NoError(t, err)
		assert.Equal(t, "bravo", w.Text, "expected the word with an unused first letter")
	})

	t.Run("accepts a shared first letter once the budget is spent", func(t *testing.T) {
		p := newTestPool(t, []string{"alpha", "apple"})
		existing := []*types.Word{wordAt("alpha", 0)}

		w, err := p.Pick("en", existing)
		assert.NoError(t, err)
		assert.Equal(t, "apple", w.Text, "expected the only non-duplicate despite the shared letter")
	})

	t.Run("empty list returns ErrNoWords", func(t *testing.T) {
		p := newTestPool(t, nil)
		p.lists["en"] = nil

		_, err := p.Pick("en", nil)
		assert.ErrorIs(t, err, ErrNoWords)
	})

	t.Run("exhausted list returns ErrNoWords", func(t *testing.T) {
		p := newTestPool(t, []string{"alpha"})
		existing := []*types.Word{wordAt("alpha", 0)}

		_, err := p.Pick("en", existing)
		assert.ErrorIs(t, err, ErrNoWords)
	})

	t.Run("places the word in the last free cell", func(t *testing.T) {
		list := make([]string, GridCells)
		existing := make([]*types.Word, 0, GridCells-1)
		for i := 0; i < GridCells; i++ {
			list[i] = strings.Repeat(string(rune('a'+i%26)), i+1)
		}
		for i := 0; i < GridCells-1; i++ {
			existing = append(existing, wordAt(list[i], i))
		}

		p := newTestPool(t, list)

		w, err := p.Pick("en", existing)
		assert.NoError(t, err)
		assert.Equal(t, (GridCells-1)%GridColumns, w.X, "expected the one remaining column")
		assert.Equal(t, (GridCells-1)/GridColumns, w.Y, "expected the one remaining row")
	})

	t.Run("saturated grid falls back to an occupied cell", func(t *testing.T) {
		list := make([]string, GridCells+1)
		existing := make([]*types.Word, 0, GridCells)
		for i := range list {
			list[i] = strings.Repeat(string(rune('a'+i%26)), i+1)
		}
		for i := 0; i < GridCells; i++ {
			existing = append(existing, wordAt(list[i], i))
		}

		p := newTestPool(t, list)

		w, err := p.Pick("en", existing)
		assert.NoError(t, err, "a full grid must degrade, not fail")
		assert.GreaterOrEqual(t, w.X, 0)
		assert.Less(t, w.X, GridColumns)
		assert.GreaterOrEqual(t, w.Y, 0)
		assert.Less(t, w.Y, GridCells/GridColumns)
	})

	t.Run("assigns unique word ids", func(t *testing.T) {
		p := newTestPool(t, []string{"alpha", "bravo", "charlie"})

		seen := make(map[string]struct{})
		var existing []*types.Word
		for i := 0; i < 3; i++ {
			w, err := p.Pick("en", existing)
			assert.NoError(t, err)
			assert.NotContains(t, seen, w.Id, "expected a fresh word id")
			seen[w.Id] = struct{}{}
			existing = append(existing, w)
		}
	})
}
