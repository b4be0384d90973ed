package words

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/teris-io/shortid"

	"github.com/typerush/go-typerush/internal/types"
)

const (
	// GridCells is the capacity of the word grid.
	GridCells = 20
	// GridColumns is the row width used to derive a cell's coordinates.
	GridColumns = 4
	// firstLetterAttempts bounds the search for a word whose first letter is
	// not already on the grid.
	firstLetterAttempts = 50
)

// ErrNoWords is returned when a language has no word left that is not already
// on the grid, including the empty-list case after a failed load.
var ErrNoWords = errors.New("no unused word available")

// Pool serves words for the grid. Word lists are loaded lazily from
// newline-delimited files and cached for the lifetime of the process.
type Pool struct {
	dir       string
	languages map[string]string

	mu    sync.Mutex
	lists map[string][]string

	log zerolog.Logger
}

// NewPool creates a pool reading lists from dir. languages maps a language
// code to its file name within dir.
func NewPool(dir string, languages map[string]string, logger zerolog.Logger) *Pool {
	return &Pool{
		dir:       dir,
		languages: languages,
		lists:     make(map[string][]string),
		log:       logger,
	}
}

// Words returns the cached word list for a language, loading it on first use.
// A list that cannot be read is logged and cached as empty, so the failure is
// paid once and callers see a degenerate but non-fatal pool.
func (p *Pool) Words(language string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if list, ok := p.lists[language]; ok {
		return list
	}

	list, err := p.load(language)
	if err != nil {
		p.log.Error().Err(err).Str("language", language).Msg("failed to load word list")
		list = nil
	}
	p.lists[language] = list

	return list
}

func (p *Pool) load(language string) ([]string, error) {
	file, ok := p.languages[language]
	if !ok {
		return nil, fmt.Errorf("unknown language %q", language)
	}

	raw, err := os.ReadFile(filepath.Join(p.dir, file))
	if err != nil {
		return nil, err
	}

	var list []string
	for _, line := range strings.Split(string(raw), "\n") {
		if w := strings.TrimSpace(line); w != "" {
			list = append(list, w)
		}
	}

	return list, nil
}

// Pick returns a new word for the grid whose text duplicates none of the
// existing words. It makes a bounded effort to also avoid reusing a first
// letter so words stay visually distinguishable; past the attempt budget any
// non-duplicate word is accepted.
func (p *Pool) Pick(language string, existing []*types.Word) (*types.Word, error) {
	list := p.Words(language)

	used := make(map[string]struct{}, len(existing))
	firstLetters := make(map[string]struct{}, len(existing))
	for _, w := range existing {
		used[w.Text] = struct{}{}
		if w.Text != "" {
			firstLetters[strings.ToLower(w.Text[:1])] = struct{}{}
		}
	}

	unused := make([]string, 0, len(list))
	for _, w := range list {
		if _, dup := used[w]; !dup {
			unused = append(unused, w)
		}
	}
	if len(unused) == 0 {
		return nil, ErrNoWords
	}

	var text string
	for attempts := 0; attempts < firstLetterAttempts; attempts++ {
		candidate := unused[rand.Intn(len(unused))]
		if _, clash := firstLetters[strings.ToLower(candidate[:1])]; clash {
			continue
		}
		text = candidate
		break
	}
	if text == "" {
		text = unused[rand.Intn(len(unused))]
	}

	id, err := shortid.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate word id: %w", err)
	}

	cell := pickCell(existing)

	return &types.Word{
		Id:   id,
		Text: text,
		X:    cell % GridColumns,
		Y:    cell / GridColumns,
	}, nil
}

// pickCell chooses a free grid cell uniformly at random. A saturated grid
// falls back to an occupied cell, which stacks words on top of each other:
// a known degraded state, not a crash.
func pickCell(existing []*types.Word) int {
	occupied := make(map[int]struct{}, len(existing))
	for _, w := range existing {
		occupied[w.Y*GridColumns+w.X] = struct{}{}
	}

	free := make([]int, 0, GridCells)
	for cell := 0; cell < GridCells; cell++ {
		if _, taken := occupied[cell]; !taken {
			free = append(free, cell)
		}
	}

	if len(free) == 0 {
		return rand.Intn(GridCells)
	}

	return free[rand.Intn(len(free))]
}
