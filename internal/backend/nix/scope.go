package nix

import (
	"fmt"
	"math"
	"strconv"

	"fortio.org/safecast"
)

// ScopeID indexes a frame in a Ledger. 0 is the invalid sentinel.
type ScopeID uint32

// NoScope is the parent of a root frame.
const NoScope ScopeID = 0

func (id ScopeID) IsValid() bool { return id != NoScope }

type frame struct {
	parent ScopeID
	names  map[string]string // source name -> output identifier
}

// Ledger assigns output identifiers to local bindings of one top-level
// definition. Frames live in an arena and refer to their parent by index.
//
// Every Bind allocates the next generation of the name, so two bindings of
// the same source name never share an identifier even in sibling frames.
// Names in reserved start at generation 1, which keeps locals from
// shadowing module-level bindings inside Nix's recursive let.
type Ledger struct {
	frames   []frame
	gens     map[string]int
	reserved map[string]struct{}
	limit    uint64 // highest frame id
	err      error
}

// NewLedger creates a ledger whose reserved set is shared, read-only.
func NewLedger(reserved map[string]struct{}) *Ledger {
	return &Ledger{
		frames:   []frame{{}}, // index 0 is the sentinel
		gens:     make(map[string]int),
		reserved: reserved,
		limit:    math.MaxUint32,
	}
}

// Push creates a child frame of parent (NoScope for a root frame).
// When the arena is full it returns NoScope and Err reports the overflow.
func (l *Ledger) Push(parent ScopeID) ScopeID {
	if uint64(len(l.frames)) > l.limit {
		if l.err == nil {
			l.err = fmt.Errorf("scope arena overflow: more than %d frames", l.limit)
		}
		return NoScope
	}
	id, err := safecast.Conv[uint32](len(l.frames))
	if err != nil {
		if l.err == nil {
			l.err = fmt.Errorf("scope arena overflow: %w", err)
		}
		return NoScope
	}
	l.frames = append(l.frames, frame{parent: parent, names: make(map[string]string)})
	return ScopeID(id)
}

// Err returns the first arena overflow, if any.
func (l *Ledger) Err() error { return l.err }

// Bind introduces a new generation of name in scope and returns its
// identifier.
func (l *Ledger) Bind(scope ScopeID, name string) string {
	gen := l.gens[name]
	if _, ok := l.reserved[name]; ok && gen == 0 {
		gen = 1
	}
	l.gens[name] = gen + 1
	ident := identFor(name, gen)
	if scope.IsValid() && int(scope) < len(l.frames) {
		l.frames[scope].names[name] = ident
	}
	return ident
}

// Fresh binds a synthetic name. Synthetic bases start with '_' so they
// never meet a user binding; discarded names are never bound.
func (l *Ledger) Fresh(scope ScopeID, base string) string {
	return l.Bind(scope, "_"+base)
}

// Resolve walks outward from scope to the innermost binding of name.
func (l *Ledger) Resolve(scope ScopeID, name string) (string, error) {
	for id := scope; id.IsValid() && int(id) < len(l.frames); id = l.frames[id].parent {
		if ident, ok := l.frames[id].names[name]; ok {
			return ident, nil
		}
	}
	return "", fmt.Errorf("unbound local %q", name)
}

func identFor(name string, gen int) string {
	base := escapeName(name)
	if gen == 0 {
		return base
	}
	return base + "'" + strconv.Itoa(gen)
}
