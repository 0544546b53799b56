// Package conversation holds the per-user bounded message history used to
// build model context.
package conversation

import (
	"sync"

	"github.com/xenolt/chatrelay/internal/domain"
)

// ContextTurns is the maximum number of history turns included in a model
// context. The full history is retained for audit and clear operations; only
// the context view is windowed. This constant is part of the routing
// contract, not a tuning knob.
const ContextTurns = 10

// Window is one user's conversation log within a session. Appends keep the
// full history; Context returns the bounded tail sent to the model.
type Window struct {
	mu    sync.Mutex
	turns []domain.Turn
}

// New returns an empty window.
func New() *Window {
	return &Window{}
}

// Append adds turns to the end of the full history.
func (w *Window) Append(turns ...domain.Turn) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.turns = append(w.turns, turns...)
}

// Context returns at most the last ContextTurns turns of the history with
// pending appended, regardless of total history length. The returned slice
// is a copy.
func (w *Window) Context(pending ...domain.Turn) []domain.Turn {
	w.mu.Lock()
	defer w.mu.Unlock()

	all := make([]domain.Turn, 0, len(w.turns)+len(pending))
	all = append(all, w.turns...)
	all = append(all, pending...)
	if len(all) > ContextTurns {
		all = all[len(all)-ContextTurns:]
	}
	return all
}

// All returns a copy of the full history.
func (w *Window) All() []domain.Turn {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]domain.Turn, len(w.turns))
	copy(out, w.turns)
	return out
}

// Len returns the number of turns in the full history.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.turns)
}

// Clear empties the history. The window itself stays usable.
func (w *Window) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.turns = nil
}
