// Package navigation implements the bounded-history page navigator.
//
// Any page is a legal target from any page. Ordering rules such as "results
// before dashboard" belong to the caller.
package navigation

import "github.com/kmmelissat/analisis-al-instante-sub001/internal/models"

// MaxHistory bounds the number of remembered pages. Oldest entries go first.
const MaxHistory = 5

// State is the current page plus the trail of pages left behind, most recent last.
type State struct {
	CurrentPage models.PageID   `json:"currentPage"`
	History     []models.PageID `json:"pageHistory"`
}

// Initial returns the navigator's starting state.
func Initial() State {
	return State{CurrentPage: models.PageLanding, History: []models.PageID{}}
}

// SetCurrentPage records the page being left and moves to target, even when
// target is the current page.
func (s State) SetCurrentPage(target models.PageID) State {
	history := make([]models.PageID, 0, len(s.History)+1)
	history = append(history, s.History...)
	history = append(history, s.CurrentPage)
	return State{CurrentPage: target, History: truncate(history)}
}

// GoToPage behaves like SetCurrentPage but does nothing when target is
// already the current page. The bool reports whether anything changed.
func (s State) GoToPage(target models.PageID) (State, bool) {
	if target == s.CurrentPage {
		return s, false
	}
	return s.SetCurrentPage(target), true
}

// GoBack pops the most recent history entry and makes it current. With an
// empty history it stays put and reports false.
func (s State) GoBack() (State, bool) {
	n := len(s.History)
	if n == 0 {
		return s, false
	}
	history := make([]models.PageID, n-1)
	copy(history, s.History[:n-1])
	return State{CurrentPage: s.History[n-1], History: history}, true
}

// CanGoBack reports whether GoBack would move.
func (s State) CanGoBack() bool {
	return len(s.History) > 0
}

// Clone returns a copy that shares no memory with s.
func (s State) Clone() State {
	history := make([]models.PageID, len(s.History))
	copy(history, s.History)
	return State{CurrentPage: s.CurrentPage, History: history}
}

func truncate(history []models.PageID) []models.PageID {
	if len(history) <= MaxHistory {
		return history
	}
	out := make([]models.PageID, MaxHistory)
	copy(out, history[len(history)-MaxHistory:])
	return out
}
