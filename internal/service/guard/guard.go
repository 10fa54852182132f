package guard

import (
	"github.com/zhouzirui/carbon-tracker/webclient/internal/model/page"
)

// TokenSource reports whether a session token is present.
type TokenSource interface {
	Token() (string, bool)
}

// Guard runs once per page load and sends visitors without a session back
// to the entry page. It is a coarse allow-list: every page that declares
// RequiresAuth is protected, nothing else is checked.
type Guard struct {
	tokens TokenSource
	entry  page.Page
}

// New creates a guard redirecting to entry.
func New(tokens TokenSource, entry page.Page) *Guard {
	return &Guard{tokens: tokens, entry: entry}
}

// Check returns the page to redirect to and false when p may not be shown.
func (g *Guard) Check(p page.Page) (page.Page, bool) {
	if !p.RequiresAuth {
		return page.Page{}, true
	}
	if token, ok := g.tokens.Token(); ok && token != "" {
		return page.Page{}, true
	}
	return g.entry, false
}

// Entry returns the page unauthenticated visitors are sent to.
func (g *Guard) Entry() page.Page {
	return g.entry
}
