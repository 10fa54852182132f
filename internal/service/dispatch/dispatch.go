package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/zhouzirui/carbon-tracker/webclient/internal/model/page"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/model/session"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/service/api"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/service/guard"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/view"
)

var (
	ErrUnknownPage   = errors.New("unknown page")
	ErrUnknownAction = errors.New("unknown action")
)

// ActionLogout is available on every page.
const ActionLogout Action = "logout"

// Action names a user command a controller reacts to.
type Action string

// Input carries the form fields submitted with an action.
type Input map[string]string

// Get returns a field value.
func (in Input) Get(name string) string {
	return in[name]
}

// Handler runs one action against a view. Returned errors are surfaced as
// notices by the runtime and never reach the host.
type Handler func(ctx context.Context, v *view.View, in Input) error

// Controller binds actions of one page to handlers.
type Controller interface {
	Actions() map[Action]Handler
}

// Loader is implemented by controllers that populate their view on load.
type Loader interface {
	Load(ctx context.Context, v *view.View) error
}

// Registration attaches controllers to a declared page.
type Registration struct {
	Page        page.Page
	Controllers []Controller
}

// Runtime owns page registrations and routes page loads and actions.
type Runtime struct {
	pages    page.Store
	sessions session.Store
	guard    *guard.Guard
	regs     map[page.ID]Registration
}

// New creates a runtime. entry is the page unauthenticated visitors land on.
func New(pages page.Store, sessions session.Store, entry page.ID) (*Runtime, error) {
	entryPage, ok := pages.FindByID(entry)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPage, entry)
	}

	return &Runtime{
		pages:    pages,
		sessions: sessions,
		guard:    guard.New(sessions, entryPage),
		regs:     make(map[page.ID]Registration),
	}, nil
}

// Register attaches controllers to page id. Registering the same page twice
// adds to its controllers.
func (rt *Runtime) Register(id page.ID, controllers ...Controller) error {
	p, ok := rt.pages.FindByID(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPage, id)
	}

	reg := rt.regs[id]
	reg.Page = p
	reg.Controllers = append(reg.Controllers, controllers...)
	rt.regs[id] = reg
	return nil
}

// Pages returns the declared pages.
func (rt *Runtime) Pages() []page.Page {
	return rt.pages.List()
}

// Open loads a page: the guard runs first and, when it redirects, no
// controller logic runs at all. Otherwise every loader populates the view.
func (rt *Runtime) Open(ctx context.Context, id page.ID) (*view.View, error) {
	v, reg, ok, err := rt.guarded(id)
	if err != nil || !ok {
		return v, err
	}

	for _, c := range reg.Controllers {
		loader, isLoader := c.(Loader)
		if !isLoader {
			continue
		}
		rt.run(ctx, v, "load", func() error { return loader.Load(ctx, v) })
	}
	return v, nil
}

// Attach prepares a guarded view of a page without running loaders. It is
// used when an action arrives for a page whose earlier state is not kept.
func (rt *Runtime) Attach(_ context.Context, id page.ID) (*view.View, error) {
	v, _, _, err := rt.guarded(id)
	return v, err
}

// Dispatch runs action against v. A view that is already navigating away
// accepts no further actions.
func (rt *Runtime) Dispatch(ctx context.Context, v *view.View, action Action, in Input) error {
	if _, leaving := v.Navigation(); leaving {
		return nil
	}

	if action == ActionLogout {
		rt.logout(v)
		return nil
	}

	reg, ok := rt.regs[v.Page().ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPage, v.Page().ID)
	}

	for _, c := range reg.Controllers {
		if h, ok := c.Actions()[action]; ok {
			rt.run(ctx, v, string(action), func() error { return h(ctx, v, in) })
			return nil
		}
	}
	return fmt.Errorf("%w: %s on %s", ErrUnknownAction, action, v.Page().ID)
}

func (rt *Runtime) guarded(id page.ID) (*view.View, Registration, bool, error) {
	reg, ok := rt.regs[id]
	if !ok {
		p, found := rt.pages.FindByID(id)
		if !found {
			return nil, Registration{}, false, fmt.Errorf("%w: %s", ErrUnknownPage, id)
		}
		reg = Registration{Page: p}
	}

	v := view.New(reg.Page)
	if target, allowed := rt.guard.Check(reg.Page); !allowed {
		log.Printf("[dispatch] no session for %s, redirecting to %s", reg.Page.ID, target.ID)
		v.Navigate(target)
		return v, reg, false, nil
	}
	return v, reg, true, nil
}

func (rt *Runtime) logout(v *view.View) {
	if err := rt.sessions.Clear(); err != nil {
		log.Printf("[dispatch] failed to clear session: %v", err)
		v.Notify(api.GenericErrorMessage)
		return
	}
	log.Printf("[dispatch] session cleared")
	v.Navigate(rt.guard.Entry())
}

// run executes fn and turns every failure into a notice on v.
func (rt *Runtime) run(ctx context.Context, v *view.View, what string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[dispatch] %s on %s panicked: %v", what, v.Page().ID, r)
			v.Notify(api.GenericErrorMessage)
		}
	}()

	err := fn()
	if err == nil {
		return
	}

	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		log.Printf("[dispatch] %s on %s abandoned: %v", what, v.Page().ID, err)
		return
	}

	log.Printf("[dispatch] %s on %s failed: %v", what, v.Page().ID, err)
	msg := api.UserMessage(err)
	if !api.IsClientError(err) {
		var userErr *UserError
		if errors.As(err, &userErr) {
			msg = userErr.Message
		}
	}
	v.Notify(strings.TrimSpace(msg))
}

// UserError carries a message meant for the user verbatim.
type UserError struct {
	Message string
}

func (e *UserError) Error() string { return e.Message }
