package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/zhouzirui/carbon-tracker/webclient/internal/model/page"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/model/session"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/service/api"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/view"
)

type stubController struct {
	loads   int
	actions map[Action]Handler
}

func (c *stubController) Actions() map[Action]Handler { return c.actions }

func (c *stubController) Load(_ context.Context, v *view.View) error {
	c.loads++
	v.Replace("box", view.Text("", "loaded"))
	return nil
}

func newRuntime(t *testing.T) (*Runtime, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore()
	rt, err := New(page.NewMemoryStore(page.Seed()), store, page.Index)
	if err != nil {
		t.Fatalf("New err: %v", err)
	}
	return rt, store
}

func TestOpenProtectedPageWithoutSessionSkipsLoaders(t *testing.T) {
	rt, _ := newRuntime(t)
	ctrl := &stubController{}
	if err := rt.Register(page.History, ctrl); err != nil {
		t.Fatalf("Register err: %v", err)
	}

	v, err := rt.Open(context.Background(), page.History)
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	target, ok := v.Navigation()
	if !ok || target.ID != page.Index {
		t.Fatalf("expected redirect to index, got %+v (%v)", target, ok)
	}
	if ctrl.loads != 0 {
		t.Fatalf("loader ran %d times behind the guard", ctrl.loads)
	}
}

func TestOpenRunsLoadersWithSession(t *testing.T) {
	rt, store := newRuntime(t)
	ctrl := &stubController{}
	_ = rt.Register(page.History, ctrl)
	_ = store.Set("tok", "erin")

	v, err := rt.Open(context.Background(), page.History)
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	if _, ok := v.Navigation(); ok {
		t.Fatal("unexpected navigation")
	}
	if ctrl.loads != 1 || len(v.Blocks("box")) != 1 {
		t.Fatalf("loader not applied: loads=%d blocks=%v", ctrl.loads, v.Blocks("box"))
	}
}

func TestLogoutClearsSessionAndLaterOpenRedirects(t *testing.T) {
	rt, store := newRuntime(t)
	_ = rt.Register(page.Dashboard)
	_ = store.Set("tok", "erin")

	v, err := rt.Open(context.Background(), page.Dashboard)
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	if err := rt.Dispatch(context.Background(), v, ActionLogout, nil); err != nil {
		t.Fatalf("Dispatch err: %v", err)
	}
	if _, ok := store.Token(); ok {
		t.Fatal("session survived logout")
	}
	if target, ok := v.Navigation(); !ok || target.ID != page.Index {
		t.Fatalf("expected navigation to index, got %+v", target)
	}

	again, _ := rt.Open(context.Background(), page.Dashboard)
	if target, ok := again.Navigation(); !ok || target.ID != page.Index {
		t.Fatalf("expected redirect after logout, got %+v", target)
	}
}

func TestDispatchUnknownActionAndPage(t *testing.T) {
	rt, _ := newRuntime(t)
	_ = rt.Register(page.Index, &stubController{actions: map[Action]Handler{}})

	v, _ := rt.Open(context.Background(), page.Index)
	if err := rt.Dispatch(context.Background(), v, "explode", nil); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}

	if _, err := rt.Open(context.Background(), "nowhere"); !errors.Is(err, ErrUnknownPage) {
		t.Fatalf("expected ErrUnknownPage, got %v", err)
	}
	if err := rt.Register("nowhere"); !errors.Is(err, ErrUnknownPage) {
		t.Fatalf("expected ErrUnknownPage from Register, got %v", err)
	}
}

func TestHandlerFailuresBecomeNotices(t *testing.T) {
	rt, _ := newRuntime(t)
	_ = rt.Register(page.Index, &stubController{actions: map[Action]Handler{
		"api": func(context.Context, *view.View, Input) error {
			return &api.APIError{Endpoint: "/login", StatusCode: 401, Message: "bad credentials"}
		},
		"user": func(context.Context, *view.View, Input) error {
			return &UserError{Message: "try again"}
		},
		"panic": func(context.Context, *view.View, Input) error {
			panic("boom")
		},
		"plain": func(context.Context, *view.View, Input) error {
			return errors.New("internal detail")
		},
	}})

	v, _ := rt.Open(context.Background(), page.Index)
	for _, action := range []Action{"api", "user", "panic", "plain"} {
		if err := rt.Dispatch(context.Background(), v, action, nil); err != nil {
			t.Fatalf("Dispatch %s err: %v", action, err)
		}
	}

	want := []string{"bad credentials", "try again", api.GenericErrorMessage, api.GenericErrorMessage}
	got := v.Notices()
	if len(got) != len(want) {
		t.Fatalf("notices = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("notice %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNavigatingViewIgnoresActions(t *testing.T) {
	rt, _ := newRuntime(t)
	calls := 0
	_ = rt.Register(page.Index, &stubController{actions: map[Action]Handler{
		"go": func(_ context.Context, v *view.View, _ Input) error {
			calls++
			v.Navigate(page.Page{ID: page.Dashboard, Path: "/dashboard"})
			return nil
		},
	}})

	v, _ := rt.Open(context.Background(), page.Index)
	_ = rt.Dispatch(context.Background(), v, "go", nil)
	_ = rt.Dispatch(context.Background(), v, "go", nil)
	if calls != 1 {
		t.Fatalf("handler ran %d times", calls)
	}
}

func TestInputGet(t *testing.T) {
	in := Input{"a": "1"}
	if in.Get("a") != "1" || in.Get("b") != "" {
		t.Fatalf("unexpected Get results")
	}
	var empty Input
	if empty.Get("a") != "" {
		t.Fatal("nil input must read as empty")
	}
}
