package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/carbon-tracker/webclient/internal/model/chat"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/model/page"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/model/session"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/service/api"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/service/dispatch"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/view"
)

type backend struct {
	calls atomic.Int32
	fail  bool
}

func (b *backend) serve(t *testing.T) string {
	t.Helper()

	r := chi.NewRouter()
	r.Post("/chat", func(w http.ResponseWriter, req *http.Request) {
		b.calls.Add(1)
		if b.fail {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"assistant unavailable"}`))
			return
		}
		var body chat.Request
		_ = json.NewDecoder(req.Body).Decode(&body)
		reply := "hi there"
		if body.Message != "hello" {
			reply = "you said " + body.Message
		}
		json.NewEncoder(w).Encode(chat.Reply{Response: reply})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL
}

func open(t *testing.T, b *backend) (*dispatch.Runtime, *view.View) {
	t.Helper()

	store := session.NewMemoryStore()
	_ = store.Set("tok", "frank")
	rt, err := dispatch.New(page.NewMemoryStore(page.Seed()), store, page.Index)
	if err != nil {
		t.Fatalf("dispatch.New err: %v", err)
	}
	if err := rt.Register(page.Chat, New(api.NewClient(b.serve(t), time.Second, store))); err != nil {
		t.Fatalf("Register err: %v", err)
	}
	v, err := rt.Open(context.Background(), page.Chat)
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	return rt, v
}

func TestIntroSeedsChatBox(t *testing.T) {
	_, v := open(t, &backend{})

	blocks := v.Blocks(RegionBox)
	if len(blocks) != 1 {
		t.Fatalf("expected only the intro, got %d blocks", len(blocks))
	}
	if blocks[0].Class != "chat-message bot" || !strings.Contains(string(blocks[0].HTML), "Carbon Assistant") {
		t.Fatalf("unexpected intro: %+v", blocks[0])
	}
}

func TestSendAppendsUserThenBot(t *testing.T) {
	b := &backend{}
	rt, v := open(t, b)
	v.SetField(FieldInput, "  hello  ")

	if err := rt.Dispatch(context.Background(), v, ActionSend, dispatch.Input{FieldInput: "  hello  "}); err != nil {
		t.Fatalf("Dispatch err: %v", err)
	}

	blocks := v.Blocks(RegionBox)
	if len(blocks) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(blocks))
	}
	if blocks[1].Class != "chat-message user" || string(blocks[1].HTML) != "hello" {
		t.Fatalf("unexpected user turn: %+v", blocks[1])
	}
	if blocks[2].Class != "chat-message bot" || !strings.Contains(string(blocks[2].HTML), "hi there") {
		t.Fatalf("unexpected bot turn: %+v", blocks[2])
	}
	if got := v.Field(FieldInput); got != "" {
		t.Fatalf("input not cleared: %q", got)
	}
}

func TestWhitespaceInputIsIgnored(t *testing.T) {
	b := &backend{}
	rt, v := open(t, b)

	_ = rt.Dispatch(context.Background(), v, ActionSend, dispatch.Input{FieldInput: " \t "})
	_ = rt.Dispatch(context.Background(), v, ActionKey, dispatch.Input{FieldInput: "", FieldKey: SubmitKey})

	if n := b.calls.Load(); n != 0 {
		t.Fatalf("backend called %d times", n)
	}
	if blocks := v.Blocks(RegionBox); len(blocks) != 1 {
		t.Fatalf("turns appended for empty input: %d", len(blocks))
	}
	if n := v.Notices(); len(n) != 0 {
		t.Fatalf("empty input must not notify: %v", n)
	}
}

func TestEnterKeySendsOtherKeysDoNot(t *testing.T) {
	b := &backend{}
	rt, v := open(t, b)
	ctx := context.Background()

	_ = rt.Dispatch(ctx, v, ActionKey, dispatch.Input{FieldInput: "walk more", FieldKey: "a"})
	if n := b.calls.Load(); n != 0 {
		t.Fatalf("non-Enter key sent a message")
	}

	_ = rt.Dispatch(ctx, v, ActionKey, dispatch.Input{FieldInput: "walk more", FieldKey: SubmitKey})
	if n := b.calls.Load(); n != 1 {
		t.Fatalf("Enter sent %d messages", n)
	}
	if blocks := v.Blocks(RegionBox); len(blocks) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(blocks))
	}
}

func TestFailedReplyKeepsUserTurn(t *testing.T) {
	b := &backend{fail: true}
	rt, v := open(t, b)

	_ = rt.Dispatch(context.Background(), v, ActionSend, dispatch.Input{FieldInput: "hello"})

	blocks := v.Blocks(RegionBox)
	if len(blocks) != 2 || blocks[1].Class != "chat-message user" {
		t.Fatalf("user turn must stay after a failed reply: %+v", blocks)
	}
	if n := v.Notices(); len(n) != 1 || n[0] != "assistant unavailable" {
		t.Fatalf("unexpected notices: %v", n)
	}
}

func TestUserTurnPrecedesReply(t *testing.T) {
	b := &backend{}
	rt, v := open(t, b)

	var order []string
	v.Subscribe(func(c view.Change) {
		if c.Kind == view.KindRegion && c.Region == RegionBox {
			order = append(order, c.Blocks[0].Class)
		}
		if c.Kind == view.KindField && c.Field == FieldInput {
			order = append(order, "cleared")
		}
	})

	_ = rt.Dispatch(context.Background(), v, ActionSend, dispatch.Input{FieldInput: "hello"})

	want := []string{"chat-message user", "cleared", "chat-message bot"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

func TestSendOnAttachedViewOpensWithIntro(t *testing.T) {
	b := &backend{}
	rt, _ := open(t, b)

	v, err := rt.Attach(context.Background(), page.Chat)
	if err != nil {
		t.Fatalf("Attach err: %v", err)
	}
	if err := rt.Dispatch(context.Background(), v, ActionSend, dispatch.Input{FieldInput: "hello"}); err != nil {
		t.Fatalf("Dispatch err: %v", err)
	}

	blocks := v.Blocks(RegionBox)
	if len(blocks) != 3 {
		t.Fatalf("expected intro and 2 turns, got %d", len(blocks))
	}
	if !strings.Contains(string(blocks[0].HTML), "Carbon Assistant") {
		t.Fatalf("first turn is not the intro: %+v", blocks[0])
	}
	if string(blocks[1].HTML) != "hello" || !strings.Contains(string(blocks[2].HTML), "hi there") {
		t.Fatalf("unexpected turns: %+v", blocks[1:])
	}
}
