package chat

import (
	"context"
	"log"
	"strings"

	"github.com/zhouzirui/carbon-tracker/webclient/internal/model/chat"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/service/dispatch"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/view"
)

const (
	ActionSend dispatch.Action = "send"
	// ActionKey carries a key press from the input; only Enter submits.
	ActionKey dispatch.Action = "key"

	RegionBox  = "chat-box"
	FieldInput = "chat-input"
	FieldKey   = "key"
	SubmitKey  = "Enter"
)

// Client asks the assistant for a reply.
type Client interface {
	Chat(ctx context.Context, message string) (string, error)
}

// Controller keeps the conversation shown in the chat box.
type Controller struct {
	client Client
}

func New(client Client) *Controller {
	return &Controller{client: client}
}

// Load seeds a fresh view with the assistant's introduction.
func (c *Controller) Load(_ context.Context, v *view.View) error {
	v.Replace(RegionBox, introBlock())
	return nil
}

// Actions implements dispatch.Controller.
func (c *Controller) Actions() map[dispatch.Action]dispatch.Handler {
	return map[dispatch.Action]dispatch.Handler{
		ActionSend: c.send,
		ActionKey:  c.key,
	}
}

func (c *Controller) key(ctx context.Context, v *view.View, in dispatch.Input) error {
	if in.Get(FieldKey) != SubmitKey {
		return nil
	}
	return c.send(ctx, v, in)
}

// send shows the user's turn and clears the input before the reply is
// requested; the reply is appended only once it arrives.
func (c *Controller) send(ctx context.Context, v *view.View, in dispatch.Input) error {
	message := strings.TrimSpace(in.Get(FieldInput))
	if message == "" {
		return nil
	}

	// Views attached for a form post skip Load; the box still opens with the
	// introduction.
	if len(v.Blocks(RegionBox)) == 0 {
		v.Replace(RegionBox, introBlock())
	}

	user := chat.NewTurn(chat.AuthorUser, message)
	v.Append(RegionBox, turnBlock(user))
	v.SetField(FieldInput, "")

	reply, err := c.client.Chat(ctx, message)
	if err != nil {
		return err
	}

	bot := chat.NewTurn(chat.AuthorBot, reply)
	log.Printf("[chat] reply %s answers %s", bot.ID, user.ID)
	v.Append(RegionBox, turnBlock(bot))
	return nil
}

func introBlock() view.Block {
	return turnBlock(chat.NewTurn(chat.AuthorBot, chat.Intro))
}

func turnBlock(t chat.Turn) view.Block {
	class := "chat-message " + string(t.Author)
	if t.Author == chat.AuthorBot {
		return view.Markdown(class, t.Text)
	}
	return view.Text(class, t.Text)
}
