package auth

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/zhouzirui/carbon-tracker/webclient/internal/model/page"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/model/session"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/service/api"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/service/dispatch"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/view"
)

// Actions and fields of the entry and forgot-password pages.
const (
	ActionLogin  dispatch.Action = "login"
	ActionSignup dispatch.Action = "signup"
	ActionReset  dispatch.Action = "reset"

	FieldLoginUsername  = "login-username"
	FieldLoginPassword  = "login-password"
	FieldSignupUsername = "signup-username"
	FieldSignupPassword = "signup-password"
)

// User-facing texts.
const (
	MsgRegistered  = "Registration successful! Please log in."
	MsgForgotDemo  = "This is a demo feature. A reset link would be sent to your email or a password reset flow would be initiated."
	msgMissingAuth = "Login response did not contain a session token."
)

// Client is the slice of the backend the auth pages use.
type Client interface {
	Login(ctx context.Context, creds api.Credentials) (api.LoginResult, error)
	Register(ctx context.Context, creds api.Credentials) (string, error)
}

// Login signs the user in and moves to the landing page.
type Login struct {
	client   Client
	sessions session.Store
	landing  page.Page
}

// NewLogin creates the login controller.
func NewLogin(client Client, sessions session.Store, landing page.Page) *Login {
	return &Login{client: client, sessions: sessions, landing: landing}
}

// Actions implements dispatch.Controller.
func (c *Login) Actions() map[dispatch.Action]dispatch.Handler {
	return map[dispatch.Action]dispatch.Handler{ActionLogin: c.login}
}

func (c *Login) login(ctx context.Context, v *view.View, in dispatch.Input) error {
	result, err := c.client.Login(ctx, api.Credentials{
		Username: in.Get(FieldLoginUsername),
		Password: in.Get(FieldLoginPassword),
	})
	if err != nil {
		return err
	}

	if err := c.sessions.Set(result.AccessToken, result.Username); err != nil {
		return &dispatch.UserError{Message: msgMissingAuth}
	}

	if exp, ok := session.Expiry(result.AccessToken); ok {
		log.Printf("[auth] signed in as %s, token expires %s", result.Username, exp.Format(time.RFC3339))
	} else {
		log.Printf("[auth] signed in as %s", result.Username)
	}

	v.Navigate(c.landing)
	return nil
}

// Signup registers an account. It does not sign in; the login form is
// pre-filled instead.
type Signup struct {
	client Client
}

// NewSignup creates the signup controller.
func NewSignup(client Client) *Signup {
	return &Signup{client: client}
}

// Actions implements dispatch.Controller.
func (c *Signup) Actions() map[dispatch.Action]dispatch.Handler {
	return map[dispatch.Action]dispatch.Handler{ActionSignup: c.signup}
}

func (c *Signup) signup(ctx context.Context, v *view.View, in dispatch.Input) error {
	username := in.Get(FieldSignupUsername)
	if _, err := c.client.Register(ctx, api.Credentials{
		Username: username,
		Password: in.Get(FieldSignupPassword),
	}); err != nil {
		return fmt.Errorf("register %q: %w", username, err)
	}

	v.Notify(MsgRegistered)
	v.SetField(FieldLoginUsername, username)
	v.Focus(FieldLoginPassword)
	return nil
}

// Forgot is a placeholder: it acknowledges and returns to the entry page
// without contacting the backend.
type Forgot struct {
	entry page.Page
}

// NewForgot creates the forgot-password controller.
func NewForgot(entry page.Page) *Forgot {
	return &Forgot{entry: entry}
}

// Actions implements dispatch.Controller.
func (c *Forgot) Actions() map[dispatch.Action]dispatch.Handler {
	return map[dispatch.Action]dispatch.Handler{ActionReset: c.reset}
}

func (c *Forgot) reset(_ context.Context, v *view.View, _ dispatch.Input) error {
	v.Notify(MsgForgotDemo)
	v.Navigate(c.entry)
	return nil
}
