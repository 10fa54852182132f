package api

import (
	"context"
	"net/http"

	"github.com/zhouzirui/carbon-tracker/webclient/internal/model/chat"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/model/emission"
)

// Backend endpoint paths.
const (
	PathLogin         = "/login"
	PathRegister      = "/register"
	PathCalculate     = "/calculate"
	PathHistory       = "/history"
	PathRecentHistory = "/history/30days"
	PathForecast      = "/forecast"
	PathChat          = "/chat"
)

// Credentials is the body of /login and /register.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the body of a successful /login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds Credentials) (LoginResult, error) {
	raw, err := c.Execute(ctx, http.MethodPost, PathLogin, creds)
	if err != nil {
		return LoginResult{}, err
	}

	var out LoginResult
	if err := decode(PathLogin, raw, &out); err != nil {
		return LoginResult{}, err
	}
	return out, nil
}

// Register creates an account and returns the backend's acknowledgement.
func (c *Client) Register(ctx context.Context, creds Credentials) (string, error) {
	raw, err := c.Execute(ctx, http.MethodPost, PathRegister, creds)
	if err != nil {
		return "", err
	}

	var out struct {
		Message string `json:"message"`
	}
	if err := decode(PathRegister, raw, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Calculate submits one day of activity and returns its breakdown.
func (c *Client) Calculate(ctx context.Context, entry emission.Entry) (emission.Result, error) {
	raw, err := c.Execute(ctx, http.MethodPost, PathCalculate, entry)
	if err != nil {
		return emission.Result{}, err
	}

	var out emission.Result
	if err := decode(PathCalculate, raw, &out); err != nil {
		return emission.Result{}, err
	}
	return out, nil
}

// History returns every stored day in the order the backend sends it.
func (c *Client) History(ctx context.Context) ([]emission.HistoryEntry, error) {
	return c.history(ctx, PathHistory)
}

// RecentHistory returns the stored days of the last 30 days.
func (c *Client) RecentHistory(ctx context.Context) ([]emission.HistoryEntry, error) {
	return c.history(ctx, PathRecentHistory)
}

func (c *Client) history(ctx context.Context, endpoint string) ([]emission.HistoryEntry, error) {
	raw, err := c.Execute(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		History []emission.HistoryEntry `json:"history"`
	}
	if err := decode(endpoint, raw, &out); err != nil {
		return nil, err
	}
	if out.History == nil {
		out.History = []emission.HistoryEntry{}
	}
	return out.History, nil
}

// Forecast asks the backend for the next-day prediction.
func (c *Client) Forecast(ctx context.Context) (emission.Forecast, error) {
	raw, err := c.Execute(ctx, http.MethodGet, PathForecast, nil)
	if err != nil {
		return emission.Forecast{}, err
	}

	var out emission.Forecast
	if err := decode(PathForecast, raw, &out); err != nil {
		return emission.Forecast{}, err
	}
	return out, nil
}

// Chat sends one user message and returns the assistant's reply text.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	raw, err := c.Execute(ctx, http.MethodPost, PathChat, chat.Request{Message: message})
	if err != nil {
		return "", err
	}

	var out chat.Reply
	if err := decode(PathChat, raw, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}
