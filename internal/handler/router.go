package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"

	"github.com/zhouzirui/carbon-tracker/webclient/internal/config"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/handler/live"
	pageHandler "github.com/zhouzirui/carbon-tracker/webclient/internal/handler/page"
	pageModel "github.com/zhouzirui/carbon-tracker/webclient/internal/model/page"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/model/session"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/service/dispatch"
	"github.com/zhouzirui/carbon-tracker/webclient/pkg/utils"
)

// NewRouter wires HTTP routes to the page runtime.
func NewRouter(rt *dispatch.Runtime, pages pageModel.Store, sessions session.Store, security config.SecurityConfig) (http.Handler, error) {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	pagesHandler, err := pageHandler.New(rt, sessions)
	if err != nil {
		return nil, fmt.Errorf("create page handler: %w", err)
	}
	liveHandler := live.New(rt, pages)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/static/*", http.StripPrefix("/static/", pageHandler.Static()))

	// Live frames are not forms; the upgrader's same-origin check covers them.
	liveHandler.RegisterRoutes(r)

	protect := csrf.Protect(security.CSRFKey,
		csrf.Secure(security.SecureCookies),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.FieldName(pageHandler.CSRFFieldName),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reason := "forbidden"
			if err := csrf.FailureReason(r); err != nil {
				reason = err.Error()
			}
			utils.RespondError(w, http.StatusForbidden, "csrf check failed: "+reason)
		})),
	)

	r.Group(func(forms chi.Router) {
		if !security.SecureCookies {
			forms.Use(plaintext)
		}
		forms.Use(protect)
		pagesHandler.RegisterRoutes(forms)
	})

	return r, nil
}

// plaintext marks requests served without TLS so the CSRF middleware skips
// its HTTPS-only referer check.
func plaintext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}
