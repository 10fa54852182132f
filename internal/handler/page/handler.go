package page

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"

	pageModel "github.com/zhouzirui/carbon-tracker/webclient/internal/model/page"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/model/session"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/service/dispatch"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/view"
	"github.com/zhouzirui/carbon-tracker/webclient/pkg/utils"
)

// CSRFFieldName 是表单中携带 CSRF token 的字段名，不会作为动作输入转发。
const CSRFFieldName = "gorilla.csrf.Token"

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Handler 渲染页面并处理表单动作
type Handler struct {
	rt        *dispatch.Runtime
	sessions  session.Store
	templates map[pageModel.ID]*template.Template
}

// New 创建页面处理器，每个已声明页面都必须有对应模板
func New(rt *dispatch.Runtime, sessions session.Store) (*Handler, error) {
	templates := make(map[pageModel.ID]*template.Template)
	for _, p := range rt.Pages() {
		tmpl, err := template.New("layout.html").Funcs(view.Funcs).ParseFS(templateFS,
			"templates/layout.html",
			fmt.Sprintf("templates/%s.html", p.ID),
		)
		if err != nil {
			return nil, fmt.Errorf("parse template for %s: %w", p.ID, err)
		}
		templates[p.ID] = tmpl
	}

	return &Handler{rt: rt, sessions: sessions, templates: templates}, nil
}

// RegisterRoutes 注册页面与动作路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	for _, p := range h.rt.Pages() {
		r.Get(p.Path, h.handlePage(p))
	}
	r.Post("/actions/{page}/{action}", h.handleAction)
}

// Static 返回内嵌的脚本与样式
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

// handlePage 打开页面；守卫拒绝时直接重定向
func (h *Handler) handlePage(p pageModel.Page) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := h.rt.Open(r.Context(), p.ID)
		if err != nil {
			log.Printf("[page] open %s failed: %v", p.ID, err)
			utils.RespondError(w, http.StatusInternalServerError, "page unavailable")
			return
		}

		if target, ok := v.Navigation(); ok && len(v.Notices()) == 0 {
			http.Redirect(w, r, target.Path, http.StatusSeeOther)
			return
		}
		h.render(w, r, v)
	}
}

// handleAction 处理表单提交：无提示时按导航目标重定向，否则带提示重新渲染页面
func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	id := pageModel.ID(chi.URLParam(r, "page"))
	action := dispatch.Action(chi.URLParam(r, "action"))

	if err := r.ParseForm(); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	v, err := h.rt.Attach(r.Context(), id)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "page not found")
		return
	}
	if target, ok := v.Navigation(); ok {
		http.Redirect(w, r, target.Path, http.StatusSeeOther)
		return
	}

	if err := h.rt.Dispatch(r.Context(), v, action, formInput(r.PostForm)); err != nil {
		if errors.Is(err, dispatch.ErrUnknownAction) {
			utils.RespondError(w, http.StatusNotFound, "unknown action")
			return
		}
		log.Printf("[page] dispatch %s/%s failed: %v", id, action, err)
		utils.RespondError(w, http.StatusInternalServerError, "action failed")
		return
	}

	if target, ok := v.Navigation(); ok && len(v.Notices()) == 0 {
		http.Redirect(w, r, target.Path, http.StatusSeeOther)
		return
	}
	h.render(w, r, v)
}

// clientState 供页面脚本读取：先逐条弹出提示，再跟随重定向
type clientState struct {
	Notices  []string `json:"notices"`
	Redirect string   `json:"redirect,omitempty"`
	Focus    string   `json:"focus,omitempty"`
	Live     string   `json:"live,omitempty"`
}

type pageData struct {
	Page      pageModel.Page
	Nav       []pageModel.Page
	User      string
	Expires   string
	CSRFField template.HTML
	State     clientState

	view *view.View
}

// Region 返回区域内容
func (d pageData) Region(name string) []view.Block {
	return d.view.Blocks(name)
}

// Field 返回输入框当前值
func (d pageData) Field(name string) string {
	return d.view.Field(name)
}

// Selected 判断下拉框选项是否为当前值
func (d pageData) Selected(name, value string) bool {
	return d.view.Field(name) == value
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, v *view.View) {
	p := v.Page()
	tmpl, ok := h.templates[p.ID]
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "page not found")
		return
	}

	data := pageData{
		Page:      p,
		CSRFField: csrf.TemplateField(r),
		State: clientState{
			Notices: v.Notices(),
			Focus:   v.Focused(),
		},
		view: v,
	}
	if data.State.Notices == nil {
		data.State.Notices = []string{}
	}
	if target, ok := v.Navigation(); ok {
		data.State.Redirect = target.Path
	}
	if p.Live {
		data.State.Live = "/live/" + string(p.ID)
	}

	if current, ok := h.sessions.Current(); ok {
		data.User = current.DisplayName
		if exp, ok := session.Expiry(current.Token); ok {
			data.Expires = exp.Local().Format(time.DateTime)
		}
		for _, candidate := range h.rt.Pages() {
			if candidate.RequiresAuth {
				data.Nav = append(data.Nav, candidate)
			}
		}
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Printf("[page] render %s failed: %v", p.ID, err)
		utils.RespondError(w, http.StatusInternalServerError, "render failed")
		return
	}

	w.Header().Set("X-CSRF-Token", csrf.Token(r))
	utils.RespondHTML(w, http.StatusOK, &buf)
}

func formInput(values url.Values) dispatch.Input {
	in := make(dispatch.Input, len(values))
	for key, vals := range values {
		if key == CSRFFieldName || len(vals) == 0 {
			continue
		}
		in[key] = vals[0]
	}
	return in
}
