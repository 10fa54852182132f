package live

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	pageModel "github.com/zhouzirui/carbon-tracker/webclient/internal/model/page"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/service/dispatch"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/view"
)

const (
	// kindError 报告无法分派的动作，不属于视图变更
	kindError = "error"

	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
	pingInterval = 54 * time.Second
	outboxSize   = 64
)

// Handler 为实时页面提供 WebSocket：推送视图快照与后续变更，接收动作帧
type Handler struct {
	rt       *dispatch.Runtime
	pages    pageModel.Store
	upgrader websocket.Upgrader
}

// New 创建实时页面处理器
func New(rt *dispatch.Runtime, pages pageModel.Store) *Handler {
	return &Handler{
		rt:    rt,
		pages: pages,
		// CheckOrigin 保持默认的同源校验，动作帧会以当前会话身份执行
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/live/{page}", h.handleLive)
}

type inboundFrame struct {
	Action string            `json:"action"`
	Fields map[string]string `json:"fields"`
}

// handleLive 处理WebSocket连接
func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	id := pageModel.ID(chi.URLParam(r, "page"))
	p, ok := h.pages.FindByID(id)
	if !ok || !p.Live {
		http.Error(w, "live page not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[live] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// 连接存活期间的上下文，不依赖已被劫持的请求
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v, err := h.rt.Open(ctx, id)
	if err != nil {
		log.Printf("[live] open %s failed: %v", id, err)
		return
	}
	log.Printf("[live] view %s opened for %s", v.ID(), id)

	out := newOutbox(conn)
	go out.run(ctx)
	go h.pingLoop(ctx, out)

	for _, change := range initialChanges(v) {
		out.push(ctx, change)
	}
	if _, leaving := v.Navigation(); leaving {
		out.flush(ctx)
		return
	}

	unsubscribe := v.Subscribe(func(c view.Change) { out.push(ctx, c) })
	defer unsubscribe()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	var inflight sync.WaitGroup
	defer inflight.Wait()
	defer cancel()

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[live] read error on view %s: %v", v.ID(), err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		// 每个动作独立执行，两个进行中的请求互不等待
		inflight.Add(1)
		go func(frame inboundFrame) {
			defer inflight.Done()
			err := h.rt.Dispatch(ctx, v, dispatch.Action(frame.Action), dispatch.Input(frame.Fields))
			if err == nil {
				return
			}
			log.Printf("[live] dispatch %s on view %s failed: %v", frame.Action, v.ID(), err)
			msg := "action failed"
			if errors.Is(err, dispatch.ErrUnknownAction) {
				msg = "unknown action: " + frame.Action
			}
			out.push(ctx, view.Change{Kind: kindError, Text: msg})
		}(frame)
	}
}

// initialChanges 在快照之后补上加载阶段产生的提示与导航
func initialChanges(v *view.View) []view.Change {
	changes := v.Snapshot()
	for _, text := range v.Notices() {
		changes = append(changes, view.Change{Kind: view.KindNotice, Text: text})
	}
	if target, ok := v.Navigation(); ok {
		changes = append(changes, view.Change{Kind: view.KindNavigate, Path: target.Path})
	}
	return changes
}

// pingLoop 定期发送ping消息
func (h *Handler) pingLoop(ctx context.Context, out *outbox) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := out.ping(); err != nil {
				return
			}
		}
	}
}
