package live

import (
	"context"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zhouzirui/carbon-tracker/webclient/internal/view"
)

// outbox serializes every frame written to one connection; gorilla
// connections allow a single concurrent writer.
type outbox struct {
	conn  *websocket.Conn
	queue chan view.Change
	done  chan struct{}
}

func newOutbox(conn *websocket.Conn) *outbox {
	return &outbox{
		conn:  conn,
		queue: make(chan view.Change, outboxSize),
		done:  make(chan struct{}),
	}
}

func (o *outbox) push(ctx context.Context, c view.Change) {
	select {
	case o.queue <- c:
	case <-ctx.Done():
	}
}

func (o *outbox) run(ctx context.Context) {
	defer close(o.done)
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-o.queue:
			if !ok {
				return
			}
			o.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := o.conn.WriteJSON(c); err != nil {
				log.Printf("[live] write failed: %v", err)
				return
			}
		}
	}
}

// flush stops accepting frames and waits until the queued ones are written.
func (o *outbox) flush(ctx context.Context) {
	close(o.queue)
	select {
	case <-o.done:
	case <-ctx.Done():
	}
}

// ping may run alongside run: WriteControl is safe for concurrent use.
func (o *outbox) ping() error {
	return o.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}
