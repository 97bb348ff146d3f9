package ws

import (
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/services"
	"chat-relay/sink"
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Options struct {
	BufferSize   int
	WriteTimeout time.Duration
	PongTimeout  time.Duration
	PingInterval time.Duration
	MaxFrameSize int64
}

func (o Options) withDefaults() Options {
	if o.BufferSize <= 0 {
		o.BufferSize = 64
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PongTimeout <= 0 {
		o.PongTimeout = 60 * time.Second
	}
	// Pings must go out before the peer's read deadline expires.
	if o.PingInterval <= 0 || o.PingInterval >= o.PongTimeout {
		o.PingInterval = o.PongTimeout * 9 / 10
	}
	return o
}

// Handler upgrades HTTP requests and runs one session per socket.
// The read loop feeds the session, a writer goroutine drains the connection sink.
type Handler struct {
	log      *slog.Logger
	chat     services.IChatService
	codec    *Codec
	upgrader websocket.Upgrader
	opts     Options
}

func NewHandler(log *slog.Logger, chat services.IChatService, opts Options) *Handler {
	return &Handler{
		log:   log,
		chat:  chat,
		codec: NewCodec(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		opts: opts.withDefaults(),
	}
}

func (h *Handler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error
		h.log.Info("Websocket upgrade failed", "remote", c.ClientIP(), "error", err)
		return
	}
	h.serve(c.Request.Context(), conn)
}

func (h *Handler) serve(ctx context.Context, conn *websocket.Conn) {
	defer func() { _ = conn.Close() }()

	connSink := sink.NewConnectionSink(h.opts.BufferSize)
	session, err := h.chat.Connect(ctx, connSink)
	if err != nil {
		h.log.Warn("Relay refused connection", "error", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "relay unavailable"),
			time.Now().Add(h.opts.WriteTimeout))
		return
	}
	log := h.log.With("conn_id", session.ConnID())

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(log, conn, connSink)
	}()

	h.readLoop(ctx, log, conn, session, connSink)

	// A dropped socket is an implicit disconnect, even if the request is gone.
	if err := session.Disconnect(context.WithoutCancel(ctx)); err != nil {
		log.Warn("Failed to dispatch disconnect", "error", err)
	}
	connSink.Close()
	<-writerDone
}

func (h *Handler) readLoop(ctx context.Context, log *slog.Logger, conn *websocket.Conn,
	session *services.Session, connSink *sink.ConnectionSink) {
	if h.opts.MaxFrameSize > 0 {
		conn.SetReadLimit(h.opts.MaxFrameSize)
	}
	extend := func() error { return conn.SetReadDeadline(time.Now().Add(h.opts.PongTimeout)) }
	_ = extend()
	conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			logReadError(log, err)
			return
		}
		_ = extend()

		inbound, err := h.codec.Decode(data)
		if err != nil {
			h.reject(log, connSink, inbound.Event, err)
			continue
		}

		switch {
		case inbound.Join != nil:
			err = session.Join(ctx, *inbound.Join)
		case inbound.Send != nil:
			err = session.Send(ctx, *inbound.Send)
		}
		if err != nil {
			if errors.Is(err, errors.ErrRelayStopped) || errors.Is(err, context.Canceled) {
				log.Info("Relay unavailable, closing connection", "error", err)
				return
			}
			h.reject(log, connSink, inbound.Event, err)
		}
	}
}

func logReadError(log *slog.Logger, err error) {
	var netErr net.Error
	switch {
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived):
		log.Info("Peer closed connection")
	case errors.As(err, &netErr) && netErr.Timeout():
		log.Info("Read timeout", "error", err)
	default:
		log.Info("Read error", "error", err)
	}
}

// reject answers the originating connection only.
func (h *Handler) reject(log *slog.Logger, connSink *sink.ConnectionSink, name string, err error) {
	log.Debug("Frame rejected", "event", name, "error", err)
	if derr := connSink.Deliver(event.SendRejected{Code: errors.Code(err), Reason: err.Error()}); derr != nil {
		log.Warn("Failed to deliver rejection", "error", derr)
	}
}

// writeLoop is the only writer of data frames. It returns once the sink is closed or a write fails.
func (h *Handler) writeLoop(log *slog.Logger, conn *websocket.Conn, connSink *sink.ConnectionSink) {
	ticker := time.NewTicker(h.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-connSink.Events():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(h.opts.WriteTimeout))
				return
			}
			payload, err := h.codec.Encode(e)
			if err != nil {
				log.Error("Failed to encode event", "event", e.Type(), "error", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Info("Write failed", "event", e.Type(), "error", err)
				// Unblock the read loop so the session disconnects.
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(h.opts.WriteTimeout)); err != nil {
				log.Info("Ping failed", "error", err)
				_ = conn.Close()
				return
			}
		}
	}
}
