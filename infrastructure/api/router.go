package api

import (
	"chat-relay/domain"
	"chat-relay/infrastructure/ws"
	"chat-relay/repositories"
	"chat-relay/services"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// Settings are presentation thresholds handed to clients. The relay itself never uses them.
type Settings struct {
	GroupingWindow   time.Duration
	TimestampDivider time.Duration
}

type settingsResponse struct {
	GroupingWindowSeconds   int `json:"groupingWindowSeconds"`
	TimestampDividerMinutes int `json:"timestampDividerMinutes"`
}

type onlineUser struct {
	ws.UserPayload
	ConnID string `json:"connId"`
}

type statsResponse struct {
	Connections    int          `json:"connections"`
	OnlineUsers    []onlineUser `json:"onlineUsers"`
	StoredMessages int          `json:"storedMessages"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	log      *slog.Logger
	chat     services.IChatService
	settings Settings
	db       *badger.DB
}

type RouterOption func(*handlers)

// WithInspect exposes the raw badger entries under /debug/inspect.
func WithInspect(db *badger.DB) RouterOption {
	return func(h *handlers) { h.db = db }
}

// NewRouter wires the websocket endpoint and the read-only HTTP API.
func NewRouter(log *slog.Logger, chat services.IChatService, socket *ws.Handler,
	settings Settings, opts ...RouterOption) *gin.Engine {
	h := &handlers{log: log, chat: chat, settings: settings}
	for _, opt := range opts {
		opt(h)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	r.GET("/ws", socket.Serve)
	r.GET("/healthz", h.health)

	api := r.Group("/api")
	api.GET("/user/all.json", h.users)
	api.GET("/users", h.users)
	api.GET("/users/:id", h.user)
	api.GET("/online", h.online)
	api.GET("/stats", h.stats)
	api.GET("/settings", h.settingsHandler)

	if h.db != nil {
		r.GET("/debug/inspect", h.inspect)
	}
	return r
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) users(c *gin.Context) {
	c.JSON(http.StatusOK, lo.Map(h.chat.Users(), func(u domain.User, _ int) ws.UserPayload {
		return ws.FromUser(u)
	}))
}

func (h *handlers) user(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid user id"})
		return
	}
	user, ok := h.chat.User(domain.UserID(id))
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: "user not found"})
		return
	}
	c.JSON(http.StatusOK, ws.FromUser(user))
}

func (h *handlers) online(c *gin.Context) {
	users, err := h.chat.Online(c.Request.Context())
	if err != nil {
		h.log.Warn("Presence unavailable", "error", err)
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, toOnlineUsers(users))
}

func (h *handlers) stats(c *gin.Context) {
	stats, err := h.chat.Stats(c.Request.Context())
	if err != nil {
		h.log.Warn("Stats unavailable", "error", err)
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, statsResponse{
		Connections:    stats.Connections,
		OnlineUsers:    toOnlineUsers(stats.OnlineUsers),
		StoredMessages: stats.StoredMessages,
	})
}

func (h *handlers) settingsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, settingsResponse{
		GroupingWindowSeconds:   int(h.settings.GroupingWindow / time.Second),
		TimestampDividerMinutes: int(h.settings.TimestampDivider / time.Minute),
	})
}

func (h *handlers) inspect(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	rows, err := repositories.Inspect(h.db, c.DefaultQuery("prefix", "msg:"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}

func toOnlineUsers(users []domain.OnlineUser) []onlineUser {
	return lo.Map(users, func(u domain.OnlineUser, _ int) onlineUser {
		return onlineUser{UserPayload: ws.FromUser(u.User), ConnID: string(u.ConnID)}
	})
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
