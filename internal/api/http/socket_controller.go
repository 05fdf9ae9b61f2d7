package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/classboard/internal/config"
	"github.com/immxrtalbeast/classboard/internal/domain"
	"github.com/immxrtalbeast/classboard/internal/service"
	"github.com/immxrtalbeast/classboard/lib/logger/sl"
)

type SocketController struct {
	sessions   service.SessionInteractor
	dispatcher *Dispatcher
	cfg        config.WebSocketConfig
	upgrader   websocket.Upgrader
	log        *slog.Logger
}

func NewSocketController(sessions service.SessionInteractor, dispatcher *Dispatcher, cfg config.WebSocketConfig, allowedOrigins []string, log *slog.Logger) *SocketController {
	if log == nil {
		log = slog.Default()
	}
	return &SocketController{
		sessions:   sessions,
		dispatcher: dispatcher,
		cfg:        cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
		log: log,
	}
}

// Serve upgrades the request and runs the connection until it closes.
func (c *SocketController) Serve(ctx *gin.Context) {
	const op = "api.http.socket.serve"
	log := c.log.With(slog.String("op", op))

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Debug("failed to upgrade connection", sl.Err(err))
		return
	}

	session, err := c.sessions.Connect(context.Background())
	if err != nil {
		log.Error("failed to register session", sl.Err(err))
		_ = conn.WriteJSON(gin.H{"error": err.Error()})
		conn.Close()
		return
	}

	if event, err := domain.NewEvent(domain.EventConnected, domain.ConnectedPayload{ID: session.ID}); err == nil {
		session.EnqueueEvent(event)
	}

	cl := newClient(conn, session, c.dispatcher, c.cfg, c.log)

	done := make(chan struct{})
	go func() {
		defer close(done)
		cl.writePump()
	}()

	cl.readPump(context.Background())

	if err := c.sessions.Disconnect(context.Background(), session); err != nil {
		log.Error("failed to disconnect session", slog.String("session_id", session.ID), sl.Err(err))
	}
	<-done
}

func checkOrigin(allowedOrigins []string) func(r *http.Request) bool {
	if allowsAny(allowedOrigins) {
		return func(r *http.Request) bool { return true }
	}

	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}
