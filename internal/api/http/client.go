package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/classboard/internal/config"
	"github.com/immxrtalbeast/classboard/internal/domain"
	"github.com/immxrtalbeast/classboard/lib/logger/sl"
	"golang.org/x/time/rate"
)

// client pumps frames between one websocket connection and its session.
type client struct {
	conn       *websocket.Conn
	session    *domain.Session
	dispatcher *Dispatcher
	cfg        config.WebSocketConfig
	limiter    *rate.Limiter
	log        *slog.Logger
}

func newClient(conn *websocket.Conn, session *domain.Session, dispatcher *Dispatcher, cfg config.WebSocketConfig, log *slog.Logger) *client {
	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = 10 * time.Second
	}
	return &client{
		conn:       conn,
		session:    session,
		dispatcher: dispatcher,
		cfg:        cfg,
		limiter:    rate.NewLimiter(rate.Limit(cfg.MessagesPerSecond), cfg.Burst),
		log:        log.With(slog.String("session_id", session.ID)),
	}
}

// readPump blocks until the connection fails, the peer closes it or the
// client exceeds its rate limit too often. The write pump owns closing
// the connection once the session queue is closed.
func (c *client) readPump(ctx context.Context) {
	if c.cfg.MaxMessageSize > 0 {
		c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	violations := 0

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket read failed", sl.Err(err))
			}
			return
		}

		if c.cfg.MessagesPerSecond > 0 && !c.limiter.Allow() {
			violations++
			if violations%100 == 1 {
				c.log.Warn("rate limit exceeded", slog.Int("violations", violations))
			}
			if c.cfg.MaxViolations > 0 && violations > c.cfg.MaxViolations {
				c.log.Warn("disconnecting client for excessive rate limit violations")
				return
			}
			continue
		}

		var event domain.Event
		if err := json.Unmarshal(message, &event); err != nil {
			c.log.Debug("ignoring undecodable frame", sl.Err(err))
			continue
		}

		_ = c.dispatcher.Dispatch(ctx, c.session, event)
	}
}

// writePump drains the session queue until it is closed. A failed write
// closes the connection, which ends the read pump as well.
func (c *client) writePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.session.Events:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.conn.WriteJSON(event); err != nil {
				c.log.Debug("websocket write failed", sl.Err(err))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
