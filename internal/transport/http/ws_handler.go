// Package http wires game sessions to the outside world: the websocket
// endpoint participants speak the protocol over, and the small REST surface
// for minting a game code.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"quizhub/internal/game"
	"quizhub/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 32
)

// WSHandler upgrades HTTP requests to websockets and feeds frames into the
// message router. It also serves game creation.
type WSHandler struct {
	registry *game.Registry
	router   *game.Router
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewWSHandler(registry *game.Registry, router *game.Router) *WSHandler {
	return &WSHandler{
		registry: registry,
		router:   router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: slog.Default(),
	}
}

// CreateGame mints an empty session and returns its code. The session starts
// in the lobby with no quiz attached; everything else happens over the socket.
func (h *WSHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess, err := h.registry.Create()
	if err != nil {
		h.log.Error("game creation failed", "err", err)
		http.Error(w, "could not create game", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"gameCode": sess.Code()})
}

// ServeWS handles /ws/{code}. An unknown code still gets an upgraded
// connection so the client receives a proper error frame before the close.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	code := game.NormalizeCode(r.PathValue("code"))

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "game", code, "err", err)
		return
	}

	client := newClient(wsConn)
	go client.writePump()

	sess, ok := h.registry.Get(code)
	if !ok {
		h.log.Warn("connection for unknown game code", "game", code)
		_ = client.Send(protocol.Error("game code not found", protocol.CodeInvalidGameCode))
		// The pump tears the connection down after writing the close frame,
		// so the error frame above is delivered first.
		client.Close(websocket.ClosePolicyViolation, "unknown game code")
		return
	}

	h.log.Info("connection attached", "game", code, "conn", client.ID())
	h.readLoop(r.Context(), sess, client)

	sess.Disconnect(client)
	client.shutdown()
}

func (h *WSHandler) readLoop(ctx context.Context, sess *game.Session, client *wsClient) {
	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn("ws read ended", "game", sess.Code(), "conn", client.ID(), "err", err)
			}
			return
		}
		h.router.Dispatch(ctx, sess, client, data)
	}
}

// wsClient adapts one gorilla connection to game.Conn. A generated id is the
// session's key for this participant; the socket itself never leaves this
// type. All writes go through a buffered channel drained by a single pump
// goroutine, which gives each connection FIFO delivery and keeps a slow peer
// from ever blocking a session.
type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan outbound
	done chan struct{}
	once sync.Once
	log  *slog.Logger
}

// outbound is either a protocol frame or a close instruction.
type outbound struct {
	msg         protocol.Message
	closeCode   int
	closeReason string
}

func newClient(conn *websocket.Conn) *wsClient {
	id := uuid.NewString()
	return &wsClient{
		id:   id,
		conn: conn,
		send: make(chan outbound, sendBufferSize),
		done: make(chan struct{}),
		log:  slog.Default().With("conn", id),
	}
}

func (c *wsClient) ID() string { return c.id }

// Send enqueues a frame without blocking; a full buffer means the peer is too
// slow and the frame is reported undeliverable.
func (c *wsClient) Send(msg protocol.Message) error {
	select {
	case c.send <- outbound{msg: msg}:
		return nil
	case <-c.done:
		return errors.New("connection closed")
	default:
		return errors.New("send buffer full")
	}
}

// Close enqueues a close frame behind any pending messages so the peer sees
// the error that caused it first.
func (c *wsClient) Close(code int, reason string) {
	select {
	case c.send <- outbound{closeCode: code, closeReason: reason}:
	case <-c.done:
	default:
		// Buffer full: force teardown, the read loop will notice.
		c.shutdown()
	}
}

func (c *wsClient) writePump() {
	for {
		select {
		case out := <-c.send:
			if out.closeCode != 0 {
				deadline := time.Now().Add(writeWait)
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(out.closeCode, out.closeReason), deadline)
				c.shutdown()
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(out.msg); err != nil {
				c.log.Warn("ws write failed", "type", out.msg.Type, "err", err)
				c.shutdown()
				return
			}
		case <-c.done:
			return
		}
	}
}

// shutdown closes the socket and releases the pump. Safe to call repeatedly.
func (c *wsClient) shutdown() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}
