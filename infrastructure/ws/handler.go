package ws

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pairchat/auth"
	"pairchat/observability"
	"pairchat/services"
	"pairchat/sink"
)

// Handler upgrades authenticated HTTP requests to websocket connections and
// runs their pumps. Unauthenticated requests are rejected with 401 before
// the upgrade: no presence or registry state is touched for them.
type Handler struct {
	log        *slog.Logger
	upgrader   websocket.Upgrader
	chat       services.IChatService
	tokens     *auth.TokenIssuer
	stats      *observability.ChatStats
	bufferSize int
}

func NewHandler(log *slog.Logger, chat services.IChatService, tokens *auth.TokenIssuer,
	stats *observability.ChatStats, bufferSize int) *Handler {
	return &Handler{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		chat:       chat,
		tokens:     tokens,
		stats:      stats,
		bufferSize: bufferSize,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity := h.tokens.IdentityFromRequest(r)
	if identity == "" {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	connID := uuid.New()
	snk := sink.NewWSink(h.log, h.bufferSize, h.stats)
	client := NewClient(h.log, conn, h.chat, snk, h.stats, identity, connID)

	ctx := r.Context()
	if err := h.chat.Connect(ctx, identity, connID, snk); err != nil {
		h.log.Error("connect rejected", "username", identity, "error", err)
		conn.Close()
		return
	}
	defer h.chat.Disconnect(ctx, identity, connID)

	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
