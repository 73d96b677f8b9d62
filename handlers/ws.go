package handlers

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"
)

// WSHandler pushes expense change notifications to connected clients. Each
// session subscribes to a single expense id; mutations broadcast a small
// signal and clients refetch.
type WSHandler struct {
	M *melody.Melody
}

func NewWSHandler() *WSHandler {
	m := melody.New()

	m.Config.MaxMessageSize = 1024
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleDisconnect(func(s *melody.Session) {
		expenseID, _ := s.Get("expense_id")
		log.Printf("client disconnected from expense %v", expenseID)
	})

	m.HandleError(func(s *melody.Session, err error) {
		log.Printf("websocket error: %v", err)
	})

	return &WSHandler{M: m}
}

// HandleWS upgrades the request and subscribes the session to an expense.
func (h *WSHandler) HandleWS(c *gin.Context) {
	keys := map[string]any{"expense_id": c.Param("expenseId")}
	if err := h.M.HandleRequestWithKeys(c.Writer, c.Request, keys); err != nil {
		log.Printf("failed to upgrade websocket: %v", err)
	}
}

// BroadcastUpdate notifies every session subscribed to the expense.
func (h *WSHandler) BroadcastUpdate(expenseID, updateType, userID string) {
	msg, err := json.Marshal(gin.H{"type": updateType, "user": userID})
	if err != nil {
		return
	}

	err = h.M.BroadcastFilter(msg, func(q *melody.Session) bool {
		id, exists := q.Get("expense_id")
		return exists && id == expenseID
	})
	if err != nil {
		log.Printf("error broadcasting to expense %s: %v", expenseID, err)
	}
}
