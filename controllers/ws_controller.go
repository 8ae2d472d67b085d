package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kendall-kelly/loyalty-rewards-api/realtime"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

var streamEntities = map[string]bool{
	"":                      true,
	realtime.EntityCustomer: true,
	realtime.EntityFoodItem: true,
	realtime.EntityOrder:    true,
}

// StreamChanges upgrades to a websocket and forwards change events for the
// requested entity (all entities when omitted) until the client disconnects.
func StreamChanges(hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		entity := c.Query("entity")
		if !streamEntities[entity] {
			respondValidation(c, "entity must be customer, food_item or order", gin.H{"entity": entity})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			zap.L().Debug("websocket upgrade failed", zap.Error(err))
			return
		}
		unregister := hub.Register(conn, entity)
		defer unregister()

		// clients only listen; the read loop detects the disconnect
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
