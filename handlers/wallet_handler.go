package handlers

import (
	"github.com/anjiri1684/course_ledger/middleware"
	"github.com/anjiri1684/course_ledger/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) GetWalletBalance(c *fiber.Ctx) error {
	userID, _, err := currentUser(c)
	if err != nil {
		return err
	}

	balance, err := h.Ledger.GetBalance(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"user_id": userID, "balance": balance})
}

func (h *Handler) GetWalletHistory(c *fiber.Ctx) error {
	userID, _, err := currentUser(c)
	if err != nil {
		return err
	}

	entries, err := h.Ledger.GetHistory(c.UserContext(), userID, c.QueryInt("limit", 0))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(entries)
}

// ServeWalletWs expects {"type":"auth","token":"..."} as the first frame, then streams the
// user's wallet and withdrawal events until the socket closes.
func (h *Handler) ServeWalletWs(c *websocketcontrib.Conn) {
	type AuthMessage struct {
		Type  string `json:"type"`
		Token string `json:"token"`
	}
	var authMsg AuthMessage
	if err := c.ReadJSON(&authMsg); err != nil || authMsg.Type != "auth" {
		_ = c.WriteJSON(fiber.Map{"error": "Invalid or missing auth message"})
		c.Close()
		return
	}

	userID, _, err := middleware.ParseToken(h.secret(), authMsg.Token)
	if err != nil {
		h.Logger.Debug().Err(err).Msg("websocket auth failed")
		_ = c.WriteJSON(fiber.Map{"error": "Invalid token"})
		c.Close()
		return
	}

	// written before registering so the hub is the only writer afterwards
	if err := c.WriteJSON(fiber.Map{"type": "ready"}); err != nil {
		c.Close()
		return
	}

	client := &websocket.Client{UserID: userID, Conn: c}
	h.Hub.Register(client)
	defer func() {
		h.Hub.Unregister(client)
		c.Close()
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
