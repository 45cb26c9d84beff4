package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"phishguard/internal/model"
	"phishguard/internal/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: checkOrigin,
}

// checkOrigin accepts same-host connections and non-browser clients that
// send no Origin header at all.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// WSMessage is one streamed bulk-scan event.
type WSMessage struct {
	Type    string         `json:"type"` // "verdict" or "error"
	URL     string         `json:"url"`
	Data    *model.Verdict `json:"data,omitempty"`
	Message string         `json:"message,omitempty"`
	Warning string         `json:"warning,omitempty"`
}

type wsScanRequest struct {
	URLs  []string `json:"urls"`
	Model string   `json:"model"`
}

// HandleWS streams bulk-scan results. Each URL is scanned concurrently and
// its verdict pushed as soon as it arrives; the recent-scans cache picks up
// completion order, not submission order, which is what the UI shows.
func (h *Handler) HandleWS(c echo.Context) error {
	sess := currentSession(c)

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = ws.Close()
	}()

	// gorilla connections do not allow concurrent writers.
	var writeMu sync.Mutex
	send := func(msg WSMessage) {
		b, marshalErr := json.Marshal(msg)
		if marshalErr != nil {
			return
		}
		writeMu.Lock()
		_ = ws.WriteMessage(websocket.TextMessage, b)
		writeMu.Unlock()
	}

	for {
		_, raw, readErr := ws.ReadMessage()
		if readErr != nil {
			break
		}

		var req wsScanRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			continue
		}

		m, err := model.ParseModelID(req.Model)
		if err != nil {
			m = model.ModelPrimary
		}

		ctx := c.Request().Context()
		for _, target := range req.URLs {
			go func(rawURL string) {
				verdict, scanErr := h.Orchestrator.Scan(ctx, rawURL, m)
				if scanErr != nil {
					send(WSMessage{Type: "error", URL: rawURL, Message: "scan failed"})
					return
				}

				h.Recents.For(sess.UserID.String()).Push(*verdict)

				warning := ""
				if _, appendErr := h.Ledger.AppendScan(ctx, sess.UserID, *verdict); appendErr != nil {
					utils.Log.Warn("bulk history append failed",
						utils.Field("user", sess.UserID), utils.Field("error", appendErr.Error()))
					warning = "not saved to history"
				}

				send(WSMessage{Type: "verdict", URL: rawURL, Data: verdict, Warning: warning})
			}(target)
		}
	}
	return nil
}
