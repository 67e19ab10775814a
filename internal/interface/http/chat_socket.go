package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	apperrors "github.com/yanqian/fortune-master/pkg/errors"
)

const (
	chatWSWriteWait = 10 * time.Second
	chatWSPongWait  = 60 * time.Second
	chatWSPingEvery = (chatWSPongWait * 9) / 10
)

type chatWSInbound struct {
	Message string `json:"message"`
}

type chatWSOutbound struct {
	Type    string `json:"type"`
	Reply   string `json:"reply,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func newChatUpgrader(allowed []string) websocket.Upgrader {
	origins := cleanOrigins(allowed)
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if len(origins) == 0 || origin == "" {
				return true
			}
			for _, candidate := range origins {
				if strings.EqualFold(candidate, origin) {
					return true
				}
			}
			return false
		},
	}
}

// ChatSocket streams a chat conversation over a websocket. Each inbound
// message is answered independently, so replies arrive in resolution order.
func (h *Handler) ChatSocket(upgrader websocket.Upgrader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if _, err := h.chatSvc.Transcript(c.Request.Context(), id); err != nil {
			abortWithError(c, fromDomainError(err))
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.logger.Warn("chat websocket upgrade failed", "session_id", id, "error", err)
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
		defer cancel()

		if err := conn.SetReadDeadline(time.Now().Add(chatWSPongWait)); err != nil {
			return
		}
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(chatWSPongWait))
		})

		writeCh := make(chan chatWSOutbound, 16)
		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			ticker := time.NewTicker(chatWSPingEvery)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case out := <-writeCh:
					if err := conn.SetWriteDeadline(time.Now().Add(chatWSWriteWait)); err != nil {
						return
					}
					if err := conn.WriteJSON(out); err != nil {
						return
					}
				case <-ticker.C:
					if err := conn.SetWriteDeadline(time.Now().Add(chatWSWriteWait)); err != nil {
						return
					}
					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						return
					}
				}
			}
		}()

		h.logger.Info("chat websocket opened", "session_id", id)
		for {
			var in chatWSInbound
			if err := conn.ReadJSON(&in); err != nil {
				cancel()
				<-writerDone
				h.logger.Info("chat websocket closed", "session_id", id)
				return
			}
			go func(message string) {
				_, reply, err := h.chatSvc.Send(ctx, id, message)
				if err != nil {
					httpErr := fromDomainError(err)
					pushChatWS(ctx, writeCh, chatWSOutbound{Type: "error", Code: httpErr.Code, Message: apperrors.Message(err)})
					return
				}
				pushChatWS(ctx, writeCh, chatWSOutbound{Type: "reply", Reply: reply.Text})
			}(in.Message)
		}
	}
}

func pushChatWS(ctx context.Context, ch chan<- chatWSOutbound, out chatWSOutbound) {
	select {
	case <-ctx.Done():
	case ch <- out:
	}
}
