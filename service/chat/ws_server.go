package chat

import (
	"IMProject/logger"
	"IMProject/tools/errs"
	"IMProject/tools/ids"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWS runs one connection from handshake to close:
// resolve identity (all credential work happens before any registry lock),
// track the conn, bind if an identity was resolved, then loop over inbound
// frames until the transport drops.
func (s *Server) HandleWS(c *gin.Context) {
	ident := s.resolver.Resolve(c.Request)

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[chat] upgrade failed: %v", err)
		return
	}

	cl := NewClient(ids.GenerateString(), ws, 256)
	if err := s.reg.Track(cl); err != nil {
		logger.Errorf("[chat] track conn=%s: %v", cl.ConnID, err)
		_ = ws.Close()
		return
	}
	go cl.writePump()

	if ident.UserID != "" {
		if err := s.Bind(cl, ident.UserID, ident.Trust); err != nil {
			logger.Errorf("[chat] bind conn=%s user=%s: %v", cl.ConnID, ident.UserID, err)
		} else {
			logger.Infof("[chat] connected conn=%s user=%s trust=%s", cl.ConnID, ident.UserID, ident.Trust)
		}
	} else {
		logger.Infof("[chat] connected unbound conn=%s", cl.ConnID)
	}

	// the new conn gets the roster immediately, bound or not
	s.presence.SendTo(cl)

	s.readLoop(cl)
	s.dropConn(cl)
	logger.Infof("[chat] closed conn=%s", cl.ConnID)
}

func (s *Server) readLoop(cl *Client) {
	ws := cl.WS
	ws.SetReadLimit(1 << 20) // 1MB, images ride the REST path
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[chat] peer closed conn=%s", cl.ConnID)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[chat] read timeout conn=%s", cl.ConnID)
			} else {
				logger.Infof("[chat] read err conn=%s: %v", cl.ConnID, rerr)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))

		f, perr := ParseFrame(data)
		if perr != nil {
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Warnf("[chat] bad frame conn=%s err=%v sample=%q", cl.ConnID, perr, sample)
			cl.Enqueue(BuildError(errs.ErrBadRequest.WithDetail(perr.Error())))
			continue
		}

		if err := s.disp.Dispatch(&Context{S: s}, f, cl); err != nil {
			logger.Warnf("[chat] handle %s conn=%s: %v", f.Event, cl.ConnID, err)
			cl.Enqueue(BuildError(errs.ErrBadRequest.WithDetail(err.Error())))
		}
	}
}
