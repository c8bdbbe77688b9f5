package httpd

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/paperdesk/hub"
	"github.com/rustyeddy/paperdesk/ledger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Origin enforcement belongs to the fronting proxy that also verifies
	// identity; the desk itself accepts any origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleWS upgrades the connection, binds it to a session for the verified
// account, and starts the read/write pumps. The session immediately receives
// the current market state and portfolio, then every subsequent tick and
// portfolio change in order.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	account := r.Header.Get(AccountHeader)
	if account == "" {
		account = r.URL.Query().Get("account")
	}
	if account == "" {
		writeError(w, http.StatusUnauthorized, errors.New("missing account identity"))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("httpd: ws upgrade for %s: %v", account, err)
		return
	}

	sess := hub.NewSession(account)
	if err := s.desk.Attach(sess); err != nil {
		log.Printf("httpd: ws attach for %s: %v", account, err)
		conn.Close()
		return
	}

	go s.writePump(conn, sess)
	go s.readPump(conn, sess)
}

// writePump drains the session outbox onto the connection and keeps the
// connection alive with pings. It exits when the session dies or a write
// fails.
func (s *Server) writePump(conn *websocket.Conn, sess *hub.Session) {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg := <-sess.Outbox():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.desk.Detach(sess)
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.desk.Detach(sess)
				return
			}
		case <-sess.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
			return
		}
	}
}

// wsRequest is the inbound message shape on the socket: trades and deposits
// may be submitted over the session instead of the REST endpoints.
type wsRequest struct {
	Type       string          `json:"type"`
	Side       ledger.Side     `json:"side,omitempty"`
	Instrument string          `json:"instrument,omitempty"`
	Qty        int64           `json:"qty,omitempty"`
	Amount     decimal.Decimal `json:"amount,omitempty"`
}

type wsError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// readPump consumes inbound messages until the peer goes away, then detaches
// the session. Request failures go back to the session as error events; the
// success path needs no reply because the targeted portfolio and trade events
// already cover it.
func (s *Server) readPump(conn *websocket.Conn, sess *hub.Session) {
	defer func() {
		s.desk.Detach(sess)
		conn.Close()
	}()

	conn.SetReadLimit(maxMsgSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.pushError(sess, errors.New("malformed request"))
			continue
		}

		switch req.Type {
		case "trade":
			if _, err := s.desk.Execute(sess.Account, req.Instrument, req.Side, req.Qty); err != nil {
				s.pushError(sess, err)
			}
		case "deposit":
			if _, err := s.desk.Deposit(sess.Account, req.Amount); err != nil {
				s.pushError(sess, err)
			}
		default:
			s.pushError(sess, errors.New("unknown request type"))
		}
	}
}

func (s *Server) pushError(sess *hub.Session, err error) {
	s.desk.PushTo(sess, wsError{Type: "error", Error: err.Error()})
}
