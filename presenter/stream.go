package presenter

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/omni/tokenbridge-transfers/logging"
	mw "github.com/omni/tokenbridge-transfers/presenter/http/middleware"
	"github.com/omni/tokenbridge-transfers/presenter/http/render"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// StreamTransactions upgrades the request to a websocket, sends the owner's records once
// and then every record change until the client goes away.
func (p *Presenter) StreamTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := mw.Owner(ctx)
	logger := logging.LoggerFromContext(ctx).WithField("owner", owner)

	// Subscribe before the snapshot so no change falls in between.
	updates, unsubscribe := p.store.Subscribe(owner)
	defer unsubscribe()

	txs, err := p.store.GetAll(ctx, owner)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	conn, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithError(err).Warn("can't upgrade connection")
		return
	}
	defer conn.Close()

	snapshot := make([]*TransactionInfo, len(txs))
	for i, tx := range txs {
		snapshot[i] = transactionToInfo(tx)
	}
	if err = writeJSON(conn, &StreamMessage{Event: StreamEventSnapshot, Snapshot: snapshot}); err != nil {
		logger.WithError(err).Warn("can't write snapshot")
		return
	}

	closed := make(chan struct{})
	go readPump(conn, closed)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case tx, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				return
			}
			if err = writeJSON(conn, &StreamMessage{Event: StreamEventUpdate, Transaction: transactionToInfo(tx)}); err != nil {
				logger.WithError(err).Warn("can't write update")
				return
			}
		case <-ticker.C:
			if err = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				logger.WithError(err).Debug("can't ping client")
				return
			}
		case <-closed:
			logger.Debug("stream closed by client")
			return
		case <-ctx.Done():
			return
		}
	}
}

func writeJSON(conn *websocket.Conn, msg *StreamMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

// readPump drains client frames so control messages are processed, and closes done
// once the connection fails.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
