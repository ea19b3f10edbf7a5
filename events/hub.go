package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/contrib/websocket"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"github.com/superpet-labs/petchain/ledger"
	"github.com/superpet-labs/petchain/types"
)

const (
	shutdownPollInterval = 200 * time.Millisecond
	writeDeadline        = 5 * time.Second
)

// connAndDone carries a websocket connection together with a channel the
// hub loop uses to signal the web handler that registration completed.
type connAndDone struct {
	connection *websocket.Conn
	doneChan   chan bool
}

// Hub broadcasts finalized events to websocket subscribers. Events queue up
// during a tick and are flushed to every connection once the tick's heights
// are finalized.
type Hub struct {
	connections map[*websocket.Conn]bool
	broadcast   chan []byte
	flush       chan bool
	register    chan connAndDone
	unregister  chan connAndDone
	shutdown    chan bool
	queue       [][]byte
	isRunning   atomic.Bool
}

// envelope is the wire form of a broadcast event.
type envelope struct {
	Kind   string       `json:"kind"`
	Height uint64       `json:"height"`
	Data   ledger.Event `json:"data"`
}

func NewHub() *Hub {
	h := &Hub{
		connections: map[*websocket.Conn]bool{},
		broadcast:   make(chan []byte),
		flush:       make(chan bool),
		register:    make(chan connAndDone),
		unregister:  make(chan connAndDone),
		shutdown:    make(chan bool),
		queue:       make([][]byte, 0),
	}
	go h.run()
	return h
}

// EmitEvent queues an event for the next flush.
func (h *Hub) EmitEvent(height types.Height, ev ledger.Event) error {
	data, err := json.Marshal(envelope{
		Kind:   ev.Kind().String(),
		Height: uint64(height),
		Data:   ev,
	})
	if err != nil {
		return eris.Wrap(err, "must use a json serializable type for emitting events")
	}
	h.broadcast <- data
	return nil
}

// FlushEvents sends every queued event to every subscriber and empties the
// queue. Called once per finalized tick.
func (h *Hub) FlushEvents() {
	h.flush <- true
}

func (h *Hub) RegisterConnection(ws *websocket.Conn) {
	done := make(chan bool)
	h.register <- connAndDone{connection: ws, doneChan: done}
	<-done
}

func (h *Hub) UnregisterConnection(ws *websocket.Conn) {
	done := make(chan bool)
	h.unregister <- connAndDone{connection: ws, doneChan: done}
	<-done
}

func (h *Hub) Shutdown() {
	h.shutdown <- true
	for h.isRunning.Load() {
		time.Sleep(shutdownPollInterval)
	}
}

func (h *Hub) run() {
	if h.isRunning.Load() {
		return
	}
	h.isRunning.Store(true)
	closeConnection := func(conn *websocket.Conn) {
		if _, ok := h.connections[conn]; ok {
			delete(h.connections, conn)
			if err := eris.Wrap(conn.Close(), ""); err != nil {
				log.Logger.Error().Err(err).Msg(eris.ToString(err, true))
			}
		}
	}
Loop:
	for h.isRunning.Load() {
		select {
		case cd := <-h.register:
			h.connections[cd.connection] = true
			cd.doneChan <- true
		case cd := <-h.unregister:
			closeConnection(cd.connection)
			cd.doneChan <- true
		case event := <-h.broadcast:
			h.queue = append(h.queue, event)
		case <-h.flush:
			var wg sync.WaitGroup
			for conn := range h.connections {
				wg.Add(1)
				conn := conn
				go func() {
					defer wg.Done()
					for _, event := range h.queue {
						if err := conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
							go h.UnregisterConnection(conn)
							log.Logger.Error().Err(eris.Wrap(err, "")).Msg("dropping slow websocket subscriber")
							break
						}
						if err := conn.WriteMessage(websocket.TextMessage, event); err != nil {
							go h.UnregisterConnection(conn)
							log.Logger.Error().Err(eris.Wrap(err, "")).Msg("websocket write failed")
							break
						}
					}
				}()
			}
			wg.Wait()
			h.queue = h.queue[:0]
		case <-h.shutdown:
			go func() {
				for range h.shutdown { //nolint:revive // drains the channel until closed
				}
			}()
			for conn := range h.connections {
				closeConnection(conn)
			}
			break Loop
		}
	}
	h.isRunning.Store(false)
}

// NewWebSocketEventHandler returns the connection handler the HTTP server
// mounts on the events route. The hub owns the connection after upgrade.
func (h *Hub) NewWebSocketEventHandler() func(conn *websocket.Conn) {
	return func(conn *websocket.Conn) {
		h.RegisterConnection(conn)
		// Reads are discarded; the events route is broadcast only. The read
		// loop exists to notice the peer going away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		h.UnregisterConnection(conn)
	}
}
