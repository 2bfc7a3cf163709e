package gateway

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/rising-stones13/chart-trade-trainer/internal/model"
	"github.com/rising-stones13/chart-trade-trainer/internal/sim"
)

const (
	writeWait      = 10 * time.Second
	pingInterval   = 30 * time.Second
	pongWait       = 60 * time.Second
	maxMessageSize = 4096

	// Per-client intent budget. Stepping a replay by holding a key down
	// stays well under this; scripted abuse does not.
	intentRate  = 20
	intentBurst = 40
)

// Client represents a single WebSocket peer.
type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	hub     *Hub
	limiter *rate.Limiter
}

// NewClient wraps an upgraded connection. Call Run to start the pumps.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		conn:    conn,
		send:    make(chan []byte, 64),
		hub:     hub,
		limiter: rate.NewLimiter(rate.Limit(intentRate), intentBurst),
	}
}

// Run registers the client and starts its read/write pumps. The write pump
// runs on its own goroutine; the read pump blocks until disconnect.
func (c *Client) Run() {
	c.hub.AddClient(c)
	go c.writePump()
	c.readPump()
}

// intentMsg is the wire format of a client intent.
type intentMsg struct {
	Type   string  `json:"type"`
	Date   string  `json:"date,omitempty"`
	Side   string  `json:"side,omitempty"`
	Amount float64 `json:"amount,omitempty"`
	Period int     `json:"period,omitempty"`
	Target string  `json:"target,omitempty"`
	Color  string  `json:"color,omitempty"`
}

// parseIntent translates a wire intent into a simulation action.
func parseIntent(data []byte) (sim.Action, error) {
	var msg intentMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode intent: %w", err)
	}

	switch msg.Type {
	case "start_replay":
		date, err := time.Parse("2006-01-02", msg.Date)
		if err != nil {
			return nil, fmt.Errorf("start_replay: bad date %q", msg.Date)
		}
		return sim.StartReplay{Date: date}, nil
	case "advance_day":
		return sim.AdvanceDay{}, nil
	case "trade":
		side, err := parseSide(msg.Side)
		if err != nil {
			return nil, err
		}
		return sim.Trade{Side: side}, nil
	case "close_position":
		side, err := parseSide(msg.Side)
		if err != nil {
			return nil, err
		}
		return sim.ClosePosition{Side: side, Amount: msg.Amount}, nil
	case "toggle_ma":
		return sim.ToggleMA{Period: msg.Period}, nil
	case "toggle_rsi":
		return sim.ToggleRSI{}, nil
	case "toggle_macd":
		return sim.ToggleMACD{}, nil
	case "toggle_volume":
		return sim.ToggleVolume{}, nil
	case "toggle_weekly":
		return sim.ToggleWeekly{}, nil
	case "set_candle_color":
		return sim.SetCandleColor{Target: msg.Target, Color: msg.Color}, nil
	}
	return nil, fmt.Errorf("unknown intent type %q", msg.Type)
}

func parseSide(s string) (model.Side, error) {
	switch model.Side(s) {
	case model.SideLong, model.SideShort:
		return model.Side(s), nil
	}
	return "", fmt.Errorf("bad side %q", s)
}

func (c *Client) readPump() {
	defer func() {
		c.hub.RemoveClient(c)
		c.conn.Close()
		log.Println("[gateway] ws client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		if !c.limiter.Allow() {
			if c.hub.Metrics != nil {
				c.hub.Metrics.IntentsThrottled.Inc()
			}
			c.sendError("rate limited")
			continue
		}

		action, err := parseIntent(data)
		if err != nil {
			c.sendError(err.Error())
			continue
		}
		c.hub.Dispatch(action)
	}
}

func (c *Client) sendError(msg string) {
	envelope, _ := json.Marshal(map[string]string{
		"type":  "error",
		"error": msg,
	})
	select {
	case c.send <- envelope:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			// Write coalescing: batch queued envelopes into a single frame
			// with newline separators.
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(msg)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
