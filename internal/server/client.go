package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 4096

	// typing produces one input frame per keystroke; the bucket absorbs
	// bursts and drops anything beyond human speed
	inputRate  = rate.Limit(25)
	inputBurst = 50
)

type Client struct {
	conn       *websocket.Conn
	gameServer *GameServer
	log        zerolog.Logger
	connId     string
	send       chan *ServerMessage
	inputLimit *rate.Limiter
	stop       chan struct{}
	stopOnce   sync.Once
}

func NewClient(connId string, conn *websocket.Conn, gs *GameServer, logger zerolog.Logger) *Client {
	return &Client{
		conn:       conn,
		gameServer: gs,
		log:        logger.With().Str("conn_id", connId).Logger(),
		connId:     connId,
		send:       make(chan *ServerMessage, 256),
		inputLimit: rate.NewLimiter(inputRate, inputBurst),
		stop:       make(chan struct{}),
	}
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.log.Debug().Msg("write exiting")
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := serializeMessage(msg)
			if err != nil {
				c.log.Error().Err(err).Msg("failed to serialize message")
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
		c.log.Debug().Msg("read exiting")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("ws read")
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Warn().Err(err).Msg("error parsing message")
			c.queueMessage(errInvalidMessage(-1))
			continue
		}

		msg.client = c
		msg.Timestamp = Now()

		switch {
		case msg.CreateUser != nil:
			c.gameServer.handleCreateUser(c, &msg)
		case msg.HostRoom != nil:
			c.gameServer.handleHostRoom(c, &msg)
		case msg.Join != nil:
			c.gameServer.handleJoin(c, &msg)
		case msg.StartGame != nil:
			c.gameServer.handleStartGame(c, &msg)
		case msg.Input != nil:
			if !c.inputLimit.Allow() {
				c.log.Warn().Msg("dropping input, rate limit exceeded")
				continue
			}
			c.gameServer.handleInput(c, &msg)
		case msg.Rejoin != nil:
			c.gameServer.handleRejoin(c, &msg)
		default:
			c.queueMessage(errInvalidMessage(msg.Id))
		}
	}
}

func (c *Client) queueMessage(msg *ServerMessage) bool {
	select {
	case c.send <- msg:
	default:
		c.log.Warn().Msg("failed to send message to client, channel is full")
		return false
	}

	return true
}

func serializeMessage(msg *ServerMessage) ([]byte, error) {
	return json.Marshal(msg)
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Warn().Err(err).Msg("write message")
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

// cleanup runs when the read pump exits. The user is not removed here: the
// game server starts the disconnect grace period so a rejoin can reclaim the
// seat.
func (c *Client) cleanup() {
	c.gameServer.DeregisterClient(c)
	c.gameServer.scheduleRemoval(c.connId)
	c.stopClient()
}
