// Package bridge connects to a remote serial-bridge server over a
// websocket and exposes the bridged DLTS port as an io.ReadWriter.
// The bridge relays raw bytes in both directions inside small JSON
// frames, so a scanner in the lab can be driven from anywhere the
// bridge is reachable.
package bridge

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

// Frame is one hop of bridged port data.
type Frame struct {
	Port string `json:"P"`
	Data string `json:"D"` // base64 raw bytes
}

type message struct {
	done    chan struct{}
	payload []byte
}

// Client is a websocket serial-bridge connection for one named port.
// It reconnects on failure; writes block until handed to the socket.
type Client struct {
	url  string
	port string

	outgoing chan message
	incoming chan []byte

	readBuf []byte

	closeCh chan struct{}
}

// NewClient starts a bridge client for the named port on the given
// websocket URL.
func NewClient(url, port string) *Client {
	c := &Client{
		url:      url,
		port:     port,
		outgoing: make(chan message, 1000),
		incoming: make(chan []byte, 1000),
		closeCh:  make(chan struct{}),
	}

	go c.loop()

	return c
}

// Close stops the reconnect loop. In-flight writes are abandoned.
func (c *Client) Close() error {
	close(c.closeCh)
	return nil
}

// Read returns bridged bytes as they arrive, buffering any surplus of
// the last frame.
func (c *Client) Read(p []byte) (int, error) {
	if len(c.readBuf) == 0 {
		select {
		case <-c.closeCh:
			return 0, io.ErrClosedPipe
		case data := <-c.incoming:
			c.readBuf = data
		}
	}
	n := copy(p, c.readBuf)
	c.readBuf = c.readBuf[n:]
	return n, nil
}

// Write queues p for the bridged port and blocks until it has been
// written to the socket.
func (c *Client) Write(p []byte) (int, error) {
	frame, err := json.Marshal(Frame{
		Port: c.port,
		Data: base64.StdEncoding.EncodeToString(p),
	})
	if err != nil {
		// shouldn't happen since we control everything that's sent out
		log.Panicln("ERROR: bridge write (marshal):", err)
	}

	ch := make(chan struct{})
	select {
	case c.outgoing <- message{done: ch, payload: frame}:
	case <-c.closeCh:
		return 0, io.ErrClosedPipe
	}
	select {
	case <-ch:
	case <-c.closeCh:
		return 0, io.ErrClosedPipe
	}
	return len(p), nil
}

func (c *Client) readLoop(ws *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			log.Println("ERROR: bridge read:", err)
			return
		}
		var f Frame
		err = json.Unmarshal(data, &f)
		if err != nil {
			log.Println("ERROR: bridge parse:", err)
			continue
		}
		if f.Port != c.port {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(f.Data)
		if err != nil {
			log.Println("ERROR: bridge decode:", err)
			continue
		}
		select {
		case c.incoming <- raw:
		case <-c.closeCh:
			return
		}
	}
}

func (c *Client) loop() {
	var nextUp message

reconnect:
	for {
		select {
		case <-c.closeCh:
			return
		default:
		}

		log.Println("Connecting to", c.url)
		ws, _, err := websocket.DefaultDialer.Dial(c.url, nil)
		if err != nil {
			log.Println("ERROR: bridge connect:", err)
			time.Sleep(3 * time.Second)
			continue
		}
		log.Println("Connected.")
		ch := make(chan struct{})
		go c.readLoop(ws, ch)

		for {
			if nextUp.done != nil {
				err = ws.WriteMessage(websocket.TextMessage, nextUp.payload)
				if err != nil {
					log.Println("ERROR: bridge send:", err)
					continue reconnect
				}
				close(nextUp.done)
				nextUp.done = nil
			}

			select {
			case <-c.closeCh:
				ws.Close()
				return
			case <-ch:
				continue reconnect
			case nextUp = <-c.outgoing:
			}
		}
	}
}
