// ABOUTME: Websocket client for the remote control protocol
// ABOUTME: Handles connection, handshake, command sending and state/error routing
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Resonate-Protocol/waveview/internal/protocol"
	"github.com/Resonate-Protocol/waveview/internal/version"
)

// ClientConfig holds client configuration
type ClientConfig struct {
	ServerAddr string
	ClientID   string
	Name       string
}

// ControlClient talks to a viewer's control endpoint
type ControlClient struct {
	config ClientConfig
	conn   *websocket.Conn
	mu     sync.RWMutex

	// Server identity from the handshake
	Server protocol.ServerHello

	// Incoming messages
	States chan protocol.ViewerState
	Errors chan protocol.Error

	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewControlClient creates a client; a missing ClientID gets a random one
func NewControlClient(config ClientConfig) *ControlClient {
	if config.ClientID == "" {
		config.ClientID = uuid.New().String()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &ControlClient{
		config: config,
		States: make(chan protocol.ViewerState, 10),
		Errors: make(chan protocol.Error, 10),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Connect dials the server and performs the handshake
func (c *ControlClient) Connect(ctx context.Context) error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: ControlPath}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()
	return nil
}

// handshake sends client/hello and waits for server/hello
func (c *ControlClient) handshake() error {
	hello := protocol.ClientHello{
		ClientID: c.config.ClientID,
		Name:     c.config.Name,
		Version:  version.Version,
		DeviceInfo: &protocol.DeviceInfo{
			ProductName:     version.Product,
			Manufacturer:    version.Manufacturer,
			SoftwareVersion: version.Version,
		},
	}

	if err := c.Send(protocol.TypeClientHello, hello); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}

	switch msg.Type {
	case protocol.TypeServerHello:
	case protocol.TypeServerError:
		var e protocol.Error
		protocol.DecodePayload(msg.Payload, &e)
		return fmt.Errorf("server rejected hello: %s: %s", e.Error, e.Message)
	default:
		return fmt.Errorf("expected server/hello, got %s", msg.Type)
	}

	if err := protocol.DecodePayload(msg.Payload, &c.Server); err != nil {
		return err
	}
	if !version.Compatible(c.Server.Version) {
		return fmt.Errorf("server version %s is incompatible with %s", c.Server.Version, version.Version)
	}

	log.Printf("Handshake complete with %s", c.Server.Name)
	return nil
}

// Send sends one message
func (c *ControlClient) Send(msgType string, payload interface{}) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteJSON(protocol.Message{Type: msgType, Payload: payload})
}

// Play asks the viewer to play from seconds
func (c *ControlClient) Play(seconds float64) error {
	return c.Send(protocol.TypeViewerPlay, protocol.Command{Seconds: seconds})
}

// Load asks the viewer to load path
func (c *ControlClient) Load(path string) error {
	return c.Send(protocol.TypeViewerLoad, protocol.Command{Path: path})
}

// RequestState asks for the current state; the reply arrives on States
func (c *ControlClient) RequestState() error {
	return c.Send(protocol.TypeViewerState, nil)
}

// QueryState requests the state and waits for the reply. The server answers
// only after every command sent before it was applied, so broadcasts that
// arrive in between are skipped.
func (c *ControlClient) QueryState(timeout time.Duration) (protocol.ViewerState, error) {
	if err := c.RequestState(); err != nil {
		return protocol.ViewerState{}, fmt.Errorf("request state: %w", err)
	}

	deadline := time.After(timeout)
	for {
		select {
		case s := <-c.States:
			if s.Reply {
				return s, nil
			}
		case e := <-c.Errors:
			return protocol.ViewerState{}, fmt.Errorf("viewer error: %s: %s", e.Error, e.Message)
		case <-deadline:
			return protocol.ViewerState{}, fmt.Errorf("timed out waiting for viewer state")
		case <-c.ctx.Done():
			return protocol.ViewerState{}, fmt.Errorf("connection closed")
		}
	}
}

// readMessages reads and routes incoming messages
func (c *ControlClient) readMessages() {
	defer c.Close()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.ctx.Done():
			default:
				log.Printf("Read error: %v", err)
			}
			return
		}
		c.handleMessage(data)
	}
}

// handleMessage routes one JSON message
func (c *ControlClient) handleMessage(data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Failed to parse JSON message: %v", err)
		return
	}

	switch msg.Type {
	case protocol.TypeViewerState:
		var state protocol.ViewerState
		if err := protocol.DecodePayload(msg.Payload, &state); err != nil {
			log.Printf("Failed to parse state: %v", err)
			return
		}
		select {
		case c.States <- state:
		case <-c.ctx.Done():
		}

	case protocol.TypeServerError:
		var e protocol.Error
		if err := protocol.DecodePayload(msg.Payload, &e); err != nil {
			log.Printf("Failed to parse error: %v", err)
			return
		}
		select {
		case c.Errors <- e:
		case <-c.ctx.Done():
		}

	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}
}

// Close closes the connection
func (c *ControlClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
	}
}

// IsConnected returns connection status
func (c *ControlClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
