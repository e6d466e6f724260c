// ABOUTME: Websocket remote control server for the viewer
// ABOUTME: Manages control connections, forwards commands and broadcasts viewer state
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Resonate-Protocol/waveview/internal/discovery"
	"github.com/Resonate-Protocol/waveview/internal/protocol"
	"github.com/Resonate-Protocol/waveview/internal/version"
)

// ControlPath is the websocket endpoint
const ControlPath = "/control"

// Dispatcher carries out commands. Implementations must be safe for concurrent use.
// Commands may be applied asynchronously but in the order they were dispatched.
type Dispatcher interface {
	Play(seconds float64)
	Stop()
	Toggle()
	ToggleMute()
	Load(path string)

	// Sync calls done once every earlier command has been applied and its
	// state published
	Sync(done func())
}

// Config holds server configuration
type Config struct {
	Port       int
	Name       string
	EnableMDNS bool
	Debug      bool
}

// Server accepts remote control connections
type Server struct {
	config     Config
	serverID   string
	dispatcher Dispatcher

	upgrader   websocket.Upgrader
	httpServer *http.Server
	mux        *http.ServeMux

	// Client management
	clients   map[string]*Client
	clientsMu sync.RWMutex

	// Last published state
	state   protocol.ViewerState
	stateMu sync.RWMutex

	mdnsManager *discovery.Manager

	// Control
	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// Client is a connected controller
type Client struct {
	ID   string
	Name string
	Conn *websocket.Conn

	sendChan chan interface{}
}

// New creates a server forwarding commands to dispatcher
func New(config Config, dispatcher Dispatcher) *Server {
	s := &Server{
		config:     config,
		serverID:   uuid.New().String(),
		dispatcher: dispatcher,
		mux:        http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Control clients are local tools, not browsers
				origin := r.Header.Get("Origin")
				if origin != "" {
					log.Printf("Warning: accepting control connection from origin: %s", origin)
				}
				return true
			},
		},
		clients:  make(map[string]*Client),
		stopChan: make(chan struct{}),
	}
	s.mux.HandleFunc(ControlPath, s.handleWebSocket)
	return s
}

// ID returns the server's unique id
func (s *Server) ID() string {
	return s.serverID
}

// Handler returns the HTTP handler serving the control endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until Stop is called or the listener fails
func (s *Server) Start() error {
	log.Printf("Remote control starting: %s (ID: %s)", s.config.Name, s.serverID)

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
		})
		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		}
	}

	addr := fmt.Sprintf(":%d", s.config.Port)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}
	log.Printf("Remote control listening on %s%s", addr, ControlPath)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case <-s.stopChan:
		log.Printf("Remote control shutting down...")
	case err := <-errChan:
		log.Printf("Remote control server error: %v", err)
		serverErr = err
	}

	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("Remote control shutdown error: %v", err)
	}

	s.closeClients()
	s.wg.Wait()

	if serverErr != nil {
		return fmt.Errorf("remote control server failed: %w", serverErr)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// Publish caches the latest state and broadcasts it when something other than
// the playback position changed
func (s *Server) Publish(state protocol.ViewerState) {
	s.stateMu.Lock()
	changed := !samePhase(s.state, state)
	s.state = state
	s.stateMu.Unlock()

	if changed {
		s.broadcast(protocol.TypeViewerState, state)
	}
}

// State returns the last published state
func (s *Server) State() protocol.ViewerState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// ClientCount returns the number of connected controllers
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// samePhase compares everything except the running position
func samePhase(a, b protocol.ViewerState) bool {
	a.CurrentTime, b.CurrentTime = 0, 0
	return a == b
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New control connection from %s", r.RemoteAddr)
	s.handleConnection(conn)
}

// handleConnection runs the handshake and then the read loop for one controller
func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		log.Printf("Rejecting connection during shutdown")
		return
	}
	s.shutdownMu.RUnlock()

	hello, err := s.readHello(conn)
	if err != nil {
		log.Printf("Handshake failed: %v", err)
		writeError(conn, protocol.ErrBadHandshake, err.Error())
		return
	}
	if err := version.Check(hello.Version); err != nil {
		log.Printf("Rejecting %s: %v", hello.Name, err)
		writeError(conn, protocol.ErrIncompatible, err.Error())
		return
	}

	log.Printf("Client hello: %s (ID: %s, version %s)", hello.Name, hello.ClientID, hello.Version)

	client := &Client{
		ID:       hello.ClientID,
		Name:     hello.Name,
		Conn:     conn,
		sendChan: make(chan interface{}, 100),
	}

	s.clientsMu.Lock()
	if existing, exists := s.clients[client.ID]; exists {
		s.clientsMu.Unlock()
		log.Printf("Client ID %s already connected (name: %s), rejecting duplicate", client.ID, existing.Name)
		writeError(conn, protocol.ErrDuplicateClientID, "Client ID already connected")
		return
	}
	s.clients[client.ID] = client
	s.clientsMu.Unlock()

	defer s.removeClient(client)

	serverHello := protocol.ServerHello{
		ServerID: s.serverID,
		Name:     s.config.Name,
		Version:  version.Version,
	}
	if err := s.sendMessage(client, protocol.TypeServerHello, serverHello); err != nil {
		log.Printf("Error sending server hello: %v", err)
		return
	}
	if err := s.sendMessage(client, protocol.TypeViewerState, s.State()); err != nil {
		log.Printf("Error sending initial state: %v", err)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(client)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
		s.handleClientMessage(client, data)
	}
}

// readHello waits for client/hello and validates it
func (s *Server) readHello(conn *websocket.Conn) (*protocol.ClientHello, error) {
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	defer conn.SetReadDeadline(time.Time{})

	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("failed to read hello: %w", err)
	}

	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	if msg.Type != protocol.TypeClientHello {
		return nil, fmt.Errorf("expected %s, got %s", protocol.TypeClientHello, msg.Type)
	}

	var hello protocol.ClientHello
	if err := protocol.DecodePayload(msg.Payload, &hello); err != nil {
		return nil, err
	}
	if hello.ClientID == "" {
		return nil, fmt.Errorf("client hello missing client_id")
	}
	if hello.Name == "" {
		return nil, fmt.Errorf("client hello missing name")
	}
	return &hello, nil
}

// removeClient unregisters client and ends its writer
func (s *Server) removeClient(client *Client) {
	s.clientsMu.Lock()
	delete(s.clients, client.ID)
	close(client.sendChan)
	s.clientsMu.Unlock()
	log.Printf("Client disconnected: %s", client.Name)
}

// closeClients closes every connection so read loops return
func (s *Server) closeClients() {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, c := range s.clients {
		c.Conn.Close()
	}
}

// clientWriter sends queued messages and keepalive pings
func (s *Server) clientWriter(client *Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	const writeDeadline = 10 * time.Second

	for {
		select {
		case msg, ok := <-client.sendChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("Error marshaling message: %v", err)
				continue
			}
			client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("Error writing message: %v", err)
				return
			}

		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

// handleClientMessage dispatches one command
func (s *Server) handleClientMessage(client *Client, data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		s.sendError(client, protocol.ErrInvalidPayload, "malformed message")
		return
	}

	var cmd protocol.Command
	if err := protocol.DecodePayload(msg.Payload, &cmd); err != nil {
		s.sendError(client, protocol.ErrInvalidPayload, err.Error())
		return
	}

	if s.config.Debug {
		log.Printf("[DEBUG] %s from %s: %+v", msg.Type, client.Name, cmd)
	}

	switch msg.Type {
	case protocol.TypeViewerPlay:
		s.dispatcher.Play(cmd.Seconds)
	case protocol.TypeViewerStop:
		s.dispatcher.Stop()
	case protocol.TypeViewerToggle:
		s.dispatcher.Toggle()
	case protocol.TypeViewerMute:
		s.dispatcher.ToggleMute()
	case protocol.TypeViewerLoad:
		if cmd.Path == "" {
			s.sendError(client, protocol.ErrInvalidPayload, "viewer/load requires a path")
			return
		}
		s.dispatcher.Load(cmd.Path)
	case protocol.TypeViewerState:
		s.dispatcher.Sync(func() { s.replyState(client) })
	default:
		log.Printf("Unknown message type: %s", msg.Type)
		s.sendError(client, protocol.ErrUnknownCommand, fmt.Sprintf("unknown command %q", msg.Type))
	}
}

// replyState answers a state request if the client is still connected
func (s *Server) replyState(client *Client) {
	state := s.State()
	state.Reply = true

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	if s.clients[client.ID] != client {
		return
	}
	if err := s.sendMessage(client, protocol.TypeViewerState, state); err != nil {
		log.Printf("Error sending state: %v", err)
	}
}

// broadcast queues a message for every client, skipping any whose buffer is full
func (s *Server) broadcast(msgType string, payload interface{}) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, c := range s.clients {
		if err := s.sendMessage(c, msgType, payload); err != nil && s.config.Debug {
			log.Printf("[DEBUG] Dropping %s for %s: %v", msgType, c.Name, err)
		}
	}
}

// sendMessage queues a JSON message for a client
func (s *Server) sendMessage(client *Client, msgType string, payload interface{}) error {
	msg := protocol.Message{
		Type:    msgType,
		Payload: payload,
	}

	select {
	case client.sendChan <- msg:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}

func (s *Server) sendError(client *Client, code, message string) {
	if err := s.sendMessage(client, protocol.TypeServerError, protocol.Error{Error: code, Message: message}); err != nil {
		log.Printf("Error sending error: %v", err)
	}
}

// writeError writes server/error directly, before the writer goroutine exists
func writeError(conn *websocket.Conn, code, message string) {
	data, err := json.Marshal(protocol.Message{
		Type:    protocol.TypeServerError,
		Payload: protocol.Error{Error: code, Message: message},
	})
	if err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	conn.WriteMessage(websocket.TextMessage, data)
}
