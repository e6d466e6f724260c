// ABOUTME: Tests for the remote control server and client
// ABOUTME: Runs the control endpoint on httptest and drives it with the control client
package remote

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Resonate-Protocol/waveview/internal/protocol"
	"github.com/Resonate-Protocol/waveview/internal/version"
)

// recordingDispatcher records every call and signals on calls
type recordingDispatcher struct {
	mu    sync.Mutex
	calls []string
	args  []interface{}
	ch    chan struct{}
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{ch: make(chan struct{}, 10)}
}

func (d *recordingDispatcher) record(call string, arg interface{}) {
	d.mu.Lock()
	d.calls = append(d.calls, call)
	d.args = append(d.args, arg)
	d.mu.Unlock()
	d.ch <- struct{}{}
}

func (d *recordingDispatcher) Play(seconds float64) { d.record("play", seconds) }
func (d *recordingDispatcher) Stop()                { d.record("stop", nil) }
func (d *recordingDispatcher) Toggle()              { d.record("toggle", nil) }
func (d *recordingDispatcher) ToggleMute()          { d.record("mute", nil) }
func (d *recordingDispatcher) Load(path string)     { d.record("load", path) }

// Sync answers at once; recorded commands already ran synchronously
func (d *recordingDispatcher) Sync(done func()) { done() }

func (d *recordingDispatcher) wait(t *testing.T) (string, interface{}) {
	t.Helper()
	select {
	case <-d.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dispatch")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[len(d.calls)-1], d.args[len(d.args)-1]
}

func startTestServer(t *testing.T) (*Server, *recordingDispatcher, string) {
	t.Helper()
	d := newRecordingDispatcher()
	srv := New(Config{Name: "test-viewer"}, d)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, d, strings.TrimPrefix(ts.URL, "http://")
}

func connect(t *testing.T, addr, id string) *ControlClient {
	t.Helper()
	c := NewControlClient(ClientConfig{ServerAddr: addr, ClientID: id, Name: "test-ctl"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func nextState(t *testing.T, c *ControlClient) protocol.ViewerState {
	t.Helper()
	select {
	case s := <-c.States:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for state")
	}
	return protocol.ViewerState{}
}

func nextError(t *testing.T, c *ControlClient) protocol.Error {
	t.Helper()
	select {
	case e := <-c.Errors:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error")
	}
	return protocol.Error{}
}

func TestHandshake(t *testing.T) {
	srv, _, addr := startTestServer(t)
	srv.Publish(protocol.ViewerState{Loaded: true, Duration: 3})

	c := connect(t, addr, "")

	if c.Server.ServerID != srv.ID() {
		t.Errorf("expected server id %s, got %s", srv.ID(), c.Server.ServerID)
	}
	if c.Server.Name != "test-viewer" || c.Server.Version != version.Version {
		t.Errorf("unexpected server hello: %+v", c.Server)
	}

	state := nextState(t, c)
	if !state.Loaded || state.Duration != 3 {
		t.Errorf("expected initial state to be the published one, got %+v", state)
	}
}

func TestCommandsAreDispatched(t *testing.T) {
	_, d, addr := startTestServer(t)
	c := connect(t, addr, "cmds")
	nextState(t, c)

	tests := []struct {
		msgType string
		payload interface{}
		call    string
		arg     interface{}
	}{
		{protocol.TypeViewerPlay, protocol.Command{Seconds: 1.5}, "play", 1.5},
		{protocol.TypeViewerStop, nil, "stop", nil},
		{protocol.TypeViewerToggle, nil, "toggle", nil},
		{protocol.TypeViewerMute, nil, "mute", nil},
		{protocol.TypeViewerLoad, protocol.Command{Path: "/tmp/x.flac"}, "load", "/tmp/x.flac"},
	}

	for _, tt := range tests {
		if err := c.Send(tt.msgType, tt.payload); err != nil {
			t.Fatalf("send %s failed: %v", tt.msgType, err)
		}
		call, arg := d.wait(t)
		if call != tt.call || arg != tt.arg {
			t.Errorf("%s: expected %s(%v), got %s(%v)", tt.msgType, tt.call, tt.arg, call, arg)
		}
	}
}

func TestStateQuery(t *testing.T) {
	srv, _, addr := startTestServer(t)
	c := connect(t, addr, "query")
	nextState(t, c)

	srv.Publish(protocol.ViewerState{Loaded: true, CurrentTime: 0.25})
	nextState(t, c)
	srv.Publish(protocol.ViewerState{Loaded: true, CurrentTime: 0.5})

	if err := c.RequestState(); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if s := nextState(t, c); s.CurrentTime != 0.5 {
		t.Errorf("expected cached position 0.5, got %f", s.CurrentTime)
	}
}

// queueDispatcher applies commands on its own goroutine in arrival order,
// publishing the result the way the UI event loop does
type queueDispatcher struct {
	srv   *Server
	queue chan func()
}

func newQueueDispatcher() *queueDispatcher {
	d := &queueDispatcher{queue: make(chan func(), 16)}
	go func() {
		for fn := range d.queue {
			fn()
		}
	}()
	return d
}

func (d *queueDispatcher) Play(seconds float64) {
	d.queue <- func() {
		time.Sleep(20 * time.Millisecond)
		d.srv.Publish(protocol.ViewerState{Loaded: true, Playing: true, CurrentTime: seconds, Duration: 2})
	}
}

func (d *queueDispatcher) Stop() {
	d.queue <- func() { d.srv.Publish(protocol.ViewerState{Loaded: true, Duration: 2}) }
}

func (d *queueDispatcher) Toggle()          {}
func (d *queueDispatcher) ToggleMute()      {}
func (d *queueDispatcher) Load(path string) {}
func (d *queueDispatcher) Sync(done func()) { d.queue <- done }

func TestStateReplyFollowsAsyncCommand(t *testing.T) {
	d := newQueueDispatcher()
	srv := New(Config{Name: "async-viewer"}, d)
	d.srv = srv
	srv.Publish(protocol.ViewerState{Loaded: true, Duration: 2})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	c := connect(t, strings.TrimPrefix(ts.URL, "http://"), "async")
	if s := nextState(t, c); s.Playing {
		t.Fatalf("expected stopped initial state, got %+v", s)
	}

	if err := c.Play(0.5); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	state, err := c.QueryState(2 * time.Second)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if !state.Playing || state.CurrentTime != 0.5 || !state.Reply {
		t.Errorf("expected reply showing playback from 0.5, got %+v", state)
	}

	if err := c.Send(protocol.TypeViewerStop, nil); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	state, err = c.QueryState(2 * time.Second)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if state.Playing {
		t.Errorf("expected reply after stop to be stopped, got %+v", state)
	}
}

func TestPublishBroadcastsPhaseChanges(t *testing.T) {
	srv, _, addr := startTestServer(t)
	c := connect(t, addr, "watcher")
	nextState(t, c)

	srv.Publish(protocol.ViewerState{Loaded: true, Playing: true, CurrentTime: 0.1})
	if s := nextState(t, c); !s.Playing {
		t.Errorf("expected playing broadcast, got %+v", s)
	}

	// Position-only change is cached but not pushed
	srv.Publish(protocol.ViewerState{Loaded: true, Playing: true, CurrentTime: 0.2})
	select {
	case s := <-c.States:
		t.Errorf("unexpected broadcast for position change: %+v", s)
	case <-time.After(100 * time.Millisecond):
	}

	srv.Publish(protocol.ViewerState{Loaded: true, Muted: true, Playing: true, CurrentTime: 0.3})
	if s := nextState(t, c); !s.Muted || s.CurrentTime != 0.3 {
		t.Errorf("expected mute broadcast, got %+v", s)
	}
}

func TestUnknownCommand(t *testing.T) {
	_, _, addr := startTestServer(t)
	c := connect(t, addr, "unknown")
	nextState(t, c)

	if err := c.Send("viewer/rewind", nil); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if e := nextError(t, c); e.Error != protocol.ErrUnknownCommand {
		t.Errorf("expected %s, got %+v", protocol.ErrUnknownCommand, e)
	}
}

func TestLoadRequiresPath(t *testing.T) {
	_, _, addr := startTestServer(t)
	c := connect(t, addr, "load")
	nextState(t, c)

	if err := c.Send(protocol.TypeViewerLoad, protocol.Command{}); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if e := nextError(t, c); e.Error != protocol.ErrInvalidPayload {
		t.Errorf("expected %s, got %+v", protocol.ErrInvalidPayload, e)
	}
}

func TestDuplicateClientRejected(t *testing.T) {
	srv, _, addr := startTestServer(t)
	connect(t, addr, "same-id")

	c := NewControlClient(ClientConfig{ServerAddr: addr, ClientID: "same-id", Name: "second"})
	err := c.Connect(context.Background())
	if err == nil || !strings.Contains(err.Error(), protocol.ErrDuplicateClientID) {
		t.Errorf("expected duplicate rejection, got %v", err)
	}
	if srv.ClientCount() != 1 {
		t.Errorf("expected one client, got %d", srv.ClientCount())
	}
}

func TestIncompatibleVersionRejected(t *testing.T) {
	_, _, addr := startTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+ControlPath, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	hello := protocol.Message{
		Type: protocol.TypeClientHello,
		Payload: protocol.ClientHello{
			ClientID: "old",
			Name:     "old-ctl",
			Version:  version.Semver().IncMajor().String(),
		},
	}
	if err := conn.WriteJSON(hello); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	var e protocol.Error
	protocol.DecodePayload(msg.Payload, &e)
	if msg.Type != protocol.TypeServerError || e.Error != protocol.ErrIncompatible {
		t.Errorf("expected incompatible version error, got %s %+v", msg.Type, e)
	}
}

func TestBadHandshake(t *testing.T) {
	_, _, addr := startTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+ControlPath, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(protocol.Message{Type: protocol.TypeViewerPlay}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var msg protocol.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if msg.Type != protocol.TypeServerError {
		t.Errorf("expected server/error, got %s", msg.Type)
	}
}

func TestSamePhase(t *testing.T) {
	a := protocol.ViewerState{Loaded: true, Playing: true, CurrentTime: 1}
	b := a
	b.CurrentTime = 2
	if !samePhase(a, b) {
		t.Error("expected position-only change to be the same phase")
	}
	b.Zoom = 2
	if samePhase(a, b) {
		t.Error("expected zoom change to differ")
	}
}
