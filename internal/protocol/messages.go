// ABOUTME: Remote control protocol message type definitions
// ABOUTME: Defines the envelope, handshake, command and state payloads exchanged over websocket
package protocol

import (
	"encoding/json"
	"fmt"
)

// Message types
const (
	TypeClientHello  = "client/hello"
	TypeServerHello  = "server/hello"
	TypeServerError  = "server/error"
	TypeViewerState  = "viewer/state"
	TypeViewerPlay   = "viewer/play"
	TypeViewerStop   = "viewer/stop"
	TypeViewerToggle = "viewer/toggle"
	TypeViewerMute   = "viewer/mute"
	TypeViewerLoad   = "viewer/load"
)

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// ClientHello is sent by clients to initiate the handshake
type ClientHello struct {
	ClientID   string      `json:"client_id"`
	Name       string      `json:"name"`
	Version    string      `json:"version"`
	DeviceInfo *DeviceInfo `json:"device_info,omitempty"`
}

// DeviceInfo contains device identification
type DeviceInfo struct {
	ProductName     string `json:"product_name"`
	Manufacturer    string `json:"manufacturer"`
	SoftwareVersion string `json:"software_version"`
}

// ServerHello is the server's response to client/hello
type ServerHello struct {
	ServerID string `json:"server_id"`
	Name     string `json:"name"`
	Version  string `json:"version"`
}

// Command is the payload of viewer/* requests. Seconds applies to viewer/play,
// Path to viewer/load.
type Command struct {
	Seconds float64 `json:"seconds,omitempty"`
	Path    string  `json:"path,omitempty"`
}

// ViewerState reports the viewer's current state (viewer/state)
type ViewerState struct {
	Loaded      bool    `json:"loaded"`
	Playing     bool    `json:"playing"`
	Muted       bool    `json:"muted"`
	CurrentTime float64 `json:"current_time"`
	Duration    float64 `json:"duration"`
	SampleRate  int     `json:"sample_rate,omitempty"`
	Zoom        float64 `json:"zoom"`
	Offset      float64 `json:"offset"`
	Source      string  `json:"source,omitempty"`

	// Reply marks the answer to a viewer/state request
	Reply bool `json:"reply,omitempty"`
}

// Error is the payload of server/error
type Error struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrBadHandshake      = "bad_handshake"
	ErrIncompatible      = "incompatible_version"
	ErrDuplicateClientID = "duplicate_client_id"
	ErrUnknownCommand    = "unknown_command"
	ErrInvalidPayload    = "invalid_payload"
)

// DecodePayload re-decodes a generic payload into v
func DecodePayload(payload interface{}, v interface{}) error {
	if payload == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return nil
}
