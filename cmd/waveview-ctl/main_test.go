// ABOUTME: Tests for the remote control CLI
// ABOUTME: Tests argument parsing into protocol messages
package main

import (
	"testing"

	"github.com/Resonate-Protocol/waveview/internal/protocol"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		args     []string
		msgType  string
		payload  interface{}
		hasError bool
	}{
		{[]string{"play", "1.5"}, protocol.TypeViewerPlay, protocol.Command{Seconds: 1.5}, false},
		{[]string{"play"}, protocol.TypeViewerPlay, protocol.Command{}, false},
		{[]string{"play", "soon"}, "", nil, true},
		{[]string{"stop"}, protocol.TypeViewerStop, nil, false},
		{[]string{"toggle"}, protocol.TypeViewerToggle, nil, false},
		{[]string{"mute"}, protocol.TypeViewerMute, nil, false},
		{[]string{"load", "/tmp/a.wav"}, protocol.TypeViewerLoad, protocol.Command{Path: "/tmp/a.wav"}, false},
		{[]string{"load"}, "", nil, true},
		{[]string{"state"}, protocol.TypeViewerState, nil, false},
		{[]string{"rewind"}, "", nil, true},
		{nil, "", nil, true},
	}

	for _, tt := range tests {
		msgType, payload, err := parseCommand(tt.args)
		if (err != nil) != tt.hasError {
			t.Errorf("parseCommand(%v): expected error=%v, got %v", tt.args, tt.hasError, err)
			continue
		}
		if msgType != tt.msgType {
			t.Errorf("parseCommand(%v): expected type %q, got %q", tt.args, tt.msgType, msgType)
		}
		if payload != tt.payload {
			t.Errorf("parseCommand(%v): expected payload %v, got %v", tt.args, tt.payload, payload)
		}
	}
}
