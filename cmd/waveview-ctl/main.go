// ABOUTME: Remote control CLI for a running waveview
// ABOUTME: Finds a viewer (flag or mDNS), sends one command and prints the resulting state
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/Resonate-Protocol/waveview/internal/discovery"
	"github.com/Resonate-Protocol/waveview/internal/protocol"
	"github.com/Resonate-Protocol/waveview/internal/remote"
)

var (
	addr    = flag.String("addr", "", "Viewer control address host:port (skip mDNS)")
	timeout = flag.Duration("timeout", 3*time.Second, "Discovery and reply timeout")
	verbose = flag.Bool("v", false, "Log protocol activity to stderr")
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: waveview-ctl [-addr host:port] play <seconds> | stop | toggle | mute | load <path> | state\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if !*verbose {
		log.SetOutput(io.Discard)
	}

	msgType, payload, err := parseCommand(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage()
		os.Exit(2)
	}

	target := *addr
	if target == "" {
		target, err = discover(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "no viewer found: %v\n", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	hostname, _ := os.Hostname()
	client := remote.NewControlClient(remote.ClientConfig{
		ServerAddr: target,
		Name:       fmt.Sprintf("%s-waveview-ctl", hostname),
	})
	if err := client.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "connect to %s: %v\n", target, err)
		os.Exit(1)
	}
	defer client.Close()

	// The server sends its current state right after the handshake
	state, err := awaitState(client, *timeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if msgType != protocol.TypeViewerState {
		if err := client.Send(msgType, payload); err != nil {
			fmt.Fprintf(os.Stderr, "send %s: %v\n", msgType, err)
			os.Exit(1)
		}
		// The reply is held back until the viewer has applied the command
		state, err = client.QueryState(*timeout)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	printState(state)
}

// parseCommand maps CLI arguments to a protocol message
func parseCommand(args []string) (string, interface{}, error) {
	if len(args) == 0 {
		return "", nil, fmt.Errorf("missing command")
	}

	switch args[0] {
	case "play":
		seconds := 0.0
		if len(args) > 1 {
			v, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return "", nil, fmt.Errorf("invalid seconds %q: %w", args[1], err)
			}
			seconds = v
		}
		return protocol.TypeViewerPlay, protocol.Command{Seconds: seconds}, nil
	case "stop":
		return protocol.TypeViewerStop, nil, nil
	case "toggle":
		return protocol.TypeViewerToggle, nil, nil
	case "mute":
		return protocol.TypeViewerMute, nil, nil
	case "load":
		if len(args) < 2 {
			return "", nil, fmt.Errorf("load requires a path")
		}
		return protocol.TypeViewerLoad, protocol.Command{Path: args[1]}, nil
	case "state":
		return protocol.TypeViewerState, nil, nil
	default:
		return "", nil, fmt.Errorf("unknown command %q", args[0])
	}
}

// discover returns the first viewer answering on mDNS
func discover(ctx context.Context) (string, error) {
	found, err := discovery.Browse(ctx, *timeout)
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "", fmt.Errorf("no %s service answered", discovery.ServiceType)
	}
	return found[0].Addr(), nil
}

// awaitState waits for the next state, failing on a server error
func awaitState(client *remote.ControlClient, timeout time.Duration) (protocol.ViewerState, error) {
	select {
	case s := <-client.States:
		return s, nil
	case e := <-client.Errors:
		return protocol.ViewerState{}, fmt.Errorf("viewer error: %s: %s", e.Error, e.Message)
	case <-time.After(timeout):
		return protocol.ViewerState{}, fmt.Errorf("timed out waiting for viewer state")
	}
}

func printState(state protocol.ViewerState) {
	state.Reply = false
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode state: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
