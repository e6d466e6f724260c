// ABOUTME: Entry point for the waveview waveform viewer
// ABOUTME: Parses CLI flags, wires audio output, viewer, TUI, remote control and file watching
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/Resonate-Protocol/waveview/internal/protocol"
	"github.com/Resonate-Protocol/waveview/internal/remote"
	"github.com/Resonate-Protocol/waveview/internal/render"
	"github.com/Resonate-Protocol/waveview/internal/ui"
	"github.com/Resonate-Protocol/waveview/internal/version"
	"github.com/Resonate-Protocol/waveview/internal/viewer"
	"github.com/Resonate-Protocol/waveview/internal/watch"
	"github.com/Resonate-Protocol/waveview/pkg/audio/decode"
	"github.com/Resonate-Protocol/waveview/pkg/audio/output"
)

var (
	file        = flag.String("file", "", "Audio file to open (WAV, MP3, FLAC, Ogg Vorbis, Ogg Opus); also accepted as the first argument")
	height      = flag.Int("height", 12, "Waveform height in terminal rows")
	logFile     = flag.String("log-file", "waveview.log", "Log file path")
	noTUI       = flag.Bool("no-tui", false, "Run without the TUI, driven only by remote control; logs stream to stdout")
	noAudio     = flag.Bool("no-audio", false, "Disable audio output")
	sampleRate  = flag.Int("rate", 48000, "Output device sample rate")
	pcm         = flag.String("pcm", "", "Read headerless little-endian PCM in this rate:channels:bits format (e.g. 44100:2:16)")
	watchFile   = flag.Bool("watch", false, "Reload the file when it changes on disk")
	controlPort = flag.Int("control-port", 0, "Remote control websocket port (0 = disabled)")
	name        = flag.String("name", "", "Viewer friendly name (default: hostname-waveview)")
	enableMDNS  = flag.Bool("mdns", false, "Advertise the remote control endpoint via mDNS")
	fps         = flag.Int("fps", 60, "Frame rate while playing")
	debug       = flag.Bool("debug", false, "Enable debug logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	path := *file
	if path == "" && flag.NArg() > 0 {
		path = flag.Arg(0)
	}

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if *noTUI {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	} else {
		// The terminal belongs to the TUI
		log.SetOutput(f)
	}

	viewerName := *name
	if viewerName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		viewerName = fmt.Sprintf("%s-waveview", hostname)
	}

	log.Printf("Starting %s: %s", version.String(), viewerName)
	if *noTUI && *controlPort == 0 {
		log.Printf("Warning: -no-tui without -control-port leaves nothing to drive the viewer")
	}

	decoder, err := openDecoder()
	if err != nil {
		log.Fatalf("%v", err)
	}

	engine := openEngine()
	defer func() {
		if err := engine.Close(); err != nil {
			log.Printf("Error closing audio output: %v", err)
		}
	}()

	canvas := render.NewCanvas(0, *height)
	v := viewer.New(engine, decoder, canvas)
	defer v.Close()

	// The program is created after the hooks, which reach the remote server and
	// watcher through these variables
	var (
		srv     *remote.Server
		watcher *watch.Watcher
	)

	model := ui.NewModel(ui.Options{
		Viewer: v,
		Canvas: canvas,
		Rows:   *height,
		FPS:    *fps,
		Path:   path,
		Hooks: ui.Hooks{
			State: func(state viewer.State, source string) {
				if srv != nil {
					srv.Publish(stateMessage(state, source))
				}
			},
			Loaded: func(loaded string) {
				if watcher == nil {
					return
				}
				if err := watcher.Watch(loaded); err != nil {
					log.Printf("Failed to watch %s: %v", loaded, err)
				}
			},
		},
	})

	program := ui.NewProgram(model, *noTUI)
	ctrl := ui.NewController(program)

	if *watchFile {
		watcher, err = watch.New(watch.DefaultDebounce, ctrl.Load)
		if err != nil {
			log.Printf("File watching disabled: %v", err)
			watcher = nil
		} else {
			defer watcher.Close()
		}
	}

	if *controlPort > 0 {
		srv = remote.New(remote.Config{
			Port:       *controlPort,
			Name:       viewerName,
			EnableMDNS: *enableMDNS,
			Debug:      *debug,
		}, ctrl)

		go func() {
			if err := srv.Start(); err != nil {
				log.Printf("Remote control stopped: %v", err)
			}
		}()
		defer srv.Stop()
	}

	if _, err := program.Run(); err != nil {
		log.Printf("TUI error: %v", err)
	}

	log.Printf("Viewer stopped")
}

// openEngine opens the audio device, falling back to silent output
func openEngine() output.Engine {
	if *noAudio {
		log.Printf("Audio output disabled")
		return output.NewNull()
	}

	engine, err := output.NewOto(*sampleRate, 2)
	if err != nil {
		log.Printf("Failed to open audio output, continuing silently: %v", err)
		return output.NewNull()
	}
	return engine
}

// stateMessage converts a viewer snapshot for the remote control protocol
func stateMessage(state viewer.State, source string) protocol.ViewerState {
	return protocol.ViewerState{
		Loaded:      state.Loaded,
		Playing:     state.Playing,
		Muted:       state.Muted,
		CurrentTime: state.Position,
		Duration:    state.Duration,
		SampleRate:  state.SampleRate,
		Zoom:        state.Zoom,
		Offset:      state.Offset,
		Source:      source,
	}
}

// openDecoder returns the container registry, or a raw PCM decoder when -pcm is set
func openDecoder() (decode.Decoder, error) {
	if *pcm == "" {
		return decode.NewRegistry(), nil
	}
	format, err := decode.ParsePCMFormat(*pcm)
	if err != nil {
		return nil, err
	}
	d, err := decode.NewPCM(format)
	if err != nil {
		return nil, fmt.Errorf("-pcm: %w", err)
	}
	log.Printf("Decoding input as raw PCM: %dHz %dch %d-bit", format.SampleRate, format.Channels, format.BitDepth)
	return d, nil
}
