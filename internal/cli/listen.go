package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/lydakis/sitectl/internal/config"
	"github.com/lydakis/sitectl/internal/httpheaders"
	"github.com/lydakis/sitectl/internal/realtime"
	"go.uber.org/zap"
)

type listenArgs struct {
	url    string
	events []string
	emits  []realtime.Envelope
	help   bool
}

// parseListenArgs reads [URL] [EVENT...] [--emit NAME=JSON ...]. The first
// positional argument is taken as the URL when it carries a scheme.
func parseListenArgs(args []string) (listenArgs, error) {
	var parsed listenArgs
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-h" || arg == "--help":
			parsed.help = true
		case arg == "--emit" || strings.HasPrefix(arg, "--emit="):
			raw := strings.TrimPrefix(arg, "--emit=")
			if arg == "--emit" {
				if i+1 >= len(args) {
					return listenArgs{}, fmt.Errorf("missing value for --emit")
				}
				i++
				raw = args[i]
			}
			env, err := parseEmit(raw)
			if err != nil {
				return listenArgs{}, err
			}
			parsed.emits = append(parsed.emits, env)
		case strings.HasPrefix(arg, "-"):
			return listenArgs{}, fmt.Errorf("unsupported flag for listen: %s", arg)
		case parsed.url == "" && len(parsed.events) == 0 && strings.Contains(arg, "://"):
			parsed.url = arg
		default:
			parsed.events = append(parsed.events, arg)
		}
	}
	return parsed, nil
}

func parseEmit(raw string) (realtime.Envelope, error) {
	name, payload, hasPayload := strings.Cut(raw, "=")
	if name == "" {
		return realtime.Envelope{}, fmt.Errorf("invalid --emit value %q: want NAME or NAME=JSON", raw)
	}
	env := realtime.Envelope{Event: name}
	if hasPayload && payload != "" {
		if !json.Valid([]byte(payload)) {
			return realtime.Envelope{}, fmt.Errorf("invalid --emit payload for %s: not JSON", name)
		}
		env.Data = json.RawMessage(payload)
	}
	return env, nil
}

func runListen(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string, stdout, stderr io.Writer) int {
	parsed, err := parseListenArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "sitectl: %v\n", err)
		return ExitUsageErr
	}
	if parsed.help {
		printListenHelp(stdout)
		return ExitOK
	}
	if parsed.url == "" {
		parsed.url = cfg.Realtime.URL
	}
	if parsed.url == "" {
		fmt.Fprintf(stderr, "sitectl: no event channel url: pass one or set realtime.url in %s\n", config.ExampleConfigPath())
		return ExitUsageErr
	}

	gaveUp := make(chan struct{})
	var gaveUpOnce sync.Once
	ch := realtime.New(
		realtime.WithLogger(logger),
		realtime.WithBaseDelay(cfg.Realtime.Delay()),
		realtime.WithMaxAttempts(cfg.Realtime.MaxAttempts()),
		realtime.WithHeader(handshakeHeader(cfg.Headers)),
		realtime.WithGiveUp(func() { gaveUpOnce.Do(func() { close(gaveUp) }) }),
	)
	listenOn(ch, parsed, &lineWriter{out: stdout})

	if err := ch.Connect(ctx, parsed.url); err != nil {
		fmt.Fprintf(stderr, "sitectl: %v\n", err)
		return ExitUsageErr
	}

	select {
	case <-ctx.Done():
		ch.Disconnect()
		return ExitOK
	case <-gaveUp:
		fmt.Fprintf(stderr, "sitectl: lost connection to %s\n", parsed.url)
		return ExitRemoteErr
	}
}

// listenOn wires handlers for every requested event. The connect handler
// replays --emit messages so they reach each new connection.
func listenOn(ch *realtime.Channel, parsed listenArgs, w *lineWriter) {
	requested := make(map[string]bool, len(parsed.events))
	for _, name := range parsed.events {
		requested[name] = true
		ch.On(name, func(data json.RawMessage) {
			w.writeEvent(name, data)
		})
	}

	ch.On(realtime.EventConnect, func(data json.RawMessage) {
		if requested[realtime.EventConnect] {
			w.writeEvent(realtime.EventConnect, data)
		}
		for _, env := range parsed.emits {
			if len(env.Data) == 0 {
				ch.Emit(env.Event, nil)
				continue
			}
			ch.Emit(env.Event, env.Data)
		}
	})
}

func handshakeHeader(headers map[string]string) http.Header {
	h := make(http.Header)
	httpheaders.Apply(h, headers)
	h.Del("Content-Type")
	h.Del("X-Requested-With")
	return h
}

// lineWriter serialises event lines written from the channel's read loop.
type lineWriter struct {
	mu  sync.Mutex
	out io.Writer
}

func (w *lineWriter) writeEvent(name string, data json.RawMessage) {
	line, err := json.Marshal(realtime.Envelope{Event: name, Data: data})
	if err != nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.out.Write(append(line, '\n')) //nolint:errcheck
}

func printListenHelp(out io.Writer) {
	fmt.Fprintln(out, "Usage: sitectl listen [URL] [EVENT...] [--emit NAME=JSON ...]")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Connect to the event channel and print each named event as a JSON line")
	fmt.Fprintln(out, "until interrupted. URL defaults to realtime.url from the config file.")
	fmt.Fprintln(out, "--emit messages are sent after every successful (re)connect.")
}
