package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"text/tabwriter"

	"github.com/lydakis/sitectl/internal/api"
	"github.com/lydakis/sitectl/internal/config"
	"github.com/lydakis/sitectl/internal/logging"
	"github.com/lydakis/sitectl/internal/mcpserve"
	"github.com/lydakis/sitectl/internal/paths"
	"github.com/lydakis/sitectl/internal/response"
	"github.com/lydakis/sitectl/internal/transport"
	"go.uber.org/zap"
)

// Run is the main CLI entry point. Returns an exit code.
func Run(args []string) int {
	if handled, code := handleRootFlags(args); handled {
		return code
	}

	// config subcommands must work even when the file on disk is broken.
	if len(args) > 0 && args[0] == "config" {
		return runConfigCommand(args[1:], paths.ConfigFile(), rootStdout, rootStderr)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(rootStderr, "sitectl: %v\n", err)
		return ExitInternal
	}
	if verr := config.Validate(cfg); verr != nil {
		fmt.Fprintf(rootStderr, "sitectl: invalid config: %v\n", verr)
		return ExitUsageErr
	}

	if len(args) == 0 {
		listOperations(rootStdout)
		return ExitOK
	}

	sess, err := newSession(cfg)
	if err != nil {
		fmt.Fprintf(rootStderr, "sitectl: %v\n", err)
		return ExitInternal
	}
	defer sess.logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "contact":
		return runContact(ctx, sess.svc, sess.logger, args[1:], rootStdout, rootStderr)
	case "listen":
		return runListen(ctx, cfg, sess.logger, args[1:], rootStdout, rootStderr)
	case "mcp":
		return runMCP(sess, args[1:], rootStderr)
	}

	return runOperation(ctx, sess.svc, args[0], args[1:], os.Stdin, stdinIsTTY(os.Stdin), rootStdout, rootStderr)
}

// session holds the components built from a validated config.
type session struct {
	logger *zap.Logger
	svc    *api.Service
}

func newSession(cfg *config.Config) (*session, error) {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	client := transport.New(cfg.BaseURL,
		transport.WithTimeout(cfg.RequestTimeout()),
		transport.WithLogger(logger),
	)
	client.SetHeaders(cfg.Headers)
	return &session{
		logger: logger,
		svc:    api.NewService(client),
	}, nil
}

func runMCP(sess *session, args []string, stderr io.Writer) int {
	flags, err := parseFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, "sitectl: %v\n", err)
		return ExitUsageErr
	}
	addr, err := stringFlag(flags, "http")
	if err != nil || len(flags) > 1 || (len(flags) == 1 && addr == "") {
		fmt.Fprintln(stderr, "sitectl: usage: sitectl mcp [--http ADDR]")
		return ExitUsageErr
	}

	if addr != "" {
		err = mcpserve.ServeHTTP(sess.svc, buildVersion, sess.logger, addr)
	} else {
		err = mcpserve.ServeStdio(sess.svc, buildVersion, sess.logger)
	}
	if err != nil {
		fmt.Fprintf(stderr, "sitectl: %v\n", err)
		return ExitInternal
	}
	return ExitOK
}

func listOperations(out io.Writer) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, ep := range api.Endpoints() {
		fmt.Fprintf(tw, "%s\t%s %s\t%s\n", ep.Name, ep.Method, ep.Path, ep.Description)
	}
	tw.Flush() //nolint:errcheck
}

func runOperation(ctx context.Context, c mcpserve.Caller, name string, rawArgs []string, stdin io.Reader, stdinTTY bool, stdout, stderr io.Writer) int {
	ep, ok := api.Lookup(name)
	if !ok {
		fmt.Fprintf(stderr, "sitectl: unknown operation: %s\n", name)
		fmt.Fprintf(stderr, "Available operations:\n")
		for _, e := range api.Endpoints() {
			fmt.Fprintf(stderr, "  %s\n", e.Name)
		}
		return ExitUsageErr
	}

	parsed, err := parseCallArgs(rawArgs, stdin, stdinTTY)
	if err != nil {
		fmt.Fprintf(stderr, "sitectl: %v\n", err)
		return ExitUsageErr
	}
	if parsed.help {
		printOperationHelp(stdout, ep)
		return ExitOK
	}

	var (
		opts     []transport.RequestOption
		progress *progressPrinter
	)
	if ep.Multipart && !parsed.quiet {
		progress = &progressPrinter{out: stderr}
		opts = append(opts, transport.WithProgress(progress.update))
	}

	res, err := c.Call(ctx, ep.Name, parsed.opArgs, opts...)
	progress.finish()
	if err != nil {
		if !parsed.quiet {
			writeCallError(stderr, ep.Name, err)
		}
		return exitCodeFor(err)
	}

	stdout.Write(response.Render(res)) //nolint:errcheck
	return ExitOK
}

func writeCallError(stderr io.Writer, op string, err error) {
	fmt.Fprintf(stderr, "sitectl: %s: %v\n", op, err)
	var statusErr *transport.StatusError
	if errors.As(err, &statusErr) && len(statusErr.Body) > 0 {
		stderr.Write(ensureNewline(statusErr.Body)) //nolint:errcheck
	}
}

func printOperationHelp(out io.Writer, ep api.Endpoint) {
	fmt.Fprintf(out, "Usage: sitectl %s [--key value ... | JSON]\n", ep.Name)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, ep.Description)
	fmt.Fprintln(out, "")
	fmt.Fprintf(out, "  %s %s\n", ep.Method, ep.Path)
	if len(ep.Args) == 0 {
		return
	}
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Arguments:")
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, arg := range ep.Args {
		note := arg.Description
		if arg.Required {
			if note != "" {
				note += " "
			}
			note += "(required)"
		}
		fmt.Fprintf(tw, "  --%s\t%s\n", arg.Name, note)
	}
	tw.Flush() //nolint:errcheck
}

// progressPrinter renders upload progress on one terminal line. The
// transport may call update from its body-writing goroutine.
type progressPrinter struct {
	out     io.Writer
	printed atomic.Bool
}

func (p *progressPrinter) update(percent float64) {
	p.printed.Store(true)
	fmt.Fprintf(p.out, "\rsitectl: uploading %3.0f%%", percent)
}

func (p *progressPrinter) finish() {
	if p != nil && p.printed.Load() {
		fmt.Fprintln(p.out)
	}
}

func ensureNewline(b []byte) []byte {
	if len(b) == 0 || b[len(b)-1] == '\n' {
		return b
	}
	return append(append([]byte(nil), b...), '\n')
}

func stdinIsTTY(file *os.File) bool {
	info, err := file.Stat()
	if err != nil {
		return true
	}
	return info.Mode()&fs.ModeCharDevice != 0
}
