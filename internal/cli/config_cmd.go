package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lydakis/sitectl/internal/config"
	"github.com/lydakis/sitectl/internal/paths"
)

const redacted = "<redacted>"

func runConfigCommand(args []string, path string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		printConfigHelp(stdout)
		if len(args) == 0 {
			return ExitUsageErr
		}
		return ExitOK
	}

	switch args[0] {
	case "path":
		fmt.Fprintln(stdout, path)
		return ExitOK
	case "init":
		return runConfigInit(args[1:], path, stdout, stderr)
	case "show":
		return runConfigShow(path, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "sitectl: unknown config command: %s\n", args[0])
		return ExitUsageErr
	}
}

func runConfigInit(args []string, path string, stdout, stderr io.Writer) int {
	force := false
	for _, arg := range args {
		switch arg {
		case "--force", "-f":
			force = true
		default:
			fmt.Fprintf(stderr, "sitectl: unsupported flag for config init: %s\n", arg)
			return ExitUsageErr
		}
	}

	if _, err := os.Stat(path); err == nil && !force {
		fmt.Fprintf(stderr, "sitectl: %s already exists (use --force to overwrite)\n", path)
		return ExitUsageErr
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(stderr, "sitectl: %v\n", err)
		return ExitInternal
	}

	cfg := config.Default()
	cfg.Log.File = paths.LogFile()
	if err := config.SaveTo(path, cfg); err != nil {
		fmt.Fprintf(stderr, "sitectl: %v\n", err)
		return ExitInternal
	}
	fmt.Fprintf(stdout, "wrote %s\n", path)
	return ExitOK
}

func runConfigShow(path string, stdout, stderr io.Writer) int {
	cfg, err := config.LoadFrom(path)
	if err != nil {
		fmt.Fprintf(stderr, "sitectl: %v\n", err)
		return ExitInternal
	}
	if err := toml.NewEncoder(stdout).Encode(redactConfig(cfg)); err != nil {
		fmt.Fprintf(stderr, "sitectl: %v\n", err)
		return ExitInternal
	}
	if verr := config.Validate(cfg); verr != nil {
		fmt.Fprintf(stderr, "sitectl: invalid config: %v\n", verr)
		return ExitUsageErr
	}
	return ExitOK
}

// redactConfig returns a copy of cfg with credential headers masked.
func redactConfig(cfg *config.Config) *config.Config {
	out := config.Clone(cfg)
	for name := range out.Headers {
		if isSecretHeader(name) {
			out.Headers[name] = redacted
		}
	}
	return out
}

func isSecretHeader(name string) bool {
	lower := strings.ToLower(name)
	switch lower {
	case "authorization", "cookie", "proxy-authorization":
		return true
	}
	return strings.Contains(lower, "token") || strings.Contains(lower, "secret") || strings.Contains(lower, "api-key")
}

func printConfigHelp(out io.Writer) {
	fmt.Fprintln(out, "Usage: sitectl config <init|show|path>")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "  init [--force]   Write a default config file")
	fmt.Fprintln(out, "  show             Print the effective config with credentials masked")
	fmt.Fprintln(out, "  path             Print the config file location")
}
