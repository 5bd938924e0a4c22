package cli

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
)

var (
	rootStdout   io.Writer = os.Stdout
	rootStderr   io.Writer = os.Stderr
	buildVersion           = "dev"
)

func init() {
	buildVersion = resolveBuildVersion(buildVersion)
}

func handleRootFlags(args []string) (bool, int) {
	if len(args) != 1 {
		return false, 0
	}

	switch args[0] {
	case "--version", "-V":
		fmt.Fprintf(rootStdout, "sitectl %s\n", buildVersion)
		return true, ExitOK
	case "--help", "-h":
		printRootHelp(rootStdout)
		return true, ExitOK
	default:
		return false, 0
	}
}

func resolveBuildVersion(defaultVersion string) string {
	if defaultVersion != "" && defaultVersion != "dev" {
		return defaultVersion
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return defaultVersion
	}
	if info.Main.Version == "" || info.Main.Version == "(devel)" {
		return defaultVersion
	}
	return info.Main.Version
}

func printRootHelp(out io.Writer) {
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  sitectl")
	fmt.Fprintln(out, "  sitectl <operation> [--key value ... | JSON]")
	fmt.Fprintln(out, "  sitectl contact --name NAME --email EMAIL --message TEXT [--phone P] [--subject S]")
	fmt.Fprintln(out, "  sitectl listen [URL] [EVENT...]")
	fmt.Fprintln(out, "  sitectl mcp [--http ADDR]")
	fmt.Fprintln(out, "  sitectl config <init|show|path>")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Global flags:")
	fmt.Fprintln(out, "  --help, -h       Show help")
	fmt.Fprintln(out, "  --version, -V    Show version")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Operation flags:")
	fmt.Fprintln(out, "  --quiet, -q      Suppress error output")
	fmt.Fprintln(out, "  --help, -h       Show the operation's method, path and arguments")
	fmt.Fprintln(out, "  --arg-<name>     Pass an argument whose name collides with a global flag")
}
