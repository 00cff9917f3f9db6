// Package cli implements the hostbridge command line: thin verbs over
// the daemon's control socket, plus token and config management that
// run locally.
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/lydakis/hostbridge/internal/bridge"
	"github.com/lydakis/hostbridge/internal/ipc"
)

var (
	rootStdout   io.Writer = os.Stdout
	rootStderr   io.Writer = os.Stderr
	buildVersion           = "dev"

	spawnOrConnectFn = bridge.SpawnOrConnect
)

func init() {
	buildVersion = resolveBuildVersion(buildVersion)
}

// Run is the main CLI entry point. Returns an exit code.
func Run(args []string) int {
	if handled, code := handleRootFlags(args); handled {
		return code
	}

	if len(args) == 0 {
		return withDaemon(runStatus)
	}

	switch args[0] {
	case "status":
		return withDaemon(runStatus)
	case "operations":
		return withDaemon(runOperations)
	case "call":
		return runCall(args[1:])
	case "pending":
		return withDaemon(runPending)
	case "reset":
		return withDaemon(runReset)
	case "stop":
		return withDaemon(runStop)
	case "token":
		return runToken(args[1:])
	case "config":
		return runConfig(args[1:])
	case "mcp":
		return runMCP()
	default:
		fmt.Fprintf(rootStderr, "hostbridge: unknown command: %s\n", args[0])
		printRootHelp(rootStderr)
		return ipc.ExitUsageErr
	}
}

func handleRootFlags(args []string) (bool, int) {
	if len(args) != 1 {
		return false, 0
	}

	switch args[0] {
	case "--version", "-V":
		fmt.Fprintf(rootStdout, "hostbridge %s\n", buildVersion)
		return true, 0
	case "--help", "-h":
		printRootHelp(rootStdout)
		return true, 0
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
	fmt.Fprintln(out, "  hostbridge [status]")
	fmt.Fprintln(out, "  hostbridge operations")
	fmt.Fprintln(out, "  hostbridge call <category> <operation> [PAYLOAD_JSON] [--cache <dur>]")
	fmt.Fprintln(out, "  hostbridge pending")
	fmt.Fprintln(out, "  hostbridge reset")
	fmt.Fprintln(out, "  hostbridge token set <value> | token show")
	fmt.Fprintln(out, "  hostbridge config path")
	fmt.Fprintln(out, "  hostbridge mcp")
	fmt.Fprintln(out, "  hostbridge stop")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Global flags:")
	fmt.Fprintln(out, "  --help, -h       Show help")
	fmt.Fprintln(out, "  --version, -V    Show version")
}

// withDaemon connects to (or spawns) the daemon and runs a verb.
func withDaemon(fn func(*ipc.Client) int) int {
	nonce, err := spawnOrConnectFn()
	if err != nil {
		fmt.Fprintf(rootStderr, "hostbridge: %v\n", err)
		return ipc.ExitInternal
	}
	return fn(ipc.NewClient(ipc.SocketPath(), nonce))
}

// forward sends a bare request and relays its output.
func forward(client *ipc.Client, req *ipc.Request) int {
	resp, err := client.Send(req)
	if err != nil {
		fmt.Fprintf(rootStderr, "hostbridge: %v\n", err)
		return ipc.ExitInternal
	}
	if resp.Stderr != "" {
		fmt.Fprintln(rootStderr, resp.Stderr)
	}
	rootStdout.Write(resp.Content) //nolint:errcheck
	return resp.ExitCode
}

func runStatus(client *ipc.Client) int {
	return forward(client, &ipc.Request{Type: "status"})
}

func runOperations(client *ipc.Client) int {
	return forward(client, &ipc.Request{Type: "operations"})
}

func runPending(client *ipc.Client) int {
	return forward(client, &ipc.Request{Type: "pending"})
}

func runReset(client *ipc.Client) int {
	return forward(client, &ipc.Request{Type: "reset"})
}

func runStop(client *ipc.Client) int {
	return forward(client, &ipc.Request{Type: "shutdown"})
}
