package cli

import (
	"fmt"

	"github.com/lydakis/hostbridge/internal/cred"
	"github.com/lydakis/hostbridge/internal/ipc"
	"github.com/lydakis/hostbridge/internal/mcpfront"
	"github.com/lydakis/hostbridge/internal/paths"
)

func runToken(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(rootStderr, "usage: hostbridge token set <value> | token show")
		return ipc.ExitUsageErr
	}

	switch args[0] {
	case "set":
		if len(args) != 2 || args[1] == "" {
			fmt.Fprintln(rootStderr, "usage: hostbridge token set <value>")
			return ipc.ExitUsageErr
		}
		if err := cred.Store(args[1]); err != nil {
			fmt.Fprintf(rootStderr, "hostbridge: %v\n", err)
			return ipc.ExitInternal
		}
		fmt.Fprintf(rootStdout, "token stored (%s)\n", cred.Mask(args[1]))
		return ipc.ExitOK

	case "show":
		token, source, err := cred.Token()
		if err != nil {
			fmt.Fprintf(rootStderr, "hostbridge: %v\n", err)
			return ipc.ExitCommandErr
		}
		// Never print the raw token.
		fmt.Fprintf(rootStdout, "%s (from %s)\n", cred.Mask(token), source)
		return ipc.ExitOK

	default:
		fmt.Fprintf(rootStderr, "hostbridge: unknown token subcommand: %s\n", args[0])
		return ipc.ExitUsageErr
	}
}

func runConfig(args []string) int {
	if len(args) == 1 && args[0] == "path" {
		fmt.Fprintln(rootStdout, paths.ConfigFile())
		return ipc.ExitOK
	}
	fmt.Fprintln(rootStderr, "usage: hostbridge config path")
	return ipc.ExitUsageErr
}

func runMCP() int {
	nonce, err := spawnOrConnectFn()
	if err != nil {
		fmt.Fprintf(rootStderr, "hostbridge: %v\n", err)
		return ipc.ExitInternal
	}
	client := ipc.NewClient(ipc.SocketPath(), nonce)
	if err := mcpfront.Serve(client, buildVersion); err != nil {
		fmt.Fprintf(rootStderr, "hostbridge: mcp: %v\n", err)
		return ipc.ExitInternal
	}
	return ipc.ExitOK
}
