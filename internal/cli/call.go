package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lydakis/hostbridge/internal/ipc"
)

type callArgs struct {
	category  string
	operation string
	payload   json.RawMessage
	cacheTTL  *time.Duration
	verbose   bool
}

func runCall(args []string) int {
	parsed, err := parseCallArgs(args)
	if err != nil {
		fmt.Fprintf(rootStderr, "hostbridge: %v\n", err)
		return ipc.ExitUsageErr
	}

	return withDaemon(func(client *ipc.Client) int {
		return forward(client, &ipc.Request{
			Type:      "call",
			Category:  parsed.category,
			Operation: parsed.operation,
			Payload:   parsed.payload,
			Cache:     parsed.cacheTTL,
			Verbose:   parsed.verbose,
		})
	})
}

func parseCallArgs(args []string) (callArgs, error) {
	parsed := callArgs{}
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--verbose" || arg == "-v":
			parsed.verbose = true
		case arg == "--cache":
			if i+1 >= len(args) {
				return callArgs{}, fmt.Errorf("--cache requires a duration")
			}
			i++
			d, err := time.ParseDuration(args[i])
			if err != nil {
				return callArgs{}, fmt.Errorf("invalid --cache duration %q", args[i])
			}
			parsed.cacheTTL = &d
		case strings.HasPrefix(arg, "--cache="):
			d, err := time.ParseDuration(strings.TrimPrefix(arg, "--cache="))
			if err != nil {
				return callArgs{}, fmt.Errorf("invalid --cache duration %q", arg)
			}
			parsed.cacheTTL = &d
		case strings.HasPrefix(arg, "-"):
			return callArgs{}, fmt.Errorf("unsupported flag: %s", arg)
		default:
			positional = append(positional, arg)
		}
	}

	if len(positional) < 2 {
		return callArgs{}, fmt.Errorf("usage: hostbridge call <category> <operation> [PAYLOAD_JSON]")
	}
	parsed.category = positional[0]
	parsed.operation = positional[1]

	if len(positional) > 3 {
		return callArgs{}, fmt.Errorf("too many arguments: payload must be a single JSON object")
	}
	if len(positional) == 3 {
		raw := []byte(positional[2])
		var probe map[string]any
		if err := json.Unmarshal(raw, &probe); err != nil {
			return callArgs{}, fmt.Errorf("payload must be a JSON object: %v", err)
		}
		parsed.payload = raw
	}
	return parsed, nil
}
