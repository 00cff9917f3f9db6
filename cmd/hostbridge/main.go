package main

import (
	"fmt"
	"os"

	"github.com/lydakis/hostbridge/internal/bridge"
	"github.com/lydakis/hostbridge/internal/cli"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "__daemon" {
		if err := bridge.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "hostbridge daemon: %v\n", err)
			os.Exit(1)
		}
		return
	}

	code := cli.Run(os.Args[1:])
	os.Exit(code)
}
