// Command flowlens analyzes Node-RED workspaces.
//
//	flowlens serve --config flowlens.yaml
//	flowlens analyze flows.json --format text
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
