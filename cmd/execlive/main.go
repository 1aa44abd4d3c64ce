// Package main provides the execlive CLI, a voice-driven executive
// assistant on the Gemini Live API.
//
// Usage:
//
//	execlive [flags] <command> [args]
//
// Commands:
//
//	run       - Talk to the assistant through the default audio devices
//	config    - Configuration management
//	tools     - Inspect and invoke the tool catalog
//	personas  - List assistant personas
//	devices   - List host audio devices
//	version   - Show version information
//
// Configuration:
//
//	The CLI stores configuration in ~/.execlive/execlive/
//	Use 'execlive config' commands to manage contexts.
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/execlive/cmd/execlive/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
