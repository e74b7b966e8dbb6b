// Lovtrans is a voice-enabled phrase translator for travellers. It translates
// between a mother, a destination and a common language through an
// OpenAI-compatible chat-completions endpoint.
//
// Usage:
//
//	lovtrans serve [--config /path/to/lovtrans.yaml]
//	lovtrans translate "你好" --to ja --speak
//	lovtrans settings show
//	lovtrans languages --ui zh
//
// @title       lovtrans API
// @version     1.0
// @description Voice-enabled phrase translation between a traveller's mother, destination and common languages.
// @BasePath    /
package main

//go:generate swag init -d ../.. -g cmd/lovtrans/main.go -o ../../docs --parseInternal --outputTypes go

import (
	"fmt"
	"os"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
