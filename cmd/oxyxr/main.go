// Command oxyxr drives the stereo command runtime: it simulates XR sessions against the in-memory or WebGPU
// device and prints the effective configuration.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
