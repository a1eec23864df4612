// Completion: 100% - Utility module complete
package main

import (
	"github.com/xyproto/env/v2"
)

// config.go - environment-driven defaults, overridable by flags

// defaultVerbose reports whether DLLMAP_VERBOSE asks for verbose output
func defaultVerbose() bool {
	return env.Bool("DLLMAP_VERBOSE")
}

// defaultMethod returns the injection method used when -method is not given
func defaultMethod() string {
	return env.Str("DLLMAP_METHOD", "manualmap")
}

// loaderReserve returns the size of the remote loader region. The
// default page is plenty; the knob exists for experiments with larger
// loader payloads.
func loaderReserve() uint32 {
	n := env.Int("DLLMAP_LOADER_RESERVE", 0x1000)
	if n < loaderDataSize {
		return 0x1000
	}
	return uint32(n)
}
