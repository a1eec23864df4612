// Completion: 100% - CLI interface complete, all flags working
package main

import (
	"flag"
	"fmt"
	"os"
)

// A manual-mapping DLL injector for 64-bit Windows

const versionString = "dllmap 1.2.0"

// Global flags for controlling output verbosity
var VerboseMode bool
var QuietMode bool

// statusf narrates an injection stage to stderr (suppressed by -q)
func statusf(format string, args ...interface{}) {
	if QuietMode {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// warnf reports a non-fatal problem to stderr
func warnf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}

func main() {
	// NOTE: Go's flag package stops parsing at the first non-flag
	// argument, so flags must come BEFORE the subcommand:
	// dllmap -v inject notepad.exe payload.dll
	var versionShort = flag.Bool("V", false, "print version information and exit")
	var version = flag.Bool("version", false, "print version information and exit")
	var verbose = flag.Bool("v", false, "verbose mode (show emitted loader bytes and symbol addresses)")
	var verboseLong = flag.Bool("verbose", false, "verbose mode (show emitted loader bytes and symbol addresses)")
	var quiet = flag.Bool("q", false, "quiet mode (suppress stage narration)")
	var quietLong = flag.Bool("quiet", false, "quiet mode (suppress stage narration)")
	var pidFlag = flag.Uint("p", 0, "target process id (alternative to naming the process)")
	var methodFlag = flag.String("method", defaultMethod(), "injection method (manualmap, loadlibrary)")
	flag.Parse()

	if *version || *versionShort {
		fmt.Println(versionString)
		os.Exit(0)
	}

	// Set global verbosity flags (use whichever was specified)
	VerboseMode = *verbose || *verboseLong || defaultVerbose()
	QuietMode = *quiet || *quietLong

	err := RunCLI(flag.Args(), *methodFlag, uint32(*pidFlag))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
