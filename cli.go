// Completion: 100% - Utility module complete
package main

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// cli.go - command-line interface for dllmap
//
// Subcommands:
// - dllmap list [filter] (enumerate candidate target processes)
// - dllmap inject <pid-or-name> <file.dll> (map the DLL into the target)
// - dllmap dump <file.dll> (print PE headers, sections and exports)
// - dllmap <file.dll> (shorthand for dump)
//
// list and inject require Windows; dump works anywhere.

// RunCLI is the main entry point for the CLI. It determines which
// command to run based on arguments.
func RunCLI(args []string, method string, pid uint32) error {
	if len(args) == 0 {
		return cmdHelp()
	}

	subcmd := args[0]

	switch subcmd {
	case "list":
		filter := ""
		if len(args) > 1 {
			filter = args[1]
		}
		return cmdList(filter)

	case "inject":
		rest := args[1:]
		var targetArg, dllPath string
		switch {
		case pid != 0 && len(rest) == 1:
			dllPath = rest[0]
		case len(rest) == 2:
			targetArg, dllPath = rest[0], rest[1]
		default:
			return fmt.Errorf("usage: dllmap [-p pid] [-method m] inject [<pid-or-name>] <file.dll>")
		}
		return cmdInject(targetArg, pid, dllPath, method)

	case "dump":
		if len(args) < 2 {
			return fmt.Errorf("usage: dllmap dump <file.dll>")
		}
		return DumpFile(args[1])

	case "help", "--help", "-h":
		return cmdHelp()

	case "version", "--version", "-V":
		fmt.Println(versionString)
		return nil

	default:
		// Check if it's a .dll file (shorthand for dump)
		if strings.HasSuffix(strings.ToLower(subcmd), ".dll") {
			return DumpFile(subcmd)
		}

		// Unknown command
		return fmt.Errorf("unknown command: %s\n\nRun 'dllmap help' for usage information", subcmd)
	}
}

func cmdList(filter string) error {
	procs, err := ListProcesses()
	if err != nil {
		return err
	}
	filter = strings.ToLower(filter)
	for _, p := range procs {
		if filter != "" && !strings.Contains(strings.ToLower(p.Name), filter) {
			continue
		}
		fmt.Printf("[%8d] %s\n", p.PID, p.Name)
	}
	return nil
}

func cmdInject(targetArg string, pid uint32, dllPath, method string) error {
	if runtime.GOOS != "windows" {
		return fmt.Errorf("inject requires Windows (use 'dllmap dump' to inspect the DLL here)")
	}

	proc, err := resolveTarget(targetArg, pid)
	if err != nil {
		return err
	}

	var ok bool
	switch method {
	case "manualmap":
		ok = Inject(proc, dllPath)
	case "loadlibrary":
		ok = InjectLoadLibrary(proc, dllPath)
	default:
		return fmt.Errorf("unknown injection method: %s (supported: manualmap, loadlibrary)", method)
	}
	if !ok {
		return fmt.Errorf("injection into [%d] %s failed", proc.PID, proc.Name)
	}
	return nil
}

// resolveTarget turns an explicit pid or a process-name argument into a
// ProcessInfo via the process list.
func resolveTarget(targetArg string, pid uint32) (ProcessInfo, error) {
	if pid != 0 {
		procs, err := ListProcesses()
		if err != nil {
			return ProcessInfo{}, err
		}
		for _, p := range procs {
			if p.PID == pid {
				return p, nil
			}
		}
		return ProcessInfo{PID: pid, Name: "?"}, nil
	}
	if targetArg == "" {
		return ProcessInfo{}, fmt.Errorf("no target process given (name or -p pid)")
	}
	if n, err := strconv.ParseUint(targetArg, 10, 32); err == nil {
		return resolveTarget("", uint32(n))
	}
	return FindProcess(targetArg)
}

func cmdHelp() error {
	fmt.Println(versionString)
	fmt.Println(`
Usage:
  dllmap list [filter]                      List processes (pid + image name)
  dllmap inject <pid-or-name> <file.dll>    Manually map the DLL into the target
  dllmap dump <file.dll>                    Print PE headers, sections and exports
  dllmap help                               Show this help
  dllmap version                            Show version

Flags (before the subcommand):
  -p pid        target process id
  -method m     injection method: manualmap (default) or loadlibrary
  -v, -verbose  show emitted loader bytes and resolved symbol addresses
  -q, -quiet    suppress stage narration
  -V, -version  print version and exit

Environment:
  DLLMAP_VERBOSE         default for -v
  DLLMAP_METHOD          default for -method
  DLLMAP_LOADER_RESERVE  loader region size in bytes (default 4096)

The mapped image is left executable-read-write, the exception directory
is not registered, and delayed/bound imports are not resolved. The
injector and the target must both be 64-bit.`)
	return nil
}
