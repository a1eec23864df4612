//go:build !windows
// +build !windows

// Completion: 100% - Module complete
package main

import "fmt"

// Non-Windows stubs: dump works anywhere, process access does not.

// ListProcesses is only implemented on Windows
func ListProcesses() ([]ProcessInfo, error) {
	return nil, fmt.Errorf("process enumeration requires Windows")
}

// FindProcess is only implemented on Windows
func FindProcess(name string) (ProcessInfo, error) {
	return ProcessInfo{}, fmt.Errorf("process lookup requires Windows")
}

// Inject is only implemented on Windows
func Inject(proc ProcessInfo, dllPath string) bool {
	warnf("manual mapping requires Windows")
	return false
}

// InjectLoadLibrary is only implemented on Windows
func InjectLoadLibrary(proc ProcessInfo, dllPath string) bool {
	warnf("LoadLibrary injection requires Windows")
	return false
}
