// Completion: 100% - Module complete
package main

// ProcessInfo identifies a candidate target process
type ProcessInfo struct {
	PID  uint32
	Name string // image file name, e.g. "notepad.exe"
}
