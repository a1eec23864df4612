//go:build windows
// +build windows

// Completion: 100% - Process enumeration complete
package main

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

// process_windows.go - candidate target enumeration via the Toolhelp32
// snapshot API (pid + image file name pairs).

// ListProcesses returns every process visible in a Toolhelp32 snapshot
func ListProcesses() ([]ProcessInfo, error) {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, fmt.Errorf("cannot snapshot process list: %v", err)
	}
	defer windows.CloseHandle(snapshot)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	var procs []ProcessInfo
	if err := windows.Process32First(snapshot, &entry); err != nil {
		return nil, fmt.Errorf("cannot read first process entry: %v", err)
	}
	for {
		procs = append(procs, ProcessInfo{
			PID:  entry.ProcessID,
			Name: windows.UTF16ToString(entry.ExeFile[:]),
		})
		if err := windows.Process32Next(snapshot, &entry); err != nil {
			if errors.Is(err, windows.ERROR_NO_MORE_FILES) {
				break
			}
			return nil, fmt.Errorf("cannot read next process entry: %v", err)
		}
	}
	return procs, nil
}

// FindProcess returns the first process whose image name matches name
// (case-insensitive, with or without the .exe suffix)
func FindProcess(name string) (ProcessInfo, error) {
	procs, err := ListProcesses()
	if err != nil {
		return ProcessInfo{}, err
	}
	want := strings.ToLower(name)
	for _, p := range procs {
		have := strings.ToLower(p.Name)
		if have == want || strings.TrimSuffix(have, ".exe") == want {
			return p, nil
		}
	}
	return ProcessInfo{}, fmt.Errorf("no process named %q", name)
}
