//go:build windows
// +build windows

// Completion: 100% - Remote memory and thread primitives complete
package main

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// remote_windows.go - the RemoteProcess implementation backed by a real
// process handle. x/sys/windows has no typed wrappers for the four
// cross-process kernel32 calls used here, so they go through
// NewLazySystemDLL like the other APIs of that kind in the wild.

var (
	modkernel32              = windows.NewLazySystemDLL("kernel32.dll")
	procVirtualAllocEx       = modkernel32.NewProc("VirtualAllocEx")
	procVirtualFreeEx        = modkernel32.NewProc("VirtualFreeEx")
	procWriteProcessMemory   = modkernel32.NewProc("WriteProcessMemory")
	procCreateRemoteThreadEx = modkernel32.NewProc("CreateRemoteThreadEx")
)

// Target owns a full-access handle to the target process for the
// duration of one injection attempt
type Target struct {
	handle windows.Handle
	pid    uint32
}

// OpenTarget opens the process with the access rights injection needs
// (read, write, allocate, query, thread creation)
func OpenTarget(pid uint32) (*Target, error) {
	handle, err := windows.OpenProcess(windows.PROCESS_ALL_ACCESS, false, pid)
	if err != nil {
		return nil, injectErrorf(KindOpenFailed, "open process", err, "cannot open pid %d", pid)
	}
	return &Target{handle: handle, pid: pid}, nil
}

// Close releases the process handle
func (t *Target) Close() error {
	if t.handle == 0 {
		return nil
	}
	err := windows.CloseHandle(t.handle)
	t.handle = 0
	return err
}

// Alloc reserves and commits an RWX region, at preferred when nonzero
func (t *Target) Alloc(preferred uintptr, size uintptr) (uintptr, error) {
	base, _, err := procVirtualAllocEx.Call(
		uintptr(t.handle),
		preferred,
		size,
		uintptr(windows.MEM_RESERVE|windows.MEM_COMMIT),
		uintptr(windows.PAGE_EXECUTE_READWRITE))
	if base == 0 {
		return 0, fmt.Errorf("VirtualAllocEx: %v", err)
	}
	return base, nil
}

// Free releases a region allocated by Alloc
func (t *Target) Free(base uintptr, size uintptr) error {
	// MEM_RELEASE requires a zero size
	_ = size
	ret, _, err := procVirtualFreeEx.Call(
		uintptr(t.handle),
		base,
		0,
		uintptr(windows.MEM_RELEASE))
	if ret == 0 {
		return fmt.Errorf("VirtualFreeEx: %v", err)
	}
	return nil
}

// WriteMemory copies data into the target at addr
func (t *Target) WriteMemory(addr uintptr, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	var written uintptr
	ret, _, err := procWriteProcessMemory.Call(
		uintptr(t.handle),
		addr,
		uintptr(unsafe.Pointer(&data[0])),
		uintptr(len(data)),
		uintptr(unsafe.Pointer(&written)))
	if ret == 0 {
		return fmt.Errorf("WriteProcessMemory: %v", err)
	}
	if written != uintptr(len(data)) {
		return fmt.Errorf("WriteProcessMemory: short write (%d of %d bytes)", written, len(data))
	}
	return nil
}

// SpawnThread starts a remote thread at start with the given argument.
// The thread handle is closed immediately: the loader is neither joined
// nor cancellable once running.
func (t *Target) SpawnThread(start, param uintptr) error {
	thread, _, err := procCreateRemoteThreadEx.Call(
		uintptr(t.handle),
		0, // security attributes
		0, // default stack size
		start,
		param,
		0, // run immediately
		0, // attribute list
		0) // thread id out
	if thread == 0 {
		return fmt.Errorf("CreateRemoteThreadEx: %v", err)
	}
	windows.CloseHandle(windows.Handle(thread))
	return nil
}
