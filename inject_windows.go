//go:build windows
// +build windows

// Completion: 100% - Manual-mapping injection complete
package main

import (
	"os"
)

// Inject manually maps the DLL at dllPath into the given process. A
// true result means a remote thread running the in-target loader was
// spawned, not that DllMain succeeded; post-spawn failures happen in
// the target and cannot be reported back.
func Inject(proc ProcessInfo, dllPath string) bool {
	data, err := os.ReadFile(dllPath)
	if err != nil {
		warnf("cannot read %s: %v", dllPath, err)
		return false
	}
	statusf("read %s (%d bytes)", dllPath, len(data))

	sys, err := ResolveSystemSymbols()
	if err != nil {
		warnf("%v", err)
		return false
	}

	target, err := OpenTarget(proc.PID)
	if err != nil {
		warnf("%v", err)
		return false
	}
	defer target.Close()
	statusf("opened process [%d] %s", proc.PID, proc.Name)

	mapped, err := InjectImage(target, data, sys, loaderReserve())
	if err != nil {
		warnf("%v", err)
		return false
	}

	statusf("mapped %s at 0x%x (0x%x bytes), loader at 0x%x", dllPath, mapped.ImageBase, mapped.ImageSize, mapped.LoaderBase)
	return true
}
