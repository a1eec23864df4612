// Completion: 100% - Module complete
package main

import (
	"fmt"
	"os"
)

// pe_dump.go - 'dllmap dump': print what the mapper would work with.
// Runs on any OS, which makes it the quickest way to check that a DLL
// is mappable before walking over to a Windows box.

var directoryNames = [16]string{
	"Export", "Import", "Resource", "Exception", "Security", "BaseReloc",
	"Debug", "Architecture", "GlobalPtr", "TLS", "LoadConfig", "BoundImport",
	"IAT", "DelayImport", "COMDescriptor", "Reserved",
}

// DumpFile parses path as a PE32+ image and prints its layout
func DumpFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %v", path, err)
	}

	img, err := ParseImage(data)
	if err != nil {
		return fmt.Errorf("%s: %v", path, err)
	}

	coff := img.COFF()
	opt := img.Optional()

	fmt.Printf("%s: PE32+ %s\n", path, map[bool]string{true: "DLL", false: "executable"}[img.IsDLL()])
	fmt.Printf("  Machine:             0x%04x\n", coff.Machine)
	fmt.Printf("  Sections:            %d\n", coff.NumberOfSections)
	fmt.Printf("  ImageBase:           0x%x\n", opt.ImageBase)
	fmt.Printf("  SizeOfImage:         0x%x\n", opt.SizeOfImage)
	fmt.Printf("  SizeOfHeaders:       0x%x\n", opt.SizeOfHeaders)
	fmt.Printf("  AddressOfEntryPoint: 0x%x\n", opt.AddressOfEntryPoint)

	fmt.Println("  Section table:")
	for i, s := range img.Sections() {
		fmt.Printf("    [%d] %-8s VirtualAddress=0x%08x VirtualSize=0x%x SizeOfRawData=0x%x PointerToRawData=0x%x\n",
			i, s.GetName(), s.VirtualAddress, s.VirtualSize, s.SizeOfRawData, s.PointerToRawData)
	}

	fmt.Println("  Data directories:")
	for i, name := range directoryNames {
		dir := img.Directory(i)
		if dir.Size == 0 && dir.VirtualAddress == 0 {
			continue
		}
		fmt.Printf("    %-14s VirtualAddress=0x%08x Size=0x%x\n", name, dir.VirtualAddress, dir.Size)
	}

	if modules, err := img.ImportedModules(); err == nil && len(modules) > 0 {
		fmt.Println("  Imports:")
		for _, m := range modules {
			fmt.Printf("    %s\n", m)
		}
	} else if err != nil {
		warnf("import table: %v", err)
	}

	exports, err := img.Exports()
	if err != nil {
		warnf("export table: %v", err)
	} else if len(exports) > 0 {
		fmt.Printf("  Exports (%d):\n", len(exports))
		for _, e := range exports {
			fmt.Printf("    %s (ordinal %d, RVA 0x%x)\n", e.Name, e.Ordinal, e.RVA)
		}
	}

	return nil
}
