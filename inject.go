// Completion: 100% - Mapping engine complete
package main

import "fmt"

// inject.go - the manual-mapping engine
//
// mapImage drives the whole sequence against an abstract target so the
// state machine (and its compensation on every failing transition) can
// be exercised without a live process:
//
//   RemoteAllocated -> ImagePlaced -> LoaderWritten -> ThreadSpawned
//
// Until the thread spawns the injector owns every remote byte it wrote
// and frees it on failure, in reverse order of acquisition. A spawned
// thread transfers ownership of both regions to the target; they are
// never freed on success.

// RemoteProcess is the memory and thread surface of an opened target
type RemoteProcess interface {
	// Alloc reserves and commits size bytes of RWX memory. A zero
	// preferred address lets the target's allocator choose.
	Alloc(preferred uintptr, size uintptr) (uintptr, error)
	// Free releases a region allocated by Alloc
	Free(base uintptr, size uintptr) error
	// WriteMemory copies data into the target at addr
	WriteMemory(addr uintptr, data []byte) error
	// SpawnThread starts a thread at start with the given argument
	SpawnThread(start, param uintptr) error
}

// SystemSymbols holds the two kernel32 addresses the in-target loader
// calls through. They are resolved in the injector and are valid in
// the target because kernel32 is mapped at one base system-wide.
type SystemSymbols struct {
	LoadLibraryA   uintptr
	GetProcAddress uintptr
}

// MappedImage describes what a successful mapping left in the target
type MappedImage struct {
	ImageBase   uintptr
	ImageSize   uint32
	LoaderBase  uintptr
	LoaderSize  uint32
	ParamOffset int
}

// mapImage places img into the target, installs the loader and spawns
// the remote thread that runs it. loaderReserve is the size of the
// loader region (image region size always equals SizeOfImage).
func mapImage(rp RemoteProcess, img *Image, sys SystemSymbols, loaderReserve uint32) (*MappedImage, error) {
	opt := img.Optional()

	// Try the preferred base first; relocation work is only needed
	// when ASLR (or another module) already took it.
	imageBase, err := rp.Alloc(uintptr(opt.ImageBase), uintptr(opt.SizeOfImage))
	if err != nil {
		if VerboseMode {
			warnf("preferred base 0x%x unavailable: %v", opt.ImageBase, err)
		}
		imageBase, err = rp.Alloc(0, uintptr(opt.SizeOfImage))
		if err != nil {
			return nil, injectErrorf(KindAllocFailed, "allocate image", err,
				"cannot allocate 0x%x bytes in target", opt.SizeOfImage)
		}
	}
	statusf("allocated 0x%x bytes for image at 0x%x", opt.SizeOfImage, imageBase)

	if uint64(imageBase) != opt.ImageBase && img.Directory(dirBaseReloc).Size == 0 {
		warnf("image rebased to 0x%x without a relocation table; absolute addresses will be stale", imageBase)
	}

	freeImage := func() {
		if ferr := rp.Free(imageBase, uintptr(opt.SizeOfImage)); ferr != nil {
			warnf("failed to free image region at 0x%x: %v", imageBase, ferr)
		}
	}

	// Sections first, headers last.
	for i := range img.Sections() {
		s := &img.Sections()[i]
		if s.SizeOfRawData == 0 {
			continue
		}
		data := img.Data()[s.PointerToRawData : s.PointerToRawData+s.SizeOfRawData]
		if err := rp.WriteMemory(imageBase+uintptr(s.VirtualAddress), data); err != nil {
			freeImage()
			return nil, injectErrorf(KindRemoteWriteFailed, "map sections", err,
				"cannot write section %s (0x%x bytes) at 0x%x",
				s.GetName(), s.SizeOfRawData, imageBase+uintptr(s.VirtualAddress))
		}
		statusf("mapped section %-8s 0x%x bytes at 0x%x", s.GetName(), s.SizeOfRawData, imageBase+uintptr(s.VirtualAddress))
	}

	headers := img.Data()[:img.HeadersSize()]
	if err := rp.WriteMemory(imageBase, headers); err != nil {
		freeImage()
		return nil, injectErrorf(KindRemoteWriteFailed, "write headers", err,
			"cannot write 0x%x header bytes at 0x%x", len(headers), imageBase)
	}
	statusf("wrote 0x%x header bytes at image base", len(headers))

	// The loader region: position-independent code followed by the
	// data record its thread argument points at. The mapped headers
	// stay intact, so the in-target re-parse starts at a real MZ.
	blob, paramOff, err := BuildLoaderBlob(LoaderData{
		ImageBase:      uint64(imageBase),
		LoadLibraryA:   uint64(sys.LoadLibraryA),
		GetProcAddress: uint64(sys.GetProcAddress),
	}, loaderReserve)
	if err != nil {
		freeImage()
		return nil, injectErrorf(KindInternal, "build loader", err, "loader assembly failed")
	}

	loaderBase, err := rp.Alloc(0, uintptr(loaderReserve))
	if err != nil {
		freeImage()
		return nil, injectErrorf(KindAllocFailed, "allocate loader", err,
			"cannot allocate 0x%x bytes for loader", loaderReserve)
	}
	statusf("allocated 0x%x bytes for loader at 0x%x", loaderReserve, loaderBase)

	freeLoader := func() {
		if ferr := rp.Free(loaderBase, uintptr(loaderReserve)); ferr != nil {
			warnf("failed to free loader region at 0x%x: %v", loaderBase, ferr)
		}
	}

	if err := rp.WriteMemory(loaderBase, blob); err != nil {
		freeLoader()
		freeImage()
		return nil, injectErrorf(KindRemoteWriteFailed, "write loader", err,
			"cannot write loader blob at 0x%x", loaderBase)
	}
	statusf("wrote loader (%d code bytes, data record at +0x%x)", paramOff, paramOff)

	if err := rp.SpawnThread(loaderBase, loaderBase+uintptr(paramOff)); err != nil {
		freeLoader()
		freeImage()
		return nil, injectErrorf(KindThreadCreateFailed, "spawn thread", err,
			"cannot create remote thread at 0x%x", loaderBase)
	}
	statusf("remote thread started at 0x%x", loaderBase)

	return &MappedImage{
		ImageBase:   imageBase,
		ImageSize:   opt.SizeOfImage,
		LoaderBase:  loaderBase,
		LoaderSize:  loaderReserve,
		ParamOffset: paramOff,
	}, nil
}

// InjectImage validates buf as a PE32+ DLL and maps it into the target.
// The caller owns rp's handle lifecycle.
func InjectImage(rp RemoteProcess, buf []byte, sys SystemSymbols, loaderReserve uint32) (*MappedImage, error) {
	img, err := ParseImage(buf)
	if err != nil {
		return nil, injectErrorf(KindInvalidPE, "parse", err, "not a mappable PE32+ image")
	}
	if !img.IsDLL() {
		warnf("image lacks the DLL characteristic; mapping anyway")
	}
	if sys.LoadLibraryA == 0 || sys.GetProcAddress == 0 {
		return nil, injectErrorf(KindSystemSymbolMissing, "resolve symbols", nil,
			"LoadLibraryA=0x%x GetProcAddress=0x%x", sys.LoadLibraryA, sys.GetProcAddress)
	}
	if loaderReserve == 0 {
		return nil, fmt.Errorf("loader reserve must be nonzero")
	}
	return mapImage(rp, img, sys, loaderReserve)
}
