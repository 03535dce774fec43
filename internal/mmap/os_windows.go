//go:build windows

package mmap

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

func osMapAnon(size int) ([]byte, func([]byte) error, error) {
	// MEM_COMMIT is demand-paged: physical pages are only backed on first touch.
	addr, err := windows.VirtualAlloc(0, uintptr(size),
		windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if err != nil {
		return nil, nil, err
	}

	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)

	return data, func([]byte) error {
		return windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
	}, nil
}

func osAdvise(data []byte, pattern AccessPattern) error {
	if pattern != AccessDontNeed || len(data) == 0 {
		return nil
	}
	// MEM_RESET marks the pages as no longer interesting without decommitting them.
	addr := uintptr(unsafe.Pointer(&data[0]))
	_, err := windows.VirtualAlloc(addr, uintptr(len(data)), windows.MEM_RESET, windows.PAGE_READWRITE)
	return err
}
