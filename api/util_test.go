package api

import "unsafe"

func unsafePointer(buf []int32) unsafe.Pointer {
	return unsafe.Pointer(&buf[0])
}
