package vkr

import (
	"unsafe"
)

// ToBytes views lenInBytes bytes at ptr as a byte slice without copying.
// Sources use it to hand vertex, index, and uniform structs to the staging
// and uniform pools.
func ToBytes(ptr unsafe.Pointer, lenInBytes int) []byte {
	const m = 0x7fffffff
	return (*[m]byte)(ptr)[:lenInBytes]
}

// Strings passed to the C side must be NUL terminated.
func safeString(s string) string {
	if len(s) == 0 || s[len(s)-1] != '\x00' {
		return s + "\x00"
	}
	return s
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = safeString(list[i])
	}
	return out
}
