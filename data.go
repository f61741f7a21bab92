package vkr

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// IndexSliceUint16 adapts a []uint16 into an IndexSource for meshes with
// fewer than 65536 vertices.
type IndexSliceUint16 []uint16

func (i IndexSliceUint16) Bytes() []byte {
	return ToBytes(unsafe.Pointer(&i[0]), len(i)*2)
}

func (i IndexSliceUint16) IndexType() vk.IndexType {
	return vk.IndexTypeUint16
}

// IndexSliceUint32 adapts a []uint32 into an IndexSource.
type IndexSliceUint32 []uint32

func (i IndexSliceUint32) Bytes() []byte {
	return ToBytes(unsafe.Pointer(&i[0]), len(i)*4)
}

func (i IndexSliceUint32) IndexType() vk.IndexType {
	return vk.IndexTypeUint32
}
