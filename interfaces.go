package vkr

import (
	vk "github.com/vulkan-go/vulkan"
)

// IDestructable is anything owning vulkan handles which must be released
type IDestructable interface {
	Destroy()
}

// BufferObject is anything which can provide bytes suitable for copying
// into a buffer
type BufferObject interface {
	Bytes() []byte
}

// VertexDescriptor describes the layout of a vertex type to the pipeline
type VertexDescriptor interface {
	GetBindingDescription() vk.VertexInputBindingDescription
	GetAttributeDescriptions() []vk.VertexInputAttributeDescription
}

// VertexSource provides vertex data along with its layout
type VertexSource interface {
	BufferObject
	VertexDescriptor
}

// IndexSource provides index data for indexed draws
type IndexSource interface {
	BufferObject
	IndexType() vk.IndexType
}
