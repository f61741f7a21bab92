package vkr

import (
	vk "github.com/vulkan-go/vulkan"
)

// DescriptorSet accumulates resource bindings and writes them to the device
// in one update. Each swapchain image gets its own set so a frame in flight
// never shares a uniform buffer with the frame being recorded.
type DescriptorSet struct {
	Device                *Device
	DescriptorPool        *DescriptorPool
	VKDescriptorSet       vk.DescriptorSet
	VKWriteDescriptorSets []vk.WriteDescriptorSet
}

// AddBuffer binds a buffer, typically a uniform buffer, at dstBinding
func (du *DescriptorSet) AddBuffer(dstBinding int, dtype vk.DescriptorType, b *Buffer, offset int) {
	du.VKWriteDescriptorSets = append(du.VKWriteDescriptorSets, vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstBinding:      uint32(dstBinding),
		DescriptorCount: 1,
		DescriptorType:  dtype,
		PBufferInfo: []vk.DescriptorBufferInfo{{
			Buffer: b.VKBuffer,
			Offset: vk.DeviceSize(offset),
			Range:  vk.DeviceSize(b.Size),
		}},
	})
}

// AddCombinedImageSampler binds a sampled texture at dstBinding
func (du *DescriptorSet) AddCombinedImageSampler(dstBinding int, layout vk.ImageLayout, imageView vk.ImageView, sampler vk.Sampler) {
	du.VKWriteDescriptorSets = append(du.VKWriteDescriptorSets, vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstBinding:      uint32(dstBinding),
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		PImageInfo: []vk.DescriptorImageInfo{{
			ImageView:   imageView,
			ImageLayout: layout,
			Sampler:     sampler,
		}},
	})
}

// Write pushes the accumulated bindings to the device
func (du *DescriptorSet) Write() {
	for i := range du.VKWriteDescriptorSets {
		du.VKWriteDescriptorSets[i].DstSet = du.VKDescriptorSet
	}
	vk.UpdateDescriptorSets(du.Device.VKDevice, uint32(len(du.VKWriteDescriptorSets)), du.VKWriteDescriptorSets, 0, nil)
}
