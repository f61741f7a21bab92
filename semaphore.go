package vkr

import (
	vk "github.com/vulkan-go/vulkan"
)

// VKCreateSemaphore creates a binary semaphore. Frame slots use a pair of
// these to order acquire against submit and submit against present on the
// GPU timeline.
func (d *Device) VKCreateSemaphore() (vk.Semaphore, error) {
	createInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	var sema vk.Semaphore
	err := vk.Error(vk.CreateSemaphore(d.VKDevice, &createInfo, nil, &sema))
	return sema, err
}

func (d *Device) VKDestroySemaphore(s vk.Semaphore) {
	vk.DestroySemaphore(d.VKDevice, s, nil)
}
