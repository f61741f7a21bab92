package vkr

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// Device is a logical device opened on a PhysicalDevice. Everything the
// renderer creates hangs off one of these.
type Device struct {
	PhysicalDevice *PhysicalDevice
	VKDevice       vk.Device
}

func (d *Device) String() string {
	return fmt.Sprintf("{ PhysicalDevice: %s }", d.PhysicalDevice)
}

// WaitIdle blocks until every queue on the device has drained. Swapchain
// rebuilds and shutdown both gate on this.
func (d *Device) WaitIdle() error {
	return vk.Error(vk.DeviceWaitIdle(d.VKDevice))
}

// GetQueue retrieves queue 0 of the given family
func (d *Device) GetQueue(qf *QueueFamily) *Queue {
	var vkq vk.Queue
	vk.GetDeviceQueue(d.VKDevice, uint32(qf.Index), 0, &vkq)
	return &Queue{Device: d, QueueFamily: qf, VKQueue: vkq}
}

// Allocate makes one device memory allocation from the first memory type
// satisfying memoryTypeBits and the requested properties. The resource pools
// are the only callers; everything else sub allocates from them.
func (d *Device) Allocate(sizeInBytes int, memoryTypeBits uint32, memoryProperties vk.MemoryPropertyFlagBits) (*DeviceMemory, error) {
	typeIndex, err := d.PhysicalDevice.FindMemoryType(memoryTypeBits, memoryProperties)
	if err != nil {
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(sizeInBytes),
		MemoryTypeIndex: typeIndex,
	}

	var deviceMemory vk.DeviceMemory
	if err := vk.Error(vk.AllocateMemory(d.VKDevice, &allocateInfo, nil, &deviceMemory)); err != nil {
		return nil, err
	}

	return &DeviceMemory{Device: d, VKDeviceMemory: deviceMemory, Size: uint64(sizeInBytes)}, nil
}

func (d *Device) Destroy() {
	vk.DestroyDevice(d.VKDevice, nil)
}
