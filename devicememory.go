package vkr

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// DeviceMemory is a single Vulkan memory allocation. Pools carve buffers and
// images out of one allocation, so host visible pools map the whole thing
// once and keep writing through Ptr for as long as the pool lives. The
// uniform pool stays mapped for the lifetime of the swapchain, staging pools
// for the duration of an upload.
type DeviceMemory struct {
	Device         *Device
	VKDeviceMemory vk.DeviceMemory
	Size           uint64

	// Ptr is the host address of the mapping, nil while unmapped.
	Ptr unsafe.Pointer
}

// Map maps the entire allocation and records the host address in Ptr.
func (d *DeviceMemory) Map() (unsafe.Pointer, error) {
	var res unsafe.Pointer
	if err := vk.Error(vk.MapMemory(d.Device.VKDevice, d.VKDeviceMemory, 0, vk.DeviceSize(d.Size), 0, &res)); err != nil {
		return nil, err
	}
	d.Ptr = res
	return res, nil
}

// Unmap releases the mapping. Writes made through Ptr before Unmap are
// visible to the device once the memory is flushed or is host coherent.
func (d *DeviceMemory) Unmap() {
	d.Ptr = nil
	vk.UnmapMemory(d.Device.VKDevice, d.VKDeviceMemory)
}

func (d *DeviceMemory) Destroy() {
	vk.FreeMemory(d.Device.VKDevice, d.VKDeviceMemory, nil)
}
