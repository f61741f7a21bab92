package vkr

import (
	"time"

	vk "github.com/vulkan-go/vulkan"
)

type Fence struct {
	Device  *Device
	VKFence vk.Fence
}

func (d *Device) VKDestroyFence(f vk.Fence) {
	vk.DestroyFence(d.VKDevice, f, nil)
}

// VKCreateFence creates a fence, signaled when asked. Frame slot fences
// start signaled so the first wait on a slot falls straight through.
func (d *Device) VKCreateFence(signaled bool) (vk.Fence, error) {
	createInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		createInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var fence vk.Fence
	if err := vk.Error(vk.CreateFence(d.VKDevice, &createInfo, nil, &fence)); err != nil {
		return nil, err
	}
	return fence, nil
}

// VKWaitForFence blocks until the fence signals. The wait is effectively
// unbounded, which is what frame throttling wants: the GPU will finish the
// slot's prior frame eventually, and a driver stall has no useful recovery.
func (d *Device) VKWaitForFence(f vk.Fence) error {
	return vk.Error(vk.WaitForFences(d.VKDevice, 1, []vk.Fence{f}, vk.True, vk.MaxUint64))
}

// VKResetFence returns the fence to the unsignaled state.
func (d *Device) VKResetFence(f vk.Fence) error {
	return vk.Error(vk.ResetFences(d.VKDevice, 1, []vk.Fence{f}))
}

func (d *Device) CreateFence() (*Fence, error) {
	fence, err := d.VKCreateFence(false)
	if err != nil {
		return nil, err
	}
	return &Fence{Device: d, VKFence: fence}, nil
}

// WaitForFences waits up to ts for the fences, all of them when waitForAll
func (d *Device) WaitForFences(waitForAll bool, ts time.Duration, fences ...*Fence) error {
	f := make([]vk.Fence, len(fences))
	for i := range fences {
		f[i] = fences[i].VKFence
	}

	wait := vk.Bool32(vk.False)
	if waitForAll {
		wait = vk.Bool32(vk.True)
	}
	return vk.Error(vk.WaitForFences(d.VKDevice, uint32(len(fences)), f, wait, uint64(ts.Nanoseconds())))
}

func (f *Fence) Destroy() {
	vk.DestroyFence(f.Device.VKDevice, f.VKFence, nil)
}
