package vkr

import (
	"fmt"
	"time"

	vk "github.com/vulkan-go/vulkan"
)

// BufferResource is a buffer based resource, for example
// vertex buffer, index buffer, UBO,  which have been allocated
// from a larger pool of device memory. Vulkan limits the number of
// memory allocations that can be done by an application, so applications
// should manage their own pools of memory. A BufferResource is a buffer
// which has been managed by the ResourceManager.
type BufferResource struct {
	Buffer
	Usage           vk.BufferUsageFlagBits
	ResourcePool    *BufferResourcePool
	Allocation      *Allocation
	StagingResource *BufferResource
}

// RequiresStaging reports whether this buffer lives in device local memory
// and must be filled through a staging buffer
func (r *BufferResource) RequiresStaging() bool {
	return r.ResourcePool.NeedsStaging
}

func (r *BufferResource) String() string {
	return r.Buffer.String()
}

// AllocateStagingResource allocates a host visible buffer of the same size
// from the manager's staging pool. The caller frees it with
// FreeStagingResource once the copy has been submitted and waited on.
func (r *BufferResource) AllocateStagingResource() error {
	if !r.RequiresStaging() {
		return fmt.Errorf("resource does not require staging")
	}
	stagingPool := r.ResourcePool.ResourceManager.GetStagingPool()
	if stagingPool == nil {
		return fmt.Errorf("no pool named %q exists for staging resources", StagingPoolName)
	}
	var err error
	r.StagingResource, err = stagingPool.AllocateBuffer(r.Buffer.Size, vk.BufferUsageTransferSrcBit)
	return err
}

func (r *BufferResource) FreeStagingResource() {
	if r.StagingResource != nil {
		r.StagingResource.Free()
		r.StagingResource = nil
	}
}

// CmdCopyBufferFromStagedResource will populate this buffer from the previously
// allocated staged resource. Offsets are buffer relative, both buffers already
// sit at their pool offsets.
func (c *CommandBuffer) CmdCopyBufferFromStagedResource(resource *BufferResource) {
	vk.CmdCopyBuffer(c.VK(), resource.StagingResource.Buffer.VKBuffer, resource.Buffer.VKBuffer, 1, []vk.BufferCopy{
		vk.BufferCopy{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      vk.DeviceSize(resource.Buffer.Size),
		},
	})
}

// StageBytes copies data into the buffer. Host visible buffers are written
// straight through the pool's mapping. Device local buffers go through the
// staging pool with a blocking one time submit on the supplied queue.
func (r *BufferResource) StageBytes(data []byte, cmd *CommandBuffer, queue *Queue) error {
	if !r.RequiresStaging() {
		if _, err := r.ResourcePool.Memory.Map(); err != nil {
			return err
		}
		copy(r.Bytes(), data)
		return nil
	}

	if err := r.AllocateStagingResource(); err != nil {
		return err
	}
	defer r.FreeStagingResource()

	if _, err := r.StagingResource.ResourcePool.Memory.Map(); err != nil {
		return err
	}

	srb := r.StagingResource.Bytes()
	if srb == nil {
		return fmt.Errorf("unable to map bytes for staging, make sure the staging pool has been mapped")
	}
	copy(srb, data)

	if err := cmd.BeginOneTime(); err != nil {
		return err
	}
	cmd.CmdCopyBufferFromStagedResource(r)
	if err := cmd.End(); err != nil {
		return err
	}

	f, err := r.Buffer.Device.CreateFence()
	if err != nil {
		return err
	}
	defer f.Destroy()

	if err := queue.SubmitWithFence(f, cmd); err != nil {
		return err
	}

	return r.Buffer.Device.WaitForFences(true, 100*time.Second, f)
}

// Bytes returns the buffer's span of the pool's mapped memory, or nil if
// the buffer is device local or the pool is not mapped
func (r *BufferResource) Bytes() []byte {
	if r.RequiresStaging() {
		return nil
	}

	if r.ResourcePool.Memory.Ptr == nil {
		return nil
	}
	const m = 0x7fffffff
	s := r.Allocation.Offset
	e := r.Allocation.Offset + r.Allocation.Size

	data := (*[m]byte)(r.ResourcePool.Memory.Ptr)[s:e]

	return data
}

func (r *BufferResource) Destroy() {
	r.Free()
}

// Free releases the buffer, its span in the pool, and any staging buffer
// still attached to it
func (r *BufferResource) Free() {
	if r.StagingResource != nil {
		r.StagingResource.Free()
		r.StagingResource = nil
	}
	if r.Allocation != nil {
		r.ResourcePool.Allocator.Free(r.Allocation)
		r.Allocation = nil
	}
	if r.Buffer.VKBuffer != vk.NullBuffer {
		r.Buffer.Destroy()
	}
}
