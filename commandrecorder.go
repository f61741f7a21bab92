package vkr

// CommandRecorder owns a command pool on the graphics queue family and the
// pre-recorded command buffers drawn from it, one per swapchain image. The
// buffers are immutable once recorded; when the swapchain rebuilds they are
// freed and a fresh set is recorded against the new images.
type CommandRecorder struct {
	Pool    *CommandPool
	Buffers []*CommandBuffer
}

func (d *Device) CreateCommandRecorder(family *QueueFamily) (*CommandRecorder, error) {
	pool, err := d.CreateCommandPool(family)
	if err != nil {
		return nil, err
	}
	return &CommandRecorder{Pool: pool}, nil
}

// Record allocates count buffers and fills each by calling record with the
// buffer and its image index. Any previous set is freed first.
func (r *CommandRecorder) Record(count int, record func(cb *CommandBuffer, image int) error) error {
	r.FreeBuffers()

	buffers, err := r.Pool.AllocateBuffers(count)
	if err != nil {
		return err
	}
	r.Buffers = buffers

	for i, cb := range r.Buffers {
		if err := record(cb, i); err != nil {
			return err
		}
	}
	return nil
}

// FreeBuffers returns the recorded buffers to the pool. Safe to call when
// nothing is recorded.
func (r *CommandRecorder) FreeBuffers() {
	if r.Buffers != nil {
		r.Pool.FreeBuffers(r.Buffers)
		r.Buffers = nil
	}
}

func (r *CommandRecorder) Destroy() {
	r.FreeBuffers()
	r.Pool.Destroy()
}
