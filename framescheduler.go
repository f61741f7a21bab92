package vkr

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// frameTarget is the machinery the frame scheduler paces. The scheduler deals
// purely in frame slot and swapchain image indices; the target owns every
// vulkan handle behind them. Slot sync objects live for the whole process, so
// slot indices stay meaningful across rebuilds, while image indices are only
// valid until the next rebuild.
type frameTarget interface {
	// waitSlotFence blocks until the slot's last submission has finished.
	// Waiting on a slot that has never been submitted returns immediately.
	waitSlotFence(slot int) error

	// resetSlotFence moves the slot's fence back to unsignaled
	resetSlotFence(slot int) error

	// acquire asks the swapchain for the next image, signaling the slot's
	// image available semaphore once the image is truly ready
	acquire(slot int) (int, vk.Result)

	// updateUniforms refreshes per frame data for the image about to be drawn
	updateUniforms(image int) error

	// submit queues the image's command buffer, waiting on the slot's image
	// available semaphore and signaling its render finished semaphore and
	// fence
	submit(image, slot int) error

	// present hands the image back to the swapchain once the slot's render
	// finished semaphore signals
	present(image, slot int) vk.Result

	// resizePending reports whether the window has changed size since the
	// last rebuild
	resizePending() bool

	// rebuild replaces the swapchain and everything hanging off it
	rebuild() error

	// imageCount returns how many images the current swapchain holds
	imageCount() int
}

// FrameScheduler sequences the per frame dance of throttling, acquiring,
// submitting and presenting across a fixed ring of frame slots, so the CPU
// can prepare a bounded number of frames ahead of the GPU.
//
// Out of date or suboptimal swapchains are not errors here: the scheduler
// routes them into a rebuild of the target and carries on. Anything else the
// target reports is returned to the caller as fatal.
type FrameScheduler struct {
	target frameTarget
	frames int

	currentSlot int

	// imagesInFlight remembers, per swapchain image, which slot last
	// submitted work against it, or -1. A slot's fence covers its latest
	// submission, and submissions complete in order, so waiting that fence
	// guarantees the image's earlier use is done too.
	imagesInFlight []int
}

func newFrameScheduler(target frameTarget, frames int) *FrameScheduler {
	s := &FrameScheduler{
		target: target,
		frames: frames,
	}
	s.resetImagesInFlight()
	return s
}

func (s *FrameScheduler) resetImagesInFlight() {
	s.imagesInFlight = make([]int, s.target.imageCount())
	for i := range s.imagesInFlight {
		s.imagesInFlight[i] = -1
	}
}

// rebuild replaces the target's swapchain and clears the image hazard table,
// since image indices from the old swapchain mean nothing for the new one.
// Frame slots and their sync objects survive untouched.
func (s *FrameScheduler) rebuild() error {
	if err := s.target.rebuild(); err != nil {
		return err
	}
	s.resetImagesInFlight()
	return nil
}

// DrawFrame runs one frame through the current slot. When the swapchain has
// gone stale the frame is abandoned at acquire, or completed and then
// followed by a rebuild when staleness surfaces at present. The slot only
// advances for frames whose work was actually submitted.
func (s *FrameScheduler) DrawFrame() error {
	slot := s.currentSlot

	// Throttle: no more than `frames` frames in flight
	if err := s.target.waitSlotFence(slot); err != nil {
		return err
	}

	image, res := s.target.acquire(slot)
	if res == vk.ErrorOutOfDate {
		// Nothing was submitted, so the slot is reused for the next frame
		return s.rebuild()
	}
	if res != vk.Success && res != vk.Suboptimal {
		return fmt.Errorf("acquire next image: %w", vk.Error(res))
	}

	// The swapchain may hand out an image a different slot still has in
	// flight. Wait out that slot before reusing the image.
	if prev := s.imagesInFlight[image]; prev >= 0 && prev != slot {
		if err := s.target.waitSlotFence(prev); err != nil {
			return err
		}
	}
	s.imagesInFlight[image] = slot

	if err := s.target.updateUniforms(image); err != nil {
		return err
	}

	// Reset only once this frame is certain to submit, otherwise a later
	// throttle on this slot would deadlock
	if err := s.target.resetSlotFence(slot); err != nil {
		return err
	}

	if err := s.target.submit(image, slot); err != nil {
		return err
	}

	res = s.target.present(image, slot)
	if res == vk.ErrorOutOfDate || res == vk.Suboptimal || s.target.resizePending() {
		if err := s.rebuild(); err != nil {
			return err
		}
	} else if res != vk.Success {
		return fmt.Errorf("present: %w", vk.Error(res))
	}

	s.currentSlot = (slot + 1) % s.frames
	return nil
}
