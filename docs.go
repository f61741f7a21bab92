/*
Package vkr is a small real-time rendering framework built on the Vulkan graphics
API for go. Vulkan gives an application close control over the GPU at the price of
making the application responsible for nearly everything OpenGL used to hide:
memory, synchronization, image ownership and the exact moment every resource is
created and destroyed.

The part of that responsibility this package cares most about is the frame
lifecycle. A Vulkan application does not "draw to the screen", it borrows images
from a swapchain, records work against them, submits that work to a queue and
hands the images back for presentation. The swapchain itself is fragile - a window
resize, a minimize or a display change can invalidate it at any moment - and the
CPU is allowed to run several frames ahead of the GPU, so the application must
prove, with fences and semaphores, that it never touches an image the GPU is still
reading.

This package organizes that into a few cooperating pieces:

DeviceContext:
	instance, surface, adapter selection and the logical device with its
	graphics and present queues
SwapchainState:
	the swapchain plus everything derived from its images (views, render pass,
	framebuffers), rebuildable as a unit when the surface changes
RenderApp resources:
	the things command buffers reference - geometry, per image uniform buffers,
	texture and sampler, descriptors and the graphics pipeline - split by
	lifetime into swapchain independent and swapchain dependent halves
CommandRecorder:
	one immutable pre-recorded command buffer per swapchain image, re-recorded
	only when the swapchain rebuilds
FrameScheduler:
	a fixed ring of in-flight frame slots driving the acquire / record /
	submit / present loop, with the bookkeeping that keeps at most F frames in
	flight and never lets two submissions race on one image
ResourceManager:
	named buffer and image pools over a simple linear allocator, with a staging
	pool for pushing data into device local memory

A frame, at a high level, goes like this:

	1. Wait on the current slot's fence so no more than F frames are in flight
	2. Acquire the next swapchain image (this may report the swapchain is stale)
	3. If another slot is still rendering to that image, wait its fence too
	4. Write this frame's transform into the image's uniform buffer
	5. Reset the slot fence and submit the image's pre-recorded commands
	6. Present the image (this may also report the swapchain is stale)
	7. Advance to the next slot

When acquire or present reports the swapchain stale, or the window was resized,
every size-dependent resource is torn down in dependency order and rebuilt against
the surface's current capabilities. The slot fences and semaphores survive those
rebuilds - only the table relating swapchain images to slots changes shape.

As in the rest of this package, native Vulkan handles are exposed on each wrapper
with a 'VK' prefix in the name, so an application is never boxed in by the subset
of options these APIs choose to surface.

RenderApp ties the pieces together: give it a Config and a GLFW window, describe
the mesh and shaders, and call DrawFrame in a loop. The examples directory holds a
complete textured cube application and a device capability report.
*/
package vkr
