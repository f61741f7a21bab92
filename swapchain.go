package vkr

import (
	vk "github.com/vulkan-go/vulkan"
)

// Swapchain owns the presentable images for a surface. It is rebuilt whenever
// the surface changes underneath it, so everything derived from it must be
// rebuilt along with it.
type Swapchain struct {
	Extent      vk.Extent2D
	Format      vk.Format
	Device      *Device
	VKSwapchain vk.Swapchain
}

func (s *Swapchain) Destroy() {
	vk.DestroySwapchain(s.Device.VKDevice, s.VKSwapchain, nil)
}

// GetImages returns the images owned by the swapchain. The images belong to
// the swapchain and must not be destroyed directly.
func (s *Swapchain) GetImages() ([]*Image, error) {
	var imageCount uint32
	err := vk.Error(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, nil))
	if err != nil {
		return nil, err
	}

	swapchainImages := make([]vk.Image, imageCount)
	err = vk.Error(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, swapchainImages))

	ret := make([]*Image, imageCount)
	for i := range swapchainImages {
		ret[i] = &Image{}
		ret[i].Device = s.Device
		ret[i].VKImage = swapchainImages[i]
		ret[i].VKFormat = s.Format
		ret[i].Extent = s.Extent
	}

	return ret, err
}

type CreateSwapchainOptions struct {
	// OldSwapchain lets the driver carry resources over during a rebuild
	OldSwapchain *Swapchain

	// ActualSize is the framebuffer size in pixels, consulted only when the
	// surface leaves the extent up to the swapchain
	ActualSize vk.Extent2D

	// DesiredNumSwapchainImages above zero overrides the default of one more
	// than the surface minimum. It is clamped into the range the surface
	// supports either way.
	DesiredNumSwapchainImages int
}

// chooseSwapchainFormat prefers sRGB BGRA and otherwise settles for whatever
// the surface advertises first
func chooseSwapchainFormat(formats VKSurfaceFormats) vk.SurfaceFormat {
	for _, f := range formats {
		if f.Format == vk.FormatB8g8r8a8Srgb && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	return formats[0]
}

// choosePresentMode prefers mailbox and otherwise falls back to fifo, the
// only mode surfaces must support
func choosePresentMode(modes VKPresentModes) vk.PresentMode {
	if m := modes.Filter(vk.PresentModeMailbox); len(m) > 0 {
		return m[0]
	}
	return vk.PresentModeFifo
}

// chooseSwapchainExtent resolves the swapchain size. Most surfaces dictate
// their extent; when the surface reports the max uint32 sentinel instead, the
// framebuffer size is clamped into the supported range.
func chooseSwapchainExtent(caps *vk.SurfaceCapabilities, fbWidth, fbHeight int) vk.Extent2D {
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return caps.CurrentExtent
	}

	clamp := func(v, lo, hi uint32) uint32 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}

	return vk.Extent2D{
		Width:  clamp(uint32(fbWidth), caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(uint32(fbHeight), caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// chooseSwapchainImageCount asks for one image beyond the surface minimum so
// the renderer rarely waits on the driver, honoring the surface maximum when
// the surface has one. A desired count above zero overrides the default but
// is clamped the same way.
func chooseSwapchainImageCount(caps *vk.SurfaceCapabilities, desired int) int {
	count := uint32(desired)
	if desired <= 0 {
		count = caps.MinImageCount + 1
	}

	if count < caps.MinImageCount {
		count = caps.MinImageCount
	}
	// A max of zero means the surface imposes no upper bound
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}

	return int(count)
}

// swapchainSharingMode decides how swapchain images are shared between the
// graphics and present queues. Distinct families share concurrently, a single
// family keeps exclusive access.
func swapchainSharingMode(graphicsIndex, presentIndex int) (vk.SharingMode, []uint32) {
	if graphicsIndex != presentIndex {
		return vk.SharingModeConcurrent, []uint32{uint32(graphicsIndex), uint32(presentIndex)}
	}
	return vk.SharingModeExclusive, nil
}

// CreateSwapchain creates a swapchain for the surface, choosing the format,
// present mode, extent and image count from what the surface supports.
func (p *Device) CreateSwapchain(surface vk.Surface, graphicsQueue, presentQueue *Queue, options *CreateSwapchainOptions) (*Swapchain, error) {

	modes, err := p.PhysicalDevice.GetSurfacePresentModes(surface)
	if err != nil {
		return nil, err
	}

	formats, err := p.PhysicalDevice.GetSurfaceFormats(surface)
	if err != nil {
		return nil, err
	}

	caps, err := p.PhysicalDevice.GetSurfaceCapabilities(surface)
	if err != nil {
		return nil, err
	}

	format := chooseSwapchainFormat(formats)
	presentMode := choosePresentMode(modes)

	var actualW, actualH int
	desiredImages := 0
	if options != nil {
		actualW = int(options.ActualSize.Width)
		actualH = int(options.ActualSize.Height)
		desiredImages = options.DesiredNumSwapchainImages
	}

	extent := chooseSwapchainExtent(caps, actualW, actualH)
	imageCount := chooseSwapchainImageCount(caps, desiredImages)

	var swapchain vk.Swapchain

	createInfo := &vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface,
		MinImageCount:    uint32(imageCount),
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      extent,
		PresentMode:      presentMode,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageArrayLayers: 1,
		Clipped:          vk.True,
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		OldSwapchain:     vk.NullSwapchain,
	}

	if options != nil && options.OldSwapchain != nil {
		createInfo.OldSwapchain = options.OldSwapchain.VKSwapchain
	}

	sharing, indices := swapchainSharingMode(graphicsQueue.QueueFamily.Index, presentQueue.QueueFamily.Index)
	createInfo.ImageSharingMode = sharing
	createInfo.QueueFamilyIndexCount = uint32(len(indices))
	createInfo.PQueueFamilyIndices = indices

	err = vk.Error(vk.CreateSwapchain(p.VKDevice, createInfo, nil, &swapchain))
	if err != nil {
		return nil, err
	}

	var ret Swapchain
	ret.VKSwapchain = swapchain
	ret.Device = p
	ret.Extent = extent
	ret.Format = format.Format

	return &ret, nil

}
