package vkr

import (
	vk "github.com/vulkan-go/vulkan"
)

// SwapchainState bundles a swapchain with everything whose lifetime is tied
// to it: the images and their views, the render pass targeting the swapchain
// format and one framebuffer per image. When the surface invalidates the
// swapchain the whole bundle is torn down and a fresh one built in its place.
type SwapchainState struct {
	Device *Device

	Swapchain    *Swapchain
	Images       []*Image
	ImageViews   []*ImageView
	VKRenderPass vk.RenderPass
	Framebuffers []vk.Framebuffer

	// generation counts rebuilds, starting at 1 for the first build
	generation int
}

type CreateSwapchainStateOptions struct {
	// OldSwapchain is handed to the driver when rebuilding
	OldSwapchain *Swapchain

	// ActualSize is the framebuffer size in pixels, consulted only when the
	// surface does not dictate the extent itself
	ActualSize vk.Extent2D

	// DesiredNumSwapchainImages above zero overrides the image count default
	DesiredNumSwapchainImages int

	// ConfigureRenderPass may adjust the render pass before it is created
	ConfigureRenderPass func(*vk.RenderPassCreateInfo)
}

// VKColorRenderPassCreateInfo describes a single pass drawing into one
// presentable color attachment. The external dependency delays the first
// attachment write until the acquired image is actually ready.
func VKColorRenderPassCreateInfo(format vk.Format) vk.RenderPassCreateInfo {
	attachmentDescriptions := []vk.AttachmentDescription{{
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}

	colorAttachments := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpassDescriptions := []vk.SubpassDescription{{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    colorAttachments,
	}}

	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
	}

	return vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    attachmentDescriptions,
		SubpassCount:    1,
		PSubpasses:      subpassDescriptions,
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}
}

// CreateSwapchainState creates the swapchain for the surface along with the
// image views, render pass and framebuffers derived from it. On failure
// whatever was built so far is destroyed.
func (d *Device) CreateSwapchainState(surface vk.Surface, graphicsQueue, presentQueue *Queue, options *CreateSwapchainStateOptions) (*SwapchainState, error) {

	swapchainOptions := &CreateSwapchainOptions{}
	var configure func(*vk.RenderPassCreateInfo)
	if options != nil {
		swapchainOptions.OldSwapchain = options.OldSwapchain
		swapchainOptions.ActualSize = options.ActualSize
		swapchainOptions.DesiredNumSwapchainImages = options.DesiredNumSwapchainImages
		configure = options.ConfigureRenderPass
	}

	swapchain, err := d.CreateSwapchain(surface, graphicsQueue, presentQueue, swapchainOptions)
	if err != nil {
		return nil, err
	}

	s := &SwapchainState{
		Device:     d,
		Swapchain:  swapchain,
		generation: 1,
	}

	s.Images, err = swapchain.GetImages()
	if err != nil {
		s.Destroy()
		return nil, err
	}

	s.ImageViews = make([]*ImageView, 0, len(s.Images))
	for _, image := range s.Images {
		view, err := image.CreateImageView()
		if err != nil {
			s.Destroy()
			return nil, err
		}
		s.ImageViews = append(s.ImageViews, view)
	}

	renderPassCreateInfo := VKColorRenderPassCreateInfo(swapchain.Format)
	if configure != nil {
		configure(&renderPassCreateInfo)
	}

	var renderPass vk.RenderPass
	err = vk.Error(vk.CreateRenderPass(d.VKDevice, &renderPassCreateInfo, nil, &renderPass))
	if err != nil {
		s.Destroy()
		return nil, err
	}
	s.VKRenderPass = renderPass

	s.Framebuffers = make([]vk.Framebuffer, len(s.ImageViews))
	for i, view := range s.ImageViews {
		attachments := []vk.ImageView{view.VKImageView}
		fbCreateInfo := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      s.VKRenderPass,
			Layers:          1,
			AttachmentCount: uint32(len(attachments)),
			PAttachments:    attachments,
			Width:           swapchain.Extent.Width,
			Height:          swapchain.Extent.Height,
		}
		err := vk.Error(vk.CreateFramebuffer(d.VKDevice, &fbCreateInfo, nil, &s.Framebuffers[i]))
		if err != nil {
			s.Destroy()
			return nil, err
		}
	}

	return s, nil
}

// ImageCount returns how many images the swapchain actually delivered, which
// may exceed the count asked for
func (s *SwapchainState) ImageCount() int {
	return len(s.Images)
}

// Extent returns the size the swapchain was created with
func (s *SwapchainState) Extent() vk.Extent2D {
	return s.Swapchain.Extent
}

// Generation returns how many times the state has been built, starting at 1
func (s *SwapchainState) Generation() int {
	return s.generation
}

// Destroy tears the bundle down in reverse dependency order. The swapchain
// images themselves belong to the swapchain and are not destroyed directly.
func (s *SwapchainState) Destroy() {
	for i := range s.Framebuffers {
		vk.DestroyFramebuffer(s.Device.VKDevice, s.Framebuffers[i], nil)
	}
	s.Framebuffers = nil

	if s.VKRenderPass != vk.NullRenderPass {
		vk.DestroyRenderPass(s.Device.VKDevice, s.VKRenderPass, nil)
		s.VKRenderPass = vk.NullRenderPass
	}

	for _, view := range s.ImageViews {
		view.Destroy()
	}
	s.ImageViews = nil
	s.Images = nil

	if s.Swapchain != nil {
		s.Swapchain.Destroy()
		s.Swapchain = nil
	}
}
