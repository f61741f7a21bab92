package vkr

// DefaultValidationLayer is the Khronos validation metalayer enabled when
// Config.EnableValidation is set and no explicit layer list is given.
const DefaultValidationLayer = "VK_LAYER_KHRONOS_validation"

// Config describes everything about a RenderApp that is decided before the
// first frame. The zero value is usable; withDefaults fills in the blanks.
type Config struct {
	// Name identifies the application to the Vulkan runtime and titles the
	// window in the examples.
	Name string

	// Version of the application, reported to the instance.
	Version Version

	// Width and Height are the initial framebuffer dimensions. Defaults are
	// 800x600. The swapchain tracks the real framebuffer size after that.
	Width  int
	Height int

	// FramesInFlight is how many frames the CPU may record ahead of the GPU.
	// Each costs a fence, two semaphores and a little latency. Default 2.
	FramesInFlight int

	// EnableValidation turns on the validation layers and the debug report
	// callback. Leave off for release builds.
	EnableValidation bool

	// ValidationLayers lists the layers enabled when EnableValidation is set.
	// Empty means DefaultValidationLayer.
	ValidationLayers []string

	// DeviceExtensions lists required device extensions. The swapchain
	// extension is always included.
	DeviceExtensions []string

	// DesiredSwapchainImages is the number of swapchain images to ask for,
	// before clamping against the surface's limits. Zero means the surface
	// minimum plus one.
	DesiredSwapchainImages int

	// ClearColor is the render pass clear color as RGBA. The zero value
	// means opaque black.
	ClearColor [4]float32
}

// withDefaults returns a copy with every unset field filled in. The caller's
// value is never mutated.
func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = "vkr application"
	}
	if c.Width <= 0 {
		c.Width = 800
	}
	if c.Height <= 0 {
		c.Height = 600
	}
	if c.FramesInFlight <= 0 {
		c.FramesInFlight = 2
	}
	if c.EnableValidation && len(c.ValidationLayers) == 0 {
		c.ValidationLayers = []string{DefaultValidationLayer}
	}
	hasSwapchainExt := false
	for _, ext := range c.DeviceExtensions {
		if ext == "VK_KHR_swapchain" {
			hasSwapchainExt = true
		}
	}
	if !hasSwapchainExt {
		c.DeviceExtensions = append(c.DeviceExtensions[:len(c.DeviceExtensions):len(c.DeviceExtensions)], "VK_KHR_swapchain")
	}
	if c.ClearColor == [4]float32{} {
		c.ClearColor = [4]float32{0.0, 0.0, 0.0, 1.0}
	}
	return c
}
