package vkr

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func TestChooseSwapchainFormatPrefersBGRASrgb(t *testing.T) {
	formats := VKSurfaceFormats{
		{Format: vk.FormatR8g8b8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}

	chosen := chooseSwapchainFormat(formats)
	if chosen.Format != vk.FormatB8g8r8a8Srgb {
		t.Errorf("chose format %v, want FormatB8g8r8a8Srgb regardless of position", chosen.Format)
	}
}

func TestChooseSwapchainFormatFallsBackToFirst(t *testing.T) {
	formats := VKSurfaceFormats{
		{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatR8g8b8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}

	chosen := chooseSwapchainFormat(formats)
	if chosen.Format != vk.FormatR8g8b8a8Unorm {
		t.Errorf("chose format %v, want the first advertised", chosen.Format)
	}
}

func TestChooseSwapchainFormatNeedsMatchingColorSpace(t *testing.T) {
	// BGRA sRGB with the wrong color space does not qualify
	formats := VKSurfaceFormats{
		{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpace(1)},
	}

	chosen := chooseSwapchainFormat(formats)
	if chosen.Format != vk.FormatR8g8b8a8Unorm {
		t.Errorf("chose format %v with non-sRGB color space", chosen.Format)
	}
}

func TestChooseSwapchainFormatDeterministic(t *testing.T) {
	formats := VKSurfaceFormats{
		{Format: vk.FormatR8g8b8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatR5g6b5UnormPack16, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}

	first := chooseSwapchainFormat(formats)
	for i := 0; i < 10; i++ {
		if again := chooseSwapchainFormat(formats); again != first {
			t.Fatalf("selection changed between calls: %v then %v", first, again)
		}
	}
}

func TestChoosePresentModePrefersMailbox(t *testing.T) {
	modes := VKPresentModes{vk.PresentModeFifo, vk.PresentModeMailbox, vk.PresentModeImmediate}
	if m := choosePresentMode(modes); m != vk.PresentModeMailbox {
		t.Errorf("chose %v, want mailbox", m)
	}
}

func TestChoosePresentModeFallsBackToFifo(t *testing.T) {
	modes := VKPresentModes{vk.PresentModeImmediate, vk.PresentModeFifoRelaxed}
	if m := choosePresentMode(modes); m != vk.PresentModeFifo {
		t.Errorf("chose %v, want fifo", m)
	}
}

func TestChooseSwapchainExtentSurfaceDictates(t *testing.T) {
	caps := &vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: 1024, Height: 768},
		MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
	}

	// The framebuffer size is ignored when the surface reports a real extent
	extent := chooseSwapchainExtent(caps, 333, 444)
	if extent.Width != 1024 || extent.Height != 768 {
		t.Errorf("extent = %dx%d, want the surface's 1024x768", extent.Width, extent.Height)
	}
}

func TestChooseSwapchainExtentClampsFramebufferSize(t *testing.T) {
	caps := &vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: vk.MaxUint32, Height: vk.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 200, Height: 150},
		MaxImageExtent: vk.Extent2D{Width: 1920, Height: 1080},
	}

	cases := []struct {
		fbW, fbH     int
		wantW, wantH uint32
	}{
		{800, 600, 800, 600},
		{100, 100, 200, 150},
		{5000, 5000, 1920, 1080},
		{100, 5000, 200, 1080},
		{0, 0, 200, 150},
	}

	for _, c := range cases {
		extent := chooseSwapchainExtent(caps, c.fbW, c.fbH)
		if extent.Width != c.wantW || extent.Height != c.wantH {
			t.Errorf("framebuffer %dx%d: extent = %dx%d, want %dx%d",
				c.fbW, c.fbH, extent.Width, extent.Height, c.wantW, c.wantH)
		}
		if extent.Width < caps.MinImageExtent.Width || extent.Width > caps.MaxImageExtent.Width ||
			extent.Height < caps.MinImageExtent.Height || extent.Height > caps.MaxImageExtent.Height {
			t.Errorf("framebuffer %dx%d: extent %dx%d outside the supported range",
				c.fbW, c.fbH, extent.Width, extent.Height)
		}
	}
}

func TestChooseSwapchainImageCount(t *testing.T) {
	cases := []struct {
		min, max uint32
		desired  int
		want     int
	}{
		{2, 0, 0, 3},  // min+1, no upper bound
		{2, 3, 0, 3},  // min+1 fits the max exactly
		{3, 3, 0, 3},  // min+1 clamped down to max
		{2, 8, 5, 5},  // explicit request honored
		{2, 4, 9, 4},  // explicit request clamped to max
		{4, 8, 1, 4},  // explicit request raised to min
		{1, 0, 0, 2},  // single buffered surface, unbounded
	}

	for _, c := range cases {
		caps := &vk.SurfaceCapabilities{MinImageCount: c.min, MaxImageCount: c.max}
		if got := chooseSwapchainImageCount(caps, c.desired); got != c.want {
			t.Errorf("min=%d max=%d desired=%d: count = %d, want %d", c.min, c.max, c.desired, got, c.want)
		}
	}
}

func TestSwapchainSharingMode(t *testing.T) {
	mode, indices := swapchainSharingMode(0, 0)
	if mode != vk.SharingModeExclusive || indices != nil {
		t.Errorf("single family: mode = %v indices = %v, want exclusive with no indices", mode, indices)
	}

	mode, indices = swapchainSharingMode(0, 2)
	if mode != vk.SharingModeConcurrent {
		t.Errorf("split families: mode = %v, want concurrent", mode)
	}
	if len(indices) != 2 || indices[0] != 0 || indices[1] != 2 {
		t.Errorf("split families: indices = %v, want [0 2]", indices)
	}
}

// Rebuilding against unchanged surface conditions must reproduce the exact
// swapchain configuration of the first build.
func TestSwapchainSelectionIdempotent(t *testing.T) {
	formats := VKSurfaceFormats{
		{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatR8g8b8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}
	modes := VKPresentModes{vk.PresentModeFifo, vk.PresentModeMailbox}
	caps := &vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: vk.MaxUint32, Height: vk.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
		MinImageCount:  2,
		MaxImageCount:  6,
	}

	format := chooseSwapchainFormat(formats)
	mode := choosePresentMode(modes)
	extent := chooseSwapchainExtent(caps, 800, 600)
	count := chooseSwapchainImageCount(caps, 0)

	for i := 0; i < 5; i++ {
		if f := chooseSwapchainFormat(formats); f != format {
			t.Fatalf("format drifted on rebuild %d: %v vs %v", i, f, format)
		}
		if m := choosePresentMode(modes); m != mode {
			t.Fatalf("present mode drifted on rebuild %d: %v vs %v", i, m, mode)
		}
		if e := chooseSwapchainExtent(caps, 800, 600); e != extent {
			t.Fatalf("extent drifted on rebuild %d: %v vs %v", i, e, extent)
		}
		if c := chooseSwapchainImageCount(caps, 0); c != count {
			t.Fatalf("image count drifted on rebuild %d: %d vs %d", i, c, count)
		}
	}
}
