package vkr

import "testing"

func TestConfigDefaults(t *testing.T) {
	c := Config{}.withDefaults()

	if c.Width != 800 || c.Height != 600 {
		t.Errorf("default window size = %dx%d, want 800x600", c.Width, c.Height)
	}
	if c.FramesInFlight != 2 {
		t.Errorf("default frames in flight = %d, want 2", c.FramesInFlight)
	}
	if c.ClearColor != [4]float32{0, 0, 0, 1} {
		t.Errorf("default clear color = %v, want opaque black", c.ClearColor)
	}
	if len(c.DeviceExtensions) != 1 || c.DeviceExtensions[0] != "VK_KHR_swapchain" {
		t.Errorf("device extensions = %v, want just the swapchain extension", c.DeviceExtensions)
	}
	if c.ValidationLayers != nil {
		t.Errorf("validation layers = %v with validation off", c.ValidationLayers)
	}
}

func TestConfigValidationLayerDefault(t *testing.T) {
	c := Config{EnableValidation: true}.withDefaults()
	if len(c.ValidationLayers) != 1 || c.ValidationLayers[0] != DefaultValidationLayer {
		t.Errorf("validation layers = %v, want [%s]", c.ValidationLayers, DefaultValidationLayer)
	}
}

func TestConfigDoesNotMutateCaller(t *testing.T) {
	exts := []string{"VK_KHR_shader_draw_parameters"}
	c := Config{DeviceExtensions: exts}

	filled := c.withDefaults()

	if len(exts) != 1 {
		t.Fatalf("caller's extension slice grew to %v", exts)
	}
	if len(filled.DeviceExtensions) != 2 {
		t.Errorf("extensions = %v, want the caller's plus the swapchain extension", filled.DeviceExtensions)
	}
	if c.Width != 0 {
		t.Errorf("caller's config mutated: width = %d", c.Width)
	}
}
