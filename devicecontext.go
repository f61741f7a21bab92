package vkr

import (
	"fmt"
	"log"

	"github.com/vulkan-go/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

// DeviceContext holds the process lifetime vulkan objects: the instance, the
// window surface, the chosen physical and logical device and the queues used
// for drawing and presentation. It is created once and survives every
// swapchain rebuild; only Destroy tears it down.
type DeviceContext struct {
	Config Config

	App      *App
	Instance *Instance

	VKSurface vk.Surface

	PhysicalDevice *PhysicalDevice
	Device         *Device

	GraphicsQueue *Queue
	PresentQueue  *Queue
}

// deviceSuitable reports whether the device can drive the surface: it must
// offer the required extensions, at least one surface format and present
// mode, queue families for graphics and presentation, and anisotropic
// filtering for texture sampling.
func deviceSuitable(d *PhysicalDevice, surface vk.Surface, extensions []string) (bool, error) {
	ok, err := d.SupportsExtensions(extensions)
	if err != nil || !ok {
		return false, err
	}

	formats, err := d.GetSurfaceFormats(surface)
	if err != nil {
		return false, err
	}
	modes, err := d.GetSurfacePresentModes(surface)
	if err != nil {
		return false, err
	}
	if len(formats) == 0 || len(modes) == 0 {
		return false, nil
	}

	families, err := d.QueueFamilies()
	if err != nil {
		return false, err
	}
	if len(families.FilterGraphics()) == 0 || len(families.FilterPresent(surface)) == 0 {
		return false, nil
	}

	if !d.SupportsSamplerAnisotropy() {
		return false, nil
	}

	return true, nil
}

func pickPhysicalDevice(devices []*PhysicalDevice, surface vk.Surface, extensions []string) (*PhysicalDevice, error) {
	for _, d := range devices {
		ok, err := deviceSuitable(d, surface, extensions)
		if err != nil {
			log.Printf("skipping device %v: %v", d, err)
			continue
		}
		if ok {
			return d, nil
		}
	}
	return nil, ErrNoSuitableDevice
}

// NewDeviceContext builds the instance, surface, device and queues for the
// window. The vulkan loader must already be initialized, see the examples
// for the glfw dance that does it.
func NewDeviceContext(config Config, window *glfw.Window) (*DeviceContext, error) {
	config = config.withDefaults()

	ctx := &DeviceContext{Config: config}

	ctx.App = &App{Name: config.Name, Version: config.Version}

	for _, ext := range window.GetRequiredInstanceExtensions() {
		ctx.App.EnableExtension(ext)
	}

	if config.EnableValidation {
		for _, layer := range config.ValidationLayers {
			if _, err := ctx.App.EnableLayer(layer); err != nil {
				return nil, err
			}
		}
		ctx.App.EnableExtension("VK_EXT_debug_report")
	}

	instance, err := ctx.App.CreateInstance()
	if err != nil {
		return nil, err
	}
	ctx.Instance = instance

	if config.EnableValidation {
		if err := instance.UseDefaultDebugCallback(); err != nil {
			ctx.Destroy()
			return nil, err
		}
	}

	surfacePtr, err := window.CreateWindowSurface(instance.VKInstance, nil)
	if err != nil {
		ctx.Destroy()
		return nil, fmt.Errorf("create window surface: %w", err)
	}
	ctx.VKSurface = vk.SurfaceFromPointer(surfacePtr)

	devices, err := instance.PhysicalDevices()
	if err != nil {
		ctx.Destroy()
		return nil, fmt.Errorf("error getting devices: %w", err)
	}

	pdevice, err := pickPhysicalDevice(devices, ctx.VKSurface, config.DeviceExtensions)
	if err != nil {
		ctx.Destroy()
		return nil, err
	}
	ctx.PhysicalDevice = pdevice
	log.Printf("using device '%s'", pdevice)

	families, err := pdevice.QueueFamilies()
	if err != nil {
		ctx.Destroy()
		return nil, fmt.Errorf("unable to load device queue families: %w", err)
	}

	// A family doing both graphics and present keeps the swapchain exclusive,
	// so prefer one when it exists
	var graphicsFamily, presentFamily *QueueFamily
	if combined := families.FilterGraphicsAndPresent(ctx.VKSurface); len(combined) > 0 {
		graphicsFamily = combined[0]
		presentFamily = combined[0]
	} else {
		graphicsFamily = families.FilterGraphics()[0]
		presentFamily = families.FilterPresent(ctx.VKSurface)[0]
	}

	device, err := pdevice.CreateLogicalDeviceWithOptions(QueueFamilySlice{graphicsFamily, presentFamily}, &CreateDeviceOptions{
		EnabledExtensions: config.DeviceExtensions,
	})
	if err != nil {
		ctx.Destroy()
		return nil, err
	}
	ctx.Device = device

	ctx.GraphicsQueue = device.GetQueue(graphicsFamily)
	ctx.PresentQueue = device.GetQueue(presentFamily)

	return ctx, nil
}

// Destroy releases the surface, device and instance. Everything created from
// the device must already be gone.
func (c *DeviceContext) Destroy() {
	if c.VKSurface != vk.NullSurface && c.Instance != nil {
		vk.DestroySurface(c.Instance.VKInstance, c.VKSurface, nil)
		c.VKSurface = vk.NullSurface
	}

	if c.Device != nil {
		c.Device.Destroy()
		c.Device = nil
	}

	if c.Instance != nil {
		c.Instance.Destroy()
		c.Instance = nil
	}
}
