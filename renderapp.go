package vkr

import (
	"fmt"
	"image"
	"log"
	"time"

	"github.com/vulkan-go/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

// Pool names used by a RenderApp within its ResourceManager. Applications
// sharing the manager must avoid these names.
const (
	GeometryPoolName = "geometry"
	TexturePoolName  = "textures"
	UniformPoolName  = "uniforms"
)

// UniformFunc produces the bytes written into a frame's uniform buffer. It is
// called once per frame with the time elapsed since PrepareToDraw and the
// swapchain's current aspect ratio, and once at startup (elapsed zero) to size
// the uniform buffers. The returned slice must keep the same length for the
// life of the app.
type UniformFunc func(elapsed time.Duration, aspect float32) []byte

// frameSlot owns the synchronization objects for one in-flight frame: the
// semaphore acquire signals when its image is usable, the semaphore present
// waits on, and the fence the CPU throttles on. Slots are created once and
// survive every swapchain rebuild.
type frameSlot struct {
	imageAvailable vk.Semaphore
	renderFinished vk.Semaphore
	inFlight       vk.Fence
}

// RenderApp draws a single indexed mesh, optionally textured, into a GLFW
// window, keeping a bounded number of frames in flight and surviving window
// resizes and minimizes. It is the concrete assembly of the package's pieces:
// a DeviceContext, a ResourceManager with staged device local geometry, a
// SwapchainState rebuilt on demand, pre-recorded command buffers and a
// FrameScheduler pacing it all.
//
// Configure the public fields, then call PrepareToDraw once and DrawFrame
// from the window loop. All methods must be called from the thread that owns
// the GLFW window.
type RenderApp struct {
	Config  Config
	Window  *glfw.Window
	Context *DeviceContext

	ResourceManager *ResourceManager

	// Mesh description. VertexData and IndexData are uploaded once into
	// device local memory during PrepareToDraw and persist across rebuilds.
	VertexData VertexSource
	IndexData  IndexSource

	// Texture is optional decoded pixel data, staged into a device local
	// sRGB image and bound as a combined image sampler at binding 1.
	Texture *image.RGBA

	// VertexShaderPath and FragmentShaderPath name compiled SPIR-V files.
	// A missing file fails PrepareToDraw.
	VertexShaderPath   string
	FragmentShaderPath string

	// Uniforms feeds the per frame uniform buffers. Required.
	Uniforms UniformFunc

	// ConfigurePipeline, when set, may adjust the pipeline config after the
	// app applies its defaults and before the pipeline is first built.
	ConfigurePipeline func(*GraphicsPipelineConfig)

	// Swapchain independent resources
	vertexResource *BufferResource
	indexResource  *BufferResource
	indexCount     int

	textureResource *ImageResource
	textureView     *ImageView
	sampler         *Sampler

	descriptorSetLayout *DescriptorSetLayout
	pipelineLayout      *PipelineLayout
	pipelineCache       *PipelineCache
	pipelineConfig      *GraphicsPipelineConfig

	recorder *CommandRecorder
	slots    []frameSlot

	// Swapchain dependent resources, rebuilt together
	swapchainState *SwapchainState
	pipeline       *Pipeline
	uniformPool    *BufferResourcePool
	uniformBuffers []*BufferResource
	descriptorPool *DescriptorPool
	descriptorSets []*DescriptorSet

	scheduler *FrameScheduler
	start     time.Time
	resized   bool

	// Injected for tests; default to the window's queries
	framebufferSize func() (int, int)
	waitEvents      func()

	prepared bool
}

// NewRenderApp creates the device context for the window and registers the
// resize callback. The vulkan loader must already be initialized.
func NewRenderApp(config Config, window *glfw.Window) (*RenderApp, error) {
	ctx, err := NewDeviceContext(config, window)
	if err != nil {
		return nil, err
	}

	app := &RenderApp{
		Config:  ctx.Config,
		Window:  window,
		Context: ctx,
	}
	app.ResourceManager = ctx.Device.CreateResourceManager()
	app.framebufferSize = window.GetFramebufferSize
	app.waitEvents = glfw.WaitEvents

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		app.resized = true
	})

	return app, nil
}

// PrepareToDraw uploads the mesh and texture, builds the pipeline and the
// swapchain dependent state, records the command buffers and arms the frame
// scheduler. It must be called exactly once, after the mesh fields are set.
func (app *RenderApp) PrepareToDraw() error {
	if app.prepared {
		return fmt.Errorf("PrepareToDraw called twice")
	}
	if app.VertexData == nil || app.IndexData == nil {
		return fmt.Errorf("no mesh configured")
	}
	if app.Uniforms == nil {
		return fmt.Errorf("no uniform function configured")
	}

	if err := app.createStaticResources(); err != nil {
		return err
	}
	app.ResourceManager.LogDetails()
	if err := app.createSlots(); err != nil {
		return err
	}
	if err := app.createSwapchainDependent(); err != nil {
		return err
	}

	app.scheduler = newFrameScheduler(app, app.Config.FramesInFlight)
	app.start = time.Now()
	app.prepared = true
	return nil
}

// DrawFrame runs one iteration of the frame loop. Errors are fatal; stale
// swapchains are handled internally.
func (app *RenderApp) DrawFrame() error {
	return app.scheduler.DrawFrame()
}

// createStaticResources builds everything that survives swapchain rebuilds:
// the staged geometry, the texture with its view and sampler, the descriptor
// and pipeline layouts, the pipeline config and the command pool.
func (app *RenderApp) createStaticResources() error {
	device := app.Context.Device

	vertexBytes := app.VertexData.Bytes()
	indexBytes := app.IndexData.Bytes()
	app.indexCount = indexCount(app.IndexData)

	// The staging pool holds one transfer at a time, so it only needs to fit
	// the largest upload. The slack absorbs alignment padding.
	stagingNeeded := len(vertexBytes)
	if len(indexBytes) > stagingNeeded {
		stagingNeeded = len(indexBytes)
	}
	if app.Texture != nil && len(app.Texture.Pix) > stagingNeeded {
		stagingNeeded = len(app.Texture.Pix)
	}
	if _, err := app.ResourceManager.AllocateStagingPool(uint64(stagingNeeded) + 4096); err != nil {
		return fmt.Errorf("allocate staging pool: %w", err)
	}

	geometryPool, err := app.ResourceManager.AllocateDeviceVertexAndIndexBufferPool(GeometryPoolName, uint64(len(vertexBytes)+len(indexBytes))+4096)
	if err != nil {
		return fmt.Errorf("allocate geometry pool: %w", err)
	}

	recorder, err := device.CreateCommandRecorder(app.Context.GraphicsQueue.QueueFamily)
	if err != nil {
		return err
	}
	app.recorder = recorder

	staging, err := recorder.Pool.AllocateBuffer()
	if err != nil {
		return err
	}
	defer recorder.Pool.FreeBuffer(staging)

	app.vertexResource, err = geometryPool.AllocateBuffer(uint64(len(vertexBytes)), vk.BufferUsageVertexBufferBit)
	if err != nil {
		return err
	}
	if err := app.vertexResource.StageBytes(vertexBytes, staging, app.Context.GraphicsQueue); err != nil {
		return fmt.Errorf("stage vertex data: %w", err)
	}

	app.indexResource, err = geometryPool.AllocateBuffer(uint64(len(indexBytes)), vk.BufferUsageIndexBufferBit)
	if err != nil {
		return err
	}
	if err := app.indexResource.StageBytes(indexBytes, staging, app.Context.GraphicsQueue); err != nil {
		return fmt.Errorf("stage index data: %w", err)
	}

	if app.Texture != nil {
		texturePool, err := app.ResourceManager.AllocateDeviceTexturePool(TexturePoolName, uint64(len(app.Texture.Pix))+262144)
		if err != nil {
			return fmt.Errorf("allocate texture pool: %w", err)
		}
		app.textureResource, err = texturePool.StageTextureFromImage(app.Texture, staging, app.Context.GraphicsQueue)
		if err != nil {
			return fmt.Errorf("stage texture: %w", err)
		}
		app.textureView, err = app.textureResource.CreateImageViewWithAspectMask(vk.ImageAspectFlags(vk.ImageAspectColorBit))
		if err != nil {
			return err
		}
		app.sampler, err = device.CreateSampler(app.Context.PhysicalDevice.MaxSamplerAnisotropy())
		if err != nil {
			return err
		}
	}

	dsl := device.NewDescriptorSetLayout()
	dsl.AddBinding(vk.DescriptorSetLayoutBinding{
		Binding:         0,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
	})
	if app.Texture != nil {
		dsl.AddBinding(vk.DescriptorSetLayoutBinding{
			Binding:         1,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		})
	}
	app.descriptorSetLayout, err = device.CreateDescriptorSetLayout(dsl)
	if err != nil {
		return err
	}

	app.pipelineLayout, err = device.CreatePipelineLayout(app.descriptorSetLayout)
	if err != nil {
		return err
	}

	app.pipelineCache, err = device.CreatePipelineCache()
	if err != nil {
		return err
	}

	config := device.CreateGraphicsPipelineConfig()
	config.AddVertexDescriptor(app.VertexData)
	config.SetPipelineLayout(app.pipelineLayout)
	// The render pass has no depth attachment
	config.SetDepthTest(false)
	if err := config.AddShaderStageFromFile(app.VertexShaderPath, "main", vk.ShaderStageVertexBit); err != nil {
		return err
	}
	if err := config.AddShaderStageFromFile(app.FragmentShaderPath, "main", vk.ShaderStageFragmentBit); err != nil {
		return err
	}
	if app.ConfigurePipeline != nil {
		app.ConfigurePipeline(config)
	}
	app.pipelineConfig = config

	return nil
}

func (app *RenderApp) createSlots() error {
	device := app.Context.Device
	app.slots = make([]frameSlot, app.Config.FramesInFlight)
	for i := range app.slots {
		var err error
		if app.slots[i].imageAvailable, err = device.VKCreateSemaphore(); err != nil {
			return err
		}
		if app.slots[i].renderFinished, err = device.VKCreateSemaphore(); err != nil {
			return err
		}
		// Created signaled so the first wait on a never-submitted slot
		// passes straight through
		if app.slots[i].inFlight, err = device.VKCreateFence(true); err != nil {
			return err
		}
	}
	return nil
}

func (app *RenderApp) destroySlots() {
	device := app.Context.Device
	for i := range app.slots {
		device.VKDestroySemaphore(app.slots[i].imageAvailable)
		device.VKDestroySemaphore(app.slots[i].renderFinished)
		device.VKDestroyFence(app.slots[i].inFlight)
	}
	app.slots = nil
}

// createSwapchainDependent builds the swapchain bundle and everything sized
// by it: the pipeline, one uniform buffer and descriptor set per image, and
// the pre-recorded command buffers.
func (app *RenderApp) createSwapchainDependent() error {
	device := app.Context.Device

	fbWidth, fbHeight := app.framebufferSize()
	state, err := device.CreateSwapchainState(app.Context.VKSurface, app.Context.GraphicsQueue, app.Context.PresentQueue, &CreateSwapchainStateOptions{
		ActualSize:                vk.Extent2D{Width: uint32(fbWidth), Height: uint32(fbHeight)},
		DesiredNumSwapchainImages: app.Config.DesiredSwapchainImages,
	})
	if err != nil {
		return fmt.Errorf("create swapchain state: %w", err)
	}
	app.swapchainState = state

	app.pipeline, err = device.CreateGraphicsPipeline(app.pipelineCache, app.pipelineConfig, state.Extent(), state.VKRenderPass)
	if err != nil {
		return fmt.Errorf("create graphics pipeline: %w", err)
	}

	uniformBytes := app.Uniforms(0, app.aspect())
	uniformSize := uint64(len(uniformBytes))
	imageCount := state.ImageCount()

	app.uniformPool, err = app.ResourceManager.AllocateHostUniformBufferPool(UniformPoolName, (uniformSize+256)*uint64(imageCount))
	if err != nil {
		return fmt.Errorf("allocate uniform pool: %w", err)
	}
	if _, err := app.uniformPool.Memory.Map(); err != nil {
		return err
	}

	dpool := device.NewDescriptorPool()
	dpool.AddPoolSize(vk.DescriptorTypeUniformBuffer, imageCount)
	if app.Texture != nil {
		dpool.AddPoolSize(vk.DescriptorTypeCombinedImageSampler, imageCount)
	}
	if _, err := device.CreateDescriptorPool(dpool, imageCount); err != nil {
		return err
	}
	app.descriptorPool = dpool

	app.uniformBuffers = make([]*BufferResource, imageCount)
	app.descriptorSets = make([]*DescriptorSet, imageCount)
	for i := 0; i < imageCount; i++ {
		app.uniformBuffers[i], err = app.uniformPool.AllocateBuffer(uniformSize, vk.BufferUsageUniformBufferBit)
		if err != nil {
			return err
		}
		copy(app.uniformBuffers[i].Bytes(), uniformBytes)

		set, err := dpool.Allocate(app.descriptorSetLayout)
		if err != nil {
			return err
		}
		set.AddBuffer(0, vk.DescriptorTypeUniformBuffer, &app.uniformBuffers[i].Buffer, 0)
		if app.Texture != nil {
			set.AddCombinedImageSampler(1, vk.ImageLayoutShaderReadOnlyOptimal, app.textureView.VKImageView, app.sampler.VKSampler)
		}
		set.Write()
		app.descriptorSets[i] = set
	}

	return app.recordCommands()
}

// recordCommands records the fixed draw into one command buffer per
// swapchain image. The buffers stay untouched until the next rebuild.
func (app *RenderApp) recordCommands() error {
	var clear vk.ClearValue
	clear.SetColor(app.Config.ClearColor[:])

	return app.recorder.Record(app.swapchainState.ImageCount(), func(cb *CommandBuffer, image int) error {
		if err := cb.Begin(); err != nil {
			return err
		}
		cb.CmdBeginRenderPass(app.swapchainState.VKRenderPass, app.swapchainState.Framebuffers[image], app.swapchainState.Extent(), []vk.ClearValue{clear})
		cb.CmdBindGraphicsPipeline(app.pipeline)
		cb.CmdBindVertexBuffer(&app.vertexResource.Buffer, 0)
		cb.CmdBindIndexBuffer(&app.indexResource.Buffer, 0, app.IndexData.IndexType())
		cb.CmdBindDescriptorSets(vk.PipelineBindPointGraphics, app.pipelineLayout, 0, app.descriptorSets[image])
		cb.CmdDrawIndexed(app.indexCount)
		cb.CmdEndRenderPass()
		return cb.End()
	})
}

// destroySwapchainDependent releases everything createSwapchainDependent
// built, consumers before producers: command buffers, then the pipeline, the
// uniform buffers with their backing memory, the descriptor pool, and finally
// the swapchain bundle. The caller must have idled the device first.
func (app *RenderApp) destroySwapchainDependent() {
	if app.recorder != nil {
		app.recorder.FreeBuffers()
	}

	if app.pipeline != nil {
		app.pipeline.Destroy()
		app.pipeline = nil
	}

	if app.uniformPool != nil {
		app.uniformPool.Destroy()
		app.uniformPool = nil
	}
	app.uniformBuffers = nil

	if app.descriptorPool != nil {
		app.descriptorPool.Destroy()
		app.descriptorPool = nil
	}
	app.descriptorSets = nil

	if app.swapchainState != nil {
		app.swapchainState.Destroy()
		app.swapchainState = nil
	}
}

// stallWhileMinimized blocks while the framebuffer has no area. A zero sized
// swapchain cannot be created, so a minimized window parks the frame loop on
// the event queue until the window has pixels again.
func stallWhileMinimized(framebufferSize func() (int, int), waitEvents func()) {
	for {
		w, h := framebufferSize()
		if w > 0 && h > 0 {
			return
		}
		waitEvents()
	}
}

func (app *RenderApp) aspect() float32 {
	extent := app.swapchainState.Extent()
	if extent.Height == 0 {
		return 1
	}
	return float32(extent.Width) / float32(extent.Height)
}

// Destroy idles the device and tears everything down in reverse creation
// order, the device context last.
func (app *RenderApp) Destroy() {
	if app.Context == nil {
		return
	}
	device := app.Context.Device
	if device != nil {
		device.WaitIdle()
	}

	app.destroySwapchainDependent()
	app.destroySlots()

	if app.recorder != nil {
		app.recorder.Destroy()
		app.recorder = nil
	}

	if app.pipelineConfig != nil {
		app.pipelineConfig.Destroy()
		app.pipelineConfig = nil
	}
	if app.pipelineCache != nil {
		app.pipelineCache.Destroy(device)
		app.pipelineCache = nil
	}
	if app.pipelineLayout != nil {
		app.pipelineLayout.Destroy()
		app.pipelineLayout = nil
	}
	if app.descriptorSetLayout != nil {
		app.descriptorSetLayout.Destroy()
		app.descriptorSetLayout = nil
	}

	if app.sampler != nil {
		app.sampler.Destroy()
		app.sampler = nil
	}
	if app.textureView != nil {
		app.textureView.Destroy()
		app.textureView = nil
	}

	if app.ResourceManager != nil {
		app.ResourceManager.Destroy()
		app.ResourceManager = nil
	}

	if app.Context != nil {
		app.Context.Destroy()
		app.Context = nil
	}
}

// indexCount derives the number of indices from the source's bytes and
// index width.
func indexCount(src IndexSource) int {
	n := len(src.Bytes())
	if src.IndexType() == vk.IndexTypeUint32 {
		return n / 4
	}
	return n / 2
}

// frameTarget implementation. The scheduler calls these with slot and image
// indices; everything vulkan stays on this side.

func (app *RenderApp) waitSlotFence(slot int) error {
	return app.Context.Device.VKWaitForFence(app.slots[slot].inFlight)
}

func (app *RenderApp) resetSlotFence(slot int) error {
	return app.Context.Device.VKResetFence(app.slots[slot].inFlight)
}

func (app *RenderApp) acquire(slot int) (int, vk.Result) {
	var imageIndex uint32
	res := vk.AcquireNextImage(app.Context.Device.VKDevice, app.swapchainState.Swapchain.VKSwapchain,
		vk.MaxUint64, app.slots[slot].imageAvailable, vk.NullFence, &imageIndex)
	return int(imageIndex), res
}

func (app *RenderApp) updateUniforms(image int) error {
	data := app.Uniforms(time.Since(app.start), app.aspect())
	dst := app.uniformBuffers[image].Bytes()
	if len(data) != len(dst) {
		return fmt.Errorf("uniform data changed size: got %d bytes, buffer holds %d", len(data), len(dst))
	}
	copy(dst, data)
	return nil
}

func (app *RenderApp) submit(image, slot int) error {
	err := app.Context.GraphicsQueue.VKSubmit(
		app.recorder.Buffers[image].VK(),
		app.slots[slot].imageAvailable, vk.PipelineStageColorAttachmentOutputBit,
		app.slots[slot].renderFinished, app.slots[slot].inFlight)
	if err != nil {
		return fmt.Errorf("submit draw: %w", err)
	}
	return nil
}

func (app *RenderApp) present(image, slot int) vk.Result {
	return app.Context.PresentQueue.VKPresent(app.swapchainState.Swapchain.VKSwapchain,
		uint32(image), app.slots[slot].renderFinished)
}

func (app *RenderApp) resizePending() bool {
	return app.resized
}

// rebuild tears down and recreates everything hanging off the swapchain. The
// slot sync objects are untouched; the scheduler resets its own image table
// after this returns.
func (app *RenderApp) rebuild() error {
	stallWhileMinimized(app.framebufferSize, app.waitEvents)

	// Nothing the teardown touches may still be referenced by in flight
	// work, so idle the whole device, not just the queues.
	if err := app.Context.Device.WaitIdle(); err != nil {
		return fmt.Errorf("wait idle before rebuild: %w", err)
	}

	generation := app.swapchainState.Generation()
	app.destroySwapchainDependent()

	if err := app.createSwapchainDependent(); err != nil {
		return fmt.Errorf("rebuild swapchain: %w", err)
	}
	app.swapchainState.generation = generation + 1
	app.resized = false

	extent := app.swapchainState.Extent()
	log.Printf("swapchain rebuilt: generation %d, %dx%d, %d images",
		app.swapchainState.generation, extent.Width, extent.Height, app.swapchainState.ImageCount())
	return nil
}

func (app *RenderApp) imageCount() int {
	return app.swapchainState.ImageCount()
}
