package vkr

import (
	vk "github.com/vulkan-go/vulkan"
)

// Pipeline wraps a graphics pipeline. Pipelines bake the swapchain extent
// into their viewport state, so they die and are rebuilt with the swapchain.
type Pipeline struct {
	Device     *Device
	VKPipeline vk.Pipeline
}

func (p *Pipeline) Destroy() {
	vk.DestroyPipeline(p.Device.VKDevice, p.VKPipeline, nil)
}

type PipelineCache struct {
	VKPipelineCache vk.PipelineCache
}

func (d *Device) CreatePipelineCache() (*PipelineCache, error) {
	createInfo := vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}

	var cache vk.PipelineCache
	if err := vk.Error(vk.CreatePipelineCache(d.VKDevice, &createInfo, nil, &cache)); err != nil {
		return nil, err
	}
	return &PipelineCache{VKPipelineCache: cache}, nil
}

func (p *PipelineCache) Destroy(d *Device) {
	vk.DestroyPipelineCache(d.VKDevice, p.VKPipelineCache, nil)
}

// CreateGraphicsPipeline realizes a configured pipeline against a render pass
// and the current swapchain extent. The cache may be nil.
func (d *Device) CreateGraphicsPipeline(cache *PipelineCache, config *GraphicsPipelineConfig, extent vk.Extent2D, renderPass vk.RenderPass) (*Pipeline, error) {

	createInfo, err := config.VKGraphicsPipelineCreateInfo(extent)
	if err != nil {
		return nil, err
	}
	createInfo.RenderPass = renderPass

	var vkCache vk.PipelineCache
	if cache != nil {
		vkCache = cache.VKPipelineCache
	}

	pipelines := make([]vk.Pipeline, 1)

	err = vk.Error(vk.CreateGraphicsPipelines(
		d.VKDevice, vkCache,
		1, []vk.GraphicsPipelineCreateInfo{createInfo},
		nil, pipelines))

	if err != nil {
		return nil, err
	}

	return &Pipeline{Device: d, VKPipeline: pipelines[0]}, nil

}
