package vkr

import (
	vk "github.com/vulkan-go/vulkan"
)

// Sampler wraps a vulkan sampler
type Sampler struct {
	Device    *Device
	VKSampler vk.Sampler
}

// CreateSampler creates a linear filtering sampler with repeat addressing.
// A maxAnisotropy above 1 enables anisotropic filtering, which needs the
// samplerAnisotropy device feature.
func (d *Device) CreateSampler(maxAnisotropy float32) (*Sampler, error) {
	anisotropyEnable := vk.Bool32(vk.False)
	if maxAnisotropy > 1 {
		anisotropyEnable = vk.Bool32(vk.True)
	} else {
		maxAnisotropy = 1
	}

	var sampler vk.Sampler
	err := vk.Error(vk.CreateSampler(d.VKDevice, &vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        anisotropyEnable,
		MaxAnisotropy:           maxAnisotropy,
		CompareOp:               vk.CompareOpAlways,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
	}, nil, &sampler))
	if err != nil {
		return nil, err
	}

	return &Sampler{Device: d, VKSampler: sampler}, nil
}

func (s *Sampler) Destroy() {
	vk.DestroySampler(s.Device.VKDevice, s.VKSampler, nil)
}
