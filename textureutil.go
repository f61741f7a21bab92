package vkr

import (
	"fmt"
	"image"
	"image/draw"

	// Register the image formats textures commonly ship in
	_ "image/jpeg"
	_ "image/png"
	"os"
	"time"

	vk "github.com/vulkan-go/vulkan"
)

// LoadRGBA decodes an image file into RGBA pixels ready for staging
func LoadRGBA(filename string) (*image.RGBA, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	src, _, err := image.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("decode texture '%s': %w", filename, err)
	}
	b := src.Bounds()

	m := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(m, m.Bounds(), src, b.Min, draw.Src)

	return m, nil
}

// StageTextureFromImage uploads RGBA pixels into this pool as a sampled
// texture. Texture contents are treated as sRGB.
func (p *ImageResourcePool) StageTextureFromImage(srcImg *image.RGBA, cmd *CommandBuffer, queue *Queue) (*ImageResource, error) {

	b := srcImg.Bounds()

	var extent vk.Extent2D

	extent.Width = uint32(b.Dx())
	extent.Height = uint32(b.Dy())

	img, err := p.AllocateImage(extent, vk.FormatR8g8b8a8Srgb, vk.ImageTilingOptimal, vk.ImageUsageTransferDstBit|vk.ImageUsageSampledBit)
	if err != nil {
		return nil, err
	}

	if err := img.AllocateStagingResource(); err != nil {
		img.Free()
		return nil, err
	}
	defer img.FreeStagingResource()

	if _, err := img.StagingResource.ResourcePool.Memory.Map(); err != nil {
		img.Free()
		return nil, err
	}

	srb := img.StagingResource.Bytes()
	if srb == nil {
		img.Free()
		return nil, fmt.Errorf("unable to map bytes for image data, make sure staging buffer has been mapped")
	}

	copy(srb, srcImg.Pix)

	if err := cmd.BeginOneTime(); err != nil {
		img.Free()
		return nil, err
	}
	cmd.TransitionImageLayout(img, vk.FormatR8g8b8a8Srgb, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
	cmd.StageImageResource(img)
	cmd.TransitionImageLayout(img, vk.FormatR8g8b8a8Srgb, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	if err := cmd.End(); err != nil {
		img.Free()
		return nil, err
	}

	f, err := p.Device.CreateFence()
	if err != nil {
		img.Free()
		return nil, err
	}
	defer f.Destroy()

	if err := queue.SubmitWithFence(f, cmd); err != nil {
		img.Free()
		return nil, err
	}

	// The staging span is released on return, so the copy must be done
	if err := p.Device.WaitForFences(true, 100*time.Second, f); err != nil {
		img.Free()
		return nil, err
	}

	return img, nil
}
