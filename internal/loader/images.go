// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package loader

import (
	"fmt"
	"image"
	"image/color"
)

// decodeRaster builds an image from uncompressed 8-bit samples. Only
// DeviceGray and DeviceRGB are handled; anything else is reported so the
// caller can record why the image was not saved.
func decodeRaster(data []byte, width, height int, colorSpace string, bpc int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", width, height)
	}
	if bpc != 8 {
		return nil, fmt.Errorf("unsupported bits per component %d", bpc)
	}

	switch colorSpace {
	case "DeviceGray":
		if len(data) < width*height {
			return nil, fmt.Errorf("short gray image data: have %d bytes, want %d", len(data), width*height)
		}
		img := image.NewGray(image.Rect(0, 0, width, height))
		copy(img.Pix, data[:width*height])
		return img, nil

	case "DeviceRGB":
		if len(data) < width*height*3 {
			return nil, fmt.Errorf("short RGB image data: have %d bytes, want %d", len(data), width*height*3)
		}
		img := image.NewRGBA(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				i := (y*width + x) * 3
				img.SetRGBA(x, y, color.RGBA{R: data[i], G: data[i+1], B: data[i+2], A: 0xff})
			}
		}
		return img, nil

	default:
		return nil, fmt.Errorf("unsupported color space %q", colorSpace)
	}
}
