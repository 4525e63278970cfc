// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package loader

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRaster(t *testing.T) {
	t.Run("gray", func(t *testing.T) {
		img, err := decodeRaster([]byte{0, 64, 128, 255}, 2, 2, "DeviceGray", 8)
		require.NoError(t, err)
		assert.Equal(t, color.Gray{Y: 255}, img.At(1, 1))
	})

	t.Run("rgb", func(t *testing.T) {
		img, err := decodeRaster([]byte{255, 0, 0, 0, 0, 255}, 2, 1, "DeviceRGB", 8)
		require.NoError(t, err)
		assert.Equal(t, color.RGBA{R: 255, A: 255}, img.At(0, 0))
		assert.Equal(t, color.RGBA{B: 255, A: 255}, img.At(1, 0))
	})

	errCases := []struct {
		name  string
		data  []byte
		w, h  int
		cs    string
		bpc   int
		wants string
	}{
		{name: "short data", data: []byte{1, 2}, w: 2, h: 2, cs: "DeviceGray", bpc: 8, wants: "short"},
		{name: "cmyk", data: make([]byte, 16), w: 2, h: 2, cs: "DeviceCMYK", bpc: 8, wants: "color space"},
		{name: "one bit", data: make([]byte, 4), w: 2, h: 2, cs: "DeviceGray", bpc: 1, wants: "bits per component"},
		{name: "zero size", data: nil, w: 0, h: 2, cs: "DeviceGray", bpc: 8, wants: "invalid image size"},
	}
	for _, tt := range errCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeRaster(tt.data, tt.w, tt.h, tt.cs, tt.bpc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wants)
		})
	}
}
