// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/pdiddy/pdf-extractor/internal/loader"
	"github.com/pdiddy/pdf-extractor/pkg/types"
)

// saveImages writes each decoded image as PNG and records the file path on
// the page's image details. Images that could not be decoded or written get
// a SaveError instead; they still count toward the page's image total.
func (p *Pipeline) saveImages(name string, page *types.Page, raw []loader.RawImage) {
	dir := filepath.Join(p.cfg.OutputDir, imagesDir)
	for i := range page.Images {
		img := &page.Images[i]
		if i >= len(raw) {
			break
		}
		r := raw[i]
		if r.Pixels == nil {
			if r.DecodeErr != nil {
				img.SaveError = r.DecodeErr.Error()
			} else {
				img.SaveError = "pixel data not available"
			}
			continue
		}

		path := filepath.Join(dir, fmt.Sprintf("%s_page%d_img%d.png", name, page.Number, img.Index))
		if err := writePNG(path, r); err != nil {
			p.logger.Warn("saving image", zap.String("path", path), zap.Error(err))
			img.SaveError = err.Error()
			continue
		}
		img.Path = path
	}
}

func writePNG(path string, r loader.RawImage) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating image directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := png.Encode(f, r.Pixels); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", r.Name, err)
	}
	return f.Close()
}
