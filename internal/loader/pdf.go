// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package loader

import (
	"context"
	"fmt"
	"image"
	"io"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/pdiddy/pdf-extractor/internal/logging"
	"github.com/pdiddy/pdf-extractor/pkg/types"
)

// PDFLoader parses PDFs in-process with github.com/ledongthuc/pdf.
type PDFLoader struct {
	decodeImages bool
	logger       *zap.Logger
}

// NewPDFLoader returns the native PDF backend. When decodeImages is set,
// image pixels are read while the file is open and attached to each RawImage.
func NewPDFLoader(decodeImages bool, logger *zap.Logger) *PDFLoader {
	logger = logging.OrNop(logger)
	return &PDFLoader{decodeImages: decodeImages, logger: logger}
}

func (l *PDFLoader) Name() string { return string(types.BackendNative) }

// Load opens path and reads every page. A page that cannot be read is kept
// with its Err set; only failures to open the file abort the load.
func (l *PDFLoader) Load(ctx context.Context, path string) (doc *RawDocument, err error) {
	defer recoverErr(&err, "reading "+path)

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoPages)
	}
	l.logger.Debug("pdf opened", zap.String("path", path), zap.Int("pages", numPages))

	doc = &RawDocument{
		Path:     path,
		Backend:  l.Name(),
		Metadata: readMetadata(r),
		Pages:    make([]RawPage, 0, numPages),
	}
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := l.loadPage(r, i)
		if page.Err != nil {
			l.logger.Warn("page partially read",
				zap.String("path", path),
				zap.Int("page", i),
				zap.Error(page.Err))
		}
		doc.Pages = append(doc.Pages, page)
	}
	return doc, nil
}

func (l *PDFLoader) loadPage(r *pdf.Reader, num int) RawPage {
	raw := RawPage{Number: num}
	p := r.Page(num)
	if p.V.IsNull() {
		raw.Err = fmt.Errorf("page %d not found in page tree", num)
		return raw
	}

	raw.Width, raw.Height = pageSize(p)

	text, err := p.GetPlainText(nil)
	if err != nil {
		raw.Err = fmt.Errorf("extracting text: %w", err)
	}
	raw.Text = text

	raw.Images = pageImages(p, l.decodeImages)

	rects, err := countRects(p)
	if err != nil && raw.Err == nil {
		raw.Err = err
	}
	raw.Rects = rects
	return raw
}

// readMetadata reads the trailer's Info dictionary.
func readMetadata(r *pdf.Reader) types.Metadata {
	info := r.Trailer().Key("Info")
	if info.IsNull() {
		return types.Metadata{}
	}
	return types.Metadata{
		Title:            info.Key("Title").Text(),
		Author:           info.Key("Author").Text(),
		Subject:          info.Key("Subject").Text(),
		Creator:          info.Key("Creator").Text(),
		Producer:         info.Key("Producer").Text(),
		CreationDate:     info.Key("CreationDate").Text(),
		ModificationDate: info.Key("ModDate").Text(),
	}
}

// inherited looks key up on the page and then on its ancestors.
func inherited(v pdf.Value, key string) pdf.Value {
	for ; !v.IsNull(); v = v.Key("Parent") {
		if found := v.Key(key); !found.IsNull() {
			return found
		}
	}
	return pdf.Value{}
}

// pageSize returns the MediaBox width and height in points.
func pageSize(p pdf.Page) (float64, float64) {
	box := inherited(p.V, "MediaBox")
	if box.Len() != 4 {
		return 0, 0
	}
	w := box.Index(2).Float64() - box.Index(0).Float64()
	h := box.Index(3).Float64() - box.Index(1).Float64()
	return w, h
}

// pageImages lists the image XObjects in the page's resources, sorted by
// resource name.
func pageImages(p pdf.Page, decode bool) []RawImage {
	xobjects := p.Resources().Key("XObject")
	var images []RawImage
	for _, name := range xobjects.Keys() {
		x := xobjects.Key(name)
		if x.Key("Subtype").Name() != "Image" {
			continue
		}
		img := RawImage{
			Name:             name,
			Width:            int(x.Key("Width").Int64()),
			Height:           int(x.Key("Height").Int64()),
			Filter:           filterName(x.Key("Filter")),
			ColorSpace:       x.Key("ColorSpace").Name(),
			BitsPerComponent: int(x.Key("BitsPerComponent").Int64()),
		}
		if decode {
			img.Pixels, img.DecodeErr = decodeXObject(x, img)
		}
		images = append(images, img)
	}
	return images
}

// filterName returns the first filter of a stream, whether given as a name
// or an array of names.
func filterName(v pdf.Value) string {
	switch v.Kind() {
	case pdf.Name:
		return v.Name()
	case pdf.Array:
		if v.Len() > 0 {
			return v.Index(0).Name()
		}
	}
	return ""
}

// decodeXObject reads raster data for the encodings the parser can inflate.
func decodeXObject(x pdf.Value, img RawImage) (out image.Image, err error) {
	defer recoverErr(&err, "decoding image "+img.Name)

	if img.Filter != "" && img.Filter != "FlateDecode" {
		return nil, fmt.Errorf("image %s: unsupported encoding %s", img.Name, img.Filter)
	}
	rc := x.Reader()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("image %s: reading stream: %w", img.Name, err)
	}
	return decodeRaster(data, img.Width, img.Height, img.ColorSpace, img.BitsPerComponent)
}

// countRects interprets the content stream and counts "re" operators.
func countRects(p pdf.Page) (n int, err error) {
	defer recoverErr(&err, "reading vector content")
	return len(p.Content().Rect), nil
}
