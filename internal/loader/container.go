// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package loader

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/pdiddy/pdf-extractor/internal/container"
	"github.com/pdiddy/pdf-extractor/internal/logging"
	"github.com/pdiddy/pdf-extractor/pkg/types"
)

// pdftotextCommand reads a PDF on stdin and writes layout-preserving text
// to stdout, pages separated by form feeds.
var pdftotextCommand = []string{"pdftotext", "-layout", "-enc", "UTF-8", "-", "-"}

// ContainerLoader runs pdftotext inside a container image. It recovers
// text only, which suits scanned or unusual PDFs the native parser rejects.
type ContainerLoader struct {
	runtime container.Runtime
	image   string
	logger  *zap.Logger
}

// NewContainerLoader checks that image is present for rt and returns a
// loader that uses it.
func NewContainerLoader(ctx context.Context, rt container.Runtime, image string, logger *zap.Logger) (*ContainerLoader, error) {
	logger = logging.OrNop(logger)
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, err
	}
	logger.Debug("container backend ready", zap.String("runtime", rt.Name()), zap.String("image", image))
	return &ContainerLoader{runtime: rt, image: image, logger: logger}, nil
}

func (l *ContainerLoader) Name() string { return string(types.BackendContainer) }

func (l *ContainerLoader) Load(ctx context.Context, path string) (*RawDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := l.runtime.Run(ctx, l.image, pdftotextCommand, f, &out); err != nil {
		return nil, fmt.Errorf("converting %s: %w", path, err)
	}
	l.logger.Debug("pdftotext finished", zap.String("path", path), zap.Int("bytes", out.Len()))

	pages := splitPages(out.String())
	if len(pages) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoPages)
	}
	return &RawDocument{Path: path, Backend: l.Name(), Pages: pages}, nil
}
