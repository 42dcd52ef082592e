// file: internals/helpers/convert_image.go
package helper

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	xwebp "golang.org/x/image/webp"
)

// Matches the missions-assets bucket limit.
const MaxImageBytes = 5 * 1024 * 1024

var allowedImageMIME = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/webp":    true,
	"image/gif":     true,
	"image/svg+xml": true,
}

// PrepareImageUpload reads and validates an attached image. Oversized
// jpeg/png/webp files are downscaled and re-encoded as WebP so they fit the
// bucket limit; anything else over the limit is rejected.
func PrepareImageUpload(fh *multipart.FileHeader) ([]byte, string, error) {
	if fh == nil {
		return nil, "", fmt.Errorf("nil file header")
	}
	src, err := fh.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open file: %w", err)
	}
	defer src.Close()

	all, err := io.ReadAll(src)
	if err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	if len(all) == 0 {
		return nil, "", fmt.Errorf("empty file")
	}

	ct := sniffImageType(all, fh.Filename)
	if !allowedImageMIME[ct] {
		return nil, "", fmt.Errorf("unsupported image format: %s", ct)
	}

	if len(all) <= MaxImageBytes {
		return all, ct, nil
	}

	img, err := decodeImage(all, ct)
	if err != nil {
		return nil, "", fmt.Errorf("image exceeds %dMB and cannot be recompressed: %w", MaxImageBytes/(1024*1024), err)
	}

	// Iterative downscale + WebP re-encode until under the bucket limit.
	for maxDim := 1600; maxDim >= 480; maxDim -= 280 {
		fitted := imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
		buf := new(bytes.Buffer)
		if err := webp.Encode(buf, fitted, &webp.Options{Lossless: false, Quality: 80}); err != nil {
			return nil, "", fmt.Errorf("webp encode: %w", err)
		}
		if buf.Len() <= MaxImageBytes {
			return buf.Bytes(), "image/webp", nil
		}
	}
	return nil, "", fmt.Errorf("image exceeds %dMB after recompression", MaxImageBytes/(1024*1024))
}

func sniffImageType(all []byte, filename string) string {
	head := all
	if len(head) > 512 {
		head = head[:512]
	}
	ct := http.DetectContentType(head)
	if ct == "application/octet-stream" || ct == "text/plain; charset=utf-8" {
		if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); byExt != "" {
			ct = byExt
		}
	}
	// strip parameters ("text/xml; charset=utf-8" style)
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if strings.HasSuffix(strings.ToLower(filepath.Ext(filename)), ".svg") && strings.Contains(ct, "xml") {
		ct = "image/svg+xml"
	}
	return ct
}

func decodeImage(all []byte, ct string) (image.Image, error) {
	switch ct {
	case "image/jpeg":
		return jpeg.Decode(bytes.NewReader(all))
	case "image/png":
		return png.Decode(bytes.NewReader(all))
	case "image/webp":
		return xwebp.Decode(bytes.NewReader(all))
	}
	return nil, fmt.Errorf("no decoder for %s", ct)
}

func init() {
	_ = mime.AddExtensionType(".webp", "image/webp")
	_ = mime.AddExtensionType(".svg", "image/svg+xml")
}
