package folio

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"github.com/eringen/folio/content"
)

const (
	maxThumbWidth = 800
	jpegQuality   = 80
)

// processImage decodes an image from src, scales it down to
// maxThumbWidth when it is wider, and encodes it as JPEG.
func processImage(src io.Reader) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxThumbWidth {
		newH := h * maxThumbWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxThumbWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// generateThumbs builds thumbs/<slug>.jpg for every project that names
// an image. Sources resolve relative to the static dir. A thumbnail at
// least as new as its source is left alone.
func (a *App) generateThumbs(projects []content.Project) error {
	dir := a.thumbsDir()
	for _, p := range projects {
		if p.Image == "" {
			continue
		}
		src := filepath.Join(a.Config.StaticDir, p.Image)
		si, err := os.Stat(src)
		if err != nil {
			return fmt.Errorf("project %s image: %w", p.Slug, err)
		}
		dst := filepath.Join(dir, p.Slug+".jpg")
		if di, err := os.Stat(dst); err == nil && !di.ModTime().Before(si.ModTime()) {
			continue
		}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		f, err := os.Open(src)
		if err != nil {
			return fmt.Errorf("project %s image: %w", p.Slug, err)
		}
		data, err := processImage(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("project %s image: %w", p.Slug, err)
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
