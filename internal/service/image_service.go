package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"lukeblog/internal/config"
	"lukeblog/internal/featureflags"
	"lukeblog/internal/models"
	"lukeblog/internal/observability"

	"github.com/chai2010/webp"
	"go.opentelemetry.io/otel/attribute"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMediaRoot   = "media"
	DefaultMediaURL    = "/media/"
	DefaultUploadMaxMB = 10
	DefaultWatermark   = "@LukeBlog"
	MaxImageSize       = 2048
	WebPQuality        = 75
	watermarkMarginPx  = 10
	watermarkHeightDiv = 20
	uploadsDir         = "uploads"
)

var watermarkColor = color.RGBA{R: 255, A: 255}

// UploadImageInput is one editor upload.
type UploadImageInput struct {
	UserID      uint
	Filename    string
	ContentType string
	Content     []byte
}

// UploadedImage describes a stored upload.
type UploadedImage struct {
	FileName string `json:"fileName"`
	URL      string `json:"url"`
	WebPURL  string `json:"webpUrl"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// ImageService stores editor uploads under the media root, optionally watermarked.
type ImageService struct {
	mediaRoot          string
	mediaURL           string
	watermark          string
	maxUploadSizeBytes int64
	flags              *featureflags.Manager
	now                func() time.Time
}

func NewImageService(cfg *config.Config, flags *featureflags.Manager) *ImageService {
	s := &ImageService{
		mediaRoot:          DefaultMediaRoot,
		mediaURL:           DefaultMediaURL,
		watermark:          DefaultWatermark,
		maxUploadSizeBytes: DefaultUploadMaxMB * 1024 * 1024,
		flags:              flags,
		now:                time.Now,
	}
	if cfg != nil {
		if cfg.MediaRoot != "" {
			s.mediaRoot = cfg.MediaRoot
		}
		if cfg.MediaURL != "" {
			s.mediaURL = cfg.MediaURL
		}
		if cfg.WatermarkText != "" {
			s.watermark = cfg.WatermarkText
		}
		if cfg.UploadMaxMB > 0 {
			s.maxUploadSizeBytes = int64(cfg.UploadMaxMB) * 1024 * 1024
		}
	}
	return s
}

// Upload validates, resizes and watermarks an image, then writes a PNG and
// a WebP copy under uploads/<yyyy>/<mm>/.
func (s *ImageService) Upload(ctx context.Context, in UploadImageInput) (out *UploadedImage, err error) {
	_, span := observability.StartSpan(ctx, "image.upload",
		attribute.String("image.filename", in.Filename),
		attribute.Int("image.size", len(in.Content)),
	)
	defer func() { observability.EndSpan(span, err) }()

	out, err = s.upload(in)
	if err != nil {
		outcome := "error"
		if models.ErrorCode(err) == models.CodeValidation {
			outcome = "rejected"
		}
		observability.ImageUploads.WithLabelValues(outcome).Inc()
		return nil, err
	}
	observability.ImageUploads.WithLabelValues("stored").Inc()
	return out, nil
}

func (s *ImageService) upload(in UploadImageInput) (*UploadedImage, error) {
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}
	if !isAllowedImageMIME(http.DetectContentType(in.Content)) {
		return nil, models.NewValidationError("Invalid image type")
	}

	decoded, _, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}

	img := resizeToFit(decoded, MaxImageSize, MaxImageSize)
	if s.flags.Enabled(featureflags.Watermark, in.UserID) {
		img = stampWatermark(img, s.watermark)
	}

	pngBytes, err := encodePNG(img)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	webpBytes, err := encodeWebP(img, WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	sum := sha256.Sum256(pngBytes)
	hash := hex.EncodeToString(sum[:])
	now := s.now().UTC()
	dir := path.Join(uploadsDir, now.Format("2006"), now.Format("01"))
	pngRel := path.Join(dir, hash+".png")
	webpRel := path.Join(dir, hash+".webp")

	if err := writeBytesToFile(filepath.Join(s.mediaRoot, filepath.FromSlash(pngRel)), pngBytes); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := writeBytesToFile(filepath.Join(s.mediaRoot, filepath.FromSlash(webpRel)), webpBytes); err != nil {
		_ = os.Remove(filepath.Join(s.mediaRoot, filepath.FromSlash(pngRel)))
		return nil, models.NewInternalError(err)
	}

	b := img.Bounds()
	return &UploadedImage{
		FileName: hash + ".png",
		URL:      s.mediaLink(pngRel),
		WebPURL:  s.mediaLink(webpRel),
		Width:    b.Dx(),
		Height:   b.Dy(),
	}, nil
}

func (s *ImageService) mediaLink(rel string) string {
	return strings.TrimSuffix(s.mediaURL, "/") + "/" + rel
}

// stampWatermark draws text in red, centered horizontally and
// watermarkMarginPx above the bottom edge. The basic font is scaled so the
// text is about a twentieth of the image height.
func stampWatermark(src image.Image, text string) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	if strings.TrimSpace(text) == "" {
		return dst
	}

	face := basicfont.Face7x13
	metrics := face.Metrics()
	textW := font.MeasureString(face, text).Ceil()
	textH := metrics.Height.Ceil()
	if textW <= 0 || textH <= 0 {
		return dst
	}

	mask := image.NewAlpha(image.Rect(0, 0, textW, textH))
	d := &font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.P(0, metrics.Ascent.Ceil()),
	}
	d.DrawString(text)

	height := b.Dy() / watermarkHeightDiv
	if height < textH {
		height = textH
	}
	width := textW * height / textH
	if width > b.Dx() {
		width = b.Dx()
		height = textH * width / textW
	}
	if width < 1 || height < 1 {
		return dst
	}
	scaled := image.NewAlpha(image.Rect(0, 0, width, height))
	xdraw.NearestNeighbor.Scale(scaled, scaled.Bounds(), mask, mask.Bounds(), xdraw.Src, nil)

	x := (b.Dx() - width) / 2
	y := b.Dy() - height - watermarkMarginPx
	if y < 0 {
		y = 0
	}
	target := image.Rect(x, y, x+width, y+height)
	draw.DrawMask(dst, target, image.NewUniform(watermarkColor), image.Point{}, scaled, image.Point{}, draw.Over)
	return dst
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodePNG(img image.Image) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	switch strings.ToLower(strings.TrimSpace(mediaType)) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func writeBytesToFile(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o600)
}
