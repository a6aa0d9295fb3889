package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lukeblog/internal/config"
	"lukeblog/internal/featureflags"
	"lukeblog/internal/models"
	"lukeblog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImageService(t *testing.T, flags string) (*ImageService, string) {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{MediaRoot: root, MediaURL: "/media/", UploadMaxMB: 1, WatermarkText: "@LukeBlog"}
	svc := NewImageService(cfg, featureflags.NewManager(flags))
	svc.now = func() time.Time { return time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC) }
	return svc, root
}

func isRed(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r>>8 > 200 && g>>8 < 80 && b>>8 < 80
}

func redRows(img image.Image) (minY, maxY, count int) {
	b := img.Bounds()
	minY, maxY = -1, -1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !isRed(img.At(x, y)) {
				continue
			}
			count++
			if minY < 0 {
				minY = y
			}
			maxY = y
		}
	}
	return minY, maxY, count
}

func TestStampWatermark(t *testing.T) {
	t.Parallel()
	src := image.NewRGBA(image.Rect(0, 0, 400, 400))
	for i := range src.Pix {
		src.Pix[i] = 0xff
	}

	out := stampWatermark(src, "@LukeBlog")
	minY, maxY, count := redRows(out)
	require.Positive(t, count)

	// text is 20px tall (400/20) and sits 10px above the bottom edge
	assert.GreaterOrEqual(t, minY, 400-10-20)
	assert.LessOrEqual(t, maxY, 400-10)

	// centered horizontally
	b := out.Bounds()
	left, right := b.Max.X, 0
	for y := minY; y <= maxY; y++ {
		for x := 0; x < b.Max.X; x++ {
			if isRed(out.At(x, y)) {
				left = min(left, x)
				right = max(right, x)
			}
		}
	}
	assert.InDelta(t, 200, (left+right)/2, 15)

	// the source is untouched
	_, _, srcRed := redRows(src)
	assert.Zero(t, srcRed)
}

func TestImageService_Upload(t *testing.T) {
	t.Parallel()
	svc, root := newImageService(t, "watermark=on")

	content := testutil.TinyPNG(t, 4096, 800, color.White)
	up, err := svc.Upload(context.Background(), UploadImageInput{UserID: 1, Filename: "wide.png", ContentType: "image/png", Content: content})
	require.NoError(t, err)

	assert.Equal(t, 2048, up.Width)
	assert.Equal(t, 400, up.Height)
	assert.True(t, strings.HasPrefix(up.URL, "/media/uploads/2024/03/"), up.URL)
	assert.True(t, strings.HasSuffix(up.URL, up.FileName))
	assert.True(t, strings.HasSuffix(up.WebPURL, ".webp"))

	rel := strings.TrimPrefix(up.URL, "/media/")
	stored, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(stored))
	require.NoError(t, err)
	_, _, red := redRows(decoded)
	assert.Positive(t, red, "watermark expected")

	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(up.WebPURL, "/media/"))))
	assert.NoError(t, err)
}

func TestImageService_UploadWithoutWatermark(t *testing.T) {
	t.Parallel()
	svc, root := newImageService(t, "watermark=off")

	up, err := svc.Upload(context.Background(), UploadImageInput{Content: testutil.TinyPNG(t, 200, 100, color.White)})
	require.NoError(t, err)

	stored, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(up.URL, "/media/"))))
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(stored))
	require.NoError(t, err)
	_, _, red := redRows(decoded)
	assert.Zero(t, red)
}

func TestImageService_UploadRejects(t *testing.T) {
	t.Parallel()
	svc, _ := newImageService(t, "")

	tests := []struct {
		name    string
		content []byte
	}{
		{"empty", nil},
		{"not an image", []byte("<html><body>hello</body></html>")},
		{"too large", append(testutil.TinyPNG(t, 2, 2, color.White), make([]byte, 1024*1024)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), UploadImageInput{Content: tt.content})
			requireCode(t, models.CodeValidation, err)
		})
	}
}
