package service

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/draw"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"micropost/internal/config"
	"micropost/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"

	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder

	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultAvatarUploadDir       = "/tmp/micropost/uploads/avatars"
	DefaultAvatarMaxUploadSizeMB = 5
	AvatarSize                   = 256
	AvatarWebPQuality            = 80
)

// UploadAvatarInput carries an uploaded avatar image.
type UploadAvatarInput struct {
	UserID      uint
	Filename    string
	ContentType string
	Content     []byte
}

// AvatarService validates uploaded profile images, square-crops and
// downscales them, and stores them as WebP on disk.
type AvatarService struct {
	uploadDir          string
	maxUploadSizeBytes int64
}

// NewAvatarService returns a new AvatarService.
func NewAvatarService(cfg *config.Config) *AvatarService {
	uploadDir := DefaultAvatarUploadDir
	maxUploadSizeMB := DefaultAvatarMaxUploadSizeMB

	if cfg != nil {
		if cfg.AvatarUploadDir != "" {
			uploadDir = cfg.AvatarUploadDir
		}
		if cfg.AvatarMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.AvatarMaxUploadSizeMB
		}
	}

	return &AvatarService{
		uploadDir:          uploadDir,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// Upload validates and processes an avatar image and returns the URL path
// it will be served under. The filename is a content hash, so re-uploading
// the same image is harmless.
func (s *AvatarService) Upload(in UploadAvatarInput) (string, error) {
	if in.UserID == 0 {
		return "", models.NewValidationError("Invalid user")
	}
	if len(in.Content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedAvatarMIME(detectedType) {
		return "", models.NewValidationError("Invalid image type")
	}
	if provided := normalizeMediaType(in.ContentType); provided != "" && !isAllowedAvatarMIME(provided) {
		return "", models.NewValidationError("Invalid image type")
	}

	decoded, _, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return "", models.NewValidationError("Invalid image file")
	}

	avatar := scaleToSquare(cropSquare(decoded), AvatarSize)

	encoded, err := encodeAvatarWebP(avatar, AvatarWebPQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	hash := avatarContentHash(in.UserID, encoded)
	rel := hash + ".webp"
	if err := writeAvatarFile(filepath.Join(s.uploadDir, rel), encoded); err != nil {
		return "", models.NewInternalError(err)
	}

	return s.BuildAvatarURL(hash), nil
}

// BuildAvatarURL returns the public path an avatar hash is served under.
func (s *AvatarService) BuildAvatarURL(hash string) string {
	return fmt.Sprintf("/media/avatars/%s.webp", hash)
}

// UploadDir exposes the storage directory so the server can mount it as
// a static route.
func (s *AvatarService) UploadDir() string {
	return s.uploadDir
}

// cropSquare center-crops the image to its shorter dimension.
func cropSquare(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == h {
		return src
	}

	side := w
	if h < side {
		side = h
	}
	x := b.Min.X + (w-side)/2
	y := b.Min.Y + (h-side)/2

	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(dst, dst.Bounds(), src, image.Point{X: x, Y: y}, draw.Src)
	return dst
}

func scaleToSquare(src image.Image, size int) image.Image {
	b := src.Bounds()
	if b.Dx() <= size && b.Dy() <= size {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

func encodeAvatarWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedAvatarMIME(contentType string) bool {
	switch normalizeMediaType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeMediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func avatarContentHash(userID uint, content []byte) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%d:", userID)
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func writeAvatarFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
