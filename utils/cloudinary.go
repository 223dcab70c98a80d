package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/meinhoongagan/petrent-api/config"
)

var (
	ErrUnsupportedFile = errors.New("unsupported file type, allowed: .jpg, .jpeg, .png, .gif, .webp")
	ErrFileTooLarge    = errors.New("file exceeds the maximum upload size")
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// Uploader stores a file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, publicID, folder string) (string, error)
}

// CloudinaryUploader uploads to the configured Cloudinary account.
type CloudinaryUploader struct{}

// Storage is the uploader handlers use.
var Storage Uploader = CloudinaryUploader{}

// InitCloudinary initializes the Cloudinary client
func InitCloudinary() (*cloudinary.Cloudinary, error) {
	return cloudinary.NewFromParams(
		config.App.CloudinaryCloudName,
		config.App.CloudinaryAPIKey,
		config.App.CloudinaryAPISecret,
	)
}

func (CloudinaryUploader) Upload(ctx context.Context, file io.Reader, publicID, folder string) (string, error) {
	cld, err := InitCloudinary()
	if err != nil {
		return "", err
	}

	resp, err := cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:     publicID,
		Folder:       folder,
		UploadPreset: config.App.CloudinaryUploadPreset,
	})
	if err != nil {
		return "", err
	}
	if resp.Error.Message != "" {
		return "", errors.New(resp.Error.Message)
	}
	return resp.SecureURL, nil
}

// ValidateImage checks extension and size of an uploaded image.
func ValidateImage(fh *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !slices.Contains(imageExtensions, ext) {
		return ErrUnsupportedFile
	}
	if fh.Size > config.App.MaxFileSize {
		return fmt.Errorf("%w (%d bytes)", ErrFileTooLarge, config.App.MaxFileSize)
	}
	return nil
}

// UploadImage validates and uploads one multipart image under folder.
func UploadImage(ctx context.Context, fh *multipart.FileHeader, folder, prefix string) (string, error) {
	if err := ValidateImage(fh); err != nil {
		return "", err
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	return Storage.Upload(ctx, f, fmt.Sprintf("%s_%s", prefix, GenerateUUID()), folder)
}

// UploadImages uploads files in order; the first failure aborts.
func UploadImages(ctx context.Context, files []*multipart.FileHeader, folder, prefix string) ([]string, error) {
	for _, fh := range files {
		if err := ValidateImage(fh); err != nil {
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
	}
	urls := make([]string, 0, len(files))
	for _, fh := range files {
		url, err := UploadImage(ctx, fh, folder, prefix)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}
