package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"
	storage_go "github.com/supabase-community/storage-go"
)

// bucketClient é o pedaço do client do Supabase Storage que o uploader usa.
type bucketClient interface {
	UploadFile(bucketID, relativePath string, data io.Reader, fileOptions ...storage_go.FileOptions) (storage_go.FileUploadResponse, error)
	RemoveFile(bucketID string, paths []string) ([]storage_go.FileUploadResponse, error)
	GetPublicUrl(bucketID, filePath string, urlOptions ...storage_go.UrlOptions) storage_go.SignedUrlResponse
}

type SupabaseUploader struct {
	Client bucketClient
	Bucket string
}

func NewSupabaseUploader(storageURL, serviceKey, bucket string) *SupabaseUploader {
	return &SupabaseUploader{
		Client: storage_go.NewClient(storageURL, serviceKey, nil),
		Bucket: bucket,
	}
}

// Upload grava a imagem em folder/<uuid><ext> e devolve a URL pública e o caminho,
// que serve de public id para remoção.
func (u *SupabaseUploader) Upload(ctx context.Context, folder string, data []byte, contentType string) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	objectPath := path.Join(folder, uuid.NewString()+extensionFor(contentType))
	upsert := false
	opts := storage_go.FileOptions{ContentType: &contentType, Upsert: &upsert}

	if _, err := u.Client.UploadFile(u.Bucket, objectPath, bytes.NewReader(data), opts); err != nil {
		return "", "", fmt.Errorf("falha no upload para o storage: %w", err)
	}

	url := u.Client.GetPublicUrl(u.Bucket, objectPath).SignedURL
	return url, objectPath, nil
}

func (u *SupabaseUploader) Remove(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := u.Client.RemoveFile(u.Bucket, []string{publicID}); err != nil {
		return fmt.Errorf("falha ao remover %s do storage: %w", publicID, err)
	}
	return nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	}
	return ""
}
