package service

import (
	"cbme_survey_backend/internal/config"
	"cbme_survey_backend/internal/util"
	"cbme_survey_backend/pkg/logger"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// StorageProvider 定义导出文件的存储接口
type StorageProvider interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// LocalStorageProvider 本地存储实现
type LocalStorageProvider struct {
	Root string
}

func (p *LocalStorageProvider) path(key string) (string, error) {
	root, err := filepath.Abs(p.Root)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(root, filepath.FromSlash(key))
	if !strings.HasPrefix(dst, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return dst, nil
}

func (p *LocalStorageProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	dst, err := p.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", err
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return "", err
	}
	return "/uploads/" + key, nil
}

func (p *LocalStorageProvider) Delete(ctx context.Context, key string) error {
	dst, err := p.path(key)
	if err != nil {
		return err
	}
	return os.Remove(dst)
}

// MinioStorageProvider MinIO存储实现，返回限时下载链接
type MinioStorageProvider struct {
	Bucket    string
	Client    *minio.Client
	URLExpiry time.Duration
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Bucket: cfg.MinioBucket, Client: client, URLExpiry: 24 * time.Hour}, nil
}

func (p *MinioStorageProvider) ensureBucket(ctx context.Context) error {
	exists, err := p.Client.BucketExists(ctx, p.Bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return p.Client.MakeBucket(ctx, p.Bucket, minio.MakeBucketOptions{})
}

func (p *MinioStorageProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	if err := p.ensureBucket(ctx); err != nil {
		return "", err
	}
	_, err := p.Client.PutObject(ctx, p.Bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}

	u, err := p.Client.PresignedGetObject(ctx, p.Bucket, key, p.URLExpiry, url.Values{})
	if err != nil {
		return "/" + p.Bucket + "/" + key, nil
	}
	return u.String(), nil
}

func (p *MinioStorageProvider) Delete(ctx context.Context, key string) error {
	return p.Client.RemoveObject(ctx, p.Bucket, key, minio.RemoveObjectOptions{})
}

// NewStorageProvider 按配置选择存储，MinIO 初始化失败时回退到本地
func NewStorageProvider(cfg *config.StorageConfig) StorageProvider {
	if cfg.Type == util.StorageMinio {
		p, err := NewMinioStorageProvider(cfg)
		if err == nil {
			return p
		}
		logger.Log.Warn("MinIO storage unavailable, using local storage", zap.Error(err))
	}
	return &LocalStorageProvider{Root: cfg.LocalPath}
}
