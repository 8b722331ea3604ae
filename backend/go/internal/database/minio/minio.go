package minio

import (
	"context"
	"fmt"

	"LexiMind/backend/go/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Connect 创建并验证一个 MinIO 客户端。
// 客户端由调用方持有；minio-go 的连接按需建立，不需要显式关闭。
func Connect(ctx context.Context, cfg *config.MinIOConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""), // 静态凭证。
		Secure: cfg.Secure,                                                // 是否使用HTTPS。
	})
	if err != nil {
		return nil, fmt.Errorf("无法创建 MinIO 客户端: %w", err)
	}

	// 初始化时执行简单的健康检查。
	if _, err = client.ListBuckets(ctx); err != nil {
		return nil, fmt.Errorf("MinIO 初始化健康检查失败: %w", err)
	}

	return client, nil
}

// EnsureBucket 确保指定的存储桶存在，不存在时创建它。
func EnsureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("无法检查存储桶 '%s': %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("无法创建存储桶 '%s': %w", bucket, err)
	}
	return nil
}

// HealthCheck 检查 MinIO 连接的健康状况。
func HealthCheck(ctx context.Context, client *minio.Client) error {
	if client == nil {
		return fmt.Errorf("MinIO 客户端未初始化")
	}
	// 尝试列出存储桶以验证连接性和认证。
	if _, err := client.ListBuckets(ctx); err != nil {
		return fmt.Errorf("MinIO 健康检查失败: %w", err)
	}
	return nil
}
