package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"Bt1Clip/config"
	"Bt1Clip/logger"
)

var minioClient *minio.Client

// InitMinio 初始化 MinIO 客户端并确保存储桶存在
func InitMinio() error {
	cfg := config.Load()

	logger.Info("正在连接 MinIO 服务器",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 检查存储桶是否存在，不存在则创建
	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("检查存储桶失败: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{
			Region: cfg.MinioRegion,
		}); err != nil {
			return fmt.Errorf("创建存储桶失败: %w", err)
		}
		logger.Info("成功创建存储桶", logger.String("bucket", cfg.MinioBucket))
	}

	minioClient = client
	return nil
}

// GetMinioClient 返回全局 MinIO 客户端
func GetMinioClient() *minio.Client {
	return minioClient
}

// UploadObject 上传对象
func UploadObject(ctx context.Context, bucket, objectKey string, reader io.Reader, size int64, contentType string) error {
	if minioClient == nil {
		return fmt.Errorf("MinIO client not initialized")
	}

	_, err := minioClient.PutObject(ctx, bucket, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("上传对象失败 %s: %w", objectKey, err)
	}
	return nil
}

// GetObject 读取对象
func GetObject(ctx context.Context, bucket, objectKey string) (*minio.Object, error) {
	if minioClient == nil {
		return nil, fmt.Errorf("MinIO client not initialized")
	}
	obj, err := minioClient.GetObject(ctx, bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("读取对象失败 %s: %w", objectKey, err)
	}
	return obj, nil
}

// PresignedGetURL 为对象生成临时的预签名访问地址
func PresignedGetURL(ctx context.Context, bucket, objectKey string, expiry time.Duration) (string, error) {
	if minioClient == nil {
		return "", fmt.Errorf("MinIO client not initialized")
	}

	u, err := minioClient.PresignedGetObject(ctx, bucket, objectKey, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("生成预签名地址失败 %s: %w", objectKey, err)
	}
	return u.String(), nil
}

// RemoveObject 删除对象
func RemoveObject(ctx context.Context, bucket, objectKey string) error {
	if minioClient == nil {
		return fmt.Errorf("MinIO client not initialized")
	}
	if err := minioClient.RemoveObject(ctx, bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("删除对象失败 %s: %w", objectKey, err)
	}
	return nil
}

// ListObjects 列出指定前缀下的对象，供诊断命令使用
func ListObjects(ctx context.Context, bucket, prefix string) ([]minio.ObjectInfo, error) {
	if minioClient == nil {
		return nil, fmt.Errorf("MinIO client not initialized")
	}

	var infos []minio.ObjectInfo
	for obj := range minioClient.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		infos = append(infos, obj)
	}
	return infos, nil
}
