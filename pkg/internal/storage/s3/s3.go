// Package s3 处理物品图片的对象存储操作.
package s3

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/google/uuid"
	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/uachado/uachado/pkg/configs"
	nlog "github.com/uachado/uachado/pkg/log"
)

// Client 包装 MinIO 客户端.
type Client struct {
	*minio.Client

	bucket string
	region string
}

// New 初始化 MinIO 客户端，若 bucket 不存在则尝试创建.
func New(ctx context.Context, cfg *configs.S3Config) (*Client, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL
	// 允许用户传完整 schema endpoint（http:// 或 https://）
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			useSSL = true
		}
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo("uachado", configs.AppVersion)

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}

	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}

		nlog.Logger().Info().Str("bucket", cfg.Bucket).Msg("bucket created")
	}

	nlog.Logger().Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.Bucket).Msg("s3 connected")

	return &Client{Client: cli, bucket: cfg.Bucket, region: cfg.Region}, nil
}

// Bucket 返回物品图片所在的 bucket 名称.
func (c *Client) Bucket() string {
	return c.bucket
}

// PutImage 上传一张物品图片，返回生成的对象键.
func (c *Client) PutImage(ctx context.Context, reader io.Reader, size int64, contentType string) (string, error) {
	key := uuid.NewString()

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if _, err := c.PutObject(ctx, c.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", fmt.Errorf("put image %s: %w", key, err)
	}

	return key, nil
}

// GetImage 按对象键读取物品图片，返回内容与 Content-Type.
func (c *Client) GetImage(ctx context.Context, key string) (io.ReadCloser, string, error) {
	obj, err := c.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("get image %s: %w", key, err)
	}

	info, err := obj.Stat()
	if err != nil {
		obj.Close()

		return nil, "", fmt.Errorf("stat image %s: %w", key, err)
	}

	return obj, info.ContentType, nil
}

// RemoveImage 删除物品图片，对象不存在时不视为错误.
func (c *Client) RemoveImage(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	if err := c.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return nil
		}

		return fmt.Errorf("remove image %s: %w", key, err)
	}

	return nil
}

// HealthCheck 简单的健康检查，通过列出桶来验证连接.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.ListBuckets(ctx)

	return err
}

// Close 关闭 S3 客户端连接（无实际操作，接口兼容）.
func (c *Client) Close() error {
	return nil
}
