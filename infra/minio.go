package infra

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/madmin-go/v3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tnqbao/gau-datagen-service/config"
)

type MinioClient struct {
	Admin    *madmin.AdminClient
	Client   *minio.Client
	Endpoint string
	Bucket   string
}

func InitMinioClient(cfg *config.EnvConfig) *MinioClient {
	endpoint := cfg.Minio.Endpoint
	if endpoint == "" {
		panic("MinIO endpoint is not configured")
	}

	rootUser := cfg.Minio.RootUser
	if rootUser == "" {
		panic("MinIO root user is not configured")
	}

	rootPassword := cfg.Minio.RootPassword
	if rootPassword == "" {
		panic("MinIO root password is not configured")
	}

	madminClient, err := madmin.New(endpoint, rootUser, rootPassword, false)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize MinIO admin client: %v", err))
	}

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(rootUser, rootPassword, ""),
		Secure: false,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize MinIO client: %v", err))
	}

	client := &MinioClient{
		Admin:    madminClient,
		Client:   minioClient,
		Endpoint: endpoint,
		Bucket:   cfg.Retention.ArtifactBucket,
	}

	if err := client.EnsureBucket(context.Background()); err != nil {
		panic(fmt.Sprintf("Failed to ensure artifact bucket: %v", err))
	}

	return client
}

// EnsureBucket creates the artifact bucket if it doesn't exist
func (m *MinioClient) EnsureBucket(ctx context.Context) error {
	exists, err := m.Client.BucketExists(ctx, m.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		err := m.Client.MakeBucket(ctx, m.Bucket, minio.MakeBucketOptions{
			Region: "us-east-1",
		})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// PutObject streams an object into the artifact bucket. Size may be -1 for
// unknown-length streams; the client falls back to multipart upload.
func (m *MinioClient) PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (int64, error) {
	info, err := m.Client.PutObject(ctx, m.Bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upload object %s: %w", key, err)
	}

	return info.Size, nil
}

// PromoteObject server-side copies a finished temporary object to its final
// key and removes the temporary one. The final object's timestamp is set at
// promotion time, so retention ages artifacts from job completion rather
// than from the first uploaded byte.
func (m *MinioClient) PromoteObject(ctx context.Context, tmpKey, finalKey string) error {
	_, err := m.Client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: m.Bucket, Object: finalKey},
		minio.CopySrcOptions{Bucket: m.Bucket, Object: tmpKey},
	)
	if err != nil {
		return fmt.Errorf("failed to promote object %s: %w", tmpKey, err)
	}

	if err := m.Client.RemoveObject(ctx, m.Bucket, tmpKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove temporary object %s: %w", tmpKey, err)
	}

	return nil
}

// GetObject opens an artifact for streaming to a client. The returned reader
// must be closed by the caller.
func (m *MinioClient) GetObject(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	obj, err := m.Client.GetObject(ctx, m.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open object %s: %w", key, err)
	}

	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, 0, fmt.Errorf("failed to stat object %s: %w", key, err)
	}

	return obj, stat.Size, nil
}

// RemoveObject deletes a single object from the artifact bucket.
func (m *MinioClient) RemoveObject(ctx context.Context, key string) error {
	err := m.Client.RemoveObject(ctx, m.Bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to remove object %s: %w", key, err)
	}

	return nil
}

// ListObjects lists objects under a prefix in the artifact bucket.
func (m *MinioClient) ListObjects(ctx context.Context, prefix string) ([]minio.ObjectInfo, error) {
	var objects []minio.ObjectInfo

	objectCh := m.Client.ListObjects(ctx, m.Bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for obj := range objectCh {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects under %s: %w", prefix, obj.Err)
		}
		objects = append(objects, obj)
	}

	return objects, nil
}

// StorageStats reports cluster-level data usage for the stats endpoint.
func (m *MinioClient) StorageStats(ctx context.Context) (madmin.DataUsageInfo, error) {
	usage, err := m.Admin.DataUsageInfo(ctx)
	if err != nil {
		return madmin.DataUsageInfo{}, fmt.Errorf("failed to get data usage info: %w", err)
	}

	return usage, nil
}
