package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	BucketRecordings = "call-recordings"
	BucketKnowledge  = "knowledge-docs"
	BucketReports    = "analytics-reports"
)

// StorageService holds call recordings and knowledge-base documents in
// object storage. Objects are namespaced by gym so presigned access never
// crosses tenants.
type StorageService interface {
	UploadRecording(ctx context.Context, gymID, callID uuid.UUID, reader io.Reader, size int64) (string, error)
	UploadKnowledgePDF(ctx context.Context, gymID, itemID uuid.UUID, filename string, reader io.Reader, size int64) (string, error)
	UploadReport(ctx context.Context, gymID uuid.UUID, filename, contentType string, reader io.Reader, size int64) (string, error)
	GetPresignedURL(bucketName, objectName string, expiry time.Duration) (string, error)
	DeleteObject(ctx context.Context, bucketName, objectName string) error
	EnsureBuckets(ctx context.Context) error
}

type minioStorage struct {
	client *minio.Client
}

func NewStorageService(endpoint, accessKey, secretKey string, useSSL bool) (StorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &minioStorage{client: client}, nil
}

func (m *minioStorage) UploadRecording(ctx context.Context, gymID, callID uuid.UUID, reader io.Reader, size int64) (string, error) {
	objectName := fmt.Sprintf("%s/%s.mp3", gymID, callID)
	_, err := m.client.PutObject(ctx, BucketRecordings, objectName, reader, size, minio.PutObjectOptions{
		ContentType: "audio/mpeg",
	})
	if err != nil {
		return "", err
	}
	return objectName, nil
}

func (m *minioStorage) UploadKnowledgePDF(ctx context.Context, gymID, itemID uuid.UUID, filename string, reader io.Reader, size int64) (string, error) {
	objectName := fmt.Sprintf("%s/%s/%s", gymID, itemID, filename)
	_, err := m.client.PutObject(ctx, BucketKnowledge, objectName, reader, size, minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return "", err
	}
	return objectName, nil
}

func (m *minioStorage) UploadReport(ctx context.Context, gymID uuid.UUID, filename, contentType string, reader io.Reader, size int64) (string, error) {
	objectName := fmt.Sprintf("%s/%s", gymID, filename)
	_, err := m.client.PutObject(ctx, BucketReports, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return objectName, nil
}

func (m *minioStorage) GetPresignedURL(bucketName, objectName string, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(context.Background(), bucketName, objectName, expiry, nil)
	if err != nil {
		return "", err
	}
	return url.String(), nil
}

func (m *minioStorage) DeleteObject(ctx context.Context, bucketName, objectName string) error {
	return m.client.RemoveObject(ctx, bucketName, objectName, minio.RemoveObjectOptions{})
}

func (m *minioStorage) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{BucketRecordings, BucketKnowledge, BucketReports} {
		found, err := m.client.BucketExists(ctx, bucket)
		if err != nil {
			return err
		}
		if !found {
			if err := m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
				return err
			}
		}
	}
	return nil
}
