// Copyright 2026 Cyborg Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/cyborghq/cyborg/pkg/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type minioStorage struct {
	client *minio.Client
	conf   *Storage
}

func newMinio(s *Storage) (IStorage, error) {
	client, err := minio.New(s.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(s.AccessKey, s.SecretKey, ""),
		Secure: s.UseTLS,
		Region: s.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &minioStorage{client: client, conf: s}, nil
}

func (m *minioStorage) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.conf.Bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.conf.Bucket, minio.MakeBucketOptions{Region: m.conf.Region}); err != nil {
		return err
	}
	log.Infow("created storage bucket", "provider", Minio, "bucket", m.conf.Bucket)
	return nil
}

func (m *minioStorage) PutObject(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (*ObjectInfo, error) {
	key := getFullPath(m.conf.BasePath, objectName)
	info, err := m.client.PutObject(ctx, m.conf.Bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}
	return &ObjectInfo{Key: key, Size: info.Size, ContentType: contentType}, nil
}

func (m *minioStorage) GetObject(ctx context.Context, objectName string) (io.ReadCloser, error) {
	key := getFullPath(m.conf.BasePath, objectName)
	obj, err := m.client.GetObject(ctx, m.conf.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	return obj, nil
}

func (m *minioStorage) DeleteObject(ctx context.Context, objectName string) error {
	key := getFullPath(m.conf.BasePath, objectName)
	return m.client.RemoveObject(ctx, m.conf.Bucket, key, minio.RemoveObjectOptions{})
}
