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
	"path"
	"strings"
	"time"

	"github.com/cyborghq/cyborg/pkg/log"
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(ProvideStorage)

const (
	Minio = "minio"
	S3    = "s3"
)

// Storage is the [storage] section of the config file.
type Storage struct {
	Provider  string `mapstructure:"provider"`
	AccessKey string `mapstructure:"accessKey"`
	SecretKey string `mapstructure:"secretKey"`
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseTLS    bool   `mapstructure:"useTLS"`
	BasePath  string `mapstructure:"basePath"`
}

func (s *Storage) SetDefaults() {
	s.Provider = strings.ToLower(strings.TrimSpace(s.Provider))
	if s.Provider == "" {
		s.Provider = Minio
	}
	if s.Endpoint == "" && s.Provider == Minio {
		s.Endpoint = "127.0.0.1:9000"
	}
	if s.Bucket == "" {
		s.Bucket = "cyborg-reports"
	}
	if s.Region == "" {
		s.Region = "us-east-1"
	}
	if s.BasePath == "" {
		s.BasePath = "reports"
	}
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
}

// IStorage stores uploaded blood report files.
type IStorage interface {
	// EnsureBucket creates the bucket if it is missing.
	EnsureBucket(ctx context.Context) error
	PutObject(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (*ObjectInfo, error)
	GetObject(ctx context.Context, objectName string) (io.ReadCloser, error)
	DeleteObject(ctx context.Context, objectName string) error
}

// NewStorage creates the provider named by s.Provider.
func NewStorage(s *Storage) (IStorage, error) {
	s.SetDefaults()
	switch s.Provider {
	case Minio:
		return newMinio(s)
	case S3:
		return newS3(s)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", s.Provider)
	}
}

// ProvideStorage builds the storage and makes sure the bucket exists. An
// unreachable endpoint is logged, uploads will report the error themselves.
func ProvideStorage(conf Storage) (IStorage, error) {
	st, err := NewStorage(&conf)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := st.EnsureBucket(ctx); err != nil {
		log.Warnw("storage bucket check failed", "provider", conf.Provider, "bucket", conf.Bucket, "error", err)
	}
	return st, nil
}

// getFullPath joins basePath and objectName into an object key.
func getFullPath(basePath, objectName string) string {
	objectName = strings.TrimPrefix(objectName, "/")
	basePath = strings.Trim(basePath, "/")
	if basePath == "" {
		return objectName
	}
	return path.Join(basePath, objectName)
}
