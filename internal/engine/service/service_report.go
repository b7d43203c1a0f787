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

package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cyborghq/cyborg/internal/engine/model"
	"github.com/cyborghq/cyborg/internal/engine/repo"
	"github.com/cyborghq/cyborg/internal/pkg/storage"
	"github.com/cyborghq/cyborg/pkg/id"
	"github.com/cyborghq/cyborg/pkg/log"
)

// MaxReportSize is the upload limit for blood report files.
const MaxReportSize = 10 * 1024 * 1024

var (
	allowedReportMimes      = []string{"application/pdf", "image/jpeg", "image/png", "image/jpg"}
	allowedReportExtensions = []string{".pdf", ".jpg", ".jpeg", ".png"}
)

// ReportUpload is an incoming blood report file.
type ReportUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type ReportService struct {
	reportRepo repo.IBloodReportRepository
	storage    storage.IStorage
	now        func() time.Time
}

func NewReportService(repos *repo.Repositories, st storage.IStorage) *ReportService {
	return &ReportService{
		reportRepo: repos.BloodReport,
		storage:    st,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ValidateReportFile checks the file name, content type and size of an upload.
func ValidateReportFile(fileName, contentType string, size int64) error {
	ext := strings.ToLower(filepath.Ext(fileName))
	mime := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if !slices.Contains(allowedReportMimes, mime) || !slices.Contains(allowedReportExtensions, ext) {
		return &ValidationError{Msg: "Only PDF and image files (JPG, PNG) are allowed"}
	}
	if size > MaxReportSize {
		return &ValidationError{Msg: "File too large. Maximum size is 10MB"}
	}
	return nil
}

// Upload stores the file and records the report for userId.
func (s *ReportService) Upload(ctx context.Context, userId string, in ReportUpload) (*model.BloodReport, error) {
	if err := ValidateReportFile(in.FileName, in.ContentType, in.Size); err != nil {
		return nil, err
	}

	reportId := id.GetUild()
	ext := strings.ToLower(filepath.Ext(in.FileName))
	objectName := fmt.Sprintf("%s/%s%s", userId, reportId, ext)
	info, err := s.storage.PutObject(ctx, objectName, in.Body, in.Size, in.ContentType)
	if err != nil {
		log.Errorw("failed to store blood report", "userId", userId, "fileName", in.FileName, "error", err)
		return nil, fmt.Errorf("store blood report: %w", err)
	}

	report := &model.BloodReport{
		ReportId:   reportId,
		UserId:     userId,
		FileName:   filepath.Base(in.FileName),
		ObjectKey:  info.Key,
		FileSize:   in.Size,
		MimeType:   in.ContentType,
		UploadedAt: s.now(),
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		log.Errorw("failed to create blood report", "reportId", reportId, "error", err)
		if derr := s.storage.DeleteObject(context.WithoutCancel(ctx), objectName); derr != nil {
			log.Warnw("failed to remove orphaned report object", "object", info.Key, "error", derr)
		}
		return nil, fmt.Errorf("create blood report: %w", err)
	}
	log.Infow("blood report uploaded", "reportId", reportId, "userId", userId, "size", in.Size)
	return report, nil
}

// List returns one page of the reports of userId, newest first.
func (s *ReportService) List(ctx context.Context, userId string, pageNum, pageSize int) ([]*model.BloodReport, int64, error) {
	if pageNum <= 0 {
		pageNum = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return s.reportRepo.ListByUser(ctx, userId, pageNum, pageSize)
}
