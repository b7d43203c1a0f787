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

package router

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cyborghq/cyborg/internal/engine/repo"
	"github.com/cyborghq/cyborg/internal/engine/service"
	"github.com/cyborghq/cyborg/internal/pkg/aijob"
	"github.com/cyborghq/cyborg/internal/pkg/queue"
	"github.com/cyborghq/cyborg/internal/pkg/storage"
	"github.com/cyborghq/cyborg/pkg/database"
	"github.com/cyborghq/cyborg/pkg/http"
	"github.com/cyborghq/cyborg/pkg/http/middleware"
	"github.com/cyborghq/cyborg/pkg/id"
	"github.com/cyborghq/cyborg/pkg/shutdown"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAuth = http.Auth{SecretKey: "router-secret", Issuer: "cyborg", AccessExpire: time.Hour}

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *memStorage) EnsureBucket(context.Context) error { return nil }

func (s *memStorage) PutObject(_ context.Context, name string, r io.Reader, _ int64, contentType string) (*storage.ObjectInfo, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.objects[name] = b
	return &storage.ObjectInfo{Key: name, Size: int64(len(b)), ContentType: contentType}, nil
}

func (s *memStorage) GetObject(_ context.Context, name string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return io.NopCloser(bytes.NewReader(s.objects[name])), nil
}

func (s *memStorage) DeleteObject(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, name)
	return nil
}

// newTestApp wires the real services on sqlite with a memory queue and the
// AI path disabled.
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	m, err := database.NewManager(database.Database{
		Driver:       database.DriverSQLite,
		SQLite:       database.SQLiteConfig{Path: "file:" + id.GetUUIDWithoutDashes() + "?mode=memory&cache=shared"},
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	db := database.NewDatabaseAdapter(m)
	require.NoError(t, repo.AutoMigrate(db))
	repos := repo.NewRepositories(db)

	q := queue.NewMemoryQueue(queue.Conf{Backend: queue.BackendMemory, Workers: 2})
	notifications := service.NewNotificationService(repos)
	generator := service.NewPlanGenerator(repos, notifications, service.GeneratorDeps{
		Fallback: aijob.NewFallbackGenerator(0, nil),
	})
	mux := queue.NewMux()
	generator.Register(mux)
	require.NoError(t, q.Start(mux))
	t.Cleanup(func() { _ = q.Stop(context.Background()) })

	services := &service.Services{
		ActionPlan:   service.NewActionPlanService(repos, q),
		Generator:    generator,
		Report:       service.NewReportService(repos, &memStorage{}),
		Notification: notifications,
	}
	return NewRouter(&http.Http{Auth: testAuth}, services, shutdown.NewManager()).Router()
}

func bearer(t *testing.T, userId, userType string) string {
	t.Helper()
	token, err := middleware.SignToken(testAuth, userId, userType)
	require.NoError(t, err)
	return "Bearer " + token
}

type envelope struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

func (e envelope) data() map[string]any {
	m, _ := e.Data.(map[string]any)
	return m
}

func do(t *testing.T, app *fiber.App, req *nethttp.Request) (*nethttp.Response, envelope) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, sonic.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

func jsonRequest(t *testing.T, method, target, auth string, body any) *nethttp.Request {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := sonic.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if auth != "" {
		req.Header.Set(fiber.HeaderAuthorization, auth)
	}
	return req
}

func uploadRequest(t *testing.T, auth, fileName, contentType string, content []byte) *nethttp.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(nethttp.MethodPost, "/api/reports", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, auth)
	return req
}

func uploadReport(t *testing.T, app *fiber.App, auth string) string {
	t.Helper()
	resp, env := do(t, app, uploadRequest(t, auth, "labs.pdf", "application/pdf", []byte("%PDF-1.4 test")))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Blood report uploaded successfully", env.Message)
	assert.Equal(t, "labs.pdf", env.data()["fileName"])
	reportId, _ := env.data()["reportId"].(string)
	require.NotEmpty(t, reportId)
	return reportId
}

func waitReady(t *testing.T, app *fiber.App, auth, planId string) envelope {
	t.Helper()
	var env envelope
	require.Eventually(t, func() bool {
		_, env = do(t, app, jsonRequest(t, nethttp.MethodGet, "/api/action-plans/"+planId, auth, nil))
		return env.data()["status"] == "ready"
	}, 5*time.Second, 20*time.Millisecond)
	return env
}

func TestHealth(t *testing.T) {
	resp, env := do(t, newTestApp(t), httptest.NewRequest(nethttp.MethodGet, "/health", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", env.data()["status"])
}

func TestActionPlanFlow(t *testing.T) {
	app := newTestApp(t)
	auth := bearer(t, "u1", "user")
	reportId := uploadReport(t, app, auth)

	resp, env := do(t, app, jsonRequest(t, nethttp.MethodPost, "/api/action-plans", auth, map[string]string{"reportId": reportId}))
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "Action plan generation started", env.Message)
	planId, _ := env.data()["planId"].(string)
	require.NotEmpty(t, planId)

	ready := waitReady(t, app, auth, planId)
	assert.Equal(t, true, ready.data()["usedFallback"])
	planJson, ok := ready.data()["planJson"].(map[string]any)
	require.True(t, ok)
	labs, _ := planJson["labsReviewed"].(map[string]any)
	assert.Equal(t, "labs.pdf", labs["fileName"])

	resp, env = do(t, app, jsonRequest(t, nethttp.MethodPost, "/api/reports/"+reportId+"/action-plan", auth, nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Action plan already generated", env.Message)
	assert.Equal(t, planId, env.data()["planId"])

	resp, _ = do(t, app, jsonRequest(t, nethttp.MethodGet, "/api/action-plans/"+planId+"/pdf", auth, nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "attachment")

	resp, env = do(t, app, jsonRequest(t, nethttp.MethodPost, "/api/action-plans/"+planId+"/retry", auth, nil))
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "Retry started", env.Message)
	waitReady(t, app, auth, planId)

	resp, env = do(t, app, jsonRequest(t, nethttp.MethodGet, "/api/notifications", auth, nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	items, ok := env.Data.([]any)
	require.True(t, ok)
	assert.Len(t, items, 2)
}

func TestCreateActionPlanErrors(t *testing.T) {
	app := newTestApp(t)
	auth := bearer(t, "u1", "user")

	resp, env := do(t, app, jsonRequest(t, nethttp.MethodPost, "/api/action-plans", auth, map[string]string{}))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "reportId is required", env.Message)

	resp, env = do(t, app, jsonRequest(t, nethttp.MethodPost, "/api/action-plans", auth, map[string]string{"reportId": "nope"}))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Blood report not found", env.Message)

	resp, _ = do(t, app, jsonRequest(t, nethttp.MethodPost, "/api/action-plans", "", map[string]string{"reportId": "nope"}))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, app, jsonRequest(t, nethttp.MethodPost, "/api/action-plans", bearer(t, "d1", "doctor"), map[string]string{"reportId": "nope"}))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestActionPlanNotOwned(t *testing.T) {
	app := newTestApp(t)
	owner := bearer(t, "u1", "user")
	reportId := uploadReport(t, app, owner)

	_, env := do(t, app, jsonRequest(t, nethttp.MethodPost, "/api/action-plans", owner, map[string]string{"reportId": reportId}))
	planId, _ := env.data()["planId"].(string)

	other := bearer(t, "u2", "user")
	resp, env := do(t, app, jsonRequest(t, nethttp.MethodGet, "/api/action-plans/"+planId, other, nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Action plan not found", env.Message)

	resp, _ = do(t, app, jsonRequest(t, nethttp.MethodPost, "/api/action-plans/"+planId+"/retry", other, nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUploadRejectsUnsupportedFile(t *testing.T) {
	app := newTestApp(t)
	auth := bearer(t, "u1", "user")

	resp, env := do(t, app, uploadRequest(t, auth, "notes.txt", "text/plain", []byte("hello")))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Only PDF and image files (JPG, PNG) are allowed", env.Message)

	req := jsonRequest(t, nethttp.MethodPost, "/api/reports", auth, nil)
	resp, env = do(t, app, req)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No file provided", env.Message)
}

func TestMarkNotificationReadNotFound(t *testing.T) {
	app := newTestApp(t)
	resp, env := do(t, app, jsonRequest(t, nethttp.MethodPatch, "/api/notifications/missing/read", bearer(t, "u1", "user"), nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Notification not found", env.Message)
}
