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
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/cyborghq/cyborg/internal/engine/model"
	"github.com/cyborghq/cyborg/internal/engine/repo"
	"github.com/cyborghq/cyborg/internal/pkg/aijob"
	"github.com/cyborghq/cyborg/internal/pkg/queue"
	"github.com/cyborghq/cyborg/internal/pkg/storage"
	"github.com/cyborghq/cyborg/pkg/database"
	"github.com/cyborghq/cyborg/pkg/event"
	"github.com/cyborghq/cyborg/pkg/id"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) database.IDatabase {
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
	return db
}

// recordingQueue keeps enqueued tasks without running them.
type recordingQueue struct {
	mu    sync.Mutex
	tasks []*queue.Task
	err   error
}

func (q *recordingQueue) Enqueue(_ context.Context, task *queue.Task, _ ...queue.EnqueueOption) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *recordingQueue) Start(queue.Handler) error { return nil }

func (q *recordingQueue) Stop(context.Context) error { return nil }

func (q *recordingQueue) planIds(t *testing.T) []string {
	t.Helper()
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, 0, len(q.tasks))
	for _, task := range q.tasks {
		require.Equal(t, TaskTypePlanGenerate, task.Type)
		var p PlanTaskPayload
		require.NoError(t, task.Decode(&p))
		out = append(out, p.PlanId)
	}
	return out
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return nil
}

// scriptedJobClient answers status checks from a fixed list; the last entry
// repeats.
type scriptedJobClient struct {
	mu          sync.Mutex
	submitErr   error
	submitPanic string
	statuses    []string
	result      []byte
	statusCalls int
	submitted   []aijob.SubmitRequest
}

func (c *scriptedJobClient) Submit(_ context.Context, req aijob.SubmitRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitted = append(c.submitted, req)
	if c.submitPanic != "" {
		panic(c.submitPanic)
	}
	if c.submitErr != nil {
		return "", c.submitErr
	}
	return "job-1", nil
}

func (c *scriptedJobClient) FetchStatus(_ context.Context, _ string) (*aijob.JobState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.statusCalls
	c.statusCalls++
	if idx >= len(c.statuses) {
		idx = len(c.statuses) - 1
	}
	return &aijob.JobState{Status: c.statuses[idx]}, nil
}

func (c *scriptedJobClient) FetchResult(_ context.Context, _ string) ([]byte, error) {
	return c.result, nil
}

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
	key := "reports/" + name
	s.objects[key] = b
	return &storage.ObjectInfo{Key: key, Size: int64(len(b)), ContentType: contentType}, nil
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

type fixture struct {
	repos  *repo.Repositories
	db     database.IDatabase
	queue  *recordingQueue
	plans  *ActionPlanService
	events chan event.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	repos := repo.NewRepositories(db)
	q := &recordingQueue{}
	return &fixture{
		repos:  repos,
		db:     db,
		queue:  q,
		plans:  NewActionPlanService(repos, q),
		events: make(chan event.Event, 16),
	}
}

func (f *fixture) bus() *event.Bus {
	bus := event.NewEventBus()
	bus.RegisterHandler(event.Wildcard, event.HandlerFunc(func(_ context.Context, e event.Event) error {
		f.events <- e
		return nil
	}))
	return bus
}

// generator builds a PlanGenerator. A nil client disables the AI path.
func (f *fixture) generator(client aijob.JobClient) *PlanGenerator {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewPlanGenerator(f.repos, NewNotificationService(f.repos), GeneratorDeps{
		AIEnabled: client != nil,
		Client:    client,
		Poller:    aijob.NewPoller(client, aijob.PollPolicy{Interval: 2 * time.Second, MaxWait: 5 * time.Second}, aijob.WithClock(clock)),
		Fallback:  aijob.NewFallbackGenerator(0, clock),
		Bus:       f.bus(),
	})
}

func (f *fixture) seedReport(t *testing.T, userId string) *model.BloodReport {
	t.Helper()
	report := &model.BloodReport{
		ReportId:   id.GetUild(),
		UserId:     userId,
		FileName:   "labs-2026.pdf",
		ObjectKey:  "reports/labs-2026.pdf",
		MimeType:   "application/pdf",
		UploadedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}
	require.NoError(t, f.repos.BloodReport.Create(context.Background(), report))
	return report
}

func (f *fixture) seedOnboarding(t *testing.T, userId string) {
	t.Helper()
	ctx := context.Background()
	db := f.db.Database().WithContext(ctx)
	require.NoError(t, db.Create(&model.Questionnaire{QuestionnaireId: "q-1", Version: 1, Title: "Intake"}).Error)
	require.NoError(t, db.Create(&model.OnboardingAnswer{AnswerId: "a-1", UserId: userId, QuestionnaireId: "q-1"}).Error)
}

// createPending creates a plan through the service and returns it.
func (f *fixture) createPending(t *testing.T, report *model.BloodReport) *model.ActionPlan {
	t.Helper()
	res, err := f.plans.CreateOrResume(context.Background(), report.UserId, report.ReportId)
	require.NoError(t, err)
	require.True(t, res.Created)
	return res.Plan
}

func (f *fixture) reload(t *testing.T, planId string) *model.ActionPlan {
	t.Helper()
	plan, err := f.repos.ActionPlan.Get(context.Background(), planId)
	require.NoError(t, err)
	require.NotNil(t, plan)
	return plan
}

func (f *fixture) nextEvent(t *testing.T) event.Event {
	t.Helper()
	select {
	case e := <-f.events:
		return e
	case <-time.After(time.Second):
		t.Fatal("no event published")
		return event.Event{}
	}
}
