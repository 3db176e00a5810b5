package prediction

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	records []*Record
	latest  int
}

func (m *mockRepo) Create(_ context.Context, r *Record) error {
	r.ID = uuid.New()
	r.CreatedAt = testNow.Add(time.Duration(len(m.records)) * time.Minute)
	m.records = append(m.records, r)
	return nil
}

func (m *mockRepo) Latest(ctx context.Context, patientID uuid.UUID) (*Record, error) {
	m.latest++
	h, _ := m.History(ctx, patientID)
	if len(h) == 0 {
		return nil, ErrNotFound
	}
	return h[0], nil
}

func (m *mockRepo) History(_ context.Context, patientID uuid.UUID) ([]*Record, error) {
	out := []*Record{}
	for _, r := range m.records {
		if r.PatientID == patientID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type mockPatients map[uuid.UUID]bool

func (m mockPatients) Exists(_ context.Context, id uuid.UUID) (bool, error) { return m[id], nil }

type raisedAlert struct {
	patientID      uuid.UUID
	title, message string
}

type mockAlerts struct {
	raised []raisedAlert
	err    error
}

func (m *mockAlerts) RaiseCritical(_ context.Context, patientID uuid.UUID, title, message string) error {
	m.raised = append(m.raised, raisedAlert{patientID, title, message})
	return m.err
}

type serviceFixture struct {
	svc    *Service
	repo   *mockRepo
	alerts *mockAlerts
	cache  *RedisCache
}

func newServiceFixture(t *testing.T, snaps map[uuid.UUID]*Snapshot) *serviceFixture {
	t.Helper()
	patients := mockPatients{}
	for id := range snaps {
		patients[id] = true
	}
	_, cache := setupTestRedis(t)
	f := &serviceFixture{repo: &mockRepo{}, alerts: &mockAlerts{}, cache: cache}
	f.svc = NewService(newTestPredictor(NewFallbackModel(), snaps), f.repo, patients, cache, f.alerts, zerolog.Nop())
	return f
}

func TestService_AnalyzeCritical(t *testing.T) {
	id := uuid.New()
	f := newServiceFixture(t, map[uuid.UUID]*Snapshot{id: snapshotWithEGFR(12)})
	ctx := context.Background()

	rec, err := f.svc.Analyze(ctx, id)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, "CKD Stage 4-5", rec.PredictionResult)
	require.NotNil(t, rec.PredictedStage)
	assert.Equal(t, 5, *rec.PredictedStage)
	assert.Len(t, f.repo.records, 1)

	cached, err := f.cache.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, rec.ID, cached.ID)

	require.Len(t, f.alerts.raised, 1)
	assert.Equal(t, id, f.alerts.raised[0].patientID)
	assert.Equal(t, criticalRiskTitle, f.alerts.raised[0].title)
	assert.Equal(t, "CKD Stage 4-5 with 90.00% confidence, stage 5", f.alerts.raised[0].message)
}

func TestService_AnalyzeNonCriticalRaisesNothing(t *testing.T) {
	id := uuid.New()
	f := newServiceFixture(t, map[uuid.UUID]*Snapshot{id: snapshotWithEGFR(45)})

	rec, err := f.svc.Analyze(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, RiskHigh, rec.RiskLevel)
	assert.Empty(t, f.alerts.raised)
}

func TestService_AnalyzeAlertFailureIsNotFatal(t *testing.T) {
	id := uuid.New()
	f := newServiceFixture(t, map[uuid.UUID]*Snapshot{id: snapshotWithEGFR(20)})
	f.alerts.err = errors.New("alerts down")

	_, err := f.svc.Analyze(context.Background(), id)
	assert.NoError(t, err)
	assert.Len(t, f.repo.records, 1)
}

func TestService_AnalyzeFailurePersistsNothing(t *testing.T) {
	id := uuid.New()
	f := newServiceFixture(t, map[uuid.UUID]*Snapshot{id: {DateOfBirth: testNow}})

	_, err := f.svc.Analyze(context.Background(), id)
	assert.ErrorIs(t, err, ErrMissingData)
	assert.Empty(t, f.repo.records)
	assert.Empty(t, f.alerts.raised)
}

func TestService_Latest(t *testing.T) {
	id := uuid.New()
	f := newServiceFixture(t, map[uuid.UUID]*Snapshot{id: snapshotWithEGFR(70)})
	ctx := context.Background()

	_, err := f.svc.Latest(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Latest(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrPatientNotFound)

	first, err := f.svc.Analyze(ctx, id)
	require.NoError(t, err)
	require.NoError(t, f.cache.Invalidate(ctx, id))

	calls := f.repo.latest
	got, err := f.svc.Latest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, calls+1, f.repo.latest)

	// Served from the cache now.
	_, err = f.svc.Latest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, calls+1, f.repo.latest)
}

func TestService_History(t *testing.T) {
	id := uuid.New()
	f := newServiceFixture(t, map[uuid.UUID]*Snapshot{id: snapshotWithEGFR(70)})
	ctx := context.Background()

	empty, err := f.svc.History(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, empty)

	f.svc.Analyze(ctx, id)
	second, _ := f.svc.Analyze(ctx, id)

	history, err := f.svc.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)

	_, err = f.svc.History(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestService_NilCache(t *testing.T) {
	id := uuid.New()
	svc := NewService(newTestPredictor(NewFallbackModel(), map[uuid.UUID]*Snapshot{id: snapshotWithEGFR(95)}),
		&mockRepo{}, mockPatients{id: true}, nil, nil, zerolog.Nop())

	rec, err := svc.Analyze(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Normal Kidney Function", rec.PredictionResult)

	latest, err := svc.Latest(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, latest.ID)
}
