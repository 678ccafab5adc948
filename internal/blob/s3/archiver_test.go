package s3blob

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/riftcast/riftcast/internal/domain"
)

type fakeArchiveStore struct {
	predictions []domain.Prediction
	gotBefore   time.Time
	deleted     bool
}

func (f *fakeArchiveStore) ListEndedBefore(_ context.Context, before time.Time) ([]domain.Prediction, error) {
	f.gotBefore = before
	return f.predictions, nil
}

func (f *fakeArchiveStore) DeleteEndedBefore(context.Context, time.Time) (int64, error) {
	f.deleted = true
	return int64(len(f.predictions)), nil
}

type fakeBlobWriter struct {
	objects map[string]string
}

func (f *fakeBlobWriter) Put(_ context.Context, path string, data io.Reader, _ string) error {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(data); err != nil {
		return err
	}
	if f.objects == nil {
		f.objects = make(map[string]string)
	}
	f.objects[path] = buf.String()
	return nil
}

type fakeLocker struct {
	err      error
	acquired int
	released int
}

func (f *fakeLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	if f.err != nil {
		return nil, f.err
	}
	f.acquired++
	return func() { f.released++ }, nil
}

func archLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func endedPrediction(id string, endedAt time.Time) domain.Prediction {
	return domain.Prediction{ID: id, Status: domain.PredictionResolved, EndedAt: &endedAt}
}

func TestSweepGroupsByMonth(t *testing.T) {
	jan := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 3, 20, 0, 0, 0, time.UTC)
	store := &fakeArchiveStore{predictions: []domain.Prediction{
		endedPrediction("pred-1", jan),
		endedPrediction("pred-2", jan.Add(48*time.Hour)),
		endedPrediction("pred-3", feb),
	}}
	writer := &fakeBlobWriter{}
	a := NewArchiver(writer, store, nil, 90*24*time.Hour, time.Hour, archLogger())

	count, err := a.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if count != 3 {
		t.Errorf("Sweep() = %d, want 3 archived", count)
	}

	janObj, ok := writer.objects["archive/predictions/2026-01.jsonl"]
	if !ok {
		t.Fatalf("january object missing, have %v", writer.objects)
	}
	if got := strings.Count(janObj, "\n"); got != 2 {
		t.Errorf("january object has %d lines, want 2", got)
	}
	if _, ok := writer.objects["archive/predictions/2026-02.jsonl"]; !ok {
		t.Error("february object missing")
	}
	if !store.deleted {
		t.Error("rows not pruned after upload")
	}
}

func TestSweepNothingToArchive(t *testing.T) {
	store := &fakeArchiveStore{}
	writer := &fakeBlobWriter{}
	a := NewArchiver(writer, store, nil, 90*24*time.Hour, time.Hour, archLogger())

	count, err := a.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if count != 0 || len(writer.objects) != 0 || store.deleted {
		t.Errorf("empty sweep uploaded or pruned: count=%d objects=%v", count, writer.objects)
	}
}

func TestSweepCutoffHonorsRetention(t *testing.T) {
	store := &fakeArchiveStore{}
	retention := 30 * 24 * time.Hour
	a := NewArchiver(&fakeBlobWriter{}, store, nil, retention, time.Hour, archLogger())

	if _, err := a.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	want := time.Now().UTC().Add(-retention)
	if diff := store.gotBefore.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Errorf("cutoff = %v, want about %v", store.gotBefore, want)
	}
}

func TestSweepSkipsWhenLockHeld(t *testing.T) {
	store := &fakeArchiveStore{predictions: []domain.Prediction{
		endedPrediction("pred-1", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
	}}
	a := NewArchiver(&fakeBlobWriter{}, store, &fakeLocker{err: domain.ErrLockHeld}, time.Hour, time.Hour, archLogger())

	if _, err := a.Sweep(context.Background()); err != domain.ErrLockHeld {
		t.Errorf("Sweep() error = %v, want ErrLockHeld passed through", err)
	}
	if store.deleted {
		t.Error("sweep ran despite the lock being held elsewhere")
	}
}

func TestSweepReleasesLock(t *testing.T) {
	locker := &fakeLocker{}
	a := NewArchiver(&fakeBlobWriter{}, &fakeArchiveStore{}, locker, time.Hour, time.Hour, archLogger())

	if _, err := a.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if locker.acquired != 1 || locker.released != 1 {
		t.Errorf("lock acquired %d released %d, want 1 and 1", locker.acquired, locker.released)
	}
}
