package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/riftcast/riftcast/internal/domain"
)

// PredictionArchiveStore is the slice of the prediction store the archiver
// reads from and prunes.
type PredictionArchiveStore interface {
	ListEndedBefore(ctx context.Context, before time.Time) ([]domain.Prediction, error)
	DeleteEndedBefore(ctx context.Context, before time.Time) (int64, error)
}

// BlobWriter uploads one object.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// Locker coordinates the sweep across replicas. Nil disables coordination.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// Archiver moves finished predictions older than the retention window out
// of PostgreSQL into monthly JSONL objects. Local rows are pruned only
// after the upload succeeded.
type Archiver struct {
	writer      BlobWriter
	predictions PredictionArchiveStore
	lock        Locker
	retention   time.Duration
	interval    time.Duration
	logger      *slog.Logger
}

// NewArchiver creates an Archiver. lock may be nil for single-instance
// deployments.
func NewArchiver(writer BlobWriter, predictions PredictionArchiveStore, lock Locker, retention, interval time.Duration, logger *slog.Logger) *Archiver {
	return &Archiver{
		writer:      writer,
		predictions: predictions,
		lock:        lock,
		retention:   retention,
		interval:    interval,
		logger:      logger.With(slog.String("component", "archiver")),
	}
}

// Run sweeps immediately and then on every interval until ctx is canceled.
func (a *Archiver) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.sweepLogged(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.sweepLogged(ctx)
		}
	}
}

func (a *Archiver) sweepLogged(ctx context.Context) {
	count, err := a.Sweep(ctx)
	switch {
	case errors.Is(err, domain.ErrLockHeld):
		a.logger.DebugContext(ctx, "archive sweep already running elsewhere")
	case err != nil:
		a.logger.ErrorContext(ctx, "archive sweep failed", slog.String("error", err.Error()))
	case count > 0:
		a.logger.InfoContext(ctx, "archive sweep finished", slog.Int64("archived", count))
	}
}

// Sweep uploads and prunes every finished prediction that ended before the
// retention cutoff, grouped into one object per calendar month. It returns
// the number of archived predictions.
func (a *Archiver) Sweep(ctx context.Context) (int64, error) {
	if a.lock != nil {
		unlock, err := a.lock.Acquire(ctx, "archive", a.interval)
		if err != nil {
			return 0, err
		}
		defer unlock()
	}

	cutoff := time.Now().UTC().Add(-a.retention)
	preds, err := a.predictions.ListEndedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive query: %w", err)
	}
	if len(preds) == 0 {
		return 0, nil
	}

	byMonth := make(map[string][]domain.Prediction)
	for _, p := range preds {
		month := p.EndedAt.UTC().Format("2006-01")
		byMonth[month] = append(byMonth[month], p)
	}

	for month, batch := range byMonth {
		buf, err := marshalJSONL(batch)
		if err != nil {
			return 0, fmt.Errorf("s3blob: archive marshal %s: %w", month, err)
		}
		path := fmt.Sprintf("archive/predictions/%s.jsonl", month)
		if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
			return 0, fmt.Errorf("s3blob: archive upload %s: %w", path, err)
		}
	}

	deleted, err := a.predictions.DeleteEndedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive prune: %w", err)
	}
	return deleted, nil
}

// marshalJSONL serialises records as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
