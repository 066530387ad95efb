package reporting

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pkgbigquery "github.com/angelmondragon/streamvault-backend/pkg/bigquery"
)

const (
	defaultBatchSize      = 1
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 250 * time.Millisecond
	defaultMaximumBackoff = 2 * time.Second
)

// WriterConfig controls the earnings-fact writer behavior.
type WriterConfig struct {
	Table       string
	BatchSize   int
	RetryPolicy RetryPolicy
}

// RetryPolicy controls how many times BigQuery inserts are retried.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaximumBackoff time.Duration
}

type tableInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// Writer streams earnings facts into BigQuery with retries and optional batching.
type Writer struct {
	client    tableInserter
	table     string
	batchSize int
	retry     RetryPolicy

	buffer []EarningsFactRow
}

// NewWriter creates an earnings-fact writer backed by a shared client.
func NewWriter(client *pkgbigquery.Client, cfg WriterConfig) (*Writer, error) {
	if client == nil {
		return nil, errors.New("bigquery client required")
	}
	return newWriter(client, cfg)
}

func newWriter(client tableInserter, cfg WriterConfig) (*Writer, error) {
	table := strings.TrimSpace(cfg.Table)
	if table == "" {
		return nil, errors.New("earnings table is required")
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	retry := cfg.RetryPolicy
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = defaultMaxAttempts
	}
	if retry.InitialBackoff <= 0 {
		retry.InitialBackoff = defaultInitialBackoff
	}
	if retry.MaximumBackoff <= 0 {
		retry.MaximumBackoff = defaultMaximumBackoff
	}
	if retry.MaximumBackoff < retry.InitialBackoff {
		retry.MaximumBackoff = retry.InitialBackoff
	}

	return &Writer{
		client:    client,
		table:     table,
		batchSize: batchSize,
		retry:     retry,
	}, nil
}

// WriteEarning buffers a single fact row and flushes when the batch fills.
func (w *Writer) WriteEarning(ctx context.Context, row EarningsFactRow) error {
	w.buffer = append(w.buffer, row)
	if len(w.buffer) >= w.batchSize {
		return w.Flush(ctx)
	}
	return nil
}

// Flush writes any buffered rows immediately.
func (w *Writer) Flush(ctx context.Context) error {
	if len(w.buffer) == 0 {
		return nil
	}
	rows := make([]any, len(w.buffer))
	for i := range w.buffer {
		rows[i] = &w.buffer[i]
	}

	if err := w.insertWithRetry(ctx, rows); err != nil {
		return err
	}
	w.buffer = w.buffer[:0]
	return nil
}

func (w *Writer) insertWithRetry(ctx context.Context, rows []any) error {
	attempts := 0
	backoff := w.retry.InitialBackoff

	for {
		if ctx != nil {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		err := w.client.InsertRows(ctx, w.table, rows)
		if err == nil {
			return nil
		}

		attempts++
		if attempts >= w.retry.MaxAttempts || !isRetryableInsertError(err) {
			return fmt.Errorf("insert %s rows: %w", w.table, err)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		timer.Stop()

		if backoff *= 2; backoff > w.retry.MaximumBackoff {
			backoff = w.retry.MaximumBackoff
		}
	}
}

func isRetryableInsertError(err error) bool {
	if err == nil {
		return false
	}

	var multi *cbigquery.MultiError
	if errors.As(err, &multi) {
		if multi == nil || len(*multi) == 0 {
			return false
		}
		for _, inner := range *multi {
			if !isRetryableInsertError(inner) {
				return false
			}
		}
		return true
	}

	var pme *cbigquery.PutMultiError
	if errors.As(err, &pme) {
		if pme == nil || len(*pme) == 0 {
			return false
		}
		for _, rowErr := range *pme {
			if !isRetryableInsertError(rowErr.Errors) {
				return false
			}
		}
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusRequestTimeout,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}

	var statusErr interface{ GRPCStatus() *status.Status }
	if errors.As(err, &statusErr) {
		if st := statusErr.GRPCStatus(); st != nil {
			switch st.Code() {
			case codes.Aborted,
				codes.DeadlineExceeded,
				codes.Internal,
				codes.ResourceExhausted,
				codes.Unavailable:
				return true
			}
		}
	}

	return false
}
