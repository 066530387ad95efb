package reporting

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"google.golang.org/api/googleapi"
)

type fakeInserter struct {
	calls  int
	tables []string
	rows   [][]any
	errs   []error
}

func (f *fakeInserter) InsertRows(ctx context.Context, table string, rows []any) error {
	f.calls++
	f.tables = append(f.tables, table)
	f.rows = append(f.rows, rows)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return err
	}
	return nil
}

func newTestWriter(t *testing.T, inserter *fakeInserter, cfg WriterConfig) *Writer {
	t.Helper()
	if cfg.Table == "" {
		cfg.Table = "earnings_facts"
	}
	if cfg.RetryPolicy.InitialBackoff == 0 {
		cfg.RetryPolicy.InitialBackoff = time.Millisecond
		cfg.RetryPolicy.MaximumBackoff = 2 * time.Millisecond
	}
	w, err := newWriter(inserter, cfg)
	if err != nil {
		t.Fatalf("build writer: %v", err)
	}
	return w
}

func TestWriterFlushesAtBatchSize(t *testing.T) {
	inserter := &fakeInserter{}
	w := newTestWriter(t, inserter, WriterConfig{BatchSize: 2})

	if err := w.WriteEarning(context.Background(), EarningsFactRow{EntryID: "a"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if inserter.calls != 0 {
		t.Fatalf("expected buffered row, got %d inserts", inserter.calls)
	}
	if err := w.WriteEarning(context.Background(), EarningsFactRow{EntryID: "b"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if inserter.calls != 1 {
		t.Fatalf("expected one insert, got %d", inserter.calls)
	}
	if len(inserter.rows[0]) != 2 {
		t.Fatalf("expected two rows in batch, got %d", len(inserter.rows[0]))
	}
	if inserter.tables[0] != "earnings_facts" {
		t.Fatalf("unexpected table %q", inserter.tables[0])
	}
}

func TestWriterRetriesRetryableErrors(t *testing.T) {
	inserter := &fakeInserter{errs: []error{
		&googleapi.Error{Code: http.StatusServiceUnavailable},
	}}
	w := newTestWriter(t, inserter, WriterConfig{})

	if err := w.WriteEarning(context.Background(), EarningsFactRow{EntryID: "a"}); err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if inserter.calls != 2 {
		t.Fatalf("expected two attempts, got %d", inserter.calls)
	}
}

func TestWriterStopsOnPermanentError(t *testing.T) {
	inserter := &fakeInserter{errs: []error{
		&googleapi.Error{Code: http.StatusBadRequest},
	}}
	w := newTestWriter(t, inserter, WriterConfig{})

	if err := w.WriteEarning(context.Background(), EarningsFactRow{EntryID: "a"}); err == nil {
		t.Fatal("expected permanent error to surface")
	}
	if inserter.calls != 1 {
		t.Fatalf("expected single attempt, got %d", inserter.calls)
	}
}

func TestWriterGivesUpAfterMaxAttempts(t *testing.T) {
	retryable := &googleapi.Error{Code: http.StatusServiceUnavailable}
	inserter := &fakeInserter{errs: []error{retryable, retryable, retryable}}
	w := newTestWriter(t, inserter, WriterConfig{RetryPolicy: RetryPolicy{MaxAttempts: 3}})

	if err := w.WriteEarning(context.Background(), EarningsFactRow{EntryID: "a"}); err == nil {
		t.Fatal("expected exhaustion error")
	}
	if inserter.calls != 3 {
		t.Fatalf("expected three attempts, got %d", inserter.calls)
	}
}

func TestWriterFlushEmptyBufferIsNoop(t *testing.T) {
	inserter := &fakeInserter{errs: []error{errors.New("should not be called")}}
	w := newTestWriter(t, inserter, WriterConfig{BatchSize: 5})

	if err := w.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if inserter.calls != 0 {
		t.Fatalf("expected no insert, got %d", inserter.calls)
	}
}
