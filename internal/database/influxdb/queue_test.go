package influxdb

import (
	"can-dbc-catalog/internal/models"
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newQueueWriter(size int) *Writer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Writer{
		logger:    zap.NewNop(),
		batchChan: make(chan models.ParseRecord, size),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func TestWrite_BlocksWhenQueueFull(t *testing.T) {
	w := newQueueWriter(1)
	defer w.cancel()

	w.Write(models.ParseRecord{Name: "first"})

	written := make(chan struct{})
	go func() {
		w.Write(models.ParseRecord{Name: "second"})
		close(written)
	}()

	select {
	case <-written:
		t.Fatal("Write() returned while the queue was full")
	case <-time.After(50 * time.Millisecond):
	}

	if got := (<-w.batchChan).Name; got != "first" {
		t.Errorf("first queued record = %q, want first", got)
	}
	select {
	case <-written:
	case <-time.After(time.Second):
		t.Fatal("Write() still blocked after the queue drained")
	}
	if got := (<-w.batchChan).Name; got != "second" {
		t.Errorf("second queued record = %q, want second", got)
	}
}

func TestWrite_DropsAfterClose(t *testing.T) {
	w := newQueueWriter(1)
	w.Write(models.ParseRecord{Name: "queued"})
	w.cancel()

	done := make(chan struct{})
	go func() {
		w.Write(models.ParseRecord{Name: "late"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Write() blocked on a closed writer")
	}
	if len(w.batchChan) != 1 {
		t.Errorf("queue length = %d, want 1", len(w.batchChan))
	}
}
