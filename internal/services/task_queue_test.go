package services

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestTaskTypeSurveyStart_Constant(t *testing.T) {
	if TaskTypeSurveyStart != "survey:start" {
		t.Errorf("TaskTypeSurveyStart = %q, expected %q", TaskTypeSurveyStart, "survey:start")
	}
}

func TestSyncQueue_New(t *testing.T) {
	queue := NewSyncQueue()
	if queue == nil {
		t.Error("NewSyncQueue should not return nil")
	}
}

func TestSyncQueue_IsAsync(t *testing.T) {
	queue := NewSyncQueue()
	if queue.IsAsync() {
		t.Error("SyncQueue.IsAsync() should return false")
	}
}

func TestSyncQueue_Close(t *testing.T) {
	queue := NewSyncQueue()
	if err := queue.Close(); err != nil {
		t.Errorf("SyncQueue.Close() should return nil, got %v", err)
	}
}

func TestSyncQueue_EnqueueWithoutProcessor(t *testing.T) {
	queue := NewSyncQueue()
	err := queue.Enqueue(&SurveyStartTask{CustomerID: "c-1"})
	if err != nil {
		t.Errorf("Enqueue without processor should not error, got %v", err)
	}
}

func TestSyncQueue_EnqueueRunsProcessor(t *testing.T) {
	queue := NewSyncQueue()

	var mu sync.Mutex
	var got *SurveyStartTask
	done := make(chan struct{})
	queue.SetProcessor(func(ctx context.Context, task *SurveyStartTask) error {
		mu.Lock()
		got = task
		mu.Unlock()
		close(done)
		return nil
	})

	batchID := uint(7)
	if err := queue.Enqueue(&SurveyStartTask{CustomerID: "c-2", BatchID: &batchID}); err != nil {
		t.Fatalf("Enqueue error: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("processor was not invoked")
	}

	mu.Lock()
	defer mu.Unlock()
	if got == nil || got.CustomerID != "c-2" || got.BatchID == nil || *got.BatchID != 7 {
		t.Errorf("processor received %+v", got)
	}
}

func TestAsyncQueue_IsAsync(t *testing.T) {
	queue := &AsyncQueue{}
	if !queue.IsAsync() {
		t.Error("AsyncQueue.IsAsync() should return true")
	}
}
