package moderation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/moderation"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := moderation.NewKeyedMutex()
	ctx := context.Background()

	var mu sync.Mutex
	inside, maxInside := 0, 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := km.Lock(ctx, "user:1")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside > maxInside {
				maxInside = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Errorf("expected at most 1 holder, got %d", maxInside)
	}
	if km.Len() != 0 {
		t.Errorf("expected no retained keys, got %d", km.Len())
	}
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	km := moderation.NewKeyedMutex()
	ctx := context.Background()

	unlockA, err := km.Lock(ctx, "user:a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer unlockA()

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlockB, err := km.Lock(ctx, "user:b")
	if err != nil {
		t.Fatalf("expected second key to lock, got %v", err)
	}
	unlockB()
}

func TestKeyedMutex_ContextCancel(t *testing.T) {
	km := moderation.NewKeyedMutex()

	unlock, err := km.Lock(context.Background(), "user:1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := km.Lock(ctx, "user:1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}

	unlock()
	unlock()
	if km.Len() != 0 {
		t.Errorf("expected no retained keys, got %d", km.Len())
	}
}
