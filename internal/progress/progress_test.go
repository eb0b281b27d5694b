package progress

import (
	"sync"
	"testing"
	"time"
)

func TestBarIncrementIsConcurrentSafe(t *testing.T) {
	b := NewBar("test", 1000)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				b.Increment(1)
			}
		}()
	}
	wg.Wait()

	if got := b.Snapshot().Processed; got != 1000 {
		t.Fatalf("Processed = %d, want 1000", got)
	}
}

func TestSnapshotFractionClampsAtOne(t *testing.T) {
	s := Snapshot{Processed: 150, Total: 100}
	if f := s.Fraction(); f != 1 {
		t.Fatalf("Fraction() = %v, want 1", f)
	}
}

func TestSnapshotFractionZeroTotal(t *testing.T) {
	s := Snapshot{Processed: 5, Total: 0}
	if f := s.Fraction(); f != 0 {
		t.Fatalf("Fraction() = %v, want 0", f)
	}
}

func TestWatchReportsFinalStateOnStop(t *testing.T) {
	b := NewBar("test", 10)
	b.Increment(10)
	stop := make(chan struct{})
	var got Snapshot
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		Watch(b, time.Hour, stop, func(s Snapshot) { got = s })
	}()
	close(stop)
	wg.Wait()

	if got.Processed != 10 {
		t.Fatalf("final snapshot Processed = %d, want 10", got.Processed)
	}
}
