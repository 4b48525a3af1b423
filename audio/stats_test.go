package audio

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStatsBufferDrops(t *testing.T) {
	buf := newStatsBuffer(4)
	for n := 0; n < 6; n++ {
		buf.push(Stats{Blocks: n})
	}
	if want, got := uint64(2), buf.dropped.Load(); want != got {
		t.Errorf("wrong drop count: want %v, got %v", want, got)
	}

	var got []int
	buf.iter(func(s Stats) { got = append(got, s.Blocks) })
	if want := []int{0, 1, 2, 3}; len(got) != len(want) {
		t.Fatalf("want %v, got %v", want, got)
	}
	if !buf.push(Stats{}) {
		t.Errorf("push after drain should succeed")
	}
}

func TestStatsBuffer(t *testing.T) {
	buf := newStatsBuffer(8)

	done := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	var stats []Stats
	go func() {
		for {
			select {
			case <-ctx.Done():
				buf.iter(func(s Stats) {
					stats = append(stats, s)
				})
				done <- struct{}{}
				return
			default:
				buf.iter(func(s Stats) {
					stats = append(stats, s)
				})
			}
		}
	}()

	const numStats = 100_000
	for n := 0; n < numStats; {
		if buf.push(Stats{Frame: uint64(n)}) {
			n++
		}
	}

	cancel()
	<-done

	if len(stats) != numStats {
		t.Errorf("wrong number of stats: want %v, got %v", numStats, len(stats))
	}
	prev := -1
	for _, s := range stats {
		if want, got := uint64(prev+1), s.Frame; want != got {
			t.Fatalf("discontinuous stats: want: %v, got %v", want, got)
		}
		prev++
	}
}

func TestStatsDeliverSurvivesObserver(t *testing.T) {
	buf := newStatsBuffer(8)
	got := make(chan Stats, 8)
	calls := 0
	obs := func(s Stats) error {
		calls++
		switch calls {
		case 1:
			return errors.New("rejected")
		case 2:
			panic("observer bug")
		}
		got <- s
		return nil
	}

	stop := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		buf.deliver(obs, stop)
		close(finished)
	}()
	for n := 1; n <= 3; n++ {
		buf.push(Stats{Blocks: n})
	}

	select {
	case s := <-got:
		if want := 3; s.Blocks != want {
			t.Errorf("want stats %v, got %v", want, s.Blocks)
		}
	case <-time.After(time.Second):
		t.Fatal("observer never received stats")
	}
	close(stop)
	<-finished
}

func TestStatsCounter(t *testing.T) {
	var c statsCounter
	for n := 1; n < statsInterval; n++ {
		if _, ok := c.add(time.Millisecond); ok {
			t.Fatalf("stats emitted after %d renders", n)
		}
	}
	s, ok := c.add(3 * time.Millisecond)
	if !ok {
		t.Fatal("no stats after 100 renders")
	}
	want := (99*time.Millisecond + 3*time.Millisecond) / 100
	if s.MeanRenderTime != want || s.Blocks != statsInterval {
		t.Errorf("want %v over %d blocks, got %+v", want, statsInterval, s)
	}
	if want, got := 1.02, s.MeanMillis(); want != got {
		t.Errorf("want %vms, got %vms", want, got)
	}
	if c.renders != 0 || c.total != 0 {
		t.Errorf("counter not reset: %+v", c)
	}
}
