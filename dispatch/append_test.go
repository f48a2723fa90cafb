package dispatch

import (
	"sort"
	"sync"
	"testing"
)

func TestAppendListSerial(t *testing.T) {
	l := NewAppendList(4)

	if idx := l.Append(7); idx != 0 {
		t.Errorf("first Append reserved %d, want 0", idx)
	}
	if idx := l.Append(9); idx != 1 {
		t.Errorf("second Append reserved %d, want 1", idx)
	}
	if l.Len() != 2 {
		t.Errorf("Len() = %d, want 2", l.Len())
	}
	if l.At(0) != 7 || l.At(1) != 9 {
		t.Errorf("entries = %d,%d, want 7,9", l.At(0), l.At(1))
	}

	l.Reset()
	if l.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", l.Len())
	}
}

func TestAppendListConcurrent(t *testing.T) {
	const producers = 16
	const perProducer = 1000
	l := NewAppendList(producers * perProducer)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				l.Append(int32(p*perProducer + i))
			}
		}(p)
	}
	wg.Wait()

	if l.Len() != producers*perProducer {
		t.Fatalf("Len() = %d, want %d", l.Len(), producers*perProducer)
	}

	// Every value must land exactly once: reservation hands out private slots.
	got := append([]int32(nil), l.Slice()...)
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	for i, v := range got {
		if v != int32(i) {
			t.Fatalf("after sort entry %d = %d, want %d (duplicate or lost append)", i, v, i)
		}
	}
}
