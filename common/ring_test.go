package common

import (
	"reflect"
	"sync"
	"testing"
)

func TestRingBuffer(t *testing.T) {
	rb := NewRingBuffer[int](3)
	if got := rb.Get(); len(got) != 0 {
		t.Errorf("empty buffer got=%v", got)
	}
	rb.Add(1)
	rb.Add(2)
	if got := rb.Get(); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("got=%v", got)
	}
	rb.Add(3)
	rb.Add(4)
	if got := rb.Get(); !reflect.DeepEqual(got, []int{2, 3, 4}) {
		t.Errorf("got=%v", got)
	}
	if got := rb.Tail(2); !reflect.DeepEqual(got, []int{3, 4}) {
		t.Errorf("tail got=%v", got)
	}
	if got := rb.Tail(10); !reflect.DeepEqual(got, []int{2, 3, 4}) {
		t.Errorf("long tail got=%v", got)
	}
	if rb.Len() != 3 {
		t.Errorf("len got=%d", rb.Len())
	}
}

func TestRingBuffer_concurrent(t *testing.T) {
	rb := NewRingBuffer[int](16)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				rb.Add(i*100 + j)
				_ = rb.Tail(4)
			}
		}(i)
	}
	wg.Wait()
	if rb.Len() != 16 {
		t.Errorf("len got=%d, want=16", rb.Len())
	}
}
