package iterator

import (
	"errors"
	"time"
)

var (
	ErrAtEnd = errors.New("end of iteration")
)

// Record is one raw input or output line, along with the time it was observed.
type Record struct {
	Data    []byte
	Arrival time.Time
}

func NewRecord(data []byte, arrival time.Time) Record {
	return Record{Data: data, Arrival: arrival}
}

type Iterator interface {
	// Next returns the next Record and its offset in the stream.
	// May return ErrAtEnd if the end of the stream is reached.
	Next() (Record, int, error)
	// Iterate will progress through all Record items in the stream, calling iter for each one along with the offset.
	// If iter returns ErrAtEnd, then iteration will cease, returning nil.
	// If any other error is returned, then iteration will cease, and the error will be returned.
	Iterate(iter func(rec Record, i int) error) error
}

func FromSlice(records []Record) Iterator {
	return &recordSlice{records: records}
}

func FromChannel(records <-chan Record) Iterator {
	return &recordChannel{ch: records}
}

// Empty returns an Iterator that is already at its end.
func Empty() Iterator {
	return FromSlice(nil)
}

func AsChannel(iter Iterator) <-chan Record {
	if chi, ok := iter.(*recordChannel); ok {
		return chi.ch
	}
	if chs, ok := iter.(*recordSlice); ok {
		remaining := chs.records[chs.next:]
		chs.next = len(chs.records)
		ch := make(chan Record, len(remaining))
		defer close(ch)
		for _, rec := range remaining {
			ch <- rec
		}
		return ch
	}
	ch := make(chan Record)
	go func() {
		defer close(ch)
		_ = iter.Iterate(func(rec Record, i int) error {
			ch <- rec
			return nil
		})
	}()
	return ch
}

// Merge will take over the passed in Iterators and forward all Record elements to the new Iterator.
// It's advised not to read from an iterator that has been passed to Merge.
func Merge(a, b Iterator) Iterator {
	aCh := AsChannel(a)
	bCh := AsChannel(b)

	outCh := make(chan Record)
	out := FromChannel(outCh)

	go func() {
		defer close(outCh)
		for aCh != nil || bCh != nil {
			select {
			case ae, ok := <-aCh:
				if !ok {
					aCh = nil
					continue
				}
				outCh <- ae
			case be, ok := <-bCh:
				if !ok {
					bCh = nil
					continue
				}
				outCh <- be
			}
		}
	}()
	return out
}

// Drain will drain all records from an Iterator in a new goroutine.
// This can be useful as an error fallback in case of an iteration error to prevent upstream blocking.
func Drain(iter Iterator) {
	ch := AsChannel(iter)
	go func() {
		for range ch {
		}
	}()
}

// Collect reads all remaining records of iter into a slice.
func Collect(iter Iterator) ([]Record, error) {
	var out []Record
	err := iter.Iterate(func(rec Record, i int) error {
		out = append(out, rec)
		return nil
	})
	return out, err
}
