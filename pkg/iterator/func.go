package iterator

import "errors"

// Func adapts a Next function into an Iterator.
type Func func() (Record, int, error)

func (f Func) Next() (Record, int, error) {
	return f()
}

func (f Func) Iterate(iter func(rec Record, i int) error) error {
	return iterate(f, iter)
}

// End is returned by Next when there are no more records.
func End() (Record, int, error) {
	return Record{}, -1, ErrAtEnd
}

// Err is returned by Next when producing the next record failed.
func Err(err error) (Record, int, error) {
	return Record{}, -1, err
}

func IsEnd(err error) bool {
	return errors.Is(err, ErrAtEnd)
}

func iterate(src Iterator, iter func(rec Record, i int) error) error {
	for {
		rec, i, err := src.Next()
		if err == nil {
			err = iter(rec, i)
		}
		if err != nil {
			if IsEnd(err) {
				return nil
			}
			return err
		}
	}
}
