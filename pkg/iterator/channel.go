package iterator

var _ Iterator = (*recordChannel)(nil)

type recordChannel struct {
	ch   <-chan Record
	next int
}

func (e *recordChannel) Next() (Record, int, error) {
	rec, ok := <-e.ch
	if !ok {
		return End()
	}
	cur := e.next
	e.next += 1
	return rec, cur, nil
}

func (e *recordChannel) Iterate(iter func(rec Record, i int) error) error {
	return iterate(e, iter)
}
