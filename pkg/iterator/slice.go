package iterator

var _ Iterator = (*recordSlice)(nil)

type recordSlice struct {
	records []Record
	next    int
}

func (e *recordSlice) Next() (Record, int, error) {
	cur := e.next
	if len(e.records) > cur {
		e.next += 1
		return e.records[cur], cur, nil
	}
	return End()
}

func (e *recordSlice) Iterate(iter func(rec Record, i int) error) error {
	return iterate(e, iter)
}
