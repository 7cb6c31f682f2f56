package store

import (
	"database/sql"
	"github.com/hashicorp/go-hclog"
	"github.com/saylorsolutions/fluentecs/pkg/entries"
	"github.com/saylorsolutions/fluentecs/pkg/iterator"
	"time"
)

const (
	idColumn = "evt_id"

	createTable = `
create table if not exists %s (
	` + idColumn + ` integer primary key
)`
)

func newQueryIterator(log hclog.Logger, rows *sql.Rows) (iterator.Iterator, error) {
	cols, err := rows.Columns()
	if err != nil {
		log.Error("Failed to query columns", "error", err)
		_ = rows.Close()
		return nil, err
	}
	var rowNum int

	return iterator.Func(func() (iterator.Record, int, error) {
		if !rows.Next() {
			err := rows.Err()
			_ = rows.Close()
			if err != nil {
				return iterator.Err(err)
			}
			return iterator.End()
		}
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			_ = rows.Close()
			return iterator.Err(err)
		}

		flat := map[string]any{}
		for i, col := range cols {
			if col == idColumn {
				continue
			}
			flat[col] = vals[i]
		}
		data, err := entries.Marshal(Unflatten(flat))
		if err != nil {
			_ = rows.Close()
			return iterator.Err(err)
		}
		rec := iterator.NewRecord(data, time.Now())
		i := rowNum
		rowNum++
		return rec, i, nil
	}), nil
}
