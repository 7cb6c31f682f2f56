// Package store lands converted documents in SQLite tables, one column per dotted field path, and reads them back.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/hashicorp/go-hclog"
	"github.com/saylorsolutions/fluentecs/pkg/iterator"
	_ "modernc.org/sqlite"
	"regexp"
	"sort"
	"strings"
)

var (
	tablePattern = regexp.MustCompile(`^\w+(\.\w+)?$`)
	ErrBadTable  = errors.New("invalid table name")
)

// SqliteStore is a store for documents using Sqlite3 as a storage engine.
type SqliteStore struct {
	db  *sql.DB
	log hclog.Logger
}

func NewStore(log hclog.Logger, filename string) (*SqliteStore, error) {
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, err
	}
	log = log.Named("sqlite-document-store")
	return &SqliteStore{
		db:  db,
		log: log,
	}, nil
}

// QueryDocuments returns each row of the table as a JSON document, with dotted column names expanded into nested objects.
func (s *SqliteStore) QueryDocuments(ctx context.Context, table string) (iterator.Iterator, error) {
	if !tablePattern.MatchString(table) {
		return nil, fmt.Errorf("%w: %s", ErrBadTable, table)
	}
	rows, err := s.db.QueryContext(ctx, "select * from "+table+" order by "+idColumn)
	if err != nil {
		return nil, err
	}
	return newQueryIterator(s.log, rows)
}

// Sink lands each document of iter in the table, creating the table and its columns as needed.
// In case of an error, iter is drained to prevent upstream blocking.
func (s *SqliteStore) Sink(ctx context.Context, iter iterator.Iterator, table string) error {
	if !tablePattern.MatchString(table) {
		iterator.Drain(iter)
		return fmt.Errorf("%w: %s", ErrBadTable, table)
	}
	s.log.Debug("Establishing connection")
	conn, err := s.db.Conn(ctx)
	if err != nil {
		iterator.Drain(iter)
		return err
	}
	defer func() {
		_ = conn.Close()
		s.log.Debug("DB connection closed")
	}()
	s.log.Debug("Ensuring the specified table is present")
	if err := s.ensureTable(ctx, conn, table); err != nil {
		iterator.Drain(iter)
		return err
	}
	s.log.Debug("Getting table columns")
	cols, err := s.getTableColumns(ctx, conn, table)
	if err != nil {
		iterator.Drain(iter)
		return err
	}
	colMap := map[string]bool{}
	for _, c := range cols {
		colMap[c] = true
	}

	s.log.Debug("Starting sink operation")
	return s.sink(ctx, conn, table, iter, colMap)
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}

func (s *SqliteStore) ensureTable(ctx context.Context, conn *sql.Conn, table string) error {
	_, err := conn.ExecContext(ctx, fmt.Sprintf(createTable, table))
	return err
}

func (s *SqliteStore) getTableColumns(ctx context.Context, conn *sql.Conn, table string) ([]string, error) {
	rows, err := conn.QueryContext(ctx, "select * from "+table+" limit 0")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()
	return rows.Columns()
}

func (s *SqliteStore) sink(ctx context.Context, conn *sql.Conn, table string, iter iterator.Iterator, colMap map[string]bool) error {
	log := s.log.With("table", table).Named("sink")

	err := iter.Iterate(func(rec iterator.Record, i int) error {
		if ctx.Err() != nil {
			log.Debug("Context cancelled")
			return iterator.ErrAtEnd
		}
		flat, err := Flatten(rec.Data)
		if err != nil {
			log.Warn("Skipping document that isn't a JSON object", "offset", i, "error", err)
			return nil
		}
		delete(flat, idColumn)
		if len(flat) == 0 {
			return nil
		}

		fields := make([]string, 0, len(flat))
		for k := range flat {
			fields = append(fields, k)
		}
		sort.Strings(fields)

		var (
			intoStr strings.Builder
			params  strings.Builder
			args    = make([]any, len(fields))
		)
		for i, f := range fields {
			if !colMap[f] {
				log.Debug("New field discovered, adding to table", "field", f)
				if err := s.addColumn(ctx, conn, table, f); err != nil {
					log.Error("Failed to add field to table", "field", f, "error", err)
					return err
				}
				colMap[f] = true
			}
			if i > 0 {
				intoStr.WriteString(",")
				params.WriteString(",")
			}
			intoStr.WriteString(quoteIdent(f))
			params.WriteString("?")
			args[i] = flat[f]
		}
		query := fmt.Sprintf("insert into %s (%s) values (%s)", table, intoStr.String(), params.String())
		log.Trace("Inserting document into table", "query", query)
		if _, err := conn.ExecContext(ctx, query, args...); err != nil {
			log.Error("Failed to insert into table", "error", err)
			return err
		}
		return nil
	})
	if err != nil {
		log.Error("Error sinking to DB, draining iterator", "error", err)
		iterator.Drain(iter)
		return err
	}
	return nil
}

// addColumn adds an untyped column, so values keep the storage class they're inserted with.
func (s *SqliteStore) addColumn(ctx context.Context, conn *sql.Conn, table string, colName string) error {
	_, err := conn.ExecContext(ctx, fmt.Sprintf("alter table %s add column %s", table, quoteIdent(colName)))
	return err
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
