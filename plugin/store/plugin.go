package store

import (
	"context"
	"errors"
	"fmt"
	"github.com/hashicorp/go-hclog"
	"github.com/saylorsolutions/fluentecs/pkg/iterator"
	"github.com/saylorsolutions/fluentecs/plugin"
	"sort"
	"strings"
	"sync"
)

const Qualifier = "sqlite"

func Plugin(log hclog.Logger) plugin.Plugin {
	return &sqlitePlugin{
		log:        log,
		storeCache: map[string]*SqliteStore{},
	}
}

type sqlitePlugin struct {
	log        hclog.Logger
	mux        sync.Mutex
	storeCache map[string]*SqliteStore
}

func (p *sqlitePlugin) ID() string {
	return Qualifier
}

func (p *sqlitePlugin) Stopping() error {
	p.mux.Lock()
	defer p.mux.Unlock()
	files := make([]string, 0, len(p.storeCache))
	for file := range p.storeCache {
		files = append(files, file)
	}
	sort.Strings(files)

	var closeErrors []string
	for _, file := range files {
		if err := p.storeCache[file].Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Sprintf("%v: file: %s", err, file))
		}
		delete(p.storeCache, file)
	}
	if len(closeErrors) == 0 {
		return nil
	}
	return errors.New("error closing SQLite plugin: " + strings.Join(closeErrors, ", "))
}

func (p *sqlitePlugin) store(args []string) (*SqliteStore, string, error) {
	if len(args) < 2 {
		return nil, "", fmt.Errorf("%w: requires 2 arguments", plugin.ErrArgs)
	}
	file := args[0]
	if file == "" {
		return nil, "", fmt.Errorf("%w: file name string must be specified as first argument", plugin.ErrArgs)
	}
	table := args[1]
	if table == "" {
		return nil, "", fmt.Errorf("%w: table name string must be specified as second argument", plugin.ErrArgs)
	}

	p.mux.Lock()
	defer p.mux.Unlock()
	store, ok := p.storeCache[file]
	if !ok {
		_store, err := NewStore(p.log, file)
		if err != nil {
			return nil, "", err
		}
		store = _store
		p.storeCache[file] = _store
	}
	return store, table, nil
}

func (p *sqlitePlugin) Register(reg *plugin.Registration) {
	reg.RegisterSource(Qualifier, "Table", func(ctx context.Context, args ...string) (iterator.Iterator, error) {
		store, table, err := p.store(args)
		if err != nil {
			return nil, err
		}
		return store.QueryDocuments(ctx, table)
	})
	reg.DocumentSource(Qualifier, "Table", `sqlite.Table FILE_NAME TABLE_NAME

This source will query all rows from a table and return each row as a JSON document.
Columns named with dotted paths like "event.kind" are expanded into nested objects.
It may not return continuously added rows, so it should be used for tables that represent a static snapshot of documents.`)
	reg.RegisterSink(Qualifier, "Table", func(ctx context.Context, src iterator.Iterator, args ...string) error {
		store, table, err := p.store(args)
		if err != nil {
			iterator.Drain(src)
			return err
		}
		return store.Sink(ctx, src, table)
	})
	reg.DocumentSink(Qualifier, "Table", `sqlite.Table FILE_NAME TABLE_NAME

This sink will land all documents into the SQLite database table specified. The TABLE_NAME argument may be prefixed with a schema name like "my_schema.my_table".
If the table does not exist, then it will be created with an integer primary key column called evt_id.
Table columns will be created as needed, one for each leaf field, named by its dotted path like "event.kind". Arrays are stored as JSON text.
This means that the table may trend toward being sparsely populated if the input documents are largely heterogeneous.`)
}
