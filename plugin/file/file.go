// Package file reads collector output from files, and appends converted documents to files.
package file

import (
	"context"
	"github.com/nxadm/tail"
	"github.com/saylorsolutions/fluentecs/pkg/iterator"
	"os"
)

// Read creates an iterator.Iterator with a record for each non-empty line of the file, ending at the end of the file.
// The arrival time of a record is when its line was read.
func Read(ctx context.Context, filename string) (iterator.Iterator, error) {
	_, iter, err := ctxSource(ctx, filename, false)
	return iter, err
}

// ReadAll behaves like Read for each file in turn.
func ReadAll(ctx context.Context, filenames ...string) (iterator.Iterator, error) {
	return combine(ctx, filenames, Read, iterator.Concat)
}

// Tail behaves like Read, except that it watches the file for new lines, and re-opens it if it's rotated.
// The iterator ends when ctx is cancelled.
func Tail(ctx context.Context, filename string) (iterator.Iterator, error) {
	_, iter, err := ctxSource(ctx, filename, true)
	return iter, err
}

// TailAll follows every file at once, interleaving their records as they arrive.
func TailAll(ctx context.Context, filenames ...string) (iterator.Iterator, error) {
	return combine(ctx, filenames, Tail, iterator.Merge)
}

func combine(
	ctx context.Context,
	filenames []string,
	open func(context.Context, string) (iterator.Iterator, error),
	join func(a, b iterator.Iterator) iterator.Iterator,
) (iterator.Iterator, error) {
	iter := iterator.Empty()
	for _, filename := range filenames {
		next, err := open(ctx, filename)
		if err != nil {
			iterator.Drain(iter)
			return nil, err
		}
		iter = join(iter, next)
	}
	return iter, nil
}

func nonEmpty(rec iterator.Record, _ int) bool {
	return len(rec.Data) > 0
}

func ctxSource(ctx context.Context, filename string, follow bool) (*tail.Tail, iterator.Iterator, error) {
	t, err := tail.TailFile(filename, tail.Config{
		ReOpen:    follow,
		MustExist: true,
		Follow:    follow,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan iterator.Record)
	go func() {
		defer close(ch)
		defer t.Cleanup()
		defer func() {
			_ = t.Stop()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case l, ok := <-t.Lines:
				if !ok {
					return
				}
				if l.Err != nil {
					continue
				}
				select {
				case ch <- iterator.NewRecord([]byte(l.Text), l.Time):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return t, iterator.Filter(iterator.FromChannel(ch), nonEmpty), nil
}

// Sink will append each document in the iterator.Iterator to the specified file as a line, creating it if necessary.
// In case of an error, Sink will drain the iterator.Iterator to prevent upstream blocking.
func Sink(iter iterator.Iterator, filename string, perms os.FileMode) error {
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, perms)
	if err != nil {
		iterator.Drain(iter)
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	err = iter.Iterate(func(rec iterator.Record, _ int) error {
		line := make([]byte, 0, len(rec.Data)+1)
		line = append(append(line, rec.Data...), '\n')
		_, err := f.Write(line)
		return err
	})
	if err != nil {
		iterator.Drain(iter)
		return err
	}
	return nil
}
