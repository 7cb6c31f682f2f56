// Package stdstream reads records from STDIN, and writes documents to STDOUT or STDERR.
package stdstream

import (
	"bufio"
	"context"
	"github.com/saylorsolutions/fluentecs/pkg/iterator"
	"github.com/saylorsolutions/fluentecs/plugin"
	"io"
	"os"
	"time"
)

const (
	Qualifier = "std"

	// maxLineSize is the longest record SourceIn will read.
	maxLineSize = 1024 * 1024
)

var _ plugin.Plugin = (*stdplugin)(nil)

func Plugin() plugin.Plugin {
	return new(stdplugin)
}

type stdplugin struct {
}

func (s *stdplugin) ID() string {
	return Qualifier
}

func (s *stdplugin) Register(reg *plugin.Registration) {
	reg.RegisterSource(Qualifier, "In", SourceIn)
	reg.DocumentSource(Qualifier, "In", `std.In

Reads each non-empty line of STDIN as a record.`)
	reg.RegisterSink(Qualifier, "Out", SinkOut)
	reg.DocumentSink(Qualifier, "Out", `std.Out

Writes each document as a line to STDOUT.`)
	reg.RegisterSink(Qualifier, "Err", SinkErr)
	reg.DocumentSink(Qualifier, "Err", `std.Err

Writes each document as a line to STDERR.`)
}

func (s *stdplugin) Stopping() error {
	return nil
}

func SourceIn(ctx context.Context, _ ...string) (iterator.Iterator, error) {
	return FromReader(ctx, os.Stdin), nil
}

// FromReader creates an iterator.Iterator with a record for each non-empty line of r.
// The arrival time of a record is when its line was read.
func FromReader(ctx context.Context, r io.Reader) iterator.Iterator {
	ch := make(chan iterator.Record)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			data := make([]byte, len(line))
			copy(data, line)
			select {
			case <-ctx.Done():
				return
			case ch <- iterator.NewRecord(data, time.Now()):
			}
		}
	}()
	return iterator.FromChannel(ch)
}

func SinkOut(ctx context.Context, src iterator.Iterator, _ ...string) error {
	return WriteLines(ctx, src, os.Stdout)
}

func SinkErr(ctx context.Context, src iterator.Iterator, _ ...string) error {
	return WriteLines(ctx, src, os.Stderr)
}

// WriteLines writes each document of src to w, followed by a newline, until src ends or ctx is cancelled.
// In case of an error, src is drained to prevent upstream blocking.
func WriteLines(ctx context.Context, src iterator.Iterator, w io.Writer) error {
	err := src.Iterate(func(rec iterator.Record, i int) error {
		if ctx.Err() != nil {
			return iterator.ErrAtEnd
		}
		if _, err := w.Write(rec.Data); err != nil {
			return err
		}
		_, err := w.Write([]byte{'\n'})
		return err
	})
	if err != nil {
		iterator.Drain(src)
		return err
	}
	return nil
}
