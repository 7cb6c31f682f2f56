package file

import (
	"context"
	"fmt"
	"github.com/saylorsolutions/fluentecs/pkg/iterator"
	"github.com/saylorsolutions/fluentecs/plugin"
	"os"
	"strconv"
)

const Qualifier = "file"

func Plugin() plugin.Plugin {
	return new(filePlugin)
}

type filePlugin struct{}

func (*filePlugin) ID() string {
	return Qualifier
}

func (*filePlugin) Stopping() error {
	return nil
}

func (*filePlugin) Register(reg *plugin.Registration) {
	reg.RegisterSource(Qualifier, "Tail", func(ctx context.Context, args ...string) (iterator.Iterator, error) {
		if len(args) < 1 {
			return nil, fmt.Errorf("%w: requires at least 1 argument", plugin.ErrArgs)
		}
		return TailAll(ctx, args...)
	})
	reg.DocumentSource(Qualifier, "Tail", `file.Tail FILE_NAME...

This source will watch each file specified by FILE_NAME for changes, producing a new record for each new line.
A file is re-opened if it's rotated. Records of different files are interleaved as they arrive.`)
	reg.RegisterSource(Qualifier, "File", func(ctx context.Context, args ...string) (iterator.Iterator, error) {
		if len(args) < 1 {
			return nil, fmt.Errorf("%w: requires at least 1 argument", plugin.ErrArgs)
		}
		return ReadAll(ctx, args...)
	})
	reg.DocumentSource(Qualifier, "File", `file.File FILE_NAME...

This source will read each line of each file specified by FILE_NAME in turn, emitting a record for each one.
Empty lines are skipped.`)
	reg.RegisterSink(Qualifier, "File", func(_ context.Context, src iterator.Iterator, args ...string) error {
		if len(args) < 1 {
			iterator.Drain(src)
			return fmt.Errorf("%w: requires 1 or 2 arguments", plugin.ErrArgs)
		}

		if len(args) >= 2 {
			perms, err := strconv.ParseUint(args[1], 8, 32)
			if err != nil {
				iterator.Drain(src)
				return fmt.Errorf("%w: invalid file permission argument", plugin.ErrArgs)
			}
			return Sink(src, args[0], os.FileMode(perms))
		}
		return Sink(src, args[0], 0600)
	})
	reg.DocumentSink(Qualifier, "File", `file.File FILE_NAME [FILE_MODE]

This sink will append each document on a single line to a file specified by FILE_NAME, creating it if necessary.
If FILE_MODE is specified, and it's a string representing a valid octal file mode like "644", then this mode will be used to create the file if it doesn't already exist.
If FILE_MODE is specified but invalid, then the sink operation will fail.
If FILE_MODE is not specified, then a value of "600" will be assumed.
The file's permissions will not be modified if it already exists.`)
}
