package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/saylorsolutions/fluentecs/plugin"
	"github.com/saylorsolutions/fluentecs/plugin/file"
	"github.com/saylorsolutions/fluentecs/plugin/stdstream"
	"github.com/saylorsolutions/fluentecs/plugin/store"
	"github.com/saylorsolutions/fluentecs/runtime"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

const (
	logLevelEnv    = "FLUENT_ECS_LOG_LEVEL"
	metricsAddrEnv = "FLUENT_ECS_METRICS_ADDR"
	metricsPath    = "/metrics"
)

var errNotEnoughArgs = errors.New("not enough arguments")

func main() {
	log := hclog.New(&hclog.LoggerOptions{
		Name:   "fluentecs",
		Output: os.Stderr,
		Level:  hclog.LevelFromString(os.Getenv(logLevelEnv)),
	})
	if len(os.Args) <= 1 {
		usage()
		return
	}
	args := os.Args[1:]
	var err error
	switch args[0] {
	case "convert":
		from := runtime.Endpoint{Qualifier: stdstream.Qualifier, Class: "In"}
		if len(args) >= 2 {
			from = runtime.Endpoint{Qualifier: file.Qualifier, Class: "File", Args: args[1:]}
		}
		err = run(log, func(r *runtime.Runtime) error {
			return r.Pipe(from, runtime.Endpoint{Qualifier: stdstream.Qualifier, Class: "Out"})
		})
	case "tail":
		if len(args) < 2 {
			exitError("%v for tail", errNotEnoughArgs)
		}
		err = run(log, func(r *runtime.Runtime) error {
			return r.Pipe(
				runtime.Endpoint{Qualifier: file.Qualifier, Class: "Tail", Args: args[1:]},
				runtime.Endpoint{Qualifier: stdstream.Qualifier, Class: "Out"},
			)
		})
	case "store":
		if len(args) < 4 {
			exitError("%v for store", errNotEnoughArgs)
		}
		err = run(log, func(r *runtime.Runtime) error {
			return r.Pipe(
				runtime.Endpoint{Qualifier: file.Qualifier, Class: "File", Args: args[1:2]},
				runtime.Endpoint{Qualifier: store.Qualifier, Class: "Table", Args: args[2:4]},
			)
		})
	case "export":
		if len(args) < 3 {
			exitError("%v for export", errNotEnoughArgs)
		}
		err = run(log, func(r *runtime.Runtime) error {
			return r.Transfer(
				runtime.Endpoint{Qualifier: store.Qualifier, Class: "Table", Args: args[1:3]},
				runtime.Endpoint{Qualifier: stdstream.Qualifier, Class: "Out"},
			)
		})
	case "apps":
		doPrintApps(log)
	case "help":
		usage()
	default:
		exitError("Unrecognized command: '%s'", args[0])
	}
	if err != nil {
		log.Error("Command failed", "command", args[0], "error", err)
		os.Exit(1)
	}
}

func exitError(format string, args ...any) {
	if !strings.HasSuffix(format, "\n") {
		format += "\n"
	}
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
	usage()
	os.Exit(-1)
}

func usage() {
	text := `
fluentecs converts container log records into ECS style JSON documents.

  fluentecs help
  fluentecs apps
  fluentecs convert [FILE...]
  fluentecs tail FILE...
  fluentecs store FILE DB TABLE
  fluentecs export DB TABLE

The 'help' subcommand will print this usage information.
The 'apps' subcommand will print the documentation of every application converter, source, and sink.
The 'convert' subcommand will convert each line of each FILE in turn, or STDIN if no FILE is given, and write the documents to STDOUT.
The 'tail' subcommand will follow each FILE, converting each new line until interrupted.
The 'store' subcommand will convert each line of FILE and land the documents in TABLE of the SQLite database DB.
The 'export' subcommand will write the documents stored in TABLE of the SQLite database DB to STDOUT.

Records are JSON objects as emitted by the log collector, one per line.
Set ` + logLevelEnv + ` to a level like "debug" or "trace" to see more logs on STDERR.
Set ` + metricsAddrEnv + ` to an address like ":9090" to serve conversion metrics at ` + metricsPath + ` while a command runs.
`
	fmt.Fprint(os.Stderr, text)
}

func plugins(log hclog.Logger) []plugin.Plugin {
	return append(runtime.AppPlugins(),
		file.Plugin(),
		stdstream.Plugin(),
		store.Plugin(log),
	)
}

func doPrintApps(log hclog.Logger) {
	reg := plugin.NewRegistration()
	for _, p := range plugins(log) {
		p.Register(reg)
	}
	fmt.Println("Converters are selected by the " + runtime.DefaultParserAnnotation + " annotation of a pod, else its " +
		runtime.LabelAppName + " or " + runtime.LabelComponent + " label.")
	fmt.Println()
	fmt.Print(reg.AllDocs())
}

func run(log hclog.Logger, fn func(r *runtime.Runtime) error) (rerr error) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metrics, stopMetrics, err := serveMetrics(log, os.Getenv(metricsAddrEnv))
	if err != nil {
		return err
	}
	defer stopMetrics()

	r := runtime.NewRuntime(log, plugins(log)...)
	if metrics != nil {
		if err := r.Configure(runtime.WithMetrics(metrics)); err != nil {
			return err
		}
	}
	if err := r.Start(ctx); err != nil {
		return err
	}
	defer func() {
		err := r.Stop()
		if err != nil {
			log.Error("Error while stopping runtime", "error", err)
			if rerr == nil {
				rerr = err
			}
		}
	}()
	return fn(r)
}

// serveMetrics starts an HTTP server for conversion metrics if addr isn't empty.
func serveMetrics(log hclog.Logger, addr string) (*runtime.Metrics, func(), error) {
	if addr == "" {
		return nil, func() {}, nil
	}
	log = log.Named("metrics").With("addr", addr)
	reg := prometheus.NewRegistry()
	metrics := runtime.NewMetrics()
	if err := metrics.Register(reg); err != nil {
		return nil, nil, err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}
	mux := http.NewServeMux()
	mux.Handle(metricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Debug("Serving metrics")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", "error", err)
		}
	}()
	return metrics, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to stop metrics server", "error", err)
		}
	}, nil
}
