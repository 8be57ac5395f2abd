// Command tapesort is an interactive front end to the tape sorter: it builds a tape
// from generated, typed or loaded records, sorts it and reports the cost of the sort.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/lanrat/tapesort"
	"github.com/lanrat/tapesort/record"
)

type options struct {
	kind        string
	pageRecords int
	fanIn       int
	dir         string
	seed        uint64
	verbose     bool
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.kind, "type", "triangle", "record type: int or triangle")
	flag.IntVar(&o.pageRecords, "page", 10, "records per page")
	flag.IntVar(&o.fanIn, "fanin", 2, "number of work tapes")
	flag.StringVar(&o.dir, "dir", "", "directory for scratch tapes (default: a disk-backed temp dir)")
	flag.Uint64Var(&o.seed, "seed", uint64(time.Now().UnixNano()), "seed for random records")
	flag.BoolVar(&o.verbose, "v", false, "debug logging")
	flag.Parse()
	return o
}

func main() {
	o := parseFlags()

	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	config := &tapesort.Config{
		PageRecords:  o.pageRecords,
		FanIn:        o.fanIn,
		TempFilesDir: o.dir,
		Logger:       logger,
	}
	if err := run(ctx, o, config, os.Stdin, os.Stdout); err != nil {
		logger.Error("tapesort failed", "err", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, config *tapesort.Config, in io.Reader, out io.Writer) error {
	switch o.kind {
	case "int":
		return serve(ctx, record.Ints(), o.seed, config, in, out)
	case "triangle":
		return serve(ctx, record.Triangles(), o.seed, config, in, out)
	}
	return fmt.Errorf("unknown record type %q", o.kind)
}

func serve[E any](ctx context.Context, kind record.Kind[E], seed uint64, config *tapesort.Config, in io.Reader, out io.Writer) (err error) {
	s, err := newSession(kind, config, seed, out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return s.Run(ctx, in)
}
