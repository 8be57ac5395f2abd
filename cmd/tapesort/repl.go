package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"github.com/lanrat/tapesort"
	"github.com/lanrat/tapesort/record"
	"golang.org/x/sync/errgroup"
)

var (
	errExit           = errors.New("exit")
	errUnknownCommand = errors.New("invalid command")
	errMissingArg     = errors.New("missing argument")
)

// pipeline producers run this far ahead of the tape writer. The writer drains
// with the caller's context so that everything produced before a failure is kept.
const pipelineDepth = 256

// session is the state of one interactive run: a sorter and the tape commands act on
type session[E any] struct {
	kind   record.Kind[E]
	sorter *tapesort.Sorter[E]
	tape   *tapesort.Tape[E]
	rng    *rand.Rand
	out    io.Writer
	style  styles
	log    *slog.Logger
}

func newSession[E any](kind record.Kind[E], config *tapesort.Config, seed uint64, out io.Writer) (*session[E], error) {
	sorter, err := tapesort.New(kind.Codec, config)
	if err != nil {
		return nil, err
	}
	tape, err := sorter.NewTape()
	if err != nil {
		return nil, errors.Join(err, sorter.Close())
	}
	return &session[E]{
		kind:   kind,
		sorter: sorter,
		tape:   tape,
		rng:    rand.New(rand.NewPCG(seed, seed>>1|1)),
		out:    out,
		style:  newStyles(out),
		log:    sorter.Config().Logger.With("type", kind.Name),
	}, nil
}

// Close removes the tape and the scratch directory
func (s *session[E]) Close() error {
	return errors.Join(s.tape.Close(), s.sorter.Close())
}

// Run executes commands read from in, one per line, until exit or end of input.
// A failing command is reported and does not end the session.
func (s *session[E]) Run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		return strings.TrimSpace(sc.Text()), true
	}

	s.println(s.style.muted.Render("type help for help"))
	for {
		line, ok := next()
		if !ok {
			break
		}
		if line == "" {
			continue
		}
		err := s.exec(ctx, line, next)
		if errors.Is(err, errExit) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Debug("command failed", "command", line, "err", err)
			s.println(s.style.err.Render("error: " + err.Error()))
		}
	}
	return sc.Err()
}

// exec runs a single command. A command given without its argument takes the
// next input line as the argument.
func (s *session[E]) exec(ctx context.Context, line string, next func() (string, bool)) error {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	argument := func() (string, error) {
		if arg != "" {
			return arg, nil
		}
		if a, ok := next(); ok && a != "" {
			return a, nil
		}
		return "", fmt.Errorf("%s: %w", cmd, errMissingArg)
	}

	switch cmd {
	case "random":
		a, err := argument()
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(a)
		if err != nil || n < 0 {
			return fmt.Errorf("random: %q is not a record count", a)
		}
		return s.random(ctx, n)
	case "add":
		a, err := argument()
		if err != nil {
			return err
		}
		rec, err := s.kind.Parse(a)
		if err != nil {
			return fmt.Errorf("add: %w", err)
		}
		return s.tape.Push(rec)
	case "load":
		a, err := argument()
		if err != nil {
			return err
		}
		return s.loadText(ctx, a)
	case "loadbin":
		a, err := argument()
		if err != nil {
			return err
		}
		return s.loadBinary(a)
	case "save":
		a, err := argument()
		if err != nil {
			return err
		}
		if err = s.sorter.Save(s.tape, a); err != nil {
			return err
		}
		s.println(s.style.info.Render(fmt.Sprintf("saved %d records to %s", s.tape.Records(), a)))
		return nil
	case "show":
		return s.tape.Print(s.out)
	case "sort":
		info, err := s.sorter.Sort(s.tape)
		if err != nil {
			return err
		}
		fmt.Fprint(s.out, s.style.report(info))
		return nil
	case "print":
		switch arg {
		case "enable":
			s.sorter.SetTrace(s.out)
		case "disable":
			s.sorter.SetTrace(nil)
		default:
			return fmt.Errorf("print: expected enable or disable, got %q", arg)
		}
		return nil
	case "clear":
		return s.tape.Clear()
	case "help":
		s.help()
		return nil
	case "exit", "quit":
		return errExit
	}
	return fmt.Errorf("%w %q", errUnknownCommand, cmd)
}

// random pushes n generated records; generation runs ahead of the tape writer
func (s *session[E]) random(ctx context.Context, n int) error {
	g, gctx := errgroup.WithContext(ctx)
	records := make(chan E, pipelineDepth)
	g.Go(func() error {
		defer close(records)
		for i := 0; i < n; i++ {
			select {
			case records <- s.kind.Random(s.rng):
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var added int
	g.Go(func() (err error) {
		added, err = tapesort.Fill(ctx, s.tape, records)
		return err
	})
	err := g.Wait()
	s.println(s.style.info.Render(fmt.Sprintf("added %d records", added)))
	return err
}

// loadText pushes one record per non-blank line of a text file. Parsing runs
// ahead of the tape writer; records before a bad line are kept.
func (s *session[E]) loadText(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	g, gctx := errgroup.WithContext(ctx)
	records := make(chan E, pipelineDepth)
	g.Go(func() error {
		defer close(records)
		sc := bufio.NewScanner(f)
		for line := 1; sc.Scan(); line++ {
			text := strings.TrimSpace(sc.Text())
			if text == "" {
				continue
			}
			rec, err := s.kind.Parse(text)
			if err != nil {
				return fmt.Errorf("%s:%d: %w", path, line, err)
			}
			select {
			case records <- rec:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return sc.Err()
	})

	var loaded int
	g.Go(func() (err error) {
		loaded, err = tapesort.Fill(ctx, s.tape, records)
		return err
	})
	err = g.Wait()
	s.println(s.style.info.Render(fmt.Sprintf("loaded %d records", loaded)))
	return err
}

// loadBinary appends the records of a binary record file
func (s *session[E]) loadBinary(path string) (err error) {
	src, err := s.sorter.LoadFile(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, src.Close())
	}()
	loaded := 0
	for !src.IsEmpty() {
		rec, err := src.Next()
		if err != nil {
			return err
		}
		if err = s.tape.Push(rec); err != nil {
			return err
		}
		loaded++
	}
	s.println(s.style.info.Render(fmt.Sprintf("loaded %d records", loaded)))
	return nil
}

func (s *session[E]) help() {
	cmds := [][2]string{
		{"random {x}", "adds x random records to the tape"},
		{"add {record}", "adds one record, ex: " + s.example()},
		{"load {file}", "loads records from a text file, one per line"},
		{"loadbin {file}", "loads records from a binary record file"},
		{"save {file}", "writes the tape to a binary record file"},
		{"show", "prints the tape"},
		{"print enable/disable", "prints every tape after each phase while sorting"},
		{"sort", "sorts the tape"},
		{"clear", "erases the tape"},
		{"exit", "exits the program"},
	}
	for _, c := range cmds {
		s.println(s.style.title.Render(fmt.Sprintf("%-22s", c[0])) + s.style.muted.Render(c[1]))
	}
}

func (s *session[E]) example() string {
	if s.kind.Name == "triangle" {
		return "(0, 0) (3, 0) (0, 4)"
	}
	return "42"
}

func (s *session[E]) println(text string) {
	fmt.Fprintln(s.out, text)
}
