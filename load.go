package tapesort

import (
	"context"
	"errors"
	"os"

	"github.com/lanrat/tapesort/page"
)

// LoadFile copies a binary record file into a new tape, ready to be sorted.
// The file is a flat sequence of Codec.Size byte records with no header; a length
// that is not a multiple of the record size is rejected before anything is decoded.
// The caller owns the returned tape.
func (s *Sorter[E]) LoadFile(path string) (*Tape[E], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, NewDiskError(err, "open", path)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, NewDiskError(err, "stat", path)
	}
	if rem := int(stat.Size() % int64(s.codec.Size)); rem != 0 {
		return nil, NewDeserializationError(ErrShortRecord, rem, "load "+path)
	}

	src, err := page.New(f, s.codec.Size, s.config.PageRecords, page.Encoder[E](s.codec.ToBytes), page.Decoder[E](s.codec.FromBytes))
	if err != nil {
		return nil, err
	}
	t, err := s.NewTape()
	if err != nil {
		return nil, err
	}
	for !src.EOF() {
		rec, err := src.Read()
		if err == nil {
			err = t.Push(rec)
		}
		if err != nil {
			return nil, errors.Join(err, t.Close())
		}
	}
	if err = t.Flush(); err != nil {
		return nil, errors.Join(err, t.Close())
	}
	s.log.Debug("loaded tape", "path", path, "tape", t.ID(), "records", t.Records())
	return t, nil
}

// Save writes every record of t to path as a binary record file, the format
// LoadFile reads. The tape is left exactly as it was.
func (s *Sorter[E]) Save(t *Tape[E], path string) (err error) {
	if err = t.usable(); err != nil {
		return err
	}
	dst, err := page.Create(path, s.codec.Size, s.config.PageRecords, page.Encoder[E](s.codec.ToBytes), page.Decoder[E](s.codec.FromBytes))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil {
			err = errors.Join(err, NewDiskError(cerr, "close", path))
		}
	}()
	if err = t.h.Scan(dst.Write); err != nil {
		return err
	}
	return dst.Flush()
}

// Fill pushes every record received from input onto t until input is closed or ctx
// is done, and returns how many records were pushed.
// The tape is not flushed.
func Fill[E any](ctx context.Context, t *Tape[E], input <-chan E) (int, error) {
	n := 0
	for {
		select {
		case rec, ok := <-input:
			if !ok {
				return n, nil
			}
			if err := t.Push(rec); err != nil {
				return n, err
			}
			n++
		case <-ctx.Done():
			return n, ctx.Err()
		}
	}
}
