package tapesort

import (
	"io"
	"log/slog"

	"github.com/lanrat/tapesort/page"
	"github.com/lanrat/tapesort/tempfile"
)

// Sorter creates tapes and sorts them. All tapes of a Sorter live in its own
// scratch directory and are numbered from its own counter, so independent sorters
// never interfere with each other.
type Sorter[E any] struct {
	codec   Codec[E]
	config  Config
	log     *slog.Logger
	scratch *tempfile.Scratch
	newFile func() (page.File, int, error) // replaced in tests to back tapes by memory
	closed  bool
}

// New validates codec and config (nil uses defaults) and creates the scratch directory.
// Configuration errors are reported before anything touches the filesystem.
func New[E any](codec Codec[E], config *Config) (*Sorter[E], error) {
	if err := codec.validate(); err != nil {
		return nil, err
	}
	cfg, err := mergeConfig(config)
	if err != nil {
		return nil, err
	}
	scratch, err := tempfile.New(cfg.TempFilesDir, cfg.ScratchPrefix)
	if err != nil {
		return nil, NewDiskError(err, "create scratch directory", cfg.TempFilesDir)
	}
	s := &Sorter[E]{
		codec:   codec,
		config:  *cfg,
		log:     cfg.Logger.With("scratch", scratch.Dir()),
		scratch: scratch,
	}
	s.newFile = func() (page.File, int, error) {
		return s.scratch.Create()
	}
	return s, nil
}

// Config returns the effective configuration
func (s *Sorter[E]) Config() Config {
	return s.config
}

// ScratchDir returns the directory holding this sorter's tapes
func (s *Sorter[E]) ScratchDir() string {
	return s.scratch.Dir()
}

// SetTrace sets where tapes are printed after every distribute and merge; nil turns it off
func (s *Sorter[E]) SetTrace(w io.Writer) {
	s.config.Trace = w
}

// NewTape creates an empty tape backed by a fresh scratch file
func (s *Sorter[E]) NewTape() (*Tape[E], error) {
	if s.closed {
		return nil, ErrClosed
	}
	f, id, err := s.newFile()
	if err != nil {
		return nil, NewDiskError(err, "create tape", s.scratch.Dir())
	}
	h, err := page.New(f, s.codec.Size, s.config.PageRecords, page.Encoder[E](s.codec.ToBytes), page.Decoder[E](s.codec.FromBytes))
	if err != nil {
		_ = f.Close()
		_ = tempfile.Remove(f.Name())
		return nil, err
	}
	return &Tape[E]{id: id, h: h, format: s.codec.format}, nil
}

// Close removes the scratch directory, including files of tapes still open.
// Tapes should be closed before their sorter.
func (s *Sorter[E]) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.scratch.Close()
}
