package tapesort

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Config holds configuration settings for a Sorter
type Config struct {
	PageRecords   int          // records held in memory per tape; one physical read or write moves a page
	FanIn         int          // number of work tapes each distribute spreads runs over, at least 2
	TempFilesDir  string       // empty for a disk-backed OS default ex: /var/tmp
	ScratchPrefix string       // prefix of the scratch directory each Sorter creates in TempFilesDir
	Logger        *slog.Logger // nil discards all logs
	Trace         io.Writer    // when set, every tape is printed after each distribute and merge
}

// DefaultConfig returns the default configuration options used if none provided
func DefaultConfig() *Config {
	return &Config{
		PageRecords:   1000,
		FanIn:         2,
		ScratchPrefix: fmt.Sprintf("tapesort_%d_", os.Getpid()),
		TempFilesDir:  "",
	}
}

// mergeConfig returns a copy of c with unset values replaced by the defaults.
// Values that are set but unusable are reported as a ConfigError.
func mergeConfig(c *Config) (*Config, error) {
	d := DefaultConfig()
	if c == nil {
		d.Logger = discardLogger()
		return d, nil
	}
	merged := *c
	switch {
	case merged.PageRecords == 0:
		merged.PageRecords = d.PageRecords
	case merged.PageRecords < 0:
		return nil, &ConfigError{Field: "PageRecords", Value: merged.PageRecords, Reason: "must be positive"}
	}
	switch {
	case merged.FanIn == 0:
		merged.FanIn = d.FanIn
	case merged.FanIn < 2:
		return nil, &ConfigError{Field: "FanIn", Value: merged.FanIn, Reason: "must be at least 2"}
	}
	if merged.ScratchPrefix == "" {
		merged.ScratchPrefix = d.ScratchPrefix
	}
	if merged.Logger == nil {
		merged.Logger = discardLogger()
	}
	// skipping TempFilesDir as it is the empty string
	return &merged, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
