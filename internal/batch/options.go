package batch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/treemig/internal/store"
	"github.com/roach88/treemig/internal/tree"
)

// Mode selects how the driver reacts to a failing record.
type Mode string

const (
	ModeFailFast Mode = "fail-fast"
	ModeSkip     Mode = "skip"
)

// ValidModes lists accepted Mode values.
var ValidModes = []Mode{ModeFailFast, ModeSkip}

// ParseMode validates s as a Mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range ValidModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid mode %q (must be %s or %s)", s, ModeFailFast, ModeSkip)
}

// Defaults for Options fields left at their zero value.
const (
	DefaultDelimiter = "\t"
	DefaultColumn    = -1
	DefaultWorkers   = 1
)

// Verifier checks a migrated tree before it is written.
type Verifier interface {
	Verify(n tree.Node) error
}

// Ledger records per-record outcomes.
type Ledger interface {
	WriteRecord(ctx context.Context, rec store.Record) error
}

// Options configures a Driver.
type Options struct {
	// Mode defaults to ModeFailFast.
	Mode Mode

	// Column indexes the tree column. Negative values count from the end,
	// so -1 is the last column. The zero value selects the first column;
	// start from DefaultOptions for the last-column default.
	Column int

	// Delimiter separates columns. Defaults to DefaultDelimiter.
	Delimiter string

	// Workers bounds parallel migration. Values below 1 mean 1.
	Workers int

	// Migrator defaults to tree.NewMigrator().
	Migrator *tree.Migrator

	// Verifier is optional.
	Verifier Verifier

	// Ledger and RunID are optional; when Ledger is set every record is
	// written under RunID.
	Ledger Ledger
	RunID  string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Mode:      ModeFailFast,
		Column:    DefaultColumn,
		Delimiter: DefaultDelimiter,
		Workers:   DefaultWorkers,
	}
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = ModeFailFast
	}
	if o.Delimiter == "" {
		o.Delimiter = DefaultDelimiter
	}
	if o.Workers < 1 {
		o.Workers = DefaultWorkers
	}
	if o.Migrator == nil {
		o.Migrator = tree.NewMigrator()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

func (o Options) validate() error {
	if _, err := ParseMode(string(o.Mode)); err != nil {
		return err
	}
	if o.Ledger != nil && o.RunID == "" {
		return fmt.Errorf("ledger requires a run ID")
	}
	return nil
}
