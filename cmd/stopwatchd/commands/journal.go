package commands

import (
	"context"
	"os"
	"time"

	ferrors "git.home.luguber.info/inful/stopwatchd/internal/foundation/errors"
	"git.home.luguber.info/inful/stopwatchd/internal/journal"
)

// JournalCmd implements the 'journal' command.
type JournalCmd struct {
	Since     time.Duration `short:"s" help:"Only show events newer than this (e.g. 1h)" default:"24h"`
	Stopwatch string        `help:"Only show events of the stopwatch with this full id"`
}

func (j *JournalCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if cfg.Journal.Path == "" {
		return ferrors.ConfigError("journal is not enabled (set journal.path)").Build()
	}
	if _, err := os.Stat(cfg.Journal.Path); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryJournal, "journal not found").
			WithContext("path", cfg.Journal.Path).
			Build()
	}

	store, err := journal.OpenSQLite(cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	var entries []journal.Entry
	if j.Stopwatch != "" {
		entries, err = store.ForStopwatch(ctx, j.Stopwatch)
	} else {
		entries, err = store.Since(ctx, time.Now().Add(-j.Since))
	}
	if err != nil {
		return err
	}
	return newRenderer(os.Stdout, root.Output).Journal(entries)
}
