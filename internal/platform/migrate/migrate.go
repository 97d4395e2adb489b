// Package migrate runs the embedded SQL migrations of a storage backend with goose.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/pressly/goose/v3"
)

// TableName is the goose version table used by every backend.
const TableName = "schema_migrations"

// Supported commands.
const (
	CommandUp      = "up"
	CommandDown    = "down"
	CommandReset   = "reset"
	CommandStatus  = "status"
	CommandVersion = "version"
)

// ErrUnknownCommand is returned for a command outside the supported set.
var ErrUnknownCommand = errors.New("unknown migration command")

// goose keeps its dialect, base FS and logger in package state.
var gooseMu sync.Mutex

// Source describes where a backend keeps its migrations.
type Source struct {
	Dialect string // goose dialect, e.g. "postgres" or "sqlite3"
	FS      fs.FS  // filesystem holding the .sql files
	Dir     string // directory within FS
}

// slogGooseLogger adapts the goose logger interface to slog
type slogGooseLogger struct {
	log *slog.Logger
}

// Printf implements goose.Logger by forwarding messages to slog at info level.
func (l *slogGooseLogger) Printf(format string, v ...any) {
	l.log.Info(fmt.Sprintf(format, v...))
}

// Fatalf implements goose.Logger. It logs at error level and does NOT exit;
// goose returns the error to the caller as well.
func (l *slogGooseLogger) Fatalf(format string, v ...any) {
	l.log.Error(fmt.Sprintf(format, v...))
}

// Run executes a goose command against db.
func Run(ctx context.Context, db *sql.DB, src Source, command string) error {
	log := logger.FromContext(ctx).With(
		slog.String("component", "migrations"),
		slog.String("dialect", src.Dialect),
		slog.String("command", command),
	)

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetLogger(&slogGooseLogger{log: log})
	goose.SetBaseFS(src.FS)
	goose.SetTableName(TableName)
	if err := goose.SetDialect(src.Dialect); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	dir := src.Dir
	if dir == "" {
		dir = "."
	}

	var err error
	switch command {
	case CommandUp:
		err = goose.UpContext(ctx, db, dir)
	case CommandDown:
		err = goose.DownContext(ctx, db, dir)
	case CommandReset:
		err = goose.ResetContext(ctx, db, dir)
	case CommandStatus:
		err = goose.StatusContext(ctx, db, dir)
	case CommandVersion:
		err = goose.VersionContext(ctx, db, dir)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
	if err != nil {
		log.Error("migration command failed", slog.String("error", err.Error()))
		return fmt.Errorf("migration %s failed: %w", command, err)
	}

	log.Info("migration command finished")
	return nil
}

// Version reports the current schema version of db.
func Version(ctx context.Context, db *sql.DB, src Source) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetTableName(TableName)
	if err := goose.SetDialect(src.Dialect); err != nil {
		return 0, fmt.Errorf("failed to set dialect: %w", err)
	}
	return goose.GetDBVersionContext(ctx, db)
}
