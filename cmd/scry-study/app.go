package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/phrazzld/scry-study/internal/config"
	"github.com/phrazzld/scry-study/internal/domain/srs"
	"github.com/phrazzld/scry-study/internal/events"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/platform/sqlite"
	"github.com/phrazzld/scry-study/internal/service"
	"github.com/urfave/cli/v3"
)

// localUserID owns decks created without an explicit --user.
var localUserID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("scry-study/local-user"))

// flags holds the global command-line options.
type flags struct {
	ConfigPath string
	DBPath     string
	LogLevel   string
	User       string
}

// runtime carries what the subcommands share. The database is opened on
// first use so that commands such as token work without one.
type runtime struct {
	flags flags
	in    io.Reader
	out   io.Writer
	errw  io.Writer

	cfg    *config.Config
	logger *slog.Logger
	db     *sql.DB
	study  service.StudyService
}

func newApp(in io.Reader, out, errw io.Writer) *cli.Command {
	rt := &runtime{in: in, out: out, errw: errw}

	app := &cli.Command{
		Name:      "scry-study",
		Usage:     "Study flashcards with SM-2 spaced repetition",
		UsageText: "scry-study [global options] command [command options]",
		Writer:    out,
		ErrWriter: errw,
		Reader:    in,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("SCRY_CONFIG"),
				Destination: &rt.flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "db",
				Usage:       "path to the SQLite database (overrides database.sqlite_path)",
				Sources:     cli.EnvVars("SCRY_DATABASE_SQLITE_PATH"),
				Destination: &rt.flags.DBPath,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Value:       "warn",
				Destination: &rt.flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "user",
				Usage:       "user ID that owns the decks",
				Sources:     cli.EnvVars("SCRY_USER_ID"),
				Destination: &rt.flags.User,
			},
		},
		Before: rt.before,
		After:  rt.after,
		Commands: []*cli.Command{
			rt.deckCommand(),
			rt.importCommand(),
			rt.statsCommand(),
			rt.dueCommand(),
			rt.postponeCommand(),
			rt.studyCommand(),
			rt.tokenCommand(),
		},
	}
	return app
}

func (rt *runtime) before(ctx context.Context, _ *cli.Command) (context.Context, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ctx, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.LoadFile(rt.flags.ConfigPath)
	if err != nil {
		return ctx, fmt.Errorf("load config: %w", err)
	}
	if rt.flags.DBPath != "" {
		cfg.Database.SQLitePath = rt.flags.DBPath
	}
	rt.cfg = cfg

	logCfg := cfg.Server
	logCfg.LogLevel = rt.flags.LogLevel
	logCfg.LogFormat = "text"
	rt.logger, err = logger.New(rt.errw, logCfg)
	if err != nil {
		return ctx, fmt.Errorf("setup logger: %w", err)
	}

	return logger.WithLogger(ctx, rt.logger), nil
}

func (rt *runtime) after(context.Context, *cli.Command) error {
	if rt.db != nil {
		return rt.db.Close()
	}
	return nil
}

// userID resolves --user, defaulting to the local user.
func (rt *runtime) userID() (uuid.UUID, error) {
	if rt.flags.User == "" {
		return localUserID, nil
	}
	id, err := uuid.Parse(rt.flags.User)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --user %q: %w", rt.flags.User, err)
	}
	return id, nil
}

// service opens the database and builds the study service on first use.
func (rt *runtime) service(ctx context.Context) (service.StudyService, error) {
	if rt.study != nil {
		return rt.study, nil
	}

	db, err := sqlite.Open(ctx, rt.cfg.Database.SQLitePath)
	if err != nil {
		return nil, err
	}
	rt.db = db

	params, err := srs.NewParams(rt.cfg.SRS.ParamsConfig())
	if err != nil {
		return nil, fmt.Errorf("invalid scheduling parameters: %w", err)
	}
	srsService, err := srs.NewService(params, srs.SystemClock)
	if err != nil {
		return nil, err
	}

	emitter := events.NewInMemoryEventEmitter(rt.logger)
	emitter.RegisterHandler(events.NewLoggingHandler(rt.logger))

	rt.study, err = service.NewStudyService(
		sqlite.NewDeckStore(db, rt.logger),
		sqlite.NewCardStore(db, rt.logger),
		srsService,
		emitter,
		service.StudyOptions{MaxCards: rt.cfg.Session.MaxCards, DB: db},
		rt.logger,
	)
	if err != nil {
		return nil, err
	}
	return rt.study, nil
}

// serviceAndUser is the common prologue of the store-backed commands.
func (rt *runtime) serviceAndUser(ctx context.Context) (service.StudyService, uuid.UUID, error) {
	userID, err := rt.userID()
	if err != nil {
		return nil, uuid.Nil, err
	}
	svc, err := rt.service(ctx)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return svc, userID, nil
}

func parseIDArg(c *cli.Command, name string) (uuid.UUID, error) {
	if c.Args().Len() < 1 {
		return uuid.Nil, fmt.Errorf("missing %s argument", name)
	}
	id, err := uuid.Parse(c.Args().First())
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q: %w", name, c.Args().First(), err)
	}
	return id, nil
}
