package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"

	"golemate/src"
	"golemate/src/base"
	"golemate/src/config"
	"golemate/src/engine"
	"golemate/src/engine/distributed"
	"golemate/src/engine/uci"
	"golemate/src/jobserver"
	"golemate/src/logx"
	clic "golemate/ui/cli"
)

func GetLogger(file io.Writer, c *cli.Command, cfg *config.Config) *logx.Logx {
	level := cfg.Log.Level
	if c.IsSet("level") {
		level = c.String("level")
	}
	l := logx.NewLogx(
		logx.GetLoggerLevelByString(level),
		c.Bool("debug") || cfg.Log.Debug,
		c.Bool("console") || cfg.Log.Console,
	)
	l.InitLogger(file)
	return l
}

// openLog returns the append-mode log file, or nil for stderr.
func openLog(cfg *config.Config, c *cli.Command) (*os.File, error) {
	if c.Bool("console") || cfg.Log.Console || cfg.Log.File == "" {
		return nil, nil
	}
	file, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, errors.Wrap(err, "error open logfile")
	}
	return file, nil
}

// setup loads the config, applies flag overrides and starts the logger.
// The returned closer flushes the logger and closes the log file.
func setup(c *cli.Command, override func(cfg *config.Config)) (*config.Config, *logx.Logx, func(), error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "error load config")
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	file, err := openLog(cfg, c)
	if err != nil {
		return nil, nil, nil, err
	}
	var w io.Writer
	if file != nil {
		w = file
	}
	l := GetLogger(w, c, cfg)
	closer := func() {
		l.Sync()
		if file != nil {
			file.Close()
		}
	}
	return cfg, l, closer, nil
}

// chooseBackend picks exactly one backend: --workspace selects the
// distributed one, otherwise a local engine path is required.
func chooseBackend(c *cli.Command, cfg *config.Config, logger logx.Logger) (engine.Backend, error) {
	workspace := c.String("workspace")
	enginePath := c.String("engine")

	switch {
	case workspace != "" && enginePath != "":
		return nil, errors.New("choose either --engine or --workspace, not both")
	case workspace != "":
		submitter := distributed.NewHTTPSubmitter(logger, cfg.Distributed.ServerURL).
			WithPollInterval(cfg.Distributed.PollInterval()).
			WithTimeout(cfg.Distributed.Timeout())
		return distributed.New(logger, submitter, distributed.Config{
			Workspace: workspace,
			DataDir:   cfg.Distributed.DataDir,
			Options:   []engine.EngineOption{{Name: "Hash", Value: cfg.Distributed.Hash}},
		}), nil
	case cfg.Engine.Path != "":
		return uci.NewProcessBackend(logger, cfg.Engine.Path).WithOptions(
			engine.EngineOption{Name: "Threads", Value: cfg.Engine.Threads},
			engine.EngineOption{Name: "Hash", Value: cfg.Engine.Hash},
		), nil
	default:
		return nil, errors.New("no backend: set --engine (or engine.path in config) or --workspace")
	}
}

func runAnalyze(ctx context.Context, c *cli.Command) error {
	cfg, logger, closer, err := setup(c, func(cfg *config.Config) {
		if c.IsSet("engine") {
			cfg.Engine.Path = c.String("engine")
		}
		if c.IsSet("server") {
			cfg.Distributed.ServerURL = c.String("server")
		}
		if c.IsSet("datadir") {
			cfg.Distributed.DataDir = c.String("datadir")
		}
		if c.IsSet("threads") {
			cfg.Engine.Threads = c.Int("threads")
		}
		if c.IsSet("hash") {
			cfg.Engine.Hash = c.Int("hash")
			cfg.Distributed.Hash = c.Int("hash")
		}
	})
	if err != nil {
		return err
	}
	defer closer()

	pos, err := base.NewPosition(c.String("fen"))
	if err != nil {
		return err
	}
	depth := c.Int("depth")
	if depth <= 0 {
		return fmt.Errorf("depth must be positive, got %d", depth)
	}

	backend, err := chooseBackend(c, cfg, logger)
	if err != nil {
		return err
	}

	clic.EnableANSI()
	color := clic.Colorful(os.Stdout)
	a := src.NewAnalyzer(logger)

	if c.Bool("raw") {
		lines, err := a.AnalyzeRaw(pos, depth, backend)
		if err != nil {
			return err
		}
		clic.PrintRaw(os.Stdout, lines)
		return nil
	}

	res, err := a.Analyze(pos, depth, backend)
	if err != nil {
		return err
	}
	if c.Bool("board") {
		clic.PrintBoard(os.Stdout, pos, color)
	}
	clic.PrintResult(os.Stdout, res, color)
	return nil
}

func runServe(ctx context.Context, c *cli.Command) error {
	cfg, logger, closer, err := setup(c, func(cfg *config.Config) {
		if c.IsSet("addr") {
			cfg.Server.Addr = c.String("addr")
		}
		if c.IsSet("queue") {
			cfg.Server.QueueSize = c.Int("queue")
		}
	})
	if err != nil {
		return err
	}
	defer closer()

	return jobserver.NewServer(logger, cfg.Server.QueueSize).Run(cfg.Server.Addr)
}

func runWorker(ctx context.Context, c *cli.Command) error {
	cfg, logger, closer, err := setup(c, func(cfg *config.Config) {
		if c.IsSet("server") {
			cfg.Distributed.ServerURL = c.String("server")
		}
		if c.IsSet("engine") {
			cfg.Engine.Path = c.String("engine")
		}
	})
	if err != nil {
		return err
	}
	defer closer()

	if cfg.Engine.Path == "" {
		return errors.New("worker needs --engine (or engine.path in config)")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// submitted scripts carry their own setoption lines
	backend := uci.NewProcessBackend(logger, cfg.Engine.Path)
	return jobserver.NewWorker(logger, cfg.Distributed.ServerURL, backend).Run(ctx)
}

func RunGolemate() error {
	cf := &cli.StringFlag{
		Name:  "config",
		Usage: "path to JSON config",
		Value: config.DefaultFile,
	}
	df := &cli.BoolFlag{
		Name:    "debug",
		Aliases: []string{"d"},
		Usage:   "enable debug mod",
	}
	lf := &cli.StringFlag{
		Name:    "level",
		Aliases: []string{"l"},
		Usage:   "logger level (debug, info, warn, error)",
	}
	conf := &cli.BoolFlag{
		Name:    "console",
		Aliases: []string{"c"},
		Usage:   "console logger encoding on stderr",
	}
	engf := &cli.StringFlag{
		Name:  "engine",
		Usage: "path to local UCI engine binary",
	}
	srvf := &cli.StringFlag{
		Name:  "server",
		Usage: "job server URL",
	}
	common := []cli.Flag{cf, df, lf, conf}

	return (&cli.Command{
		Name:  "golemate",
		Usage: "analyse chess positions with a UCI engine, locally or on a job server",
		Commands: []*cli.Command{
			{
				Name:  "analyze",
				Usage: "analyse one position",
				Flags: append(common[:len(common):len(common)],
					&cli.StringFlag{
						Name:  "fen",
						Usage: "string FEN format",
						Value: base.FEN_START_GAME,
					},
					&cli.IntFlag{
						Name:  "depth",
						Usage: "search depth in plies",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "raw",
						Usage: "print the engine output without interpreting it",
					},
					&cli.BoolFlag{
						Name:  "board",
						Usage: "draw the position before the result",
					},
					engf,
					srvf,
					&cli.StringFlag{
						Name:  "workspace",
						Usage: "run on the job server using this new workspace directory",
					},
					&cli.StringFlag{
						Name:  "datadir",
						Usage: "directory for submission receipts",
					},
					&cli.IntFlag{
						Name:  "threads",
						Usage: "engine Threads option",
					},
					&cli.IntFlag{
						Name:  "hash",
						Usage: "engine Hash option in MB",
					},
				),
				Action: runAnalyze,
			},
			{
				Name:  "serve",
				Usage: "run the job server",
				Flags: append(common[:len(common):len(common)],
					&cli.StringFlag{
						Name:  "addr",
						Usage: "listen address",
					},
					&cli.IntFlag{
						Name:  "queue",
						Usage: "max queued tasks",
					},
				),
				Action: runServe,
			},
			{
				Name:   "worker",
				Usage:  "claim tasks from the job server and run them on a local engine",
				Flags:  append(common[:len(common):len(common)], engf, srvf),
				Action: runWorker,
			},
		},
	}).Run(context.Background(), os.Args)
}
