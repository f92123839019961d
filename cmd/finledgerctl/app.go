package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	urfave "github.com/urfave/cli/v2"

	"finledger/internal/backend"
	"finledger/internal/cli"
	"finledger/internal/config"
	applog "finledger/internal/log"
)

// env carries what every subcommand needs. A preset app skips opening a
// backend from the environment.
type env struct {
	out io.Writer
	in  io.Reader
	now func() time.Time

	cfg     *config.Config
	logger  *applog.Logger
	app     *backend.Backend
	cleanup backend.CleanupFunc

	stopForwarder func()
}

func (e *env) clock() time.Time {
	if e.now != nil {
		return e.now()
	}
	return time.Now()
}

func newApp(e *env) *urfave.App {
	return &urfave.App{
		Name:  "finledgerctl",
		Usage: "inspect and maintain the finledger store",
		Flags: []urfave.Flag{
			&urfave.StringFlag{Name: "backend", Usage: "override DATA_BACKEND (memory|sqlite)", EnvVars: []string{"DATA_BACKEND"}},
			&urfave.StringFlag{Name: "db", Usage: "override SQLITE_DB_PATH", EnvVars: []string{"SQLITE_DB_PATH"}},
		},
		// main maps errors to exit codes.
		ExitErrHandler: func(*urfave.Context, error) {},
		Before:         e.open,
		After:          e.close,
		Commands: []*urfave.Command{
			listCommand(e),
			addCommand(e),
			deleteCommand(e),
			summaryCommand(e),
			budgetCommand(e),
			exportCommand(e),
			importCommand(e),
			seedCommand(e),
			settingsCommand(e),
			ratesCommand(e),
		},
	}
}

func (e *env) open(c *urfave.Context) error {
	cli.LoadEnvFile()
	cfg := config.Load()
	if v := c.String("backend"); v != "" {
		cfg.DataBackend = v
	}
	if v := c.String("db"); v != "" {
		cfg.SQLiteDBPath = v
	}
	e.cfg = cfg

	if e.logger == nil {
		e.logger = applog.New(applog.Config{
			Level:     applog.ParseLevel(cfg.LogLevel),
			Format:    cfg.LogFormat,
			Component: applog.ComponentCLI,
			Output:    os.Stderr,
		})
		applog.SetDefault(e.logger)
	}

	if e.app != nil {
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	res, err := cli.OpenBackend(c.Context, cfg, e.logger.Logger)
	if err != nil {
		return err
	}
	e.app, e.cleanup = res.Backend, res.Cleanup

	if fwd := e.app.Forwarder; fwd != nil {
		ctx, cancel := context.WithCancel(context.Background())
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = fwd.Run(ctx)
		}()
		e.stopForwarder = func() {
			cancel()
			wg.Wait()
		}
	}
	return nil
}

// close flushes forwarded events before releasing the backend.
func (e *env) close(*urfave.Context) error {
	if e.stopForwarder != nil {
		e.stopForwarder()
		e.stopForwarder = nil
	}
	if e.cleanup != nil {
		err := e.cleanup()
		e.cleanup = nil
		return err
	}
	return nil
}

func (e *env) printf(format string, args ...any) {
	fmt.Fprintf(e.out, format, args...)
}
