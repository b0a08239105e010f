package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	flag "github.com/spf13/pflag"

	"periodizer/internal/api"
	"periodizer/internal/config"
	"periodizer/internal/logger"
	"periodizer/internal/report"
	"periodizer/internal/scheduler"
	"periodizer/internal/service"
	"periodizer/internal/store"
)

const shutdownTimeout = 10 * time.Second

const usage = `Usage: periodizer <command> [flags]

Commands:
  serve    run the HTTP API and the nightly sweep
  sweep    evaluate every active plan once and exit
  report   print a training report for one user

Run "periodizer <command> --help" for command flags.
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Print(usage)
		return nil
	}

	switch args[0] {
	case "serve":
		return serve(args[1:])
	case "sweep":
		return sweep(args[1:])
	case "report":
		return printReport(args[1:])
	case "-h", "--help", "help":
		fmt.Print(usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n\n%s", args[0], usage)
	}
}

// parseFlags reports done when the command should stop, as after --help.
func parseFlags(fs *flag.FlagSet, args []string) (bool, error) {
	err := fs.Parse(args)
	if errors.Is(err, flag.ErrHelp) {
		return true, nil
	}
	return err != nil, err
}

// app holds what every command needs.
type app struct {
	cfg *config.Config
	log *logger.Logger
	db  *store.Store
	svc *service.Service
}

func (a *app) Close() {
	a.db.Close()
	a.log.Sync()
}

func setup(configPath string) (*app, error) {
	// Load configuration
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if errors.Is(err, config.ErrNoConfig) && configPath == "" {
		fmt.Println("No config file found. Creating example config...")
		if err := config.CreateExample(); err != nil {
			return nil, fmt.Errorf("creating example config: %w", err)
		}
		configDir, _ := config.GetConfigDir()
		fmt.Printf("Using defaults. Edit the config file at:\n  %s/config.json\n\n", configDir)
		defaults := config.DefaultConfig()
		cfg, err = &defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	// Validate config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	lg, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	// Open database
	db, err := store.Open(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	svc, err := service.New(db, lg, *cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating service: %w", err)
	}

	return &app{cfg: cfg, log: lg, db: db, svc: svc}, nil
}

func serve(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "path to config.json (default ~/.periodizer/config.json)")
	addr := fs.String("addr", "", "listen address, overrides server.addr")
	noSweep := fs.Bool("no-sweep", false, "do not schedule the nightly sweep")
	if done, err := parseFlags(fs, args); done {
		return err
	}

	a, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer a.Close()
	if *addr != "" {
		a.cfg.Server.Addr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !*noSweep {
		sched := scheduler.New(a.log, a.svc, a.cfg.Scheduler)
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()
	}

	gin.SetMode(a.cfg.Server.Mode)
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           api.NewRouter(api.NewHandler(a.log, a.svc)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.log.Info("listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func sweep(args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "path to config.json (default ~/.periodizer/config.json)")
	if done, err := parseFlags(fs, args); done {
		return err
	}

	a, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := scheduler.New(a.log, a.svc, a.cfg.Scheduler).Sweep(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%d plans: %d advanced, %d deloads, %d completed, %d failed\n",
		res.Plans, res.Advanced, res.Deloads, res.Completed, res.Failed)
	return nil
}

func printReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "path to config.json (default ~/.periodizer/config.json)")
	userID := fs.StringP("user", "u", "", "user to report on (required)")
	if done, err := parseFlags(fs, args); done {
		return err
	}
	if *userID == "" {
		return errors.New("report: --user is required")
	}

	a, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := a.svc.BuildReport(context.Background(), *userID)
	if err != nil {
		return fmt.Errorf("building report: %w", err)
	}
	return report.Write(os.Stdout, r)
}
