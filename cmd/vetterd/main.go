package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"vetter/internal/config"
	"vetter/internal/daemon"
	"vetter/internal/inspect"
	"vetter/internal/ipc"
	"vetter/internal/logging"
	"vetter/internal/store"
	"vetter/internal/worker"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatal(err)
	}
}

func run(configPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if strings.TrimSpace(cfg.Inspector.Command) == "" {
		return fmt.Errorf("inspector.command is not configured; run `vetter config init` and set it")
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "vetterd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open store", logging.Error(err))
		return err
	}
	defer st.Close()

	inspector, err := inspect.NewBridge(cfg.Inspector.Command,
		inspect.WithJoinTimeout(time.Duration(cfg.Inspector.JoinTimeout)*time.Second),
		inspect.WithAnalyzeTimeout(time.Duration(cfg.Inspector.AnalyzeTimeout)*time.Second),
	)
	if err != nil {
		return fmt.Errorf("configure inspector: %w", err)
	}

	runner := worker.New(cfg, st, inspector, logger)
	d, err := daemon.New(cfg, st, logger, runner)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logger, cancel)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the lock file and database access"),
		)
		return err
	}

	<-ctx.Done()
	logger.Info("vetterd shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
