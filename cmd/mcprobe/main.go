package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rexliu/mcprobe/pkg/config"
	"github.com/rexliu/mcprobe/pkg/logging"
	"github.com/rexliu/mcprobe/pkg/probe"
	"github.com/rexliu/mcprobe/pkg/sanitize"
	"github.com/rexliu/mcprobe/pkg/storage/sqlite"
	gitvcs "github.com/rexliu/mcprobe/pkg/vcs/git"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "init":
		initProfile()
	case "version":
		fmt.Println("mcprobe " + version)
	case "smoke":
		passed, err := smokeCommand(os.Args[2:])
		if err != nil {
			fmt.Fprintf(os.Stderr, "smoke error: %v\n", err)
			os.Exit(1)
		}
		if !passed {
			os.Exit(1)
		}
	case "clean":
		if err := cleanCommand(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "clean error: %v\n", err)
			os.Exit(1)
		}
	case "history":
		if err := historyCommand(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "history error: %v\n", err)
			os.Exit(1)
		}
	case "diag":
		if err := diagCommand(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "diag error: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: mcprobe <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  smoke     Launch the configured MCP server and run the smoke conversation")
	fmt.Println("  clean     Sanitize a commit message from stdin (or a repo HEAD) to ASCII")
	fmt.Println("  history   List recorded smoke runs")
	fmt.Println("  init      Initialize a local profile (writes config.toml)")
	fmt.Println("  diag      Print profile configuration paths")
	fmt.Println("  version   Print CLI version")
}

func initProfile() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	profilePath := fs.String("profile", "./_dev_profile", "Profile directory")
	name := fs.String("name", "dev", "Profile name")
	force := fs.Bool("force", false, "Overwrite existing config if present")
	_ = fs.Parse(os.Args[2:])
	if err := os.MkdirAll(*profilePath, 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "init error: %v\n", err)
		os.Exit(1)
	}
	configPath := filepath.Join(*profilePath, "config.toml")
	if _, err := os.Stat(configPath); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "config already exists at %s (use --force to overwrite)\n", configPath)
		os.Exit(1)
	}
	cfg := config.DefaultProfile(*name)
	if err := config.Save(configPath, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "init error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("initialized profile %s at %s\n", cfg.ProfileName, *profilePath)
}

func smokeCommand(args []string) (bool, error) {
	fs := flag.NewFlagSet("smoke", flag.ExitOnError)
	profile := fs.String("profile", "./_dev_profile", "Profile directory")
	cmdline := fs.String("cmd", "", "Server command line (overrides profile)")
	dir := fs.String("dir", "", "Server working directory (overrides profile)")
	timeout := fs.Duration("timeout", 0, "Per-response read timeout (overrides profile)")
	_ = fs.Parse(args)

	cfg, err := config.LoadProfile(*profile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return false, fmt.Errorf("load config: %w", err)
		}
		if *cmdline == "" {
			return false, fmt.Errorf("config not found in %s and no -cmd given (run 'mcprobe init --profile %s')", *profile, *profile)
		}
		cfg = config.DefaultProfile("adhoc")
		cfg.Storage.DBPath = ""
	}

	logger := logging.New("mcprobe")
	if err := logger.Configure(cfg.Logging); err != nil {
		return false, fmt.Errorf("configure logging: %w", err)
	}

	pcfg := probe.Config{
		Command:         cfg.CommandLine(),
		Dir:             cfg.Server.Workdir,
		ReadTimeout:     time.Duration(cfg.Probe.ReadTimeoutMS) * time.Millisecond,
		ProtocolVersion: cfg.Probe.ProtocolVersion,
		ClientName:      cfg.Probe.ClientName,
		ClientVersion:   cfg.Probe.ClientVersion,
	}
	if *cmdline != "" {
		pcfg.Command = strings.Fields(*cmdline)
	}
	if *dir != "" {
		pcfg.Dir = *dir
	}
	if *timeout > 0 {
		pcfg.ReadTimeout = *timeout
	}
	if len(pcfg.Command) == 0 {
		return false, fmt.Errorf("no server command configured (set [server] command or pass -cmd)")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := probe.Run(ctx, pcfg, logger)
	if err != nil {
		return false, fmt.Errorf("start server: %w", err)
	}
	printReport(report)

	if cfg.Storage.DBPath != "" {
		if err := recordRun(ctx, config.ResolvePath(*profile, cfg.Storage.DBPath), report); err != nil {
			logger.Printf("record run failed: %v", err)
		}
	}
	return report.Passed(), nil
}

func printReport(report probe.Report) {
	fmt.Printf("run %s: %s\n", report.RunID, strings.Join(report.Command, " "))
	for _, step := range report.Steps {
		if step.Status == probe.StatusOK {
			fmt.Printf("[OK]   %s: %s\n", step.Step, step.Detail)
			continue
		}
		fmt.Printf("[FAIL] %s (%s): %s\n", step.Step, step.Status, step.Detail)
	}
	if report.Passed() {
		fmt.Println("smoke test passed")
	} else {
		fmt.Println("smoke test failed")
	}
}

func recordRun(ctx context.Context, dbPath string, report probe.Report) error {
	store, err := sqlite.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Init(ctx); err != nil {
		return err
	}
	return store.RecordRun(ctx, report)
}

func cleanCommand(args []string) error {
	fs := flag.NewFlagSet("clean", flag.ExitOnError)
	repo := fs.String("repo", "", "Read the HEAD commit message from this repository instead of stdin")
	_ = fs.Parse(args)

	var text string
	if *repo != "" {
		msg, err := gitvcs.HeadMessage(*repo)
		if err != nil {
			return err
		}
		text = msg
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		text = string(data)
	}
	fmt.Print(sanitize.Clean(text))
	return nil
}

func historyCommand(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	profile := fs.String("profile", "./_dev_profile", "Profile directory")
	limit := fs.Int("limit", 20, "Maximum runs to show")
	_ = fs.Parse(args)

	cfg, err := config.LoadProfile(*profile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Storage.DBPath == "" {
		return fmt.Errorf("no storage.dbPath configured in %s", *profile)
	}
	ctx := context.Background()
	store, err := sqlite.Open(config.ResolvePath(*profile, cfg.Storage.DBPath))
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Init(ctx); err != nil {
		return err
	}
	runs, err := store.ListRuns(ctx, *limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}
	for _, run := range runs {
		outcome := "FAIL"
		if run.Passed {
			outcome = "PASS"
		}
		started := time.UnixMilli(run.StartedAt).Format(time.RFC3339)
		fmt.Printf("%s  %s  %s  %s\n", run.ID, started, outcome, run.Command)
		for _, step := range run.Steps {
			fmt.Printf("  %-12s %-15s %s\n", step.Step, step.Status, step.Detail)
		}
	}
	return nil
}

func diagCommand(args []string) error {
	fs := flag.NewFlagSet("diag", flag.ExitOnError)
	profile := fs.String("profile", "./_dev_profile", "Profile directory")
	_ = fs.Parse(args)
	cfg, err := config.LoadProfile(*profile)
	if err != nil {
		return err
	}
	fmt.Printf("Profile: %s\n", cfg.ProfileName)
	fmt.Printf("Config: %s\n", filepath.Join(*profile, "config.toml"))
	if cmd := cfg.CommandLine(); cmd != nil {
		fmt.Printf("Server: %s\n", strings.Join(cmd, " "))
	} else {
		fmt.Println("Server: not configured")
	}
	if cfg.Server.Workdir != "" {
		fmt.Printf("Workdir: %s\n", cfg.Server.Workdir)
	}
	fmt.Printf("Protocol: %s (client %s/%s)\n", cfg.Probe.ProtocolVersion, cfg.Probe.ClientName, cfg.Probe.ClientVersion)
	fmt.Printf("Read Timeout: %dms\n", cfg.Probe.ReadTimeoutMS)
	if cfg.Storage.DBPath != "" {
		fmt.Printf("DB Path: %s\n", config.ResolvePath(*profile, cfg.Storage.DBPath))
	}
	if cfg.Logging.FilePath != "" {
		fmt.Printf("Log File: %s\n", cfg.Logging.FilePath)
	}
	return nil
}
