package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/moview/moview/internal/automation"
	"github.com/moview/moview/internal/config"
	"github.com/moview/moview/internal/daemon"
	"github.com/moview/moview/internal/database"
	"github.com/moview/moview/internal/monitor"
	"github.com/moview/moview/internal/settings"
	"github.com/moview/moview/internal/web"
	"github.com/moview/moview/pkg/platform"
)

var (
	version = "0.1.0"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "start":
		startDaemon()
	case "serve":
		serveDaemon()
	case "stop":
		stopDaemon()
	case "status":
		showStatus()
	case "switch":
		forceSwitch()
	case "history":
		showHistory()
	case "clear":
		clearDatabase()
	case "version":
		fmt.Printf("moview version %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`moview - privacy auto-switch daemon

Watches for visitors via an external presence feed and switches the foreground
application away from games to a configured work target.

Usage:
  moview <command> [options]

Commands:
  start              Start the monitor daemon
  serve              Start daemon with web API server
  stop               Stop the daemon
  status             Show daemon status and current foreground window
  switch             Manually trigger a context switch now
  history            Show recent switch events
  clear              Clear all switch history from the database
  version            Show version information
  help               Show this help message

Examples:
  moview serve
  moview status
  moview switch
  moview history
  moview stop

Environment Variables:
  MOVIEW_DB_PATH         Database file path
  MOVIEW_SETTINGS_PATH   Settings JSON file path
  MOVIEW_WINDOW_POLL_MS  Foreground-window poll interval in milliseconds
  MOVIEW_PID_FILE        PID file path
  MOVIEW_WEB_HOST        Web API host
  MOVIEW_WEB_PORT        Web API port

Version: %s
`, version)
}

func startDaemon() {
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}
	if running {
		log.Fatalf("Daemon is already running (PID: %d)", pid)
	}

	if os.Getenv("MOVIEW_DAEMON_CHILD") != "1" {
		daemonize(false)
		return
	}

	runDaemon(cfg, dm, false)
}

func serveDaemon() {
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}
	if running {
		log.Fatalf("Daemon is already running (PID: %d)", pid)
	}

	if os.Getenv("MOVIEW_DAEMON_CHILD") != "1" {
		daemonize(true)
		return
	}

	runDaemon(cfg, dm, true)
}

func runDaemon(cfg *config.Config, dm *daemon.Daemon, withWeb bool) {
	logFile, err := os.OpenFile("/tmp/moview.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err == nil {
		log.SetOutput(logFile)
		defer logFile.Close()
	}

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	store, err := settings.NewStore(cfg.Settings.Path)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	defer store.Close()

	observer := platform.NewObserver()
	if observer != nil {
		defer observer.Close()
		log.Printf("Window observer initialized: %s", observer.Platform())
	} else {
		log.Printf("No window observer for this platform, classification stays neutral")
	}

	backend := platform.NewBackend()
	if backend == nil {
		log.Printf("No activation backend for this platform, switches will fail")
	}

	if err := dm.WritePID(); err != nil {
		log.Fatalf("Failed to write PID file: %v", err)
	}
	defer dm.RemovePID()

	repo := database.NewRepository(db)
	engine := automation.NewEngine(store, automation.NewCoordinator(backend), repo)
	monitorSvc := monitor.NewService(cfg, store, engine, observer, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var webServer *web.Server
	if withWeb {
		webServer = web.NewServer(cfg, engine, store, repo, 0)
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := monitorSvc.Start(groupCtx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	})

	if webServer != nil {
		group.Go(func() error {
			if err := webServer.Start(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		log.Printf("Web API available at: http://%s", webServer.GetAddress())
	}

	group.Go(func() error {
		select {
		case <-sigChan:
			log.Println("Received shutdown signal")
		case <-groupCtx.Done():
		}

		cancel()
		monitorSvc.Stop()

		if webServer != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			if err := webServer.Shutdown(shutdownCtx); err != nil {
				log.Printf("Error shutting down web server: %v", err)
			}
		}
		return nil
	})

	log.Println("Starting moview daemon...")
	log.Printf("Configuration:\n%s", cfg.String())

	if err := group.Wait(); err != nil {
		log.Fatalf("Daemon error: %v", err)
	}

	log.Println("Daemon stopped successfully")
}

func stopDaemon() {
	cfg := config.New()
	dm := daemon.New(cfg.Daemon.PIDFile)

	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}

	if !running {
		fmt.Println("Daemon is not running")
		return
	}

	fmt.Printf("Stopping daemon (PID: %d)...\n", pid)
	if err := dm.Stop(); err != nil {
		log.Fatalf("Failed to stop daemon: %v", err)
	}

	fmt.Println("Daemon stopped successfully")
}

func showStatus() {
	cfg := config.New()
	dm := daemon.New(cfg.Daemon.PIDFile)

	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}

	if !running {
		fmt.Println("Status: Not running")
	} else {
		fmt.Printf("Status: Running (PID: %d)\n", pid)
		fmt.Printf("Window Poll Interval: %v\n", cfg.Monitor.WindowPollInterval)
		fmt.Printf("Web API: http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	}

	observer := platform.NewObserver()
	if observer == nil {
		fmt.Println("\nNo window observer available on this platform")
		return
	}
	defer observer.Close()

	obs, err := observer.Poll()
	if err != nil {
		fmt.Printf("\nCould not observe current window: %v\n", err)
		return
	}
	if obs == nil {
		fmt.Println("\nNo foreground window observed")
		return
	}

	fmt.Printf("\nCurrent Window:\n")
	fmt.Printf("  App: %s\n", obs.Name)
	fmt.Printf("  Title: %s\n", obs.Title)
	if obs.BundleID != "" {
		fmt.Printf("  Bundle: %s\n", obs.BundleID)
	}
	if obs.ProcessPath != "" {
		fmt.Printf("  Process: %s\n", obs.ProcessPath)
	}
}

func forceSwitch() {
	cfg := config.New()

	store, err := settings.NewStore(cfg.Settings.Path)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	defer store.Close()

	targets := store.Get().Apps.WorkTargets
	if len(targets) == 0 {
		fmt.Println("No work targets configured")
		os.Exit(1)
	}

	coordinator := automation.NewCoordinator(platform.NewBackend())
	result := coordinator.ActivateFirstAvailable(targets)

	recordSwitch(cfg, result)

	if result.Success {
		fmt.Printf("Activated %s\n", result.Target.Name)
		return
	}
	fmt.Printf("Switch failed: %s\n", result.Error)
	os.Exit(1)
}

func recordSwitch(cfg *config.Config, result automation.ActivationResult) {
	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		return
	}
	defer db.Close()
	if err := db.Initialize(); err != nil {
		return
	}
	database.NewRepository(db).RecordSwitch("manual", result)
}

func showHistory() {
	cfg := config.New()

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	repo := database.NewRepository(db)
	events, err := repo.GetEventsSince(time.Now().Add(-7 * 24 * time.Hour))
	if err != nil {
		log.Fatalf("Failed to fetch switch events: %v", err)
	}

	if len(events) == 0 {
		fmt.Println("No switch events in the last 7 days")
		return
	}

	fmt.Printf("%-20s %-8s %-20s %-8s %s\n", "TIME", "TRIGGER", "TARGET", "OK", "ERROR")
	for _, event := range events {
		fmt.Printf("%-20s %-8s %-20s %-8v %s\n",
			event.Timestamp.Format("2006-01-02 15:04:05"),
			event.Trigger,
			event.TargetName,
			event.Success,
			event.ErrorKind,
		)
	}
}

func clearDatabase() {
	cfg := config.New()

	fmt.Print("This will delete all switch history. Are you sure? (yes/no): ")
	var response string
	fmt.Scanln(&response)

	if response != "yes" && response != "y" {
		fmt.Println("Operation cancelled")
		return
	}

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	repo := database.NewRepository(db)
	if err := repo.ClearAll(); err != nil {
		log.Fatalf("Failed to clear database: %v", err)
	}

	fmt.Println("Database cleared successfully")
}

func daemonize(withWeb bool) {
	env := os.Environ()
	env = append(env, "MOVIEW_DAEMON_CHILD=1")

	args := os.Args

	procAttr := &os.ProcAttr{
		Env:   env,
		Files: []*os.File{nil, nil, nil}, // stdin, stdout, stderr to /dev/null
		Sys: &syscall.SysProcAttr{
			Setsid: true, // Create new session
		},
	}

	process, err := os.StartProcess(args[0], args, procAttr)
	if err != nil {
		log.Fatalf("Failed to start daemon process: %v", err)
	}

	fmt.Printf("Daemon started successfully (PID: %d)\n", process.Pid)
	if withWeb {
		cfg := config.New()
		fmt.Printf("Web API available at: http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	}
	fmt.Println("Logs: /tmp/moview.log")
}
