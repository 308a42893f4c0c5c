package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mbecker/study/internal/api"
	"github.com/mbecker/study/internal/daemon"
)

var (
	serveDaemon bool
	serveStop   bool
	serveStatus bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing the REST API under /api/v1.
By default it listens on port 8080 and runs in the foreground.
Use --daemon to run in the background, --stop to stop a background
server, and --status to check whether one is running.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch {
		case serveStop:
			return serveStopRun()
		case serveStatus:
			return serveStatusRun()
		case serveDaemon:
			return serveStartRun()
		default:
			return serveForegroundRun()
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	serveCmd.Flags().BoolVarP(&serveDaemon, "daemon", "d", false, "run the server in the background")
	serveCmd.Flags().BoolVar(&serveStop, "stop", false, "stop the background server")
	serveCmd.Flags().BoolVar(&serveStatus, "status", false, "show background server status")
	viper.SetDefault("port", 8080)
	_ = viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
}

func pidFile() *daemon.PIDFile {
	return daemon.New(filepath.Join(viper.GetString("state_dir"), "study-serve.pid"))
}

func serveLogPath() string {
	return filepath.Join(viper.GetString("state_dir"), "study-serve.log")
}

func serveForegroundRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	mgr, err := getManager()
	if err != nil {
		return err
	}

	port := viper.GetInt("port")
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: api.NewServer(s, mgr, reportConfig()).Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		ui.Info("Serving API at http://localhost:%d", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, shutdownSignals()...)

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func serveStartRun() error {
	pf := pidFile()
	if pid, running := pf.Alive(); running {
		return fmt.Errorf("server already running (pid %d)", pid)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("find executable: %w", err)
	}

	logFile, err := os.OpenFile(serveLogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	child := exec.Command(exe, "serve", "--port", strconv.Itoa(viper.GetInt("port")))
	child.Stdout = logFile
	child.Stderr = logFile
	setDaemonAttrs(child)

	if err := child.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	if err := pf.Write(child.Process.Pid); err != nil {
		return fmt.Errorf("write PID file: %w", err)
	}

	ui.Success("Server started (pid %d), logs at %s", child.Process.Pid, serveLogPath())
	return nil
}

func serveStopRun() error {
	pf := pidFile()
	pid, running := pf.Alive()
	if !running {
		_ = pf.Remove()
		return fmt.Errorf("server is not running")
	}

	if err := pf.Signal(sigTERM()); err != nil {
		return fmt.Errorf("stop server: %w", err)
	}

	// Wait briefly for a clean exit before escalating.
	for i := 0; i < 20; i++ {
		if _, alive := pf.Alive(); !alive {
			_ = pf.Remove()
			ui.Success("Server stopped (pid %d)", pid)
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	if err := pf.Signal(sigKILL()); err != nil {
		return fmt.Errorf("kill server: %w", err)
	}
	_ = pf.Remove()
	ui.Success("Server killed (pid %d)", pid)
	return nil
}

func serveStatusRun() error {
	pf := pidFile()
	if pid, running := pf.Alive(); running {
		ui.Info("Server running (pid %d)", pid)
		return nil
	}
	ui.Info("Server is not running")
	return nil
}
