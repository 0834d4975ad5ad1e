package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/tracematch/internal/gesture"
	"github.com/ayusman/tracematch/internal/location"
	"github.com/ayusman/tracematch/internal/server"
	"github.com/ayusman/tracematch/internal/tray"
)

var withTray bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the background locate loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeStore, err := openApp()
		if err != nil {
			return err
		}
		defer closeStore()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := a.Start(ctx); err != nil {
			return err
		}
		defer a.Stop()

		webDir := cfg.WebDir
		if webDir == "" {
			webDir = findWebDir()
		}
		if webDir != "" {
			logger.Info("serving static files", zap.String("dir", webDir))
		}

		srv := server.New(server.Config{
			StaticDir: webDir,
			App:       a,
			Logger:    logger.Named("http"),
		})

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.ListenAndServe(cfg.Addr)
		}()
		fmt.Printf("Listening on %s\n", cfg.Addr)

		if withTray {
			t := tray.New()
			t.OnToggle(a.SetEnabled)
			t.OnReload(func() {
				if err := a.LoadFingerprints(ctx); err != nil {
					logger.Warn("failed to reload fingerprints", zap.Error(err))
				}
			})
			t.OnDashboard(func() {
				if err := openBrowser(dashboardURL(cfg.Addr)); err != nil {
					logger.Warn("failed to open dashboard", zap.Error(err))
				}
			})
			t.OnQuit(stop)
			a.OnGesture(func(m *gesture.Match) { t.SetLastGesture(m.Template.Name) })
			a.OnLocationChange(func(r location.Result) { t.SetLocation(r.Location) })

			// The tray needs the main goroutine; it returns after Quit
			go func() {
				<-ctx.Done()
				tray.Quit()
			}()
			t.Run()
			stop()
		}

		select {
		case <-ctx.Done():
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().BoolVar(&withTray, "tray", false, "show a system tray menu")
	rootCmd.AddCommand(serveCmd)
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.tracematch/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeWebDir := filepath.Join(cfg.DataDir, "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}

// dashboardURL turns a listen address such as ":8080" into a browsable URL.
func dashboardURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
