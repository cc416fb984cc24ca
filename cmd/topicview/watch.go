package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/topicview/internal/app"
	"github.com/dshills/topicview/internal/config"
	"github.com/dshills/topicview/internal/logging"
)

type watchFlags struct {
	configPath string
	page       string
	data       string
	viewer     int64
	out        string

	url      string
	cookie   string
	lang     string
	logLevel string
}

var watchOpts watchFlags

var watchCmd = &cobra.Command{
	Use:   "watch --page topic.html",
	Short: "Reconcile a rendered topic page against live events",
	Long: `watch keeps the page in sync until interrupted or until an event moves
the viewer to another page, then writes the reconciled HTML to --out.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(cmd, watchOpts)
	},
}

func init() {
	f := watchCmd.Flags()
	f.StringVarP(&watchOpts.configPath, "config", "c", config.DefaultPath(), "configuration file")
	f.StringVar(&watchOpts.page, "page", "", "rendered topic page (HTML)")
	f.StringVar(&watchOpts.data, "data", "", "topic data JSON, read from the page when empty")
	f.Int64Var(&watchOpts.viewer, "viewer", 0, "uid of the signed-in viewer, 0 for a guest")
	f.StringVarP(&watchOpts.out, "out", "o", "-", "where to write the reconciled page")
	f.StringVar(&watchOpts.url, "url", "", "push channel websocket URL")
	f.StringVar(&watchOpts.cookie, "cookie", "", "session cookie sent with the handshake")
	f.StringVar(&watchOpts.lang, "lang", "", "display language")
	f.StringVar(&watchOpts.logLevel, "log-level", "", "debug, info, warn or error")
	_ = watchCmd.MarkFlagRequired("page")
}

// overrides turns the flags that were set into the top configuration layer.
func overrides(cmd *cobra.Command, f watchFlags) map[string]any {
	out := map[string]any{}
	set := func(section, key string, value any) {
		m, ok := out[section].(map[string]any)
		if !ok {
			m = map[string]any{}
			out[section] = m
		}
		m[key] = value
	}

	flags := cmd.Flags()
	if flags.Changed("url") {
		set("server", "url", f.url)
	}
	if flags.Changed("cookie") {
		set("server", "cookie", f.cookie)
	}
	if flags.Changed("lang") {
		set("view", "language", f.lang)
	}
	if flags.Changed("log-level") {
		set("log", "level", f.logLevel)
	}
	return out
}

func runWatch(cmd *cobra.Command, f watchFlags) error {
	loadOpts := config.Options{Path: f.configPath, Overrides: overrides(cmd, f)}
	cfg, err := config.Load(loadOpts)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logger := logging.New(cfg.LogConfig())

	page, err := os.Open(f.page)
	if err != nil {
		return err
	}
	defer page.Close()

	var data []byte
	if f.data != "" {
		if data, err = os.ReadFile(f.data); err != nil {
			return err
		}
	}

	application, err := app.New(app.Options{
		Config:     cfg,
		ConfigPath: f.configPath,
		Reload:     func() (config.Config, error) { return config.Load(loadOpts) },
		Page:       page,
		PageData:   data,
		ViewerID:   f.viewer,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := application.Run(ctx)
	var navErr *app.NavigationError
	if errors.As(runErr, &navErr) {
		fmt.Fprintf(cmd.ErrOrStderr(), "navigated to %s\n", navErr.To.URL())
		if runErr == error(navErr) {
			runErr = nil
		}
	}

	if err := writeSnapshot(cmd, application, f.out); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

func writeSnapshot(cmd *cobra.Command, a *app.Application, path string) error {
	var w io.Writer = cmd.OutOrStdout()
	if path != "-" {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}
	return a.Snapshot(w)
}
