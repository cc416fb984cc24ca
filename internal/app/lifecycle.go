package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/topicview/internal/config/watcher"
	"github.com/dshills/topicview/internal/event/dispatch"
	"github.com/dshills/topicview/internal/logging"
	"github.com/dshills/topicview/internal/nav"
)

// shutdownTimeout bounds the wait for queued loop tasks.
const shutdownTimeout = 5 * time.Second

// Run reconciles live events until ctx ends or a handler navigates away
// from the topic. A navigation is returned as a *NavigationError once the
// handlers are removed and the loop has drained.
func (app *Application) Run(ctx context.Context) error {
	if !app.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	app.leave = cancel

	if err := app.loop.Start(); err != nil {
		return &InitError{Component: "loop", Err: err}
	}
	if err := app.events.Init(); err != nil {
		return errors.Join(&InitError{Component: "events", Err: err}, app.shutdown())
	}

	var wg sync.WaitGroup
	if app.socket != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := app.socket.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				app.logger.Error("push channel: %v", err)
			}
		}()
	}

	w, err := app.watchConfig()
	if err != nil {
		app.logger.Warn("config reload disabled: %v", err)
	}
	if w != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				app.logger.Warn("config watcher: %v", err)
			}
		}()
	}

	<-ctx.Done()
	cause := context.Cause(ctx)

	err = app.shutdown()
	if w != nil {
		w.Close()
	}
	wg.Wait()

	var navErr *NavigationError
	if errors.As(cause, &navErr) {
		if err != nil {
			return errors.Join(navErr, err)
		}
		return navErr
	}
	return err
}

// shutdown removes the handlers and drains the loop. Events still queued
// are skipped; transition steps already queued run to completion.
func (app *Application) shutdown() error {
	var errs []error
	if err := app.events.RemoveListeners(); err != nil {
		errs = append(errs, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	app.mu.Lock()
	defer app.mu.Unlock()
	if err := app.loop.Stop(ctx); err != nil && !errors.Is(err, dispatch.ErrNotRunning) {
		errs = append(errs, fmt.Errorf("stop loop: %w", err))
	}
	app.logger.Debug("stopped")
	return errors.Join(errs...)
}

// onNavigate runs on the loop when a handler leaves the topic. The page is
// torn down as a navigating client would.
func (app *Application) onNavigate(_ context.Context, req nav.Request) {
	if err := app.events.RemoveListeners(); err != nil {
		app.logger.Warn("remove listeners: %v", err)
	}
	app.logger.Info("navigating to %s", req.To.URL())
	if app.leave != nil {
		app.leave(&NavigationError{To: req.To, Reason: req.Options.Reason})
	}
}

func (app *Application) watchConfig() (*watcher.Watcher, error) {
	if app.opts.Reload == nil || app.opts.ConfigPath == "" {
		return nil, nil
	}
	w, err := watcher.New(watcher.WithLogger(app.root))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(app.opts.ConfigPath); err != nil {
		w.Close()
		return nil, err
	}
	w.OnChange(app.reload)
	return w, nil
}

// reload applies the parts of a changed configuration that can change
// while running: the log level and the hook scripts.
func (app *Application) reload(ev watcher.Event) {
	cfg, err := app.opts.Reload()
	if err != nil {
		app.logger.Warn("reload %s: %v", ev.Path, err)
		return
	}
	app.logger.SetLevel(logging.ParseLevel(cfg.Log.Level))

	scripts, err := app.loadScripts(cfg, app.root)
	if err != nil {
		app.logger.Warn("reload hook scripts: %v", err)
		return
	}
	if !app.loop.IsRunning() {
		for _, s := range scripts {
			s.Close()
		}
		return
	}
	// Scripts are fired on the loop; swapping them there keeps a closed
	// script from being fired.
	app.loop.Post(func() { app.hooks.SetScripts(scripts) })
	app.logger.Info("configuration reloaded from %s (%s)", ev.Path, ev.Op)
}
