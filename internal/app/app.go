// Package app wires the reconciliation engine to a rendered topic page and
// the live push channel, and manages its lifecycle.
package app

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dshills/topicview/internal/config"
	"github.com/dshills/topicview/internal/event"
	"github.com/dshills/topicview/internal/event/dispatch"
	"github.com/dshills/topicview/internal/hook"
	"github.com/dshills/topicview/internal/i18n"
	"github.com/dshills/topicview/internal/logging"
	"github.com/dshills/topicview/internal/nav"
	"github.com/dshills/topicview/internal/reconcile"
	"github.com/dshills/topicview/internal/render"
	"github.com/dshills/topicview/internal/session"
	"github.com/dshills/topicview/internal/topic"
	"github.com/dshills/topicview/internal/transition"
	"github.com/dshills/topicview/internal/transport/socket"
	"github.com/dshills/topicview/internal/view"
)

// pageDataSelector locates the JSON blob a rendered topic page embeds.
const pageDataSelector = "script#ajaxify-data"

// Options configures the application.
type Options struct {
	// Config is the loaded configuration.
	Config config.Config

	// Reload re-reads the configuration when ConfigPath changes. Live
	// reload is disabled when either is unset.
	Reload     func() (config.Config, error)
	ConfigPath string

	// Page is the rendered topic page.
	Page io.Reader

	// PageData is the page's topic data. When empty it is read from the
	// page's ajaxify-data script.
	PageData []byte

	// ViewerID is the uid of the signed-in viewer, zero for guests.
	ViewerID int64

	// Logger defaults to a logger built from Config.
	Logger *logging.Logger
}

// Application reconciles one displayed topic against live events.
type Application struct {
	mu sync.RWMutex

	cfg    config.Config
	opts   Options
	root   *logging.Logger
	logger *logging.Logger

	loop   *dispatch.Loop
	bus    *event.Bus
	store  *session.Store
	doc    *view.Document
	router *nav.Router
	hooks  *hook.Hooks
	seq    *transition.Sequencer
	events *reconcile.Events
	socket *socket.Client

	started atomic.Bool
	leave   func(error)
}

// New builds the application. Nothing runs until Run.
func New(opts Options) (*Application, error) {
	if opts.Page == nil {
		return nil, ErrNoPage
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.New(opts.Config.LogConfig())
	}

	app := &Application{
		cfg:    opts.Config,
		opts:   opts,
		root:   logger,
		logger: logger.WithComponent("app"),
	}
	if err := app.bootstrap(logger); err != nil {
		return nil, err
	}
	return app, nil
}

func (app *Application) bootstrap(logger *logging.Logger) error {
	cfg := app.cfg

	doc, err := view.Parse(app.opts.Page)
	if err != nil {
		return &InitError{Component: "page", Err: err}
	}
	app.doc = doc

	data := app.opts.PageData
	if len(data) == 0 {
		data = []byte(doc.Find(pageDataSelector).Text())
	}
	snap, err := session.FromPageData(data, app.opts.ViewerID)
	if err != nil {
		return &InitError{Component: "session", Err: err}
	}
	app.store = session.NewStore(snap)

	tr, err := i18n.New(cfg.View.Language)
	if err != nil {
		return &InitError{Component: "i18n", Err: err}
	}

	var renderOpts []render.Option
	if cfg.View.Templates != "" {
		renderOpts = append(renderOpts, render.WithOverrides(os.DirFS(cfg.View.Templates), "*.tmpl"))
	}
	renderer, err := render.New(tr, renderOpts...)
	if err != nil {
		return &InitError{Component: "render", Err: err}
	}

	app.hooks = hook.New(logger.WithComponent("hook"))
	scripts, err := app.loadScripts(cfg, logger)
	if err != nil {
		return &InitError{Component: "hooks", Err: err}
	}
	app.hooks.SetScripts(scripts)

	loopLog := logger.WithComponent("loop")
	app.loop = dispatch.NewLoop(dispatch.WithLoopPanicHandler(func(v any, stack []byte) {
		loopLog.Error("task panic: %v\n%s", v, stack)
	}))

	busLog := logger.WithComponent("bus")
	app.bus = event.NewBus(app.loop,
		event.WithErrorHandler(func(evt event.Event, err error) {
			busLog.WithField("kind", string(evt.Kind)).Warn("event dropped: %v", err)
		}),
	)

	seqLog := logger.WithComponent("transition")
	app.seq = transition.New(app.loop,
		transition.WithLogger(seqLog),
		transition.WithFaultHandler(func(f *transition.Fault) {
			seqLog.WithFields(map[string]any{"track": f.Track, "step": f.Step}).Warn("transition failed: %v", f.Err)
		}),
	)

	scheme, host := cfg.PageOrigin()
	app.router = nav.NewRouter(nav.Location{
		Scheme:       scheme,
		Host:         host,
		RelativePath: cfg.Server.RelativePath,
		Path:         "topic/" + snap.Slug,
	}, logger.WithComponent("nav"))
	app.router.OnNavigate(app.onNavigate)

	handlers := reconcile.NewHandlers(reconcile.Deps{
		Page: &topic.Page{
			Doc:          doc,
			Session:      app.store,
			Tr:           tr,
			RelativePath: cfg.Server.RelativePath,
		},
		Emitter:   app.bus,
		Navigator: app.router,
		History:   app.router,
		Renderer:  renderer,
		Hooks:     app.hooks,
		Sequencer: app.seq,
		Logger:    logger.WithComponent("reconcile"),
		Timing: reconcile.Timing{
			Fade:      cfg.View.Fade.Std(),
			PurgeFade: cfg.View.PurgeFade.Std(),
		},
	})
	table, err := handlers.Table()
	if err != nil {
		return &InitError{Component: "reconcile", Err: err}
	}
	app.events = reconcile.NewEvents(app.bus, table, logger.WithComponent("events"))

	if cfg.Server.URL != "" {
		header := http.Header{}
		if cfg.Server.Cookie != "" {
			header.Set("Cookie", cfg.Server.Cookie)
		}
		app.socket = socket.New(cfg.Server.URL, app.bus,
			socket.WithSettings(socketSettings(cfg.Transport)),
			socket.WithHeader(header),
			socket.WithLogger(logger.WithComponent("socket")),
		)
		app.bus.SetSender(app.socket)
	}

	app.logger.Info("reconciling topic %d (%s)", snap.TopicID, app.router.Location().URL())
	return nil
}

func (app *Application) loadScripts(cfg config.Config, logger *logging.Logger) ([]*hook.Script, error) {
	if len(cfg.Hooks.Scripts) == 0 {
		return nil, nil
	}
	return hook.LoadScriptFiles(cfg.Hooks.Scripts,
		hook.WithScriptTimeout(cfg.Hooks.Timeout.Std()),
		hook.WithScriptLogger(logger.WithComponent("lua")),
	)
}

func socketSettings(t config.Transport) socket.Settings {
	return socket.Settings{
		HandshakeTimeout: t.Handshake.Std(),
		ReconnectTimeout: t.Reconnect.Std(),
		PingInterval:     t.PingInterval.Std(),
		WriteTimeout:     t.WriteTimeout.Std(),
		ReadTimeout:      t.ReadTimeout.Std(),
		SendBuffer:       t.SendBuffer,
	}
}

// Bus returns the event bus. Events handed to its Deliver method are
// reconciled like events read from the push channel.
func (app *Application) Bus() *event.Bus {
	return app.bus
}

// Hooks returns the action hook registry.
func (app *Application) Hooks() *hook.Hooks {
	return app.hooks
}

// Session returns the current topic context.
func (app *Application) Session() session.Snapshot {
	return app.store.Current()
}

// Location returns the current page location.
func (app *Application) Location() nav.Location {
	return app.router.Location()
}

// Snapshot writes the reconciled page. While running, the document is read
// on the loop between events.
func (app *Application) Snapshot(w io.Writer) error {
	html, err := app.readDocument()
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	_, err = io.WriteString(w, html)
	return err
}

func (app *Application) readDocument() (string, error) {
	app.mu.RLock()
	defer app.mu.RUnlock()

	if !app.loop.IsRunning() {
		return app.doc.HTML()
	}
	var (
		html string
		err  error
	)
	done := make(chan struct{})
	app.loop.Post(func() {
		defer close(done)
		html, err = app.doc.HTML()
	})
	<-done
	return html, err
}

