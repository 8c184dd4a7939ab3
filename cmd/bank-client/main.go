// cmd/bank-client/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"banking-client/internal/api"
	"banking-client/internal/channel"
	"banking-client/internal/common/config"
	"banking-client/internal/common/kvstore"
	"banking-client/internal/common/logger"
	"banking-client/internal/common/observability"
	"banking-client/internal/dashboard"
	"banking-client/internal/models"
	"banking-client/internal/router"
	"banking-client/internal/session"

	createaccount "banking-client/internal/flows/account/create-account"
	updateaccount "banking-client/internal/flows/account/update-account"
	signin "banking-client/internal/flows/auth/sign-in"
	signup "banking-client/internal/flows/auth/sign-up"
	preferences "banking-client/internal/flows/settings/preferences"
	scanqr "banking-client/internal/flows/transfer/scan-qr"
	sendtransfer "banking-client/internal/flows/transfer/send-transfer"
)

func main() {
	configPath := flag.String("config", "", "Path to a config file (default: configs/config.yaml lookup)")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting bank client",
		zap.String("version", cfg.App.Version),
		zap.String("api", cfg.API.BaseURL),
		zap.String("broker", cfg.Channel.BrokerURL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = startMetricsServer(cfg.Metrics.Address, zapLog)
	}

	out := newPresenter(os.Stdin, os.Stdout, !*noColor)
	a, err := newApp(ctx, cfg, log, obs, out)
	if err != nil {
		zapLog.Fatal("client setup failed", zap.Error(err))
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.run(ctx)
	}()

	select {
	case <-ctx.Done():
		zapLog.Info("Shutdown signal received")
		out.printf("\n")
	case <-done:
	}

	a.close()
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	zapLog.Info("Bank client stopped")
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func startMetricsServer(addr string, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("Metrics server listening", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}

// ==========================
// Wiring
// ==========================

type app struct {
	cfg     *config.Config
	log     logger.Logger
	out     *presenter
	kv      kvstore.Store
	session *session.Manager
	router  *router.Router
	api     *api.Client
	channel *channel.Channel
	store   *dashboard.Store
	view    *dashboard.View

	signIn        *signin.Service
	signUp        *signup.Service
	createAccount *createaccount.Service
	updateAccount *updateaccount.Service
	transfer      *sendtransfer.Service
	prefs         *preferences.Service

	// rootCtx is used by router callbacks, which carry no context.
	rootCtx context.Context
	mounted bool
}

func newApp(ctx context.Context, cfg *config.Config, log logger.Logger, obs *observability.Observability, out *presenter) (*app, error) {
	a := &app{cfg: cfg, log: log, out: out, rootCtx: ctx}

	kv, err := kvstore.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.kv = kv
	a.session = session.NewManager(kv, session.Options{Logger: log})
	a.router = router.New(router.Options{
		Gate:       a.session,
		OnNavigate: a.onNavigate,
		Logger:     log,
	})

	apiOpts := api.OptionsFromConfig(cfg.API)
	apiOpts.Session = a.session
	apiOpts.Navigator = a.router
	apiOpts.Notifier = out
	apiOpts.Logger = log
	a.api, err = api.NewClient(apiOpts)
	if err != nil {
		return nil, err
	}

	a.store = dashboard.NewStore(a.api, dashboard.StoreOptions{Logger: log})

	a.prefs, err = preferences.NewService(preferences.ServiceDependencies{
		Logger: log, Session: a.session, Navigator: a.router, Notifier: out, Observability: obs,
	}, nil)
	if err != nil {
		return nil, err
	}

	a.channel, err = channel.New(channel.Options{
		Config: channel.FromConfig(cfg.Channel),
		Sink: channel.SinkFunc(func(n models.Notification) {
			a.store.ApplyEvent(n)
			out.Event(n)
		}),
		Sounder: channel.Gated{Inner: channel.NewSounder(cfg.Sound), Enabled: a.prefs.SoundEnabled},
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}

	scanner := scanqr.NewService(scanqr.ServiceDependencies{
		Logger: log, Decoder: scanqr.ZXingDecoder{}, Observability: obs,
	}, scanqr.FromConfig(cfg.QR))

	a.view, err = dashboard.NewView(dashboard.ViewOptions{
		Session:       a.session,
		Store:         a.store,
		Channel:       a.channel,
		Scanner:       scanner,
		Navigator:     a.router,
		Notifier:      out,
		Logger:        log,
		Observability: obs,
	})
	if err != nil {
		return nil, err
	}

	if a.signIn, err = signin.NewService(signin.ServiceDependencies{
		Logger: log, API: a.api, Session: a.session, Navigator: a.router, Notifier: out, Observability: obs,
	}, nil); err != nil {
		return nil, err
	}
	if a.signUp, err = signup.NewService(signup.ServiceDependencies{
		Logger: log, API: a.api, Session: a.session, Navigator: a.router, Notifier: out, Observability: obs,
	}, nil); err != nil {
		return nil, err
	}
	if a.createAccount, err = createaccount.NewService(createaccount.ServiceDependencies{
		Logger: log, API: a.api, Session: a.session, Navigator: a.router, Notifier: out, Observability: obs,
	}, nil); err != nil {
		return nil, err
	}
	if a.updateAccount, err = updateaccount.NewService(updateaccount.ServiceDependencies{
		Logger: log, API: a.api, Session: a.session, Navigator: a.router, Notifier: out, Observability: obs,
	}, nil); err != nil {
		return nil, err
	}
	if a.transfer, err = sendtransfer.NewService(sendtransfer.ServiceDependencies{
		Logger: log, API: a.api, Session: a.session, Navigator: a.router, Notifier: out, Observability: obs,
	}, sendtransfer.FromConfig(cfg.Transfer)); err != nil {
		return nil, err
	}

	a.session.Subscribe(func(ev session.Event) {
		if ev.Kind == session.EventCleared {
			a.channel.Close()
			a.store.Reset()
			a.mounted = false
		}
	})
	return a, nil
}

// onNavigate mounts the dashboard when it is entered and closes the push
// channel when it is left.
func (a *app) onNavigate(view router.View, _ router.State) {
	a.log.Debug("View changed", map[string]interface{}{"view": string(view)})
	if view != router.Dashboard {
		if a.mounted {
			a.view.Unmount()
			a.mounted = false
		}
		return
	}
	if a.mounted {
		return
	}
	if err := a.view.Mount(a.rootCtx); err == nil {
		a.mounted = true
		a.showDashboard()
	}
}

func (a *app) close() {
	a.channel.Close()
	if c, ok := a.kv.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.log.Warn("Store close failed", map[string]interface{}{"error": err.Error()})
		}
	}
}
