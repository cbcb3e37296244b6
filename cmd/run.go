package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	apiPkg "github.com/jcarloshn/difubot/api"
	"github.com/jcarloshn/difubot/internal/bot"
	"github.com/jcarloshn/difubot/internal/logger"
	"github.com/jcarloshn/difubot/internal/misc"
	"github.com/jcarloshn/difubot/internal/store"
	"github.com/jcarloshn/difubot/internal/utils/lockfile"
	"github.com/jcarloshn/difubot/internal/wa"
	"github.com/joho/godotenv"
	"github.com/mdp/qrterminal"
	"github.com/urfave/cli"
)

func run() cli.ActionFunc {
	return func(c *cli.Context) error {
		_ = godotenv.Load()

		logLevel := envOr("LOG_LEVEL", "info")
		if err := logger.Init(logger.Config{
			Level:      logLevel,
			File:       os.Getenv("LOG_FILE"),
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     14,
		}); err != nil {
			return err
		}

		// One process per session store: two clients sharing the same
		// whatsmeow credentials corrupt each other.
		lock, err := lockfile.Acquire(filepath.Join(misc.DataDir(), "difubot.lock"))
		if err != nil {
			return err
		}
		defer lock.Release()

		ctx, stop := signal.NotifyContext(context.Background(),
			os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := store.Open(misc.GetSQLiteAddress("difubot.db"))
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Init(); err != nil {
			return err
		}

		client, err := wa.NewClient(ctx,
			misc.GetSQLiteAddress("session.db"), strings.ToUpper(logLevel))
		if err != nil {
			return err
		}

		adapter := wa.NewAdapter(ctx, client)
		b := bot.New(adapter, st)

		err = adapter.Connect(wa.Handlers{
			OnPairingCode: func(code string) {
				logger.Info("scan the QR code below to pair this device")
				qrterminal.GenerateHalfBlock(code, qrterminal.L, os.Stdout)
			},
			OnReady: func() {
				logger.Info("whatsapp client ready")
			},
			OnDisconnected: func(reason string) {
				logger.Warnf("whatsapp disconnected: %s", reason)
			},
			OnMessage: b.HandleIncoming,
			OnAuthFailure: func(reason string) {
				logger.Errorf("authentication failed: %s; delete %s and re-pair",
					reason, misc.GetSQLiteAddress("session.db"))
			},
		})
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:    ":" + misc.Port(),
			Handler: apiPkg.New(b, st).Router(),
		}
		go func() {
			logger.Infof("http api listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatalf("http server: %v", err)
			}
		}()

		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		adapter.Disconnect()
		return nil
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
