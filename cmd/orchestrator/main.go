package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omni/tokenbridge-transfers/alerts"
	"github.com/omni/tokenbridge-transfers/app"
	"github.com/omni/tokenbridge-transfers/config"
	"github.com/omni/tokenbridge-transfers/logging"
	"github.com/omni/tokenbridge-transfers/pending"
	"github.com/omni/tokenbridge-transfers/presenter"
)

func main() {
	logger := logging.New()

	cfg, err := config.ReadConfigFromFile("config.yml")
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	a, err := app.New(ctx, logger, cfg)
	if err != nil {
		logger.WithError(err).Fatal("can't initialize services")
	}
	defer a.Close()

	http.Handle("/metrics", promhttp.Handler())
	go func() {
		err := http.ListenAndServe(":2112", nil)
		if err != nil {
			logger.WithError(err).Fatal("can't start listener for prometheus metrics")
		}
	}()

	if cfg.Presenter != nil {
		pr := presenter.NewPresenter(logger.WithField("service", "presenter"), a.Store, a.Registry)
		go func() {
			err := pr.Serve(cfg.Presenter.Host)
			if err != nil {
				logger.WithError(err).Fatal("can't serve presenter")
			}
		}()
	}

	watcher := pending.NewWatcher(logger.WithField("service", "watcher"), a.Store, a.Tracker, cfg.Watcher)
	go watcher.Start(ctx)

	if len(cfg.Alerts) > 0 {
		alertManager, err := alerts.NewAlertManager(logger.WithField("service", "alerts"), a.Repo.Transactions, cfg.Alerts)
		if err != nil {
			logger.WithError(err).Fatal("can't initialize alert manager")
		}
		alertManager.Start(ctx)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	for range c {
		cancel()
		logger.Warn("caught CTRL-C, gracefully terminating")
		return
	}
}
