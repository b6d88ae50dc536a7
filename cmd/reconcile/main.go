package main

import (
	"context"
	"flag"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/omni/tokenbridge-transfers/app"
	"github.com/omni/tokenbridge-transfers/config"
	"github.com/omni/tokenbridge-transfers/logging"
	"github.com/omni/tokenbridge-transfers/pending"
)

var txHash = flag.String("tx", "", "reconcile a single transaction instead of every pending one")

func main() {
	flag.Parse()

	logger := logging.New()

	cfg, err := config.ReadConfigFromFile("config.yml")
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Watcher.Timeout)
	defer cancel()

	a, err := app.New(ctx, logger, cfg)
	if err != nil {
		logger.WithError(err).Fatal("can't initialize services")
	}
	defer a.Close()

	watcher := pending.NewWatcher(logger.WithField("service", "watcher"), a.Store, a.Tracker, cfg.Watcher)

	if *txHash == "" {
		updated, err := watcher.Sweep(ctx)
		if err != nil {
			logger.WithError(err).Fatal("can't sweep pending transactions")
		}
		logger.WithField("updated", updated).Info("swept pending transactions")
		return
	}

	if len(common.FromHex(*txHash)) != common.HashLength {
		logger.WithField("tx_hash", *txHash).Fatal("tx is not a transaction hash")
	}
	tx, err := a.Store.Get(ctx, common.HexToHash(*txHash))
	if err != nil {
		logger.WithError(err).Fatal("can't find transaction")
	}
	res, err := watcher.Reconcile(ctx, tx)
	fields := logrus.Fields{
		"tx_hash":    tx.TxID,
		"old_status": tx.Status,
	}
	if res != nil {
		fields["new_status"] = res.Status
	}
	if err != nil {
		logger.WithFields(fields).WithError(err).Fatal("can't reconcile transaction")
	}
	logger.WithFields(fields).Info("reconciled transaction")
}
