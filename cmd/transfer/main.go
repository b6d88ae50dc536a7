package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/omni/tokenbridge-transfers/app"
	"github.com/omni/tokenbridge-transfers/bridge"
	"github.com/omni/tokenbridge-transfers/config"
	"github.com/omni/tokenbridge-transfers/logging"
	"github.com/omni/tokenbridge-transfers/orchestrator"
	"github.com/omni/tokenbridge-transfers/units"
	"github.com/omni/tokenbridge-transfers/wallet"
)

var (
	sourceChainID      = flag.Uint64("from", 0, "source chain id")
	destinationChainID = flag.Uint64("to", 0, "destination chain id")
	value              = flag.String("amount", "", "amount in whole units, e.g. 1.5")
	token              = flag.String("token", "", "parent chain token address, native currency when empty")
	symbol             = flag.String("symbol", "", "asset symbol")
	decimals           = flag.Uint("decimals", 18, "asset decimals")
	recipient          = flag.String("recipient", "", "destination address, the sender when empty")
	claim              = flag.String("claim", "", "claim the cctp transfer with the given source tx hash instead")
	yes                = flag.Bool("yes", false, "confirm every step without asking")
)

func main() {
	flag.Parse()

	logger := logging.New()

	cfg, err := config.ReadConfigFromFile("config.yml")
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}
	logger.SetLevel(cfg.LogLevel)

	key := os.Getenv("PRIVATE_KEY")
	if key == "" {
		logger.Fatal("PRIVATE_KEY is not set")
	}
	if *sourceChainID == 0 {
		logger.Fatal("source chain is not specified")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		<-c
		logger.Warn("caught CTRL-C, cancelling transfer")
		cancel()
	}()

	a, err := app.New(ctx, logger, cfg)
	if err != nil {
		logger.WithError(err).Fatal("can't initialize services")
	}
	defer a.Close()

	w, err := wallet.NewKeyWallet(logger, key, a.Clients, *sourceChainID)
	if err != nil {
		logger.WithError(err).Fatal("can't open wallet")
	}

	var confirmer orchestrator.Confirmer = newPromptConfirmer(os.Stdin, os.Stdout)
	if *yes {
		confirmer = orchestrator.AutoConfirmer{}
	}
	o := orchestrator.New(logger.WithField("service", "orchestrator"), orchestrator.Params{
		Chains:       a.Registry,
		Clients:      a.Clients,
		Wallet:       w,
		Store:        a.Store,
		Confirmer:    confirmer,
		Attestations: a.Attestations,
		Allowance:    bridge.ReadAllowance,
		BurnLimit:    a.BurnLimit,
		Retryable:    cfg.Retryable,
		Config:       cfg.Orchestrator,
	})

	var res *orchestrator.Result
	if *claim != "" {
		res = o.ClaimCctp(ctx, common.HexToHash(*claim))
	} else {
		intent, err := parseIntent(w.Address())
		if err != nil {
			logger.WithError(err).Fatal("invalid transfer parameters")
		}
		res = o.Transfer(ctx, intent)
	}

	switch res.Outcome {
	case orchestrator.OutcomeConfirmed:
		logger.WithFields(logrus.Fields{
			"tx_id":  res.Transaction.TxID,
			"type":   res.Transaction.Type,
			"status": res.Transaction.Status,
		}).Info("transfer submitted")
	case orchestrator.OutcomeDeclined:
		logger.Warn("transfer declined")
	default:
		entry := logger.WithError(res.Err)
		if res.Transaction != nil {
			entry = entry.WithField("tx_id", res.Transaction.TxID)
		}
		entry.Fatal("transfer failed")
	}
}

func parseIntent(sender common.Address) (*bridge.Intent, error) {
	if *decimals > 255 {
		return nil, fmt.Errorf("decimals %d out of range: %w", *decimals, bridge.ErrPrecondition)
	}
	asset := bridge.NativeAsset(*symbol, uint8(*decimals))
	if *token != "" {
		if !common.IsHexAddress(*token) {
			return nil, fmt.Errorf("token %q is not an address: %w", *token, bridge.ErrPrecondition)
		}
		asset = &bridge.Asset{
			Kind:     bridge.AssetToken,
			Address:  common.HexToAddress(*token),
			Symbol:   *symbol,
			Decimals: uint8(*decimals),
		}
	}
	amount, err := units.ParseUnits(*value, asset.Decimals)
	if err != nil {
		return nil, err
	}
	intent := &bridge.Intent{
		SourceChainID:      *sourceChainID,
		DestinationChainID: *destinationChainID,
		Asset:              asset,
		Amount:             amount,
		Sender:             sender,
	}
	if *recipient != "" {
		if !common.IsHexAddress(*recipient) {
			return nil, fmt.Errorf("recipient %q is not an address: %w", *recipient, bridge.ErrPrecondition)
		}
		to := common.HexToAddress(*recipient)
		intent.Destination = &to
	}
	return intent, intent.Validate()
}
