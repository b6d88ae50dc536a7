package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/omni/tokenbridge-transfers/config"
	"github.com/omni/tokenbridge-transfers/entity"
	"github.com/omni/tokenbridge-transfers/logging"
)

const (
	AlertStuckTransferName       = "stuck_transfer"
	AlertUnclaimedCctpName       = "unclaimed_cctp"
	AlertUnredeemedRetryableName = "unredeemed_retryable"
)

type AlertManager struct {
	logger logging.Logger
	jobs   map[string]*Job
}

func NewAlertManager(logger logging.Logger, repo entity.TransactionsRepo, cfg map[string]*config.AlertConfig) (*AlertManager, error) {
	provider := NewStoreAlertsProvider(repo)
	jobs := make(map[string]*Job, len(cfg))

	for name, alertCfg := range cfg {
		switch name {
		case AlertStuckTransferName:
			jobs[name] = &Job{
				Interval: time.Minute * 5,
				Timeout:  time.Second * 20,
				Func:     provider.FindStuckTransfers,
				Metric:   AlertStuckTransfer,
				Params:   &AlertJobParams{StuckAfter: time.Hour},
			}
		case AlertUnclaimedCctpName:
			jobs[name] = &Job{
				Interval: time.Minute,
				Timeout:  time.Second * 10,
				Func:     provider.FindUnclaimedCctp,
				Metric:   AlertUnclaimedCctp,
				Params:   &AlertJobParams{StuckAfter: 30 * time.Minute},
			}
		case AlertUnredeemedRetryableName:
			jobs[name] = &Job{
				Interval: time.Minute * 5,
				Timeout:  time.Second * 20,
				Func:     provider.FindUnredeemedRetryables,
				Metric:   AlertUnredeemedRetryable,
				Params:   &AlertJobParams{StuckAfter: 24 * time.Hour},
			}
		default:
			return nil, fmt.Errorf("unknown alert type %q", name)
		}
		if alertCfg != nil && alertCfg.StuckAfter > 0 {
			jobs[name].Params.StuckAfter = alertCfg.StuckAfter
		}
	}

	return &AlertManager{
		logger: logger,
		jobs:   jobs,
	}, nil
}

func (m *AlertManager) Job(name string) (*Job, bool) {
	job, ok := m.jobs[name]
	return job, ok
}

func (m *AlertManager) Start(ctx context.Context) {
	m.logger.WithField("count", len(m.jobs)).Info("starting alert manager jobs")
	for name, job := range m.jobs {
		job.logger = m.logger.WithField("alert_job", name)
		go job.Start(ctx)
	}
}
