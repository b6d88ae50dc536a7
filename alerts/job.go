package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/omni/tokenbridge-transfers/logging"
)

type AlertJobParams struct {
	StuckAfter time.Duration
}

type AlertMetricValues map[string]string

const ValueLabelTag = "_value"

func (v AlertMetricValues) Labels() prometheus.Labels {
	labels := make(prometheus.Labels, len(v))
	for k, val := range v {
		if k != ValueLabelTag {
			labels[k] = val
		}
	}
	return labels
}

func (v AlertMetricValues) Value() float64 {
	val, ok := v[ValueLabelTag]
	if !ok {
		return 0
	}
	res, _ := strconv.ParseFloat(val, 64)
	return res
}

func ConvertToAlertMetricValues(v interface{}) ([]AlertMetricValues, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("can't marshal alert values to json: %w", err)
	}
	var res []AlertMetricValues
	err = json.Unmarshal(raw, &res)
	if err != nil {
		return nil, fmt.Errorf("can't unmarshal alert values to []AlertMetricValues: %w", err)
	}
	return res, nil
}

type Job struct {
	logger   logging.Logger
	Metric   *prometheus.GaugeVec
	Interval time.Duration
	Timeout  time.Duration
	Func     func(ctx context.Context, params *AlertJobParams) (interface{}, error)
	Params   *AlertJobParams
}

// RunOnce evaluates the job and replaces the metric series with the found alerts.
func (j *Job) RunOnce(ctx context.Context) (int, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, j.Timeout)
	defer cancel()
	alerts, err := j.Func(timeoutCtx, j.Params)
	if err != nil {
		return 0, err
	}
	values, err := ConvertToAlertMetricValues(alerts)
	if err != nil {
		return 0, err
	}
	j.Metric.Reset()
	for _, v := range values {
		j.Metric.With(v.Labels()).Set(v.Value())
	}
	return len(values), nil
}

func (j *Job) Start(ctx context.Context) {
	ticker := time.NewTicker(j.Interval)
	for {
		start := time.Now()
		count, err := j.RunOnce(ctx)
		if err != nil {
			j.logger.WithError(err).Error("failed to process alert job")
		} else if count > 0 {
			j.logger.WithFields(logrus.Fields{
				"count":    count,
				"duration": time.Since(start),
			}).Warn("found some possible alerts")
		} else {
			j.logger.WithField("duration", time.Since(start)).Info("no alerts has been found")
		}

		select {
		case <-ticker.C:
			continue
		case <-ctx.Done():
			ticker.Stop()
			return
		}
	}
}
