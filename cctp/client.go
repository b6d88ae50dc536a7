package cctp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/omni/tokenbridge-transfers/config"
	"github.com/omni/tokenbridge-transfers/logging"
)

const (
	IrisMainnetURL = "https://iris-api.circle.com"
	IrisSandboxURL = "https://iris-api-sandbox.circle.com"

	defaultTimeout = 30 * time.Second
	defaultRPS     = 10
	maxRetries     = 3
)

type AttestationStatus string

const (
	AttestationStatusComplete             AttestationStatus = "complete"
	AttestationStatusPendingConfirmations AttestationStatus = "pending_confirmations"
)

var requestResults = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "transfers",
	Subsystem: "cctp",
	Name:      "attestation_requests_total",
}, []string{"status"})

type Attestation struct {
	Status      AttestationStatus
	Attestation []byte
}

type attestationResponse struct {
	Attestation string            `json:"attestation"`
	Status      AttestationStatus `json:"status"`
}

// Client fetches message attestations from the Iris attestation service.
type Client struct {
	baseURL        string
	logger         logging.Logger
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker
	rateLimiter    *rate.Limiter
	backoff        time.Duration
}

func NewClient(logger logging.Logger, cfg *config.CctpConfig, testnet bool) *Client {
	baseURL := IrisMainnetURL
	if testnet {
		baseURL = IrisSandboxURL
	}
	timeout := defaultTimeout
	rps := float64(defaultRPS)
	if cfg != nil {
		if cfg.AttestationAPI != "" {
			baseURL = cfg.AttestationAPI
		}
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
		if cfg.RPS > 0 {
			rps = cfg.RPS
		}
	}
	logger = logger.WithField("service", "iris")

	settings := gobreaker.Settings{
		Name:        "iris",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		// client errors such as an unknown message hash say nothing about service health
		IsSuccessful: func(err error) bool {
			var errResp *ErrorResponse
			return err == nil || (errors.As(err, &errResp) && errResp.StatusCode < http.StatusInternalServerError)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"from": from.String(),
				"to":   to.String(),
			}).Warn("circuit breaker state changed")
		},
	}

	return &Client{
		baseURL:        baseURL,
		logger:         logger,
		httpClient:     &http.Client{Timeout: timeout},
		circuitBreaker: gobreaker.NewCircuitBreaker(settings),
		rateLimiter:    rate.NewLimiter(rate.Limit(rps), 1),
		backoff:        time.Second,
	}
}

// GetAttestation returns the signed attestation for the message with the given keccak256 hash.
// ErrAttestationPending is returned while the message is unknown or not yet signed.
func (c *Client) GetAttestation(ctx context.Context, messageHash common.Hash) (*Attestation, error) {
	var resp attestationResponse
	err := c.doRequest(ctx, "/v1/attestations/"+messageHash.Hex(), &resp)
	var errResp *ErrorResponse
	if errors.As(err, &errResp) && errResp.IsNotFound() {
		requestResults.WithLabelValues("not_found").Inc()
		return nil, ErrAttestationPending
	}
	if err != nil {
		requestResults.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("can't get attestation: %w", err)
	}
	requestResults.WithLabelValues(string(resp.Status)).Inc()
	switch resp.Status {
	case AttestationStatusPendingConfirmations:
		return nil, ErrAttestationPending
	case AttestationStatusComplete:
		attestation, err := hexutil.Decode(resp.Attestation)
		if err != nil {
			return nil, fmt.Errorf("can't decode attestation %q: %w", resp.Attestation, ErrInvalidResponse)
		}
		return &Attestation{Status: resp.Status, Attestation: attestation}, nil
	default:
		return nil, fmt.Errorf("unknown attestation status %q: %w", resp.Status, ErrInvalidResponse)
	}
}

func (c *Client) doRequest(ctx context.Context, endpoint string, response interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return nil, c.doRequestInternal(ctx, endpoint, response)
	})
	return err
}

func (c *Client) doRequestInternal(ctx context.Context, endpoint string, response interface{}) error {
	fullURL := c.baseURL + endpoint

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * c.backoff
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return fmt.Errorf("can't create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("can't read body: %w", err)
			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			lastErr = &ErrorResponse{StatusCode: resp.StatusCode, Message: string(body)}
			c.logger.WithField("attempt", attempt).WithError(lastErr).Debug("retrying attestation request")
			continue
		}

		if resp.StatusCode >= http.StatusBadRequest {
			errResp := &ErrorResponse{StatusCode: resp.StatusCode}
			if json.Unmarshal(body, errResp) != nil || errResp.Message == "" {
				errResp.Message = string(body)
			}
			return errResp
		}

		if err = json.Unmarshal(body, response); err != nil {
			return fmt.Errorf("can't unmarshal response: %w", err)
		}
		return nil
	}
	return lastErr
}
