package payment

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// HTTPGateway talks to the payment processor over its REST API. All calls go
// through a circuit breaker so a flapping processor fails fast instead of
// tying up request workers; the room hold still protects against
// double-booking while the breaker is open.
type HTTPGateway struct {
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func NewHTTPGateway(cfg Config) *HTTPGateway {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetRetryCount(0) // never auto-retry a charge

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.WithFields(log.Fields{
				"circuit": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Info("Payment gateway circuit breaker state changed")
		},
	})

	return &HTTPGateway{client: client, breaker: breaker}
}

func (g *HTTPGateway) AuthorizeAndCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	out, err := g.breaker.Execute(func() (interface{}, error) {
		var result ChargeResult
		resp, err := g.client.R().
			SetContext(ctx).
			SetBody(req).
			SetResult(&result).
			Post("/v1/charges")
		if err != nil {
			return nil, fmt.Errorf("charge request failed: %w", err)
		}
		// A declined card comes back 402 with a populated body; that is a
		// domain outcome, not a transport error.
		if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusPaymentRequired {
			return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode())
		}
		if result.Status == "" {
			result.Status = StatusFailed
		}
		return &result, nil
	})
	if err != nil {
		return nil, wrapBreakerErr(err)
	}
	return out.(*ChargeResult), nil
}

func (g *HTTPGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	out, err := g.breaker.Execute(func() (interface{}, error) {
		var session CheckoutSession
		resp, err := g.client.R().
			SetContext(ctx).
			SetBody(req).
			SetResult(&session).
			Post("/v1/checkout/sessions")
		if err != nil {
			return nil, fmt.Errorf("create checkout session failed: %w", err)
		}
		if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
			return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode())
		}
		if session.Reference == "" {
			return nil, fmt.Errorf("gateway returned session without reference")
		}
		return &session, nil
	})
	if err != nil {
		return nil, wrapBreakerErr(err)
	}
	return out.(*CheckoutSession), nil
}

func (g *HTTPGateway) RetrieveSession(ctx context.Context, reference string) (*CheckoutSession, error) {
	out, err := g.breaker.Execute(func() (interface{}, error) {
		var session CheckoutSession
		resp, err := g.client.R().
			SetContext(ctx).
			SetResult(&session).
			Get("/v1/checkout/sessions/" + reference)
		if err != nil {
			return nil, fmt.Errorf("retrieve checkout session failed: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode())
		}
		return &session, nil
	})
	if err != nil {
		return nil, wrapBreakerErr(err)
	}
	return out.(*CheckoutSession), nil
}

func wrapBreakerErr(err error) error {
	if err == gobreaker.ErrOpenState {
		return fmt.Errorf("payment gateway unavailable (circuit open): %w", err)
	}
	if err == gobreaker.ErrTooManyRequests {
		return fmt.Errorf("payment gateway unavailable (circuit half-open): %w", err)
	}
	return err
}
