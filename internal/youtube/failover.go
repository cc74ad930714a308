package youtube

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

var (
	// ErrNoCredentials is returned when the rotator is constructed with an
	// empty credential list.
	ErrNoCredentials = errors.New("no API credentials configured")

	// ErrCredentialsExhausted is returned when every configured credential
	// failed with a quota-exceeded error for the same logical call.
	ErrCredentialsExhausted = errors.New("all API credentials exhausted")
)

// KeyRotator retries a logical API call across an ordered list of API keys.
// Only quota-exceeded errors trigger failover to the next key; any other
// error propagates immediately.
//
// The current-key index is mutable state, so a rotator must be created per
// pipeline run and never shared across concurrent runs.
type KeyRotator struct {
	keys     []string
	services []*yt.Service
	current  int
	factory  func(ctx context.Context, key string) (*yt.Service, error)
	log      *zap.Logger
}

// NewKeyRotator creates a rotator over the given ordered key list.
func NewKeyRotator(keys []string, log *zap.Logger) (*KeyRotator, error) {
	if len(keys) == 0 {
		return nil, ErrNoCredentials
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &KeyRotator{
		keys:     keys,
		services: make([]*yt.Service, len(keys)),
		factory: func(ctx context.Context, key string) (*yt.Service, error) {
			return yt.NewService(ctx, option.WithAPIKey(key))
		},
		log: log,
	}, nil
}

// Invoke runs the logical call under the current credential. On a
// quota-exceeded error it advances to the next credential and retries the
// same call; after the last credential it returns ErrCredentialsExhausted.
func (r *KeyRotator) Invoke(ctx context.Context, call func(*yt.Service) error) error {
	for ; r.current < len(r.keys); r.current++ {
		svc, err := r.service(ctx, r.current)
		if err != nil {
			return err
		}

		err = call(svc)
		if err == nil {
			return nil
		}
		if !IsQuotaExceeded(err) {
			return err
		}

		r.log.Warn("quota exceeded, switching API key",
			zap.Int("key_index", r.current+1),
			zap.Int("keys_total", len(r.keys)),
		)
	}

	return ErrCredentialsExhausted
}

// Attempts reports how many credentials have been tried or started so far.
func (r *KeyRotator) Attempts() int {
	if r.current >= len(r.keys) {
		return len(r.keys)
	}
	return r.current + 1
}

func (r *KeyRotator) service(ctx context.Context, i int) (*yt.Service, error) {
	if r.services[i] == nil {
		svc, err := r.factory(ctx, r.keys[i])
		if err != nil {
			return nil, err
		}
		r.services[i] = svc
	}
	return r.services[i], nil
}

// IsQuotaExceeded reports whether err is the platform's quota-exceeded
// signal: HTTP 403 combined with a quota reason or message.
func IsQuotaExceeded(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Code != 403 {
		return false
	}

	for _, e := range apiErr.Errors {
		if e.Reason == "quotaExceeded" || e.Reason == "dailyLimitExceeded" || e.Reason == "rateLimitExceeded" {
			return true
		}
	}

	return strings.Contains(strings.ToLower(apiErr.Message), "quota")
}
