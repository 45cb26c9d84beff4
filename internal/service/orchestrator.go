package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"phishguard/internal/model"
)

// Orchestrator runs one scan end to end: normalize the URL, call the
// scoring backend exactly once under a deadline, and hand back an immutable
// verdict. It persists nothing; cache and ledger updates are the caller's
// job so the verdict is never held hostage by slow persistence.
type Orchestrator struct {
	Classifier Classifier
	Timeout    time.Duration
}

func NewOrchestrator(c Classifier, timeout time.Duration) *Orchestrator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Orchestrator{Classifier: c, Timeout: timeout}
}

// NormalizeURL coerces user input into an absolute URL. Input without a
// scheme gets http:// prepended before parsing. This runs before any
// network interaction so invalid submissions never reach the backend.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty input", ErrInvalidURL)
	}

	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: not an absolute url", ErrInvalidURL)
	}
	return u.String(), nil
}

// Scan validates and normalizes rawURL, classifies it with the selected
// model, and returns the verdict. Exactly one backend call is made per
// invocation; retries, if wanted, belong to the caller.
func (o *Orchestrator) Scan(ctx context.Context, rawURL string, m model.ModelID) (*model.Verdict, error) {
	norm, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.Timeout)
	defer cancel()

	res, err := o.Classifier.Classify(ctx, norm, m)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %v", ErrScanTimeout, o.Timeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	if res.Confidence < 0 || res.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %f out of range", ErrBackend, res.Confidence)
	}

	return &model.Verdict{
		URL:        norm,
		IsPhishing: res.IsPhishing,
		Confidence: res.Confidence,
		Model:      m,
		Features:   res.Features,
		ProducedAt: time.Now().UTC(),
	}, nil
}
