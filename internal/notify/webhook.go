package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/placepulse/fencewatch/internal/resilience"
)

// WebhookSink posts notifications to a webhook URL as JSON. Delivery is
// rate-limited and retried; a notification dropped by the limiter is
// logged, not queued, so the caller's tick path never backs up.
type WebhookSink struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	log     *zap.Logger
}

type webhookPayload struct {
	Title   string    `json:"title"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

// NewWebhookSink creates a webhook sink allowing at most perMinute
// notifications per minute (0 means unlimited).
func NewWebhookSink(url string, perMinute int) *WebhookSink {
	limit := rate.Inf
	burst := 1
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
		burst = perMinute
	}
	return &WebhookSink{
		url:     url,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(limit, burst),
		retry:   resilience.DefaultRetryConfig(),
		log:     zap.L().With(zap.String("component", "notify.webhook")),
	}
}

func (s *WebhookSink) Show(ctx context.Context, title, message string) error {
	if !s.limiter.Allow() {
		s.log.Warn("notification dropped by rate limit", zap.String("title", title))
		return nil
	}

	payload, err := json.Marshal(webhookPayload{
		Title:   title,
		Message: message,
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		return eris.Wrap(err, "notify: marshal payload")
	}

	return resilience.Do(ctx, s.retry, func(ctx context.Context) error {
		return s.post(ctx, payload)
	})
}

func (s *WebhookSink) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "notify: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "notify: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
