package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	viewingPath  = "/api/notify/remediation"
	finishedPath = "/api/notify/videofinish"
)

// DeliveryError is returned when the telemetry endpoint rejects an event.
type DeliveryError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("notify %s: status %d: %s", e.Path, e.StatusCode, e.Body)
}

type viewingPayload struct {
	Level      string  `json:"niveau"`
	Title      string  `json:"video_titre"`
	NextTitle  *string `json:"next_video_titre"`
	StartMonth string  `json:"start_month"`
}

type finishedPayload struct {
	Title     string  `json:"video_titre"`
	NextTitle *string `json:"next_video_titre"`
}

// HTTPSink posts events to the notification API.
type HTTPSink struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// NewHTTPSink creates an HTTPSink with a bounded request timeout.
func NewHTTPSink(baseURL, token string, timeout time.Duration) *HTTPSink {
	return &HTTPSink{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSink) Viewing(ctx context.Context, ev ViewingEvent) error {
	return s.post(ctx, viewingPath, viewingPayload{
		Level:      ev.Level,
		Title:      ev.Title,
		NextTitle:  nullable(ev.NextTitle),
		StartMonth: ev.StartMonth,
	})
}

func (s *HTTPSink) Finished(ctx context.Context, ev FinishedEvent) error {
	return s.post(ctx, finishedPath, finishedPayload{
		Title:     ev.Title,
		NextTitle: nullable(ev.NextTitle),
	})
}

func (s *HTTPSink) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &DeliveryError{Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// nullable maps an empty title to JSON null.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
