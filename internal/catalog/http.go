package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/abhisek/remediz/internal/level"
)

// remediationPath is the upstream endpoint listing remediation videos.
const remediationPath = "/api/videos/remediation"

// maxBodyBytes caps the catalog response size.
const maxBodyBytes = 32 << 20

// HTTPSource fetches the catalog from the remediation API.
type HTTPSource struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// NewHTTPSource creates an HTTPSource with a bounded request timeout.
func NewHTTPSource(baseURL, token string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context, learner level.Level) ([]Video, error) {
	u, err := url.Parse(s.BaseURL + remediationPath)
	if err != nil {
		return nil, &FetchError{Source: s.Name(), Err: fmt.Errorf("parse base URL: %w", err)}
	}
	q := u.Query()
	q.Set("niveau", string(learner.Stage))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &FetchError{Source: s.Name(), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, &FetchError{Source: s.Name(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{Source: s.Name(), StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			Source:     s.Name(),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(body))),
		}
	}
	return Decode(body, FormatJSON)
}

func (s *HTTPSource) Name() string {
	return s.BaseURL
}
