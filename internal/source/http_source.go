package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/grcdesk/grcdesk/internal/aggregate"
	"github.com/grcdesk/grcdesk/internal/grc"
)

const (
	defaultFetchTimeout = 30 * time.Second
	maxResponseBytes    = 64 << 20

	// SessionCookieName matches the session cookie issued by the HTTP server.
	SessionCookieName = "session"
)

// HTTPSource reads collections from a remote grcdesk API.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
	// Timeout bounds each request. Zero uses a 30s default.
	Timeout time.Duration
	// SessionToken is sent as the session cookie when set.
	SessionToken string
}

func NewHTTPSource(baseURL string) *HTTPSource {
	return &HTTPSource{BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/")}
}

// Governance sends the filter as query parameters and applies it again to
// the response, since older servers ignore them.
func (s *HTTPSource) Governance(ctx context.Context, filter grc.GovernanceFilter) Result[grc.GovernanceItem] {
	if filter.IsZero() {
		return fetchEnvelope[grc.GovernanceItem](ctx, s, NameGovernance, "/api/governance", nil, "items")
	}
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if filter.Type != "" {
		q.Set("type", filter.Type)
	}
	if filter.DepartmentID != "" {
		q.Set("departmentId", filter.DepartmentID)
	}
	res := fetchEnvelope[grc.GovernanceItem](ctx, s, NameGovernance, "/api/governance", q, "items")
	if res.Err == nil {
		res.Items = aggregate.Filter(res.Items, filter.Match)
	}
	return res
}

func (s *HTTPSource) Audits(ctx context.Context) Result[grc.Audit] {
	return fetchEnvelope[grc.Audit](ctx, s, NameAudits, "/api/audit", nil, "audits")
}

func (s *HTTPSource) Findings(ctx context.Context) Result[grc.AuditFinding] {
	return fetchEnvelope[grc.AuditFinding](ctx, s, NameFindings, "/api/audit/findings", nil, "findings")
}

func (s *HTTPSource) Schedules(ctx context.Context) Result[grc.AuditSchedule] {
	return fetchEnvelope[grc.AuditSchedule](ctx, s, NameSchedules, "/api/audit/schedules", nil, "schedules")
}

func (s *HTTPSource) Controls(ctx context.Context) Result[grc.ComplianceControl] {
	return fetchEnvelope[grc.ComplianceControl](ctx, s, NameControls, "/api/compliance/controls", nil, "controls")
}

func (s *HTTPSource) Policies(ctx context.Context) Result[grc.CompliancePolicy] {
	return fetchEnvelope[grc.CompliancePolicy](ctx, s, NamePolicies, "/api/compliance/policies", nil, "policies")
}

func (s *HTTPSource) Risks(ctx context.Context) Result[grc.Risk] {
	return fetchEnvelope[grc.Risk](ctx, s, NameRisks, "/api/risk", nil, "risks")
}

func (s *HTTPSource) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return http.DefaultClient
}

func (s *HTTPSource) timeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return defaultFetchTimeout
}

// fetchEnvelope GETs path and decodes the array stored under key in the
// response object. A missing or null key decodes to an empty collection.
func fetchEnvelope[T any](ctx context.Context, s *HTTPSource, name, path string, query url.Values, key string) Result[T] {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	target := s.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Failed[T](&FetchError{Source: name, Err: err})
	}
	req.Header.Set("Accept", "application/json")
	if s.SessionToken != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: s.SessionToken})
	}

	resp, err := s.client().Do(req)
	if err != nil {
		return Failed[T](&FetchError{Source: name, Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Failed[T](&FetchError{Source: name, Status: resp.StatusCode})
	}

	var envelope map[string]json.RawMessage
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&envelope); err != nil {
		return Failed[T](&FetchError{Source: name, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)})
	}

	raw, ok := envelope[key]
	if !ok || string(raw) == "null" {
		return OK[T](nil)
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return Failed[T](&FetchError{Source: name, Status: resp.StatusCode, Err: fmt.Errorf("decode %s: %w", key, err)})
	}
	return OK(items)
}
