package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"togetherly/internal/domain/entity"
	"togetherly/pkg/logger"
)

// ErrScorerNotConfigured is returned by Score when no credential is set.
var ErrScorerNotConfigured = errors.New("toxicity scorer not configured")

const (
	AttributeToxicity       = "TOXICITY"
	AttributeSevereToxicity = "SEVERE_TOXICITY"
	AttributeInsult         = "INSULT"
	AttributeThreat         = "THREAT"
	AttributeSexualExplicit = "SEXUAL_EXPLICIT"
)

var requestedAttributes = []string{
	AttributeToxicity,
	AttributeSevereToxicity,
	AttributeInsult,
	AttributeThreat,
	AttributeSexualExplicit,
}

type ToxicityScorer interface {
	Score(ctx context.Context, text string) (*entity.ModerationScores, error)
}

// PerspectiveScorer calls the Perspective comment analyzer over HTTP.
type PerspectiveScorer struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

func NewPerspectiveScorer(apiKey, endpoint string, timeout time.Duration) *PerspectiveScorer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PerspectiveScorer{
		apiKey:     strings.TrimSpace(apiKey),
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *PerspectiveScorer) Configured() bool {
	return s.apiKey != ""
}

type perspectiveRequest struct {
	Comment             perspectiveComment  `json:"comment"`
	Languages           []string            `json:"languages"`
	RequestedAttributes map[string]struct{} `json:"requestedAttributes"`
}

type perspectiveComment struct {
	Text string `json:"text"`
}

type perspectiveResponse struct {
	AttributeScores map[string]struct {
		SummaryScore *struct {
			Value json.RawMessage `json:"value"`
		} `json:"summaryScore"`
	} `json:"attributeScores"`
}

func newPerspectiveRequest(text string) perspectiveRequest {
	attrs := make(map[string]struct{}, len(requestedAttributes))
	for _, name := range requestedAttributes {
		attrs[name] = struct{}{}
	}
	return perspectiveRequest{
		Comment:             perspectiveComment{Text: text},
		Languages:           []string{"en"},
		RequestedAttributes: attrs,
	}
}

func (s *PerspectiveScorer) Score(ctx context.Context, text string) (*entity.ModerationScores, error) {
	if !s.Configured() {
		return nil, ErrScorerNotConfigured
	}

	ctx, span := otel.Tracer("togetherly/perspective").Start(ctx, "perspective.analyze")
	defer span.End()

	jsonData, err := json.Marshal(newPerspectiveRequest(text))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid perspective endpoint: %w", err)
	}
	query := endpoint.Query()
	query.Set("key", s.apiKey)
	endpoint.RawQuery = query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, "unexpected status")
		logger.Warn("Perspective API error: status=%d body=%s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("perspective API error: status %d", resp.StatusCode)
	}

	var parsed perspectiveResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	scores := &entity.ModerationScores{
		Toxicity:       parsed.score(AttributeToxicity),
		SevereToxicity: parsed.score(AttributeSevereToxicity),
		Insult:         parsed.score(AttributeInsult),
		Threat:         parsed.score(AttributeThreat),
		SexualExplicit: parsed.score(AttributeSexualExplicit),
	}
	return scores, nil
}

// score returns nil when the attribute is absent, null, or not a finite
// number.
func (r *perspectiveResponse) score(name string) *float64 {
	attr, ok := r.AttributeScores[name]
	if !ok || attr.SummaryScore == nil || len(attr.SummaryScore.Value) == 0 {
		return nil
	}

	raw := bytes.TrimSpace(attr.SummaryScore.Value)
	if bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return nil
		}
		value = parsed
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}
	return &value
}
