package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerspectiveScorer_NotConfigured(t *testing.T) {
	scorer := NewPerspectiveScorer("  ", "http://unused.invalid", time.Second)

	assert.False(t, scorer.Configured())
	_, err := scorer.Score(context.Background(), "hello")
	assert.True(t, errors.Is(err, ErrScorerNotConfigured))
}

func TestPerspectiveScorer_RequestAndParsing(t *testing.T) {
	var gotBody map[string]interface{}
	var gotKey string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"attributeScores": {
				"TOXICITY": {"summaryScore": {"value": 0.91, "type": "PROBABILITY"}},
				"SEVERE_TOXICITY": {"summaryScore": {"value": "0.25"}},
				"INSULT": {"summaryScore": {"value": "not-a-number"}},
				"THREAT": {},
				"SEXUAL_EXPLICIT": {"summaryScore": {"value": null}}
			}
		}`))
	}))
	defer server.Close()

	scorer := NewPerspectiveScorer("secret", server.URL, time.Second)
	scores, err := scorer.Score(context.Background(), "some text")
	require.NoError(t, err)

	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, map[string]interface{}{"text": "some text"}, gotBody["comment"])
	assert.Equal(t, []interface{}{"en"}, gotBody["languages"])
	assert.Equal(t, map[string]interface{}{
		"TOXICITY":        map[string]interface{}{},
		"SEVERE_TOXICITY": map[string]interface{}{},
		"INSULT":          map[string]interface{}{},
		"THREAT":          map[string]interface{}{},
		"SEXUAL_EXPLICIT": map[string]interface{}{},
	}, gotBody["requestedAttributes"])

	require.NotNil(t, scores.Toxicity)
	assert.InDelta(t, 0.91, *scores.Toxicity, 1e-9)
	require.NotNil(t, scores.SevereToxicity)
	assert.InDelta(t, 0.25, *scores.SevereToxicity, 1e-9)
	assert.Nil(t, scores.Insult)
	assert.Nil(t, scores.Threat)
	assert.Nil(t, scores.SexualExplicit)
}

func TestPerspectiveScorer_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":429}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	scorer := NewPerspectiveScorer("secret", server.URL, time.Second)
	_, err := scorer.Score(context.Background(), "text")
	assert.Error(t, err)
}

func TestPerspectiveScorer_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	scorer := NewPerspectiveScorer("secret", url, time.Second)
	_, err := scorer.Score(context.Background(), "text")
	assert.Error(t, err)
}

func TestPerspectiveResponse_NullScoreIsAbsent(t *testing.T) {
	var parsed perspectiveResponse
	require.NoError(t, json.Unmarshal([]byte(`{"attributeScores":{
		"TOXICITY": {"summaryScore": {"value": null}},
		"INSULT": {"summaryScore": {"value": 0}}
	}}`), &parsed))

	assert.Nil(t, parsed.score(AttributeToxicity))
	require.NotNil(t, parsed.score(AttributeInsult))
	assert.Equal(t, 0.0, *parsed.score(AttributeInsult))
}
