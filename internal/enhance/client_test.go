package enhance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"cadence/api/internal/config"
)

func newTestClient(t *testing.T, reply string, status int) (*Client, *chatRequest) {
	t.Helper()
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": reply}}},
		})
	}))
	t.Cleanup(srv.Close)

	c := New(config.EnhanceConfig{BaseURL: srv.URL + "/v1/", APIKey: "secret", Model: "test-model"}, zaptest.NewLogger(t))
	return c, &got
}

func TestEnhance(t *testing.T) {
	c, got := newTestClient(t, "  Shipped the search feature.\n", http.StatusOK)

	out, err := c.Enhance(context.Background(), "shipped search")
	require.NoError(t, err)
	assert.Equal(t, "Shipped the search feature.", out)
	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "shipped search", got.Messages[1].Content)
}

func TestSentimentClampsScore(t *testing.T) {
	cases := map[string]float64{
		`{"score": 4.2}`:               4.2,
		"```json\n{\"score\": 9}\n```": 5.0,
		`0.3`:                          1.0,
		`{"score": 3.46}`:              3.5,
	}
	for reply, want := range cases {
		t.Run(reply, func(t *testing.T) {
			c, _ := newTestClient(t, reply, http.StatusOK)
			got, err := c.Sentiment(context.Background(), "team is tired but shipping")
			require.NoError(t, err)
			assert.InDelta(t, want, got, 1e-9)
		})
	}
}

func TestSentimentUnparseable(t *testing.T) {
	c, _ := newTestClient(t, "pretty good", http.StatusOK)
	_, err := c.Sentiment(context.Background(), "ok")
	require.Error(t, err)
}

func TestUpstreamError(t *testing.T) {
	c, _ := newTestClient(t, "", http.StatusBadGateway)
	_, err := c.Enhance(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm status 502")
}

func TestDisabledAndEmpty(t *testing.T) {
	c := New(config.EnhanceConfig{}, nil)
	assert.False(t, c.Enabled())

	_, err := c.Enhance(context.Background(), "text")
	assert.True(t, errors.Is(err, ErrDisabled))

	_, err = c.Sentiment(context.Background(), "   ")
	assert.True(t, errors.Is(err, ErrEmptyText))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, Clamp(-3))
	assert.Equal(t, 5.0, Clamp(7.5))
	assert.Equal(t, 2.5, Clamp(2.5))
}
