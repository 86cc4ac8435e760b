package memory_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sandevgo/vitalbot/internal/core"
	"github.com/sandevgo/vitalbot/internal/providers/llm"
	"github.com/sandevgo/vitalbot/internal/service/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	anthropicReply = `{
		"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-test",
		"content": [{"type": "text", "text": "Enjoys swimming on weekends"}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 20, "output_tokens": 5}
	}`
	openAIReply = `{
		"id": "c1", "object": "chat.completion", "created": 1, "model": "gpt-test",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "Enjoys swimming on weekends"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 20, "completion_tokens": 5, "total_tokens": 25}
	}`
)

func summaryServer(t *testing.T, path, reply string, hits *atomic.Int32, body *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, path, r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		*body = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestModelSummarizer_ReachesClients(t *testing.T) {
	created := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	inputs := []core.Highlight{
		{Field: core.FieldExercisePreferences, Value: "I love swimming on sundays", CreatedAt: created},
	}

	tests := []struct {
		name   string
		path   string
		reply  string
		client func(baseURL string) core.ModelClient
	}{
		{
			name:  "anthropic",
			path:  "/v1/messages",
			reply: anthropicReply,
			client: func(baseURL string) core.ModelClient {
				return llm.NewAnthropic(llm.Options{BaseURL: baseURL, APIKey: "test", Model: "claude-test"})
			},
		},
		{
			name:  "openai",
			path:  "/v1/chat/completions",
			reply: openAIReply,
			client: func(baseURL string) core.ModelClient {
				return llm.NewOpenAI(llm.Options{BaseURL: baseURL + "/v1/", APIKey: "test", Model: "gpt-test"})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			var body string
			srv := summaryServer(t, tt.path, tt.reply, &hits, &body)

			s := memory.NewModelSummarizer(tt.client(srv.URL), 5*time.Second)
			got, err := s.Summarize(context.Background(), core.FieldExercisePreferences, inputs)
			require.NoError(t, err)

			assert.Equal(t, int32(1), hits.Load())
			assert.Contains(t, got, ": Enjoys swimming on weekends")

			var req struct {
				Messages []struct {
					Role string `json:"role"`
				} `json:"messages"`
			}
			require.NoError(t, json.Unmarshal([]byte(body), &req))
			require.NotEmpty(t, req.Messages)
			assert.Equal(t, "user", req.Messages[len(req.Messages)-1].Role)
			assert.Contains(t, body, "swimming on sundays")
		})
	}
}
