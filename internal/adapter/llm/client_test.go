package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenolt/chatrelay/internal/domain"
)

func completionServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "chat/completions") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOpenAIClientComplete(t *testing.T) {
	server := completionServer(t, http.StatusOK, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"created": 1700000000,
		"model": "gpt-3.5-turbo",
		"choices": [{
			"index": 0,
			"message": {"role": "assistant", "content": "Bonjour"},
			"finish_reason": "stop"
		}]
	}`)

	client := NewOpenAIClient("test-key", server.URL, "gpt-3.5-turbo", 0.7)
	reply, err := client.Complete(context.Background(), []domain.Turn{
		{Role: domain.RoleSystem, Content: "Reply in French."},
		{Role: domain.RoleUser, Content: "hello"},
	})
	require.NoError(t, err)
	require.Equal(t, "Bonjour", reply)
}

func TestOpenAIClientServerErrorIsRetryable(t *testing.T) {
	server := completionServer(t, http.StatusInternalServerError,
		`{"error": {"message": "upstream exploded", "type": "server_error"}}`)

	client := NewOpenAIClient("test-key", server.URL, "gpt-3.5-turbo", 0.7)
	_, err := client.Complete(context.Background(), []domain.Turn{
		{Role: domain.RoleUser, Content: "hello"},
	})
	require.Error(t, err)

	var modelErr *domain.ModelError
	require.ErrorAs(t, err, &modelErr)
	require.True(t, modelErr.Retryable)
}

func TestOpenAIClientBadRequestIsTerminal(t *testing.T) {
	server := completionServer(t, http.StatusBadRequest,
		`{"error": {"message": "bad request", "type": "invalid_request_error"}}`)

	client := NewOpenAIClient("test-key", server.URL, "gpt-3.5-turbo", 0.7)
	_, err := client.Complete(context.Background(), []domain.Turn{
		{Role: domain.RoleUser, Content: "hello"},
	})

	var modelErr *domain.ModelError
	require.ErrorAs(t, err, &modelErr)
	require.False(t, modelErr.Retryable)
}

func TestMockClientRecordsContexts(t *testing.T) {
	m := NewMockClient()
	m.Reply = "ok"

	reply, err := m.Complete(context.Background(), []domain.Turn{
		{Role: domain.RoleUser, Content: "hi"},
	})
	require.NoError(t, err)
	require.Equal(t, "ok", reply)
	require.Len(t, m.Calls(), 1)
}

func TestMockClientConfiguredError(t *testing.T) {
	m := NewMockClient()
	m.Err = domain.NewModelError(errors.New("boom"), false)

	_, err := m.Complete(context.Background(), nil)
	require.Error(t, err)
}

func TestFactoryMockMode(t *testing.T) {
	t.Setenv(EnvRelayMode, ModeMock)

	client := NewModelClient("", "", "gpt-3.5-turbo", 0.7, zap.NewNop())
	_, ok := client.(*MockClient)
	require.True(t, ok)
}

func TestFactoryRealMode(t *testing.T) {
	t.Setenv(EnvRelayMode, "")

	client := NewModelClient("key", "", "gpt-3.5-turbo", 0.7, zap.NewNop())
	_, ok := client.(*OpenAIClient)
	require.True(t, ok)
}
