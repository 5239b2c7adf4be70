package genie

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline-ai/genie-bridge/pkg/logger"
)

// newTestGateway points an HTTPGateway at a test server.
func newTestGateway(srv *httptest.Server) *HTTPGateway {
	gw := NewHTTPGateway("workspace.example.com", "test-token", logger.NewNop())
	gw.baseURL = srv.URL + "/api/2.0/genie/spaces"
	gw.httpc = srv.Client()
	return gw
}

func TestGatewayBaseURLPrefixesScheme(t *testing.T) {
	gw := NewHTTPGateway("workspace.example.com/", "tok", logger.NewNop())
	assert.Equal(t, "https://workspace.example.com/api/2.0/genie/spaces", gw.baseURL)
}

func TestStartConversation(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"conversation":{"id":"conv-42"},"message":{"id":"msg-7"}}`))
	}))
	defer srv.Close()

	gw := newTestGateway(srv)
	conversationID, messageID, err := gw.StartConversation(context.Background(), "space-1", "top products?")
	require.NoError(t, err)

	assert.Equal(t, "conv-42", conversationID)
	assert.Equal(t, "msg-7", messageID)
	assert.Equal(t, "/api/2.0/genie/spaces/space-1/start-conversation", gotPath)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, map[string]string{"content": "top products?"}, gotBody)
}

func TestCreateMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.0/genie/spaces/space-1/conversations/conv-42/messages", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"id":"msg-8"}`))
	}))
	defer srv.Close()

	gw := newTestGateway(srv)
	messageID, err := gw.CreateMessage(context.Background(), "space-1", "conv-42", "and last year?")
	require.NoError(t, err)
	assert.Equal(t, "msg-8", messageID)
}

func TestGetMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.0/genie/spaces/space-1/conversations/conv-42/messages/msg-7", r.URL.Path)
		w.Write([]byte(`{"id":"msg-7","status":"COMPLETED","attachments":[{"attachment_id":"att-1","text":"here you go","query":"SELECT 1"}]}`))
	}))
	defer srv.Close()

	gw := newTestGateway(srv)
	msg, err := gw.GetMessage(context.Background(), "space-1", "conv-42", "msg-7")
	require.NoError(t, err)

	assert.Equal(t, "COMPLETED", string(msg.Status))
	assert.Equal(t, "conv-42", msg.ConversationID)
	assert.Equal(t, "space-1", msg.SpaceID)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "SELECT 1", msg.Attachments[0].Query)
}

func TestGetMessageMissingStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"msg-7"}`))
	}))
	defer srv.Close()

	gw := newTestGateway(srv)
	_, err := gw.GetMessage(context.Background(), "space-1", "conv-42", "msg-7")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindMalformedResponse))
}

func TestGetQueryResultPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t,
			"/api/2.0/genie/spaces/space-1/conversations/conv-42/messages/msg-7/query-result/att-1",
			r.URL.Path)
		w.Write([]byte(`{"statement_response":{"result":{"data_array":[]}}}`))
	}))
	defer srv.Close()

	gw := newTestGateway(srv)
	raw, err := gw.GetQueryResult(context.Background(), "space-1", "conv-42", "msg-7", "att-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"statement_response":{"result":{"data_array":[]}}}`, string(raw))
}

func TestGetSpace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.0/genie/spaces/space-1", r.URL.Path)
		w.Write([]byte(`{"space_id":"space-1","title":"Sales","description":"sales data"}`))
	}))
	defer srv.Close()

	gw := newTestGateway(srv)
	space, err := gw.GetSpace(context.Background(), "space-1")
	require.NoError(t, err)
	assert.Equal(t, "Sales", space.Title)
}

func TestStatusTranslation(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		kind   Kind
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error_code":"UNAUTHENTICATED","message":"bad token"}`, KindAuth},
		{"forbidden", http.StatusForbidden, `{}`, KindAuth},
		{"not found", http.StatusNotFound, `{"error_code":"RESOURCE_DOES_NOT_EXIST","message":"no such space"}`, KindNotFound},
		{"bad request", http.StatusBadRequest, `{"message":"message is not completed"}`, KindInvalidState},
		{"conflict", http.StatusConflict, `{}`, KindInvalidState},
		{"server error", http.StatusInternalServerError, `boom`, KindTransport},
		{"bad gateway", http.StatusBadGateway, ``, KindTransport},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			gw := newTestGateway(srv)
			_, _, err := gw.StartConversation(context.Background(), "space-1", "q")
			require.Error(t, err)
			assert.True(t, IsKind(err, tc.kind), "expected kind %s, got %v", tc.kind, err)
		})
	}
}

func TestCancelledContextIsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"conversation":{"id":"c"},"message":{"id":"m"}}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gw := newTestGateway(srv)
	_, _, err := gw.StartConversation(ctx, "space-1", "q")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTimeout), "caller abandonment must be typed, got %v", err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNetworkErrorIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // immediately, so the dial fails

	gw := newTestGateway(srv)
	_, _, err := gw.StartConversation(context.Background(), "space-1", "q")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTransport))
}
