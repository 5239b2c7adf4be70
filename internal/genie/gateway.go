package genie

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fieldline-ai/genie-bridge/internal/model"
	"github.com/fieldline-ai/genie-bridge/pkg/logger"
	"github.com/fieldline-ai/genie-bridge/pkg/metrics"
)

// Gateway performs the remote Genie API calls. It carries no business
// logic; status polling and retries live in the Client.
type Gateway interface {
	// StartConversation opens a new conversation in a space with an initial
	// question and returns the conversation and message IDs.
	StartConversation(ctx context.Context, spaceID, question string) (conversationID, messageID string, err error)

	// CreateMessage posts a follow-up question on an existing conversation
	// and returns the new message ID.
	CreateMessage(ctx context.Context, spaceID, conversationID, question string) (messageID string, err error)

	// GetMessage fetches the current status and attachments of a message.
	GetMessage(ctx context.Context, spaceID, conversationID, messageID string) (*model.Message, error)

	// GetQueryResult fetches the raw statement result for a completed
	// message attachment. Valid only once the message is COMPLETED with a
	// query attachment.
	GetQueryResult(ctx context.Context, spaceID, conversationID, messageID, attachmentID string) (json.RawMessage, error)

	// GetSpace fetches metadata for a space from the remote service.
	GetSpace(ctx context.Context, spaceID string) (*model.Space, error)
}

// HTTPGateway is the Gateway implementation over the Databricks REST API.
// The underlying http.Client is safe for concurrent use.
type HTTPGateway struct {
	baseURL string
	token   string
	httpc   *http.Client
	logger  *logger.Logger
	tracer  trace.Tracer
}

// NewHTTPGateway creates a gateway for the given workspace host. The host
// must not carry a scheme prefix; the gateway prepends https://.
func NewHTTPGateway(host, token string, log *logger.Logger) *HTTPGateway {
	return &HTTPGateway{
		baseURL: "https://" + strings.TrimSuffix(host, "/") + "/api/2.0/genie/spaces",
		token:   token,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		logger:  log,
		tracer:  otel.Tracer("genie-bridge/gateway"),
	}
}

type startConversationResponse struct {
	Conversation struct {
		ID string `json:"id"`
	} `json:"conversation"`
	Message struct {
		ID string `json:"id"`
	} `json:"message"`
}

// StartConversation implements Gateway.
func (g *HTTPGateway) StartConversation(ctx context.Context, spaceID, question string) (string, string, error) {
	url := fmt.Sprintf("%s/%s/start-conversation", g.baseURL, spaceID)

	var resp startConversationResponse
	if err := g.do(ctx, http.MethodPost, "start_conversation", url, map[string]string{"content": question}, &resp); err != nil {
		return "", "", err
	}
	if resp.Conversation.ID == "" || resp.Message.ID == "" {
		return "", "", newError(KindMalformedResponse, "start-conversation response missing conversation or message id")
	}
	return resp.Conversation.ID, resp.Message.ID, nil
}

// CreateMessage implements Gateway.
func (g *HTTPGateway) CreateMessage(ctx context.Context, spaceID, conversationID, question string) (string, error) {
	url := fmt.Sprintf("%s/%s/conversations/%s/messages", g.baseURL, spaceID, conversationID)

	var resp struct {
		ID string `json:"id"`
	}
	if err := g.do(ctx, http.MethodPost, "create_message", url, map[string]string{"content": question}, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", newError(KindMalformedResponse, "create-message response missing message id")
	}
	return resp.ID, nil
}

// GetMessage implements Gateway.
func (g *HTTPGateway) GetMessage(ctx context.Context, spaceID, conversationID, messageID string) (*model.Message, error) {
	url := fmt.Sprintf("%s/%s/conversations/%s/messages/%s", g.baseURL, spaceID, conversationID, messageID)

	var msg model.Message
	if err := g.do(ctx, http.MethodGet, "get_message", url, nil, &msg); err != nil {
		return nil, err
	}
	if msg.Status == "" {
		return nil, newError(KindMalformedResponse, "message response missing status")
	}
	msg.ConversationID = conversationID
	msg.SpaceID = spaceID
	return &msg, nil
}

// GetQueryResult implements Gateway.
func (g *HTTPGateway) GetQueryResult(ctx context.Context, spaceID, conversationID, messageID, attachmentID string) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/%s/conversations/%s/messages/%s/query-result/%s",
		g.baseURL, spaceID, conversationID, messageID, attachmentID)

	var raw json.RawMessage
	if err := g.do(ctx, http.MethodGet, "get_query_result", url, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// GetSpace implements Gateway.
func (g *HTTPGateway) GetSpace(ctx context.Context, spaceID string) (*model.Space, error) {
	url := fmt.Sprintf("%s/%s", g.baseURL, spaceID)

	var space model.Space
	if err := g.do(ctx, http.MethodGet, "get_space", url, nil, &space); err != nil {
		return nil, err
	}
	if space.ID == "" {
		return nil, newError(KindMalformedResponse, "space response missing space_id")
	}
	return &space, nil
}

// apiError is the Databricks error envelope.
type apiError struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// do performs one authenticated request and decodes the JSON response into
// out. Failures are translated into typed errors by HTTP status.
func (g *HTTPGateway) do(ctx context.Context, method, operation, url string, body, out any) error {
	ctx, span := g.tracer.Start(ctx, "genie.gateway."+operation,
		trace.WithAttributes(attribute.String("http.method", method)))
	defer span.End()

	start := time.Now()
	err := g.roundTrip(ctx, method, url, body, out)
	metrics.ObserveGatewayRequest(operation, errKindLabel(err), time.Since(start).Seconds())

	if err != nil {
		span.SetStatus(otelcodes.Error, err.Error())
		g.logger.Debug("genie api call failed",
			zap.String("operation", operation),
			zap.Error(err),
		)
	}
	return err
}

func (g *HTTPGateway) roundTrip(ctx context.Context, method, url string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return wrapError(KindTransport, err, "encode request body")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return wrapError(KindTransport, err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpc.Do(req)
	if err != nil {
		// Distinguish caller abandonment from a slow remote: only the
		// former maps to timeout, a Client.Timeout expiry stays transport.
		if ctx.Err() != nil {
			return wrapError(KindTimeout, ctx.Err(), "request abandoned: %s %s", method, url)
		}
		return wrapError(KindTransport, err, "%s %s", method, url)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return wrapError(KindTransport, err, "read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return g.statusError(resp.StatusCode, data)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return wrapError(KindMalformedResponse, err, "decode response body")
		}
	}
	return nil
}

// statusError maps an HTTP failure status to a typed error. 400/409 map to
// invalid_state: the Genie API answers those when a query result is
// requested before the message has completed.
func (g *HTTPGateway) statusError(status int, body []byte) *Error {
	var remote apiError
	detail := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &remote) == nil && remote.Message != "" {
		detail = remote.Message
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return newError(KindAuth, "remote rejected credentials (HTTP %d): %s", status, detail)
	case status == http.StatusNotFound:
		return newError(KindNotFound, "remote resource not found: %s", detail)
	case status == http.StatusBadRequest || status == http.StatusConflict:
		return newError(KindInvalidState, "request rejected (HTTP %d): %s", status, detail)
	case status >= 500:
		return newError(KindTransport, "remote failure (HTTP %d): %s", status, detail)
	default:
		return newError(KindTransport, "unexpected HTTP %d: %s", status, detail)
	}
}

// errKindLabel returns the metrics label for an operation outcome.
func errKindLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if e := AsError(err); e != nil {
		return string(e.Kind)
	}
	return "error"
}
