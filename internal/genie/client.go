package genie

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fieldline-ai/genie-bridge/internal/model"
	"github.com/fieldline-ai/genie-bridge/pkg/logger"
	"github.com/fieldline-ai/genie-bridge/pkg/metrics"
)

// SpaceChecker validates space IDs against the local registry.
type SpaceChecker interface {
	Contains(spaceID string) bool
	Get(spaceID string) (*model.Space, bool)
}

// EventSink receives question lifecycle notifications. Implementations must
// be safe for concurrent use; a nil sink disables events.
type EventSink interface {
	QuestionCompleted(ctx context.Context, ans *model.Answer)
	QuestionFailed(ctx context.Context, spaceID, conversationID, messageID string, cause error)
}

// Options tunes the polling loop and retry policy.
type Options struct {
	// PollInterval is the delay between status checks.
	PollInterval time.Duration
	// PollTimeout bounds the whole polling loop. On expiry the client
	// returns a timeout error carrying the conversation and message IDs;
	// the remote question keeps running.
	PollTimeout time.Duration
	// MaxRetries bounds transport-error retries per idempotent call.
	MaxRetries int
}

// withDefaults fills unset options.
func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = 3 * time.Second
	}
	if o.PollTimeout <= 0 {
		o.PollTimeout = 90 * time.Second
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	return o
}

// Client orchestrates the conversation lifecycle: start or follow up, poll
// to a terminal status, fetch and normalize the result. It holds no
// per-conversation state; conversation identity is carried by the caller,
// so a single Client serves concurrent questions.
type Client struct {
	gateway Gateway
	spaces  SpaceChecker
	events  EventSink
	logger  *logger.Logger
	opts    Options
	tracer  trace.Tracer
}

// NewClient creates a lifecycle client. events may be nil.
func NewClient(gw Gateway, spaces SpaceChecker, events EventSink, log *logger.Logger, opts Options) *Client {
	return &Client{
		gateway: gw,
		spaces:  spaces,
		events:  events,
		logger:  log,
		opts:    opts.withDefaults(),
		tracer:  otel.Tracer("genie-bridge/genie"),
	}
}

// Ask starts a new conversation in a space and blocks until the answer is
// ready or the polling deadline elapses. Two identical asks open two
// independent remote conversations; the service treats each as a new turn.
func (c *Client) Ask(ctx context.Context, spaceID, question string) (*model.Answer, error) {
	ctx, span := c.tracer.Start(ctx, "genie.ask",
		trace.WithAttributes(attribute.String("genie.space_id", spaceID)))
	defer span.End()

	if !c.spaces.Contains(spaceID) {
		err := newError(KindUnknownSpace, "space %q is not registered", spaceID)
		span.SetStatus(codes.Error, err.Message)
		return nil, err
	}

	// The conversation-creating POST is not retried: a blind retry could
	// open a second remote conversation.
	conversationID, messageID, err := c.gateway.StartConversation(ctx, spaceID, question)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	c.logger.Info("conversation started",
		zap.String("space_id", spaceID),
		zap.String("conversation_id", conversationID),
		zap.String("message_id", messageID),
	)
	span.SetAttributes(attribute.String("genie.conversation_id", conversationID))

	return c.await(ctx, span, spaceID, conversationID, messageID)
}

// FollowUp asks another question on an existing conversation. The caller
// supplies the conversation ID returned by a prior Ask or FollowUp.
func (c *Client) FollowUp(ctx context.Context, spaceID, conversationID, question string) (*model.Answer, error) {
	ctx, span := c.tracer.Start(ctx, "genie.follow_up", trace.WithAttributes(
		attribute.String("genie.space_id", spaceID),
		attribute.String("genie.conversation_id", conversationID),
	))
	defer span.End()

	messageID, err := c.gateway.CreateMessage(ctx, spaceID, conversationID, question)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	c.logger.Info("follow-up sent",
		zap.String("space_id", spaceID),
		zap.String("conversation_id", conversationID),
		zap.String("message_id", messageID),
	)

	return c.await(ctx, span, spaceID, conversationID, messageID)
}

// DescribeSpace returns metadata for a registered space, enriched with the
// live description from the remote service when reachable. The registry
// copy is the fallback so the tool contract survives remote hiccups.
func (c *Client) DescribeSpace(ctx context.Context, spaceID string) (*model.Space, error) {
	local, ok := c.spaces.Get(spaceID)
	if !ok {
		return nil, newError(KindUnknownSpace, "space %q is not registered", spaceID)
	}

	remote, err := c.gateway.GetSpace(ctx, spaceID)
	if err != nil {
		c.logger.Warn("space metadata fetch failed, serving registry entry",
			zap.String("space_id", spaceID),
			zap.Error(err),
		)
		return local, nil
	}
	if remote.Title == "" {
		remote.Title = local.Title
	}
	if remote.Description == "" {
		remote.Description = local.Description
	}
	return remote, nil
}

// await polls the message until a terminal status or the deadline, then
// collects the answer. The deadline check is cooperative: once per poll.
func (c *Client) await(ctx context.Context, span trace.Span, spaceID, conversationID, messageID string) (*model.Answer, error) {
	start := time.Now()
	deadline := start.Add(c.opts.PollTimeout)

	metrics.ActivePolls.Inc()
	defer metrics.ActivePolls.Dec()

	ans, err := c.pollUntilTerminal(ctx, deadline, spaceID, conversationID, messageID)

	outcome := "completed"
	if err != nil {
		outcome = string(KindTransport)
		if e := AsError(err); e != nil {
			outcome = string(e.Kind)
		}
		span.SetStatus(codes.Error, err.Error())
		if c.events != nil {
			c.events.QuestionFailed(ctx, spaceID, conversationID, messageID, err)
		}
	} else if c.events != nil {
		c.events.QuestionCompleted(ctx, ans)
	}
	metrics.ObserveQuestion(spaceID, outcome, time.Since(start).Seconds())

	return ans, err
}

func (c *Client) pollUntilTerminal(ctx context.Context, deadline time.Time, spaceID, conversationID, messageID string) (*model.Answer, error) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			// Caller abandoned the poll. The remote question keeps running;
			// return the IDs so it can be resumed.
			return nil, &Error{
				Kind:           KindTimeout,
				Message:        "polling abandoned by caller",
				ConversationID: conversationID,
				MessageID:      messageID,
				Err:            ctx.Err(),
			}
		case <-timer.C:
		}

		msg, err := c.getMessage(ctx, spaceID, conversationID, messageID)
		if err != nil {
			return nil, withIDs(err, conversationID, messageID)
		}
		metrics.PollsTotal.Inc()

		c.logger.Debug("poll", zap.String("message_id", messageID), zap.String("status", string(msg.Status)))

		switch {
		case msg.Status == model.StatusCompleted:
			ans, err := c.collect(ctx, msg)
			if err != nil {
				return nil, withIDs(err, conversationID, messageID)
			}
			return ans, nil
		case msg.Status.Terminal():
			return nil, &Error{
				Kind:           KindQueryFailed,
				Message:        "remote reported status " + string(msg.Status),
				ConversationID: conversationID,
				MessageID:      messageID,
				Status:         msg.Status,
			}
		}

		if !time.Now().Add(c.opts.PollInterval).Before(deadline) {
			return nil, &Error{
				Kind:           KindTimeout,
				Message:        "no terminal status within " + c.opts.PollTimeout.String(),
				ConversationID: conversationID,
				MessageID:      messageID,
			}
		}
		timer.Reset(c.opts.PollInterval)
	}
}

// collect turns a COMPLETED message into an Answer. A message without a
// query attachment yields the textual answer alone.
func (c *Client) collect(ctx context.Context, msg *model.Message) (*model.Answer, error) {
	ans := &model.Answer{
		ConversationID: msg.ConversationID,
		MessageID:      msg.ID,
		SpaceID:        msg.SpaceID,
	}

	att := msg.Answer()
	if att == nil {
		return ans, nil
	}
	ans.Text = att.Text
	if att.Query == "" {
		return ans, nil
	}

	raw, err := c.getQueryResult(ctx, msg.SpaceID, msg.ConversationID, msg.ID, att.AttachmentID)
	if err != nil {
		return nil, err
	}
	result, err := Normalize(att.Query, raw)
	if err != nil {
		return nil, err
	}
	ans.Result = result
	return ans, nil
}

// getMessage is the status poll with transport-error retries.
func (c *Client) getMessage(ctx context.Context, spaceID, conversationID, messageID string) (*model.Message, error) {
	var msg *model.Message
	err := c.retry(ctx, func() error {
		m, err := c.gateway.GetMessage(ctx, spaceID, conversationID, messageID)
		if err != nil {
			return err
		}
		msg = m
		return nil
	})
	return msg, err
}

// getQueryResult is the result fetch with transport-error retries.
func (c *Client) getQueryResult(ctx context.Context, spaceID, conversationID, messageID, attachmentID string) (raw []byte, err error) {
	err = c.retry(ctx, func() error {
		r, err := c.gateway.GetQueryResult(ctx, spaceID, conversationID, messageID, attachmentID)
		if err != nil {
			return err
		}
		raw = r
		return nil
	})
	return raw, err
}

// retry runs op, retrying transport failures with exponential backoff up to
// MaxRetries. Structural failures (auth, not_found, malformed payloads) are
// surfaced immediately.
func (c *Client) retry(ctx context.Context, op func() error) error {
	attempt := 0
	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !IsKind(err, KindTransport) {
			return backoff.Permanent(err)
		}
		attempt++
		metrics.RetriesTotal.Inc()
		c.logger.Warn("transient gateway failure, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second

	return backoff.Retry(wrapped, backoff.WithContext(
		backoff.WithMaxRetries(bo, uint64(c.opts.MaxRetries)), ctx))
}

// withIDs stamps conversation and message IDs onto a typed error that does
// not carry them yet, so callers can always resume after partial failures.
// A raw context error (a backoff sleep interrupted by cancellation) is typed
// as timeout first.
func withIDs(err error, conversationID, messageID string) error {
	if AsError(err) == nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		err = &Error{Kind: KindTimeout, Message: "polling abandoned by caller", Err: err}
	}
	if e := AsError(err); e != nil {
		if e.ConversationID == "" {
			e.ConversationID = conversationID
		}
		if e.MessageID == "" {
			e.MessageID = messageID
		}
	}
	return err
}
