// Package enhance wraps the outbound call to the enhancement workflow
// endpoint. The workflow may rewrite a todo's title and description; any
// non-success outcome is reported as a typed error so the caller decides
// what to do with the record.
package enhance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const maxResponseSize = 64 * 1024 // 64 KiB

// Request is the payload sent to the workflow endpoint.
type Request struct {
	TodoID      int64   `json:"todoId"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// Enhancement is the usable content the workflow returned. An empty field
// means the workflow had nothing for it.
type Enhancement struct {
	Title       string
	Description string
}

// Empty reports whether the workflow returned no usable content at all.
func (e Enhancement) Empty() bool {
	return e.Title == "" && e.Description == ""
}

// Kind classifies an enhancement failure.
type Kind string

const (
	KindTimeout Kind = "timeout"
	KindNetwork Kind = "network"
	KindStatus  Kind = "status"
	KindDecode  Kind = "decode"
)

// Error is any non-success outcome of an enhancement call.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("enhancement %s failure: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Client calls the workflow endpoint with a hard per-call deadline.
type Client struct {
	url     string
	timeout time.Duration
	http    *http.Client
	logger  *log.Logger
}

// New creates a Client for the given endpoint. A non-positive timeout
// falls back to 15 seconds.
func New(url string, timeout time.Duration, logger *log.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		url:     url,
		timeout: timeout,
		http:    &http.Client{},
		logger:  logger,
	}
}

type enhanceResponse struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// Enhance posts the todo to the workflow endpoint and returns whatever
// usable content came back. The call is bounded by the client timeout on
// top of any deadline already on ctx.
func (c *Client) Enhance(ctx context.Context, req Request) (Enhancement, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := sonic.Marshal(req)
	if err != nil {
		return Enhancement{}, &Error{Kind: KindDecode, Err: err}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Enhancement{}, &Error{Kind: KindNetwork, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	requestID := uuid.NewString()
	httpReq.Header.Set("X-Request-Id", requestID)

	if c.logger != nil {
		c.logger.WithFields(log.Fields{"todo_id": req.TodoID, "request_id": requestID}).Debug("calling enhancement workflow")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		kind := KindNetwork
		if errors.Is(err, context.DeadlineExceeded) {
			kind = KindTimeout
		}
		return Enhancement{}, &Error{Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return Enhancement{}, &Error{Kind: KindStatus, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var wire enhanceResponse
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(resp.Body, maxResponseSize))
	if err := dec.Decode(&wire); err != nil {
		return Enhancement{}, &Error{Kind: KindDecode, Err: err}
	}

	var out Enhancement
	if wire.Title != nil {
		out.Title = strings.TrimSpace(*wire.Title)
	}
	if wire.Description != nil {
		out.Description = strings.TrimSpace(*wire.Description)
	}
	return out, nil
}
