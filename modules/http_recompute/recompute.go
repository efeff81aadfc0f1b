package http_recompute

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/specialistvlad/cascade/internal/ctxlog"
	"github.com/specialistvlad/cascade/internal/executor"
	"github.com/specialistvlad/cascade/internal/source"
)

// maxErrorBody bounds how much of a failed response ends up in the error.
const maxErrorBody = 512

// Recomputer calls the build service.
type Recomputer struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// New validates the input and creates the driver.
func New(in *Input) (*Recomputer, error) {
	u, err := url.Parse(in.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("url %q must be an absolute http(s) URL", in.URL)
	}
	client, err := newHTTPClient(in.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout %q: %w", in.Timeout, err)
	}
	return &Recomputer{url: in.URL, headers: in.Headers, client: client}, nil
}

// request is the JSON body sent for every artifact.
type request struct {
	RunID    string            `json:"run_id"`
	Path     string            `json:"path"`
	Kind     string            `json:"kind"`
	Content  string            `json:"content"`
	Meta     map[string]any    `json:"meta,omitempty"`
	Upstream map[string]string `json:"upstream,omitempty"`
}

// response is what the service answers with.
type response struct {
	Output     string `json:"output"`
	OutputPath string `json:"output_path"`
	Detail     string `json:"detail"`
}

func newRequest(req *executor.Request) request {
	body := request{RunID: req.RunID, Path: req.Artifact.Path}
	if pl, ok := req.Artifact.Payload.(*source.Payload); ok {
		body.Kind = pl.Kind.String()
		body.Content = string(pl.Body)
		if pl.Header != nil {
			body.Meta = pl.Header.Meta
		}
	}
	if len(req.Upstream) > 0 {
		body.Upstream = make(map[string]string, len(req.Upstream))
		for p, r := range req.Upstream {
			body.Upstream[p] = string(r.Output)
		}
	}
	return body
}

func (r *Recomputer) Recompute(ctx context.Context, req *executor.Request) (*executor.Result, error) {
	logger := ctxlog.FromContext(ctx)

	payload, err := json.Marshal(newRequest(req))
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range r.headers {
		httpReq.Header.Set(k, v)
	}

	logger.Debug("Posting artifact to build service.", "url", r.url, "bytes", len(payload))
	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("build service returned %s: %s", resp.Status, bytes.TrimSpace(snippet))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode build service response: %w", err)
	}
	logger.Debug("Received build service response.", "status", resp.Status, "bytes", len(out.Output))

	return &executor.Result{
		OutputPath: out.OutputPath,
		Output:     []byte(out.Output),
		Detail:     out.Detail,
	}, nil
}
