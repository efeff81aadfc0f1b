// Package upload provides the `deploy "upload"` driver: after every batch,
// each successfully recomputed output is PUT to the hosting target.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/specialistvlad/cascade/internal/ctxlog"
	"github.com/specialistvlad/cascade/internal/deploy"
	"github.com/specialistvlad/cascade/internal/executor"
	"github.com/specialistvlad/cascade/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments of the `deploy "upload"` block.
type Input struct {
	BaseURL string            `hcl:"base_url"`
	Headers map[string]string `hcl:"headers,optional"`
	Timeout string            `hcl:"timeout,optional"`
}

// Register registers the driver with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterDeployer("upload", &registry.DeployDriver{
		NewInput: func() any { return new(Input) },
		New: func(ctx context.Context, input any) (executor.BatchHook, error) {
			in, ok := input.(*Input)
			if !ok {
				return nil, fmt.Errorf("unexpected input type %T", input)
			}
			u, err := New(in)
			if err != nil {
				return nil, err
			}
			return u, nil
		},
	})
}

// Uploader publishes outputs with HTTP PUT.
type Uploader struct {
	base    *url.URL
	headers map[string]string
	client  *http.Client
}

// New validates the input and creates the driver.
func New(in *Input) (*Uploader, error) {
	base, err := url.Parse(in.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base_url %q must be an absolute http(s) URL", in.BaseURL)
	}
	timeout := 30 * time.Second
	if in.Timeout != "" {
		if timeout, err = time.ParseDuration(in.Timeout); err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", in.Timeout, err)
		}
	}
	return &Uploader{base: base, headers: in.Headers, client: &http.Client{Timeout: timeout}}, nil
}

// Target returns the URL an output path is uploaded to.
func (u *Uploader) Target(outputPath string) string {
	t := *u.base
	t.RawPath = ""
	t.Path = strings.TrimSuffix(u.base.Path, "/") + "/" + strings.TrimPrefix(outputPath, "/")
	return t.String()
}

func (u *Uploader) OnBatchComplete(ctx context.Context, b *executor.Batch) error {
	for _, o := range b.Succeeded() {
		if err := u.put(ctx, deploy.OutputPath(o), o.Result.Output); err != nil {
			return fmt.Errorf("upload %s: %w", o.Path, err)
		}
	}
	return nil
}

func (u *Uploader) put(ctx context.Context, outputPath string, body []byte) error {
	logger := ctxlog.FromContext(ctx).With("action", "upload")
	target := u.Target(outputPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}

	contentType := mime.TypeByExtension(path.Ext(outputPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	for k, v := range u.headers {
		req.Header.Set(k, v)
	}
	req.ContentLength = int64(len(body))

	logger.Info("Uploading output", "target", target, "size", len(body), "contentType", contentType)

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute upload request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("upload failed with status: %s", resp.Status)
	}

	logger.Debug("Successfully uploaded output", "status", resp.Status)
	return nil
}
