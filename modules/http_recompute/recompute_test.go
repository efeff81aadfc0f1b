package http_recompute

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/cascade/internal/artifact"
	"github.com/specialistvlad/cascade/internal/ctxlog"
	"github.com/specialistvlad/cascade/internal/executor"
	"github.com/specialistvlad/cascade/internal/frontmatter"
	"github.com/specialistvlad/cascade/internal/route"
	"github.com/specialistvlad/cascade/internal/source"
)

func testRequest() *executor.Request {
	a := artifact.New("/docs/intro.md", true, "/lib/util.ts")
	a.Payload = &source.Payload{
		Path:   "/docs/intro.md",
		Kind:   route.KindContent,
		Body:   []byte("Explain util."),
		Header: &frontmatter.Header{Meta: map[string]any{"model": "small"}},
	}
	return &executor.Request{
		RunID:    "run-1",
		Artifact: a,
		Upstream: map[string]*executor.Result{"/lib/util.ts": {Output: []byte("export {}")}},
	}
}

func TestRecompute_Success(t *testing.T) {
	// --- Arrange ---
	ctx := ctxlog.Discard(context.Background())
	var got request
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"output":"<h1>Intro</h1>","output_path":"/docs/intro.html","detail":"cached"}`))
	}))
	defer srv.Close()

	rc, err := New(&Input{URL: srv.URL + "/build", Timeout: "5s", Headers: map[string]string{"Authorization": "Bearer t"}})
	require.NoError(t, err)

	// --- Act ---
	res, err := rc.Recompute(ctx, testRequest())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "<h1>Intro</h1>", string(res.Output))
	assert.Equal(t, "/docs/intro.html", res.OutputPath)
	assert.Equal(t, "cached", res.Detail)

	assert.Equal(t, "Bearer t", auth)
	assert.Equal(t, request{
		RunID:    "run-1",
		Path:     "/docs/intro.md",
		Kind:     "content",
		Content:  "Explain util.",
		Meta:     map[string]any{"model": "small"},
		Upstream: map[string]string{"/lib/util.ts": "export {}"},
	}, got)
}

func TestRecompute_ServiceErrors(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())

	testCases := []struct {
		name      string
		handler   http.HandlerFunc
		expectErr string
	}{
		{
			name: "non-2xx",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "quota exceeded", http.StatusTooManyRequests)
			},
			expectErr: "429 Too Many Requests: quota exceeded",
		},
		{
			name: "bad json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
			expectErr: "failed to decode",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()
			rc, err := New(&Input{URL: srv.URL})
			require.NoError(t, err)

			_, err = rc.Recompute(ctx, testRequest())

			require.ErrorContains(t, err, tc.expectErr)
		})
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(&Input{URL: "not a url"})
	require.Error(t, err)

	_, err = New(&Input{URL: "http://x", Timeout: "soon"})
	require.ErrorContains(t, err, "invalid timeout")
}

func TestNewRequest_PlainArtifact(t *testing.T) {
	body := newRequest(&executor.Request{Artifact: artifact.New("/raw", true)})
	assert.Equal(t, request{Path: "/raw"}, body)
}
