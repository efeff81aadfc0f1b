package socketio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/cascade/internal/ctxlog"
	"github.com/specialistvlad/cascade/internal/progress"
)

func TestParseInput(t *testing.T) {
	testCases := []struct {
		name      string
		input     Input
		expected  *settings
		expectErr string
	}{
		{
			name:  "defaults",
			input: Input{URL: "http://localhost:3000"},
			expected: &settings{
				baseURL: "http://localhost:3000", namespace: "/", event: defaultEvent, timeout: defaultTimeout,
			},
		},
		{
			name:  "everything set",
			input: Input{URL: "https://hub.example.com/ws/", Namespace: "/builds", Event: "progress", Timeout: "2s", InsecureSkipVerify: true},
			expected: &settings{
				baseURL: "https://hub.example.com", path: "/ws/", namespace: "/builds", event: "progress", timeout: 2 * time.Second, insecure: true,
			},
		},
		{name: "relative url", input: Input{URL: "/socket"}, expectErr: "must be absolute"},
		{name: "bad timeout", input: Input{URL: "http://x", Timeout: "later"}, expectErr: "invalid timeout"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseInput(&tc.input)
			if tc.expectErr != "" {
				require.ErrorContains(t, err, tc.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestEncodeEvent(t *testing.T) {
	data, err := encodeEvent(progress.Event{Kind: progress.KindBatchComplete, RunID: "r", Seq: 3, Batch: 1, Paths: []string{"/a"}})

	require.NoError(t, err)
	assert.Equal(t, "batch-complete", data["kind"])
	assert.Equal(t, "r", data["run_id"])
	assert.EqualValues(t, 3, data["seq"])
	assert.Equal(t, []any{"/a"}, data["paths"])
}

func TestDial_InvalidInput(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	_, err := Dial(ctx, &Input{URL: "::"})
	require.Error(t, err)
}

func TestRelay_ClosedPublishFails(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	r := &Relay{event: defaultEvent}

	require.NoError(t, r.Close())
	require.ErrorContains(t, r.Publish(ctx, progress.Event{Kind: progress.KindRunComplete}), "closed")
}
