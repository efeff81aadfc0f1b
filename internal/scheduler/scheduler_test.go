package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/cascade/internal/artifact"
)

func TestComputeWorkflow(t *testing.T) {
	testCases := []struct {
		name                string
		artifacts           artifact.Set
		expectedBatches     [][]string
		expectedUnprocessed []string
	}{
		{
			name: "no dependencies schedule in one batch",
			artifacts: artifact.NewSet(
				artifact.New("/c", true),
				artifact.New("/a", true),
				artifact.New("/b", false),
			),
			expectedBatches:     [][]string{{"/a", "/c"}},
			expectedUnprocessed: []string{},
		},
		{
			name: "two node cycle",
			artifacts: artifact.NewSet(
				artifact.New("/a", true, "/b"),
				artifact.New("/b", true, "/a"),
			),
			expectedBatches:     [][]string{},
			expectedUnprocessed: []string{"/a", "/b"},
		},
		{
			name: "self dependency is a cycle of one",
			artifacts: artifact.NewSet(
				artifact.New("/a", true, "/a"),
			),
			expectedBatches:     [][]string{},
			expectedUnprocessed: []string{"/a"},
		},
		{
			name: "staleness propagates to unchanged dependents",
			artifacts: artifact.NewSet(
				artifact.New("/a", false, "/b"),
				artifact.New("/b", true),
			),
			expectedBatches:     [][]string{{"/b"}, {"/a"}},
			expectedUnprocessed: []string{},
		},
		{
			name: "dangling dependency",
			artifacts: artifact.NewSet(
				artifact.New("/a", true, "/z"),
				artifact.New("/b", true),
			),
			expectedBatches:     [][]string{{"/b"}},
			expectedUnprocessed: []string{"/a"},
		},
		{
			name: "unchanged graph needs nothing",
			artifacts: artifact.NewSet(
				artifact.New("/a", false, "/b", "/c"),
				artifact.New("/b", false, "/c"),
				artifact.New("/c", false),
			),
			expectedBatches:     [][]string{},
			expectedUnprocessed: []string{},
		},
		{
			name: "unchanged layers are settled without a batch",
			artifacts: artifact.NewSet(
				artifact.New("/leaf", false),
				artifact.New("/mid", false, "/leaf"),
				artifact.New("/top", true, "/mid"),
			),
			expectedBatches:     [][]string{{"/top"}},
			expectedUnprocessed: []string{},
		},
		{
			name: "diamond",
			artifacts: artifact.NewSet(
				artifact.New("/base", true),
				artifact.New("/left", false, "/base"),
				artifact.New("/right", false, "/base"),
				artifact.New("/top", false, "/left", "/right"),
			),
			expectedBatches:     [][]string{{"/base"}, {"/left", "/right"}, {"/top"}},
			expectedUnprocessed: []string{},
		},
		{
			name: "dependent of a cycle is left over",
			artifacts: artifact.NewSet(
				artifact.New("/a", true, "/b"),
				artifact.New("/b", false, "/a"),
				artifact.New("/c", false, "/a"),
				artifact.New("/d", true),
			),
			expectedBatches:     [][]string{{"/d"}},
			expectedUnprocessed: []string{"/a", "/b", "/c"},
		},
		{
			name:                "empty set",
			artifacts:           artifact.NewSet(),
			expectedBatches:     [][]string{},
			expectedUnprocessed: []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			wf := ComputeWorkflow(tc.artifacts)

			assert.Equal(t, tc.expectedBatches, wf.Batches)
			assert.Equal(t, tc.expectedUnprocessed, wf.Unprocessed)
		})
	}
}

func TestComputeWorkflow_DoesNotMutateInput(t *testing.T) {
	// --- Arrange ---
	a := artifact.New("/a", false, "/b")
	b := artifact.New("/b", true)
	set := artifact.NewSet(a, b)

	// --- Act ---
	wf := ComputeWorkflow(set)

	// --- Assert ---
	require.Len(t, wf.Batches, 2)
	assert.False(t, a.HasChanges)
	assert.Equal(t, []string{"/b"}, a.Dependencies)
	assert.Len(t, set, 2)
}

func TestComputeWorkflow_BatchesAreIndependent(t *testing.T) {
	set := artifact.NewSet(
		artifact.New("/1", true),
		artifact.New("/2", true, "/1"),
		artifact.New("/3", true, "/1"),
		artifact.New("/4", true, "/2", "/3"),
		artifact.New("/5", false, "/4"),
		artifact.New("/6", true),
	)

	wf := ComputeWorkflow(set)

	seen := make(map[string]int)
	for i, batch := range wf.Batches {
		for _, p := range batch {
			_, dup := seen[p]
			require.False(t, dup, "path %s scheduled twice", p)
			seen[p] = i
		}
	}
	for p, i := range seen {
		for _, d := range set[p].Dependencies {
			if j, ok := seen[d]; ok {
				assert.Less(t, j, i, "%s must run after %s", p, d)
			}
		}
	}
	assert.Equal(t, 6, wf.Len())
	assert.Empty(t, wf.Unprocessed)
}

func TestExplain(t *testing.T) {
	set := artifact.NewSet(
		artifact.New("/a", true, "/b"),
		artifact.New("/b", true, "/a"),
		artifact.New("/c", true, "/a"),
		artifact.New("/d", true, "/gone", "/also-gone"),
		artifact.New("/e", true),
	)
	wf := ComputeWorkflow(set)
	require.Equal(t, []string{"/a", "/b", "/c", "/d"}, wf.Unprocessed)

	issues := Explain(set, wf.Unprocessed)

	assert.Equal(t, []Issue{
		{Path: "/a", Reason: ReasonCycle, Related: []string{"/a", "/b", "/a"}, Blocks: []string{"/b", "/c"}},
		{Path: "/b", Reason: ReasonCycle, Related: []string{"/b", "/a", "/b"}, Blocks: []string{"/a"}},
		{Path: "/c", Reason: ReasonBlocked, Related: []string{"/a"}},
		{Path: "/d", Reason: ReasonMissingDependency, Related: []string{"/also-gone", "/gone"}},
	}, issues)
}

func TestExplain_SelfDependency(t *testing.T) {
	set := artifact.NewSet(
		artifact.New("/a", true, "/a"),
		artifact.New("/b", false, "/a"),
	)
	wf := ComputeWorkflow(set)
	require.Equal(t, []string{"/a", "/b"}, wf.Unprocessed)

	issues := Explain(set, wf.Unprocessed)

	assert.Equal(t, []Issue{
		{Path: "/a", Reason: ReasonCycle, Related: []string{"/a", "/a"}, Blocks: []string{"/b"}},
		{Path: "/b", Reason: ReasonBlocked, Related: []string{"/a"}},
	}, issues)
}

func TestExplain_Nothing(t *testing.T) {
	assert.Nil(t, Explain(artifact.NewSet(), nil))
}
