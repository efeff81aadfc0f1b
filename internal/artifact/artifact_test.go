package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet_Queries(t *testing.T) {
	s := NewSet(
		New("/b", true),
		New("/a", false, "/b"),
		New("/c", true, "/b", "/a"),
	)

	assert.Equal(t, []string{"/a", "/b", "/c"}, s.Paths())
	assert.Equal(t, []string{"/b", "/c"}, s.Changed())
}

func TestSet_AddReplaces(t *testing.T) {
	s := NewSet(New("/a", false))
	s.Add(New("/a", true))

	assert.Len(t, s, 1)
	assert.True(t, s["/a"].HasChanges)
}
