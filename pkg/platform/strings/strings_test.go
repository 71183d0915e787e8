package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	t.Run("removes duplicates preserving first-seen order", func(t *testing.T) {
		got := DedupeAndTrim([]string{"  foo ", "bar", "foo", "", "  "})
		assert.Equal(t, []string{"foo", "bar"}, got)
	})

	t.Run("empty input passes through", func(t *testing.T) {
		assert.Empty(t, DedupeAndTrim(nil))
	})

	t.Run("lower variant folds case", func(t *testing.T) {
		got := DedupeAndTrimLower([]string{"  FOO ", "bar", "Foo"})
		assert.Equal(t, []string{"foo", "bar"}, got)
	})
}

func TestTrigramSimilarity(t *testing.T) {
	t.Run("identical strings score 1", func(t *testing.T) {
		assert.InDelta(t, 1.0, TrigramSimilarity("maria silva", "maria silva"), 1e-9)
	})

	t.Run("case and punctuation are ignored", func(t *testing.T) {
		assert.InDelta(t, 1.0, TrigramSimilarity("Maria Silva", "maria, silva"), 1e-9)
	})

	t.Run("disjoint strings score 0", func(t *testing.T) {
		assert.Zero(t, TrigramSimilarity("abcdef", "xyzuvw"))
	})

	t.Run("empty input scores 0", func(t *testing.T) {
		assert.Zero(t, TrigramSimilarity("", "anything"))
	})

	t.Run("similar names score above the customer dedupe threshold", func(t *testing.T) {
		sim := TrigramSimilarity("Maria da Silva", "Maria Silva")
		assert.Greater(t, sim, 0.3)
		assert.Less(t, sim, 1.0)
	})

	t.Run("similarity is symmetric", func(t *testing.T) {
		a, b := "42 Main Street Springfield", "42 Main St Springfield"
		assert.InDelta(t, TrigramSimilarity(a, b), TrigramSimilarity(b, a), 1e-9)
	})
}
