package wordfilter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/guardd/internal/guardrail"
)

func newGuardrail(t *testing.T, defaults Options) *Guardrail {
	t.Helper()
	g, err := New(defaults)
	require.NoError(t, err)
	return g
}

func TestNew(t *testing.T) {
	t.Run("rejects empty replacement", func(t *testing.T) {
		_, err := New(Options{Replacement: ""})
		require.Error(t, err)
		assert.ErrorIs(t, err, guardrail.ErrInvalidOptions)
	})

	t.Run("rejects empty word in the list", func(t *testing.T) {
		_, err := New(Options{WordList: []string{"ok", ""}, Replacement: "[X]"})
		require.Error(t, err)
		assert.ErrorIs(t, err, guardrail.ErrInvalidOptions)
	})

	t.Run("declares both capabilities", func(t *testing.T) {
		g := newGuardrail(t, DefaultOptions())
		assert.Equal(t, ID, g.ID())
		assert.True(t, g.Supports(guardrail.CapabilityValidate))
		assert.True(t, g.Supports(guardrail.CapabilityTransform))
	})
}

func TestValidate(t *testing.T) {
	defaults := DefaultOptions()
	defaults.WordList = []string{"secret", "internal"}
	g := newGuardrail(t, defaults)

	t.Run("clean content passes", func(t *testing.T) {
		res, err := g.Validate(context.Background(), "nothing to see", nil)
		require.NoError(t, err)
		assert.True(t, res.Passed)
		assert.Empty(t, res.Violations)
	})

	t.Run("matches report the literal matched text", func(t *testing.T) {
		res, err := g.Validate(context.Background(), "this is Secret and internal", nil)
		require.NoError(t, err)
		assert.False(t, res.Passed)
		assert.Equal(t, []string{
			"Found filtered word: Secret",
			"Found filtered word: internal",
		}, res.Violations)
	})

	t.Run("whole words only skips substrings", func(t *testing.T) {
		res, err := g.Validate(context.Background(), "secretive internals", nil)
		require.NoError(t, err)
		assert.True(t, res.Passed)
	})

	t.Run("substring matching via override", func(t *testing.T) {
		res, err := g.Validate(context.Background(), "secretive", guardrail.Overrides{
			"whole_words_only": false,
		})
		require.NoError(t, err)
		assert.False(t, res.Passed)
	})

	t.Run("case sensitive matching via override", func(t *testing.T) {
		res, err := g.Validate(context.Background(), "Secret stuff", guardrail.Overrides{
			"case_sensitive": true,
		})
		require.NoError(t, err)
		assert.True(t, res.Passed)
	})

	t.Run("empty word list is a no-op", func(t *testing.T) {
		empty := newGuardrail(t, DefaultOptions())
		res, err := empty.Validate(context.Background(), "anything at all", nil)
		require.NoError(t, err)
		assert.True(t, res.Passed)
	})
}

func TestTransform(t *testing.T) {
	t.Run("replaces whole words case insensitively", func(t *testing.T) {
		defaults := DefaultOptions()
		defaults.WordList = []string{"foo"}
		g := newGuardrail(t, defaults)

		res, err := g.Transform(context.Background(), "Foo bar foobar", nil)
		require.NoError(t, err)
		assert.Equal(t, "[FILTERED] bar foobar", res.Content)

		details, ok := res.Details.(Details)
		require.True(t, ok)
		assert.Equal(t, []string{"Foo"}, details.FilteredWords)
		assert.Equal(t, []string{"foo"}, details.AppliedOptions.WordList)
	})

	t.Run("custom replacement via override", func(t *testing.T) {
		defaults := DefaultOptions()
		defaults.WordList = []string{"bad"}
		g := newGuardrail(t, defaults)

		res, err := g.Transform(context.Background(), "bad word", guardrail.Overrides{
			"replacement": "***",
		})
		require.NoError(t, err)
		assert.Equal(t, "*** word", res.Content)
	})

	t.Run("transform is idempotent when replacement is not in the list", func(t *testing.T) {
		defaults := DefaultOptions()
		defaults.WordList = []string{"leak"}
		g := newGuardrail(t, defaults)

		first, err := g.Transform(context.Background(), "a leak happened", nil)
		require.NoError(t, err)

		second, err := g.Transform(context.Background(), first.Content, nil)
		require.NoError(t, err)
		assert.Equal(t, first.Content, second.Content)

		details, ok := second.Details.(Details)
		require.True(t, ok)
		assert.Empty(t, details.FilteredWords)
	})

	t.Run("empty word list returns content unchanged", func(t *testing.T) {
		g := newGuardrail(t, DefaultOptions())
		res, err := g.Transform(context.Background(), "untouched", nil)
		require.NoError(t, err)
		assert.Equal(t, "untouched", res.Content)

		details, ok := res.Details.(Details)
		require.True(t, ok)
		assert.Empty(t, details.FilteredWords)
	})

	t.Run("regex metacharacters in words are literal", func(t *testing.T) {
		defaults := DefaultOptions()
		defaults.WordList = []string{"a.b"}
		defaults.WholeWordsOnly = false
		g := newGuardrail(t, defaults)

		res, err := g.Transform(context.Background(), "a.b but not axb", nil)
		require.NoError(t, err)
		assert.Equal(t, "[FILTERED] but not axb", res.Content)
	})
}

func TestInvalidOverrides(t *testing.T) {
	g := newGuardrail(t, DefaultOptions())

	t.Run("unknown field", func(t *testing.T) {
		_, err := g.Validate(context.Background(), "x", guardrail.Overrides{"words": []string{"a"}})
		require.Error(t, err)
		assert.ErrorIs(t, err, guardrail.ErrInvalidOptions)
	})

	t.Run("empty replacement override", func(t *testing.T) {
		_, err := g.Transform(context.Background(), "x", guardrail.Overrides{"replacement": ""})
		require.Error(t, err)
		assert.ErrorIs(t, err, guardrail.ErrInvalidOptions)
	})
}
