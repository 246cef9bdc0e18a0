package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/guardd/internal/guardrail"
)

// stubGuardrail is a scriptable registry entry for orchestration tests.
type stubGuardrail struct {
	guardrail.Base

	validate  func(content string, overrides guardrail.Overrides) (*guardrail.ValidationResult, error)
	transform func(content string, overrides guardrail.Overrides) (*guardrail.TransformationResult, error)
	healthy   bool
	calls     atomic.Int64
}

func (g *stubGuardrail) Defaults() any            { return nil }
func (g *stubGuardrail) Schema() guardrail.Schema { return nil }

func (g *stubGuardrail) Validate(ctx context.Context, content string, overrides guardrail.Overrides) (*guardrail.ValidationResult, error) {
	g.calls.Add(1)
	if g.validate == nil {
		return guardrail.NewValidationResult(nil), nil
	}
	return g.validate(content, overrides)
}

func (g *stubGuardrail) Transform(ctx context.Context, content string, overrides guardrail.Overrides) (*guardrail.TransformationResult, error) {
	g.calls.Add(1)
	if g.transform == nil {
		return &guardrail.TransformationResult{Content: content}, nil
	}
	return g.transform(content, overrides)
}

// stubChecker adds a health probe to the stub.
type stubChecker struct {
	stubGuardrail
}

func (g *stubChecker) Ready(ctx context.Context) bool { return g.healthy }

func newStub(id string) *stubGuardrail {
	return &stubGuardrail{
		Base: guardrail.NewBase(id, id, id, guardrail.CapabilityValidate, guardrail.CapabilityTransform),
	}
}

func failingStub(id string, violations ...string) *stubGuardrail {
	g := newStub(id)
	g.validate = func(content string, overrides guardrail.Overrides) (*guardrail.ValidationResult, error) {
		return guardrail.NewValidationResult(violations), nil
	}
	return g
}

func newOrchestrator(t *testing.T, guardrails ...guardrail.Guardrail) *Orchestrator {
	t.Helper()
	registry := guardrail.NewRegistry()
	for _, g := range guardrails {
		registry.Register(g)
	}
	o, err := New(registry, zap.NewNop())
	require.NoError(t, err)
	return o
}

func TestNew(t *testing.T) {
	t.Run("requires a registry", func(t *testing.T) {
		_, err := New(nil, zap.NewNop())
		require.Error(t, err)
	})

	t.Run("nil logger is tolerated", func(t *testing.T) {
		o, err := New(guardrail.NewRegistry(), nil)
		require.NoError(t, err)
		assert.NotNil(t, o)
	})
}

func TestValidate(t *testing.T) {
	t.Run("all items pass", func(t *testing.T) {
		o := newOrchestrator(t, newStub("a"), newStub("b"))

		outcome, err := o.Validate(context.Background(), &Request{
			Contents:   []string{"one", "two"},
			Guardrails: []string{"a", "b"},
		})
		require.NoError(t, err)
		assert.True(t, outcome.Valid)
		assert.Empty(t, outcome.FailedGuardrails)
		require.Len(t, outcome.Items, 2)
		for _, item := range outcome.Items {
			assert.True(t, item.Passed)
			assert.Empty(t, item.Violations)
			assert.Len(t, item.Guardrails, 2)
		}
	})

	t.Run("one failing item invalidates the batch", func(t *testing.T) {
		bad := newStub("bad")
		bad.validate = func(content string, overrides guardrail.Overrides) (*guardrail.ValidationResult, error) {
			if strings.Contains(content, "x") {
				return guardrail.NewValidationResult([]string{"found x"}), nil
			}
			return guardrail.NewValidationResult(nil), nil
		}
		o := newOrchestrator(t, bad)

		outcome, err := o.Validate(context.Background(), &Request{
			Contents:   []string{"clean", "has x"},
			Guardrails: []string{"bad"},
		})
		require.NoError(t, err)
		assert.False(t, outcome.Valid)
		assert.Equal(t, []string{"bad"}, outcome.FailedGuardrails)
		assert.True(t, outcome.Items[0].Passed)
		assert.False(t, outcome.Items[1].Passed)
		assert.Equal(t, []string{"found x"}, outcome.Items[1].Violations)
	})

	t.Run("violations accumulate in execution order", func(t *testing.T) {
		o := newOrchestrator(t, failingStub("first", "v1"), failingStub("second", "v2"))

		outcome, err := o.Validate(context.Background(), &Request{
			Contents:   []string{"content"},
			Guardrails: []string{"first", "second"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"v1", "v2"}, outcome.Items[0].Violations)
	})

	t.Run("failed guardrails are deduped in request order", func(t *testing.T) {
		o := newOrchestrator(t, failingStub("b", "vb"), failingStub("a", "va"), newStub("ok"))

		outcome, err := o.Validate(context.Background(), &Request{
			Contents:   []string{"one", "two"},
			Guardrails: []string{"b", "ok", "a"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a"}, outcome.FailedGuardrails)
	})

	t.Run("unknown guardrail fails before any check executes", func(t *testing.T) {
		known := newStub("known")
		o := newOrchestrator(t, known)

		_, err := o.Validate(context.Background(), &Request{
			Contents:   []string{"one"},
			Guardrails: []string{"known", "missing"},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, guardrail.ErrUnknownGuardrail)
		assert.Equal(t, int64(0), known.calls.Load())
	})

	t.Run("guardrail error aborts the batch", func(t *testing.T) {
		broken := newStub("broken")
		broken.validate = func(content string, overrides guardrail.Overrides) (*guardrail.ValidationResult, error) {
			return nil, &guardrail.CollaboratorError{ID: "broken", Err: errors.New("down")}
		}
		o := newOrchestrator(t, broken)

		_, err := o.Validate(context.Background(), &Request{
			Contents:   []string{"one"},
			Guardrails: []string{"broken"},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, guardrail.ErrCollaborator)
	})

	t.Run("overrides are routed per guardrail", func(t *testing.T) {
		var got guardrail.Overrides
		g := newStub("routed")
		g.validate = func(content string, overrides guardrail.Overrides) (*guardrail.ValidationResult, error) {
			got = overrides
			return guardrail.NewValidationResult(nil), nil
		}
		o := newOrchestrator(t, g, newStub("other"))

		_, err := o.Validate(context.Background(), &Request{
			Contents:   []string{"one"},
			Guardrails: []string{"routed", "other"},
			Options: map[string]guardrail.Overrides{
				"routed": {"threshold": 0.9},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, guardrail.Overrides{"threshold": 0.9}, got)
	})

	t.Run("empty guardrail list passes trivially", func(t *testing.T) {
		o := newOrchestrator(t)

		outcome, err := o.Validate(context.Background(), &Request{
			Contents:   []string{"one"},
			Guardrails: []string{},
		})
		require.NoError(t, err)
		assert.True(t, outcome.Valid)
		assert.True(t, outcome.Items[0].Passed)
	})
}

func TestTransform(t *testing.T) {
	appender := func(suffix string) func(string, guardrail.Overrides) (*guardrail.TransformationResult, error) {
		return func(content string, overrides guardrail.Overrides) (*guardrail.TransformationResult, error) {
			return &guardrail.TransformationResult{
				Content: content + suffix,
				Details: map[string]string{"appended": suffix},
			}, nil
		}
	}

	t.Run("chains output into the next input", func(t *testing.T) {
		a := newStub("a")
		a.transform = appender("-a")
		b := newStub("b")
		b.transform = appender("-b")
		o := newOrchestrator(t, a, b)

		outcome, err := o.Transform(context.Background(), &Request{
			Contents:   []string{"x", "y"},
			Guardrails: []string{"a", "b"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"x-a-b", "y-a-b"}, outcome.Contents)
		assert.Equal(t, []string{"a", "b"}, outcome.Applied)
	})

	t.Run("order matters", func(t *testing.T) {
		a := newStub("a")
		a.transform = appender("-a")
		b := newStub("b")
		b.transform = appender("-b")
		o := newOrchestrator(t, a, b)

		outcome, err := o.Transform(context.Background(), &Request{
			Contents:   []string{"x"},
			Guardrails: []string{"b", "a"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"x-b-a"}, outcome.Contents)
		assert.Equal(t, []string{"b", "a"}, outcome.Applied)
	})

	t.Run("repeated guardrail runs twice but is listed once", func(t *testing.T) {
		a := newStub("a")
		a.transform = appender("-a")
		o := newOrchestrator(t, a)

		outcome, err := o.Transform(context.Background(), &Request{
			Contents:   []string{"x"},
			Guardrails: []string{"a", "a"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"x-a-a"}, outcome.Contents)
		assert.Equal(t, []string{"a"}, outcome.Applied)
	})

	t.Run("details are collected per item per guardrail", func(t *testing.T) {
		a := newStub("a")
		a.transform = appender("-a")
		o := newOrchestrator(t, a)

		outcome, err := o.Transform(context.Background(), &Request{
			Contents:   []string{"x", "y"},
			Guardrails: []string{"a"},
		})
		require.NoError(t, err)
		require.Len(t, outcome.Details, 2)
		assert.Equal(t, map[string]string{"appended": "-a"}, outcome.Details[0]["a"])
		assert.Equal(t, map[string]string{"appended": "-a"}, outcome.Details[1]["a"])
	})

	t.Run("capability error aborts the batch", func(t *testing.T) {
		v := newStub("validate-only")
		v.transform = func(content string, overrides guardrail.Overrides) (*guardrail.TransformationResult, error) {
			return nil, &guardrail.CapabilityError{ID: "validate-only", Capability: guardrail.CapabilityTransform}
		}
		o := newOrchestrator(t, v)

		_, err := o.Transform(context.Background(), &Request{
			Contents:   []string{"x"},
			Guardrails: []string{"validate-only"},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, guardrail.ErrUnsupportedCapability)
	})

	t.Run("unknown guardrail fails the whole request", func(t *testing.T) {
		o := newOrchestrator(t, newStub("a"))

		_, err := o.Transform(context.Background(), &Request{
			Contents:   []string{"x"},
			Guardrails: []string{"missing"},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, guardrail.ErrUnknownGuardrail)
	})
}

func TestHealth(t *testing.T) {
	plain := newStub("plain")

	probed := &stubChecker{}
	probed.Base = guardrail.NewBase("probed", "probed", "probed", guardrail.CapabilityValidate)
	probed.healthy = false

	o := newOrchestrator(t, plain, probed)

	status := o.Health(context.Background())
	assert.Equal(t, map[string]bool{
		"plain":  true,
		"probed": false,
	}, status)
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, dedupe([]string{"a", "b", "a", "c", "b"}))
	assert.Empty(t, dedupe(nil))
}
