package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/ksfoundation/oneshot/internal/schema"
)

type stubLister struct {
	tools []schema.ToolDescriptor
	err   error
}

func (s stubLister) ListAllTools(context.Context) ([]schema.ToolDescriptor, error) {
	return s.tools, s.err
}

func fixedTools(names ...string) []schema.ToolDescriptor {
	out := make([]schema.ToolDescriptor, len(names))
	for i, n := range names {
		out[i] = schema.ToolDescriptor{Name: n}
	}
	return out
}

func externalTools(provider string, names ...string) []schema.ToolDescriptor {
	out := fixedTools(names...)
	for i := range out {
		out[i].Provider = provider
	}
	return out
}

func TestBuild_ExternalThenFixed(t *testing.T) {
	ext := append(externalTools("p1", "a", "b"), externalTools("p2", "c")...)
	c := New(stubLister{tools: ext}, fixedTools("x", "y"))

	snap := c.Build(context.Background())
	if diff := cmp.Diff([]string{"a", "b", "c", "x", "y"}, snap.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 5, snap.Len())
}

func TestBuild_NoExternal(t *testing.T) {
	c := New(nil, fixedTools("x", "y"))
	snap := c.Build(context.Background())
	assert.Equal(t, []string{"x", "y"}, snap.Names())
}

func TestBuild_CollisionFirstWins(t *testing.T) {
	ext := append(externalTools("p1", "dup"), externalTools("p2", "dup", "other")...)
	c := New(stubLister{tools: ext}, fixedTools("dup", "z"))

	snap := c.Build(context.Background())
	assert.Equal(t, []string{"dup", "other", "z"}, snap.Names())

	d, ok := snap.Lookup("dup")
	assert.True(t, ok)
	assert.Equal(t, "p1", d.Provider)
}

func TestBuild_ExternalErrorIsAbsorbed(t *testing.T) {
	c := New(stubLister{
		tools: externalTools("ok", "partial"),
		err:   errors.New("provider down"),
	}, fixedTools("x"))

	snap := c.Build(context.Background())
	assert.Equal(t, []string{"partial", "x"}, snap.Names())
}

func TestSnapshot_DescriptorsIsCopy(t *testing.T) {
	c := New(nil, fixedTools("x"))
	snap := c.Build(context.Background())

	ds := snap.Descriptors()
	ds[0].Name = "mutated"

	_, ok := snap.Lookup("x")
	assert.True(t, ok)
	assert.Equal(t, []string{"x"}, snap.Names())
}
