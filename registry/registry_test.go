package registry

import (
	"context"
	"testing"

	"github.com/loomworks/loom/node"
	"github.com/stretchr/testify/require"
)

type nopHandler struct{}

func (nopHandler) Run(ctx context.Context, inv node.Invocation) (any, error) {
	return nil, nil
}

func descriptor(kind string) node.Descriptor {
	return node.Descriptor{
		Kind:         kind,
		DisplayName:  kind,
		Category:     "Test",
		Cacheable:    true,
		ConfigSchema: node.Schema{Type: "object"},
		Factory:      func() node.Handler { return nopHandler{} },
	}
}

func TestRegisterAndGet(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(descriptor("alpha")))

	desc, err := reg.Get("alpha")
	require.NoError(t, err)
	require.Equal(t, "alpha", desc.Kind)
	require.True(t, reg.Has("alpha"))
	require.False(t, reg.Has("beta"))
}

func TestGetUnknownKind(t *testing.T) {
	reg := New()
	_, err := reg.Get("missing")
	require.Error(t, err)
	require.IsType(t, UnknownKindError{}, err)
}

func TestRegisterIdempotent(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(descriptor("alpha")))
	// identical descriptor is a no-op
	require.NoError(t, reg.Register(descriptor("alpha")))
	require.Len(t, reg.List(), 1)
}

func TestRegisterConflict(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(descriptor("alpha")))

	changed := descriptor("alpha")
	changed.Cacheable = false
	err := reg.Register(changed)
	require.Error(t, err)
	require.IsType(t, DuplicateKindError{}, err)
}

func TestRegisterRejectsBadDescriptors(t *testing.T) {
	reg := New()
	require.Error(t, reg.Register(node.Descriptor{Factory: func() node.Handler { return nopHandler{} }}))
	require.Error(t, reg.Register(node.Descriptor{Kind: "nofactory"}))
}

func TestListKeepsInsertionOrder(t *testing.T) {
	reg := New()
	for _, kind := range []string{"charlie", "alpha", "bravo"} {
		require.NoError(t, reg.Register(descriptor(kind)))
	}
	listed := reg.List()
	require.Len(t, listed, 3)
	require.Equal(t, "charlie", listed[0].Kind)
	require.Equal(t, "alpha", listed[1].Kind)
	require.Equal(t, "bravo", listed[2].Kind)
}
