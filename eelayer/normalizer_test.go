package eelayer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NormalizeObject_serializedRef(t *testing.T) {
	handle, err := NormalizeObject(`{"kind": "Image", "expression": {"op": "load", "args": ["scene-1"]}}`, false)
	require.NoError(t, err)
	require.NotNil(t, handle)

	assert.Equal(t, ObjectKindImage, handle.Kind)
	assert.True(t, handle.SupportsMapEval)
	assert.False(t, handle.SupportsAnimatedThumbnail)
}

func Test_NormalizeObject_animateCoercesImageToCollection(t *testing.T) {
	handle, err := NormalizeObject(`{"kind": "Image", "expression": {"op": "load"}}`, true)
	require.NoError(t, err)
	require.NotNil(t, handle)

	assert.Equal(t, ObjectKindImageCollection, handle.Kind)
	assert.True(t, handle.SupportsMapEval)
	assert.True(t, handle.SupportsAnimatedThumbnail)

	// coercion is idempotent: an already collection-typed handle is unchanged
	again, err := NormalizeObject(handle, true)
	require.NoError(t, err)
	assert.Equal(t, ObjectKindImageCollection, again.Kind)
	assert.Equal(t, handle.Ref, again.Ref)
}

func Test_NormalizeObject_bareSequence(t *testing.T) {
	handle, err := NormalizeObject(`[{"op": "load", "args": ["a"]}, {"op": "load", "args": ["b"]}]`, false)
	require.NoError(t, err)
	require.NotNil(t, handle)

	assert.Equal(t, ObjectKindImageCollection, handle.Kind)
	assert.True(t, handle.SupportsAnimatedThumbnail)
}

func Test_NormalizeObject_absentInput(t *testing.T) {
	tests := []struct {
		name string
		raw  interface{}
	}{
		{"nil", nil},
		{"nil handle pointer", (*ObjectHandle)(nil)},
		{"empty string", ""},
		{"whitespace only", "   \n\t"},
		{"empty sequence", "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handle, err := NormalizeObject(tt.raw, false)
			require.NoError(t, err)
			assert.Nil(t, handle)
		})
	}
}

func Test_NormalizeObject_malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  interface{}
	}{
		{"not json", "{{{"},
		{"unknown kind", `{"kind": "Table", "expression": {}}`},
		{"no expression", `{"kind": "Image"}`},
		{"malformed sequence", `[{"op": "load"`},
		{"unsupported type", 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handle, err := NormalizeObject(tt.raw, false)
			require.Error(t, err)
			assert.Nil(t, handle)
			assert.True(t, IsKind(err, ErrMalformedObjectRef))
		})
	}
}

func Test_NormalizeObject_doesNotMutateInputHandle(t *testing.T) {
	original := &ObjectHandle{Kind: ObjectKindImage, Ref: `{"kind":"Image","expression":{}}`}

	coerced, err := NormalizeObject(original, true)
	require.NoError(t, err)

	assert.Equal(t, ObjectKindImage, original.Kind)
	assert.Equal(t, ObjectKindImageCollection, coerced.Kind)
}

func Test_capabilitiesForKind(t *testing.T) {
	tests := []struct {
		kind                  ObjectKind
		wantMapEval           bool
		wantAnimatedThumbnail bool
	}{
		{ObjectKindImage, true, false},
		{ObjectKindImageCollection, true, true},
		{ObjectKindFeatureCollection, true, false},
		{ObjectKindGeometry, true, false},
		{ObjectKindUnknown, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			mapEval, animatedThumbnail := capabilitiesForKind(tt.kind)
			assert.Equal(t, tt.wantMapEval, mapEval)
			assert.Equal(t, tt.wantAnimatedThumbnail, animatedThumbnail)
		})
	}
}
