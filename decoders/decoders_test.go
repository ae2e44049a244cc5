package decoders

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/brettbedarf/resmgr"
	"github.com/brettbedarf/resmgr/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Dispatch(t *testing.T) {
	t.Parallel()
	r := NewDefaultRegistry()

	tests := []struct {
		path    string
		data    string
		want    any
		wantErr bool
		desc    string
	}{
		{"cfg/game.json", `{"speed": 3, "tags": ["a"]}`, map[string]any{"speed": json.Number("3"), "tags": []any{"a"}}, false, "json"},
		{"cfg/game.JSON", `[1]`, []any{json.Number("1")}, false, "upper-case extension"},
		{"cfg/game.json", `{"speed":`, nil, true, "truncated json"},
		{"cfg/game.json", `{} {}`, nil, true, "trailing json"},
		{"cfg/game.yaml", "speed: 3\nname: link\n", map[string]any{"speed": 3, "name": "link"}, false, "yaml"},
		{"cfg/game.yml", "- a\n- b\n", []any{"a", "b"}, false, "yml"},
		{"cfg/empty.yaml", "", nil, false, "empty yaml"},
		{"cfg/bad.yaml", "a: [1, 2", nil, true, "bad yaml"},
		{"text/readme.txt", "\xef\xbb\xbfhello", "hello", false, "text with BOM"},
		{"text/readme.txt", "\xff\xfe", nil, true, "invalid utf-8 text"},
		{"textures/a.png", "\x89PNG", []byte("\x89PNG"), false, "fallback raw"},
		{"noext", "x", []byte("x"), false, "no extension"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()
			got, err := r.Decode(tt.path, []byte(tt.data))
			if tt.wantErr {
				assert.ErrorIs(t, err, resmgr.ErrDecodeFailure)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRaw_Copies(t *testing.T) {
	t.Parallel()
	data := []byte("abc")

	got, err := Raw("a.bin", data)
	require.NoError(t, err)
	data[0] = 'x'

	assert.Equal(t, []byte("abc"), got)
}

func TestRegistry_RegisterOverridesAndFallback(t *testing.T) {
	t.Parallel()
	fallback := &mocks.MockDecoder{}
	fallback.On("Decode", "model.obj", []byte("v 1 2 3")).Return("mesh", nil)
	custom := &mocks.MockDecoder{}
	custom.On("Decode", "a.json", []byte("{}")).Return(nil, errors.New("custom failed"))

	r := NewRegistry(fallback)
	RegisterBuiltins(r)
	r.Register(".JSON", custom)

	got, err := r.Decode("model.obj", []byte("v 1 2 3"))
	require.NoError(t, err)
	assert.Equal(t, "mesh", got)

	_, err = r.Decode("a.json", []byte("{}"))
	assert.EqualError(t, err, "custom failed")

	assert.Same(t, custom, r.For("dir/b.Json"))
	assert.Contains(t, r.Extensions(), "json")
	assert.Contains(t, r.Extensions(), "yml")
	fallback.AssertExpectations(t)
	custom.AssertExpectations(t)
}
