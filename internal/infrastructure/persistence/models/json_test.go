package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONMap_Value(t *testing.T) {
	v, err := JSONMap(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)

	v, err = JSONMap{"name": "Mama Mboga"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Mama Mboga"}`, v)
}

func TestJSONMap_Scan(t *testing.T) {
	tests := []struct {
		name    string
		src     any
		want    JSONMap
		wantErr bool
	}{
		{name: "bytes", src: []byte(`{"quantity":2}`), want: JSONMap{"quantity": float64(2)}},
		{name: "string", src: `{"notes":"late"}`, want: JSONMap{"notes": "late"}},
		{name: "null", src: nil, want: JSONMap{}},
		{name: "unsupported type", src: 42, wantErr: true},
		{name: "malformed", src: `{"notes":`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m JSONMap
			err := m.Scan(tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m)
		})
	}
}

func TestJSONMap_Patch(t *testing.T) {
	assert.NotNil(t, JSONMap(nil).Patch())
	assert.Equal(t, "x", JSONMap{"a": "x"}.Patch()["a"])
}
