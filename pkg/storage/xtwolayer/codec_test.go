package xtwolayer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecs(t *testing.T) {
	want := profile{Name: "bob", Roles: []string{"reader", "writer"}}
	codecs := map[string]Codec[profile]{
		"json": JSONCodec[profile]{},
		"gob":  GobCodec[profile]{},
	}
	for name, c := range codecs {
		t.Run(name, func(t *testing.T) {
			data, err := c.Marshal(want)
			require.NoError(t, err)
			got, err := c.Unmarshal(data)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			_, err = c.Unmarshal([]byte("not valid"))
			assert.Error(t, err)
		})
	}
}

func TestJSONCodecWireFormat(t *testing.T) {
	data, err := JSONCodec[map[string]int]{}.Marshal(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))
}
