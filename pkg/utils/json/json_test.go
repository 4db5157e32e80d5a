package json

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMarshalUnmarshal(t *testing.T) {
	in := sample{Name: "grace period", Count: 30}

	data, err := Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"grace period"`)

	var out sample
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestUnmarshalInvalid(t *testing.T) {
	var out sample
	assert.Error(t, Unmarshal([]byte(`{"name":`), &out))
}

func TestEncoderDecoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(sample{Name: "a", Count: 1}))

	var out sample
	require.NoError(t, NewDecoder(&buf).Decode(&out))
	assert.Equal(t, sample{Name: "a", Count: 1}, out)
}

func TestDecoderStream(t *testing.T) {
	r := strings.NewReader(`{"name":"x","count":2}{"name":"y","count":3}`)
	dec := NewDecoder(r)

	var first, second sample
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))
	assert.Equal(t, "x", first.Name)
	assert.Equal(t, "y", second.Name)
}

func TestUnmarshalObject(t *testing.T) {
	obj, err := UnmarshalObject([]byte(`{"justification":"covered after 30 days","score":0.9}`))
	require.NoError(t, err)
	assert.Equal(t, "covered after 30 days", obj["justification"])

	// Non-object top-level values are rejected.
	_, err = UnmarshalObject([]byte(`["a","b"]`))
	assert.Error(t, err)

	_, err = UnmarshalObject([]byte(`"just a string"`))
	assert.Error(t, err)

	_, err = UnmarshalObject([]byte(`{"broken":`))
	assert.Error(t, err)
}

func TestIsUsingSonic(t *testing.T) {
	// The choice is made once at init and must match the reported flag.
	if IsUsingSonic() {
		assert.NotNil(t, Marshal)
	}
	data, err := Marshal(map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"k":"v"}`, string(data))
}
