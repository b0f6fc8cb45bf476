package scorestore

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamegen/core"
)

var aliceBob = []core.Entry{{Name: "Alice", Score: 300}, {Name: "Bob", Score: 150}}

func TestDecode_AllShapesAgree(t *testing.T) {
	cases := []struct {
		name  string
		raw   any
		shape Shape
	}{
		{"redis.Z", []redis.Z{{Member: "Alice", Score: 300}, {Member: "Bob", Score: 150}}, ShapeScoredPairs},
		{"scored member pointers", []*ScoredMember{{"Alice", 300}, {"Bob", 150}}, ShapeScoredPairs},
		{"maps", []map[string]any{{"member": "Alice", "score": 300.0}, {"member": "Bob", "score": "150"}}, ShapeMaps},
		{"maps with name key", []any{map[string]any{"name": "Alice", "score": 300}, map[string]any{"value": "Bob", "score": json.Number("150")}}, ShapeMaps},
		{"tuples", [][2]any{{"Alice", 300.0}, {"Bob", 150.0}}, ShapeTuples},
		{"nested lists", []any{[]any{"Alice", "300"}, []any{[]byte("Bob"), int64(150)}}, ShapeTuples},
		{"flat strings", []string{"Alice", "300", "Bob", "150"}, ShapeFlat},
		{"flat mixed", []any{"Alice", 300, []byte("Bob"), []byte("150")}, ShapeFlat},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, shape, err := DecodeShape(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.shape, shape)
			assert.Equal(t, aliceBob, got)
		})
	}
}

func TestDecode_Empty(t *testing.T) {
	for _, raw := range []any{nil, []any{}, []redis.Z(nil), [][2]any{}} {
		got, shape, err := DecodeShape(raw)
		require.NoError(t, err)
		assert.Equal(t, ShapeEmpty, shape)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestDecode_FlatDropsDanglingName(t *testing.T) {
	got, err := Decode([]any{"Alice", "300", "Bob"})
	require.NoError(t, err)
	assert.Equal(t, []core.Entry{{Name: "Alice", Score: 300}}, got)
}

func TestDecode_PreservesOrder(t *testing.T) {
	got, err := Decode([]string{"b", "1", "a", "2"})
	require.NoError(t, err)
	assert.Equal(t, []core.Entry{{Name: "b", Score: 1}, {Name: "a", Score: 2}}, got)
}

func TestDecode_InfinityStrings(t *testing.T) {
	got, err := Decode([]string{"top", "inf", "bottom", "-inf"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, math.IsInf(got[0].Score, 1))
	assert.True(t, math.IsInf(got[1].Score, -1))
}

func TestDecode_AnomaliesFailWholeResponse(t *testing.T) {
	cases := map[string]any{
		"not a list":           "Alice",
		"mixed tuple then map": []any{[]any{"Alice", 300}, map[string]any{"member": "Bob", "score": 150}},
		"pair then scalar":     []any{[]any{"Alice", 300}, "Bob"},
		"bad score":            []string{"Alice", "lots"},
		"map missing score":    []map[string]any{{"member": "Alice"}},
		"map missing name":     []map[string]any{{"player": "Alice", "score": 1}},
		"nil name in tuple":    [][2]any{{nil, 1.0}},
		"struct score":         []any{"Alice", struct{}{}},
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := Decode(raw)
			assert.ErrorIs(t, err, core.ErrDecodeAnomaly)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestClassify_Order(t *testing.T) {
	assert.Equal(t, ShapeScoredPairs, Classify(redis.Z{Member: "a", Score: 1}))
	assert.Equal(t, ShapeTuples, Classify([]string{"a", "1"}))
	assert.Equal(t, ShapeMaps, Classify(map[string]string{"member": "a"}))
	// a two-character string is a scalar, not a pair
	assert.Equal(t, ShapeFlat, Classify("ab"))
	assert.Equal(t, ShapeFlat, Classify([]byte("ab")))
	assert.Equal(t, ShapeFlat, Classify([]any{"a", "1", "b"}))
}

func TestShape_String(t *testing.T) {
	assert.Equal(t, "scored_pairs", ShapeScoredPairs.String())
	assert.Equal(t, "flat", ShapeFlat.String())
	assert.Equal(t, "unknown", Shape(42).String())
}
