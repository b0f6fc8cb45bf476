package scorestore

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"gamegen/core"
)

// Shape is the raw layout of a ranged-with-scores response. Store clients
// disagree on it across versions and transports, so a response is classified
// once and then decoded with a single decoder.
type Shape int

const (
	ShapeEmpty Shape = iota
	// ShapeScoredPairs: structs exposing Member and Score fields (redis.Z, ScoredMember).
	ShapeScoredPairs
	// ShapeTuples: two-element sequences [name, score].
	ShapeTuples
	// ShapeMaps: mappings keyed by member/name/value and score.
	ShapeMaps
	// ShapeFlat: name, score, name, score, ...
	ShapeFlat
)

func (s Shape) String() string {
	switch s {
	case ShapeEmpty:
		return "empty"
	case ShapeScoredPairs:
		return "scored_pairs"
	case ShapeTuples:
		return "tuples"
	case ShapeMaps:
		return "maps"
	case ShapeFlat:
		return "flat"
	default:
		return "unknown"
	}
}

// ScoredMember is the structured pair produced by backends that decode
// results themselves.
type ScoredMember struct {
	Member string
	Score  float64
}

// nameKeys are checked in order when a mapping element carries the member.
var nameKeys = []string{"member", "name", "value"}

// Decode normalizes a raw range response into entries, preserving order.
func Decode(raw any) ([]core.Entry, error) {
	entries, _, err := DecodeShape(raw)
	return entries, err
}

// DecodeShape is Decode that also reports the detected shape. A response
// that does not decode cleanly as a whole yields core.ErrDecodeAnomaly and
// no entries; elements are never decoded with mixed strategies.
func DecodeShape(raw any) ([]core.Entry, Shape, error) {
	items, ok := asSlice(raw)
	if !ok {
		return []core.Entry{}, ShapeEmpty, fmt.Errorf("%w: expected a list, got %T", core.ErrDecodeAnomaly, raw)
	}
	if len(items) == 0 {
		return []core.Entry{}, ShapeEmpty, nil
	}

	shape := Classify(items[0])
	var (
		entries []core.Entry
		err     error
	)
	switch shape {
	case ShapeScoredPairs:
		entries, err = decodeScoredPairs(items)
	case ShapeTuples:
		entries, err = decodeTuples(items)
	case ShapeMaps:
		entries, err = decodeMaps(items)
	default:
		entries, err = decodeFlat(items)
	}
	if err != nil {
		return []core.Entry{}, shape, fmt.Errorf("%w: %s: %v", core.ErrDecodeAnomaly, shape, err)
	}
	return entries, shape, nil
}

// Classify inspects the first element of a response and picks the decoder
// for the whole response. Checks run in order: structured pair, two-element
// sequence, mapping, and otherwise flat.
func Classify(first any) Shape {
	switch {
	case isScoredPair(first):
		return ShapeScoredPairs
	case isPair(first):
		return ShapeTuples
	case isMapping(first):
		return ShapeMaps
	default:
		return ShapeFlat
	}
}

func decodeScoredPairs(items []any) ([]core.Entry, error) {
	out := make([]core.Entry, 0, len(items))
	for i, item := range items {
		member, score, ok := scoredPairFields(item)
		if !ok {
			return nil, fmt.Errorf("element %d is %T, not a scored pair", i, item)
		}
		e, err := entry(member, score)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func decodeTuples(items []any) ([]core.Entry, error) {
	out := make([]core.Entry, 0, len(items))
	for i, item := range items {
		if !isPair(item) {
			return nil, fmt.Errorf("element %d is %T, not a pair", i, item)
		}
		pair, _ := asSlice(item)
		e, err := entry(pair[0], pair[1])
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func decodeMaps(items []any) ([]core.Entry, error) {
	out := make([]core.Entry, 0, len(items))
	for i, item := range items {
		m, ok := asStringMap(item)
		if !ok {
			return nil, fmt.Errorf("element %d is %T, not a mapping", i, item)
		}
		var name any
		for _, k := range nameKeys {
			if v, ok := m[k]; ok && v != nil {
				name = v
				break
			}
		}
		if name == nil {
			return nil, fmt.Errorf("element %d has none of %v", i, nameKeys)
		}
		score, ok := m["score"]
		if !ok {
			return nil, fmt.Errorf("element %d has no score", i)
		}
		e, err := entry(name, score)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func decodeFlat(items []any) ([]core.Entry, error) {
	out := make([]core.Entry, 0, len(items)/2)
	// a dangling final name without a score is dropped
	for i := 0; i+1 < len(items); i += 2 {
		e, err := entry(items[i], items[i+1])
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func entry(name, score any) (core.Entry, error) {
	n, err := toText(name)
	if err != nil {
		return core.Entry{}, err
	}
	s, err := toFloat(score)
	if err != nil {
		return core.Entry{}, err
	}
	return core.Entry{Name: n, Score: s}, nil
}

func toText(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", fmt.Errorf("missing member name")
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case json.Number:
		return t.String(), nil
	case fmt.Stringer:
		return t.String(), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), nil
	case reflect.String:
		return rv.String(), nil
	}
	return "", fmt.Errorf("member name of type %T is not text", v)
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case string:
		return parseScore(t)
	case []byte:
		return parseScore(string(t))
	case json.Number:
		return parseScore(t.String())
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.String:
		return parseScore(rv.String())
	}
	return 0, fmt.Errorf("score of type %T is not numeric", v)
}

// parseScore accepts Redis score strings, including "inf" and "-inf".
func parseScore(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("score %q is not numeric", s)
	}
	return f, nil
}

// asSlice converts any slice or array (typed or not) to []any. Strings and
// byte slices are scalars here, not sequences.
func asSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, true
	case []any:
		return t, true
	case string, []byte:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return nil, true
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func isPair(v any) bool {
	if v == nil {
		return false
	}
	items, ok := asSlice(v)
	return ok && items != nil && len(items) == 2
}

func isMapping(v any) bool {
	_, ok := asStringMap(v)
	return ok
}

func asStringMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

func isScoredPair(v any) bool {
	_, _, ok := scoredPairFields(v)
	return ok
}

// scoredPairFields reads exported Member and Score fields from a struct or
// struct pointer, which is how go-redis and our own backends expose pairs.
func scoredPairFields(v any) (member any, score any, ok bool) {
	if v == nil {
		return nil, nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, nil, false
	}
	m := rv.FieldByName("Member")
	s := rv.FieldByName("Score")
	if !m.IsValid() || !s.IsValid() || !m.CanInterface() || !s.CanInterface() {
		return nil, nil, false
	}
	return m.Interface(), s.Interface(), true
}
