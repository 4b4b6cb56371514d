package iterator

import (
	"testing"

	"github.com/arnodel/jsonfeed/token"
)

// makeTokenStream builds a token stream from Go values: primitives, []any
// for arrays and [][2]any key/value pairs for objects (to keep key order).
func makeTokenStream(t *testing.T, values ...any) token.ReadStream {
	t.Helper()
	var toks []token.Token
	for _, v := range values {
		toks = append(toks, valueToTokens(t, v)...)
	}
	return token.NewSliceReadStream(toks)
}

func valueToTokens(t *testing.T, v any) []token.Token {
	t.Helper()
	switch val := v.(type) {
	case []any:
		toks := []token.Token{token.StartArrayToken}
		for _, item := range val {
			toks = append(toks, valueToTokens(t, item)...)
		}
		return append(toks, token.EndArrayToken)
	case [][2]any:
		toks := []token.Token{token.StartObjectToken}
		for _, kv := range val {
			toks = append(toks, token.NewKey(token.StringScalar(kv[0].(string)).Bytes))
			toks = append(toks, valueToTokens(t, kv[1])...)
		}
		return append(toks, token.EndObjectToken)
	default:
		s, err := token.ToScalar(v)
		if err != nil {
			t.Fatalf("unsupported value %#v: %s", v, err)
		}
		return []token.Token{s}
	}
}

func TestIteratorTopLevelValues(t *testing.T) {
	stream := makeTokenStream(t, 1, []any{2, 3}, [][2]any{{"a", 4}}, "x")
	iter := New(stream)
	var kinds []string
	for iter.Advance() {
		switch iter.CurrentValue().(type) {
		case *Scalar:
			kinds = append(kinds, "scalar")
		case *Array:
			kinds = append(kinds, "array")
		case *Object:
			kinds = append(kinds, "object")
		}
	}
	want := []string{"scalar", "array", "object", "scalar"}
	if len(kinds) != len(want) {
		t.Fatalf("got %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("value %d: got %s, want %s", i, kinds[i], want[i])
		}
	}
	if iter.CurrentValue() != nil {
		t.Errorf("expected nil current value after exhaustion")
	}
}

func TestArrayAdvance(t *testing.T) {
	iter := New(makeTokenStream(t, []any{1, []any{2, 3}, 4}))
	if !iter.Advance() {
		t.Fatal("expected a value")
	}
	arr := iter.CurrentValue().(*Array)
	var got []string
	for arr.Advance() {
		switch v := arr.CurrentValue().(type) {
		case *Scalar:
			got = append(got, string(v.Scalar().Bytes))
		case *Array:
			// Nested array is discarded by the next Advance.
			got = append(got, "[...]")
		}
	}
	want := []string{"1", "[...]", "4"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d: got %s, want %s", i, got[i], want[i])
		}
	}
	if !arr.Done() {
		t.Error("array should be done")
	}
	if iter.Advance() {
		t.Error("expected end of stream")
	}
}

func TestObjectKeyVal(t *testing.T) {
	iter := New(makeTokenStream(t, [][2]any{{"id", 123}, {"tags", []any{"a", "b"}}, {"ok", true}}))
	iter.Advance()
	obj := iter.CurrentValue().(*Object)
	var keys []string
	for obj.Advance() {
		key, _ := obj.CurrentKeyVal()
		keys = append(keys, key.ToString())
	}
	want := []string{"id", "tags", "ok"}
	if len(keys) != len(want) {
		t.Fatalf("got %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key %d: got %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestEscapedKey(t *testing.T) {
	iter := New(makeTokenStream(t, [][2]any{{"a\"b", 1}}))
	iter.Advance()
	obj := iter.CurrentValue().(*Object)
	if !obj.Advance() {
		t.Fatal("expected a key")
	}
	key, _ := obj.CurrentKeyVal()
	if !key.IsKey() || key.ToString() != "a\"b" {
		t.Errorf("got %s", key)
	}
}

func TestDiscardSkipsNestedValue(t *testing.T) {
	iter := New(makeTokenStream(t, [][2]any{{"x", [][2]any{{"y", []any{1, 2}}}}}, 7))
	iter.Advance()
	obj := iter.CurrentValue().(*Object)
	obj.Advance()
	obj.Discard()
	if !iter.Advance() {
		t.Fatal("expected second value")
	}
	if s := iter.CurrentValue().(*Scalar).Scalar(); string(s.Bytes) != "7" {
		t.Errorf("got %s, want 7", s)
	}
}
