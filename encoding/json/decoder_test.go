package json

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/arnodel/jsonfeed/token"
	"github.com/google/go-cmp/cmp"
)

func TestDecoderValues(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"true", "true", []string{"Scalar(true)"}},
		{"null", " null ", []string{"Scalar(null)"}},
		{"integer", "42", []string{"Scalar(42)"}},
		{"float", "-3.5e+10", []string{"Scalar(-3.5e+10)"}},
		{"string", `"héllo"`, []string{`Scalar("héllo")`}},
		{"escaped", `"a\"bé"`, []string{`Scalar("a\"bé")`}},
		{"empty array", "[]", []string{"StartArray", "EndArray"}},
		{
			"array", "[1, [true], {}]",
			[]string{"StartArray", "Scalar(1)", "StartArray", "Scalar(true)", "EndArray", "StartObject", "EndObject", "EndArray"},
		},
		{
			"object", `{"a": 1, "b" : ["x"]}`,
			[]string{"StartObject", `Key("a")`, "Scalar(1)", `Key("b")`, "StartArray", `Scalar("x")`, "EndArray", "EndObject"},
		},
		{"several values", "1 2\n[]", []string{"Scalar(1)", "Scalar(2)", "StartArray", "EndArray"}},
		{"empty input", "  \n ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenStrings(decodeString(t, tt.input))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("tokens mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecoderSmallReads(t *testing.T) {
	input := `{"name": "Ünïcödé", "list": [1.5, -2, "x\ny"], "ok": false}`
	want := describeTokens(decodeString(t, input))

	buf := token.NewBuffer()
	dec := NewDecoder(iotest.OneByteReader(strings.NewReader(input)))
	if err := dec.Produce(buf); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, describeTokens(replay(buf))); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestDecoderErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		pos   string
	}{
		{"missing colon", `{"key" "value"}`, "L1,C8"},
		{"missing comma in array", `[1 2]`, "L1,C4"},
		{"missing comma in object", `{"a": 1 "b": 2}`, "L1,C9"},
		{"control char in string", "\"hello\x00world\"", "L1,C7"},
		{"bad escape", `"\x"`, "L1,C3"},
		{"bad literal", `tru`, "L1,C4"},
		{"literal run on", `truefalse`, "L1,C5"},
		{"leading zero", `01`, "L1,C2"},
		{"truncated number", `[1.]`, "L1,C4"},
		{"unclosed array", "[1,\n2", "L2,C2"},
		{"trailing comma", `[1,]`, "L1,C4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDecoder(strings.NewReader(tt.input)).Produce(token.NewBuffer())
			var syntaxErr *SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Fatalf("expected syntax error, got %v", err)
			}
			if got := syntaxErr.Pos.String(); got != tt.pos {
				t.Errorf("error %q at %s, want %s", err, got, tt.pos)
			}
		})
	}
}

func TestDecoderInvalidUTF8(t *testing.T) {
	err := NewDecoder(strings.NewReader("[\"a\xc0\xafb\"]")).Produce(token.NewBuffer())
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("expected ErrInvalidUTF8, got %v", err)
	}
}

func TestDecoderUnexpectedEOF(t *testing.T) {
	for _, input := range []string{`{"a":`, `"abc`, `[`, `{"a"`} {
		err := NewDecoder(strings.NewReader(input)).Produce(token.NewBuffer())
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("%q: expected unexpected EOF, got %v", input, err)
		}
	}
}

func TestDecoderReadError(t *testing.T) {
	readErr := errors.New("boom")
	r := io.MultiReader(strings.NewReader(`[1, `), iotest.ErrReader(readErr))
	err := NewDecoder(r).Produce(token.NewBuffer())
	if !errors.Is(err, readErr) {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestDecoderDeepNesting(t *testing.T) {
	depth := 50
	input := strings.Repeat("[", depth) + "42" + strings.Repeat("]", depth)
	if n := len(decodeString(t, input)); n != depth*2+1 {
		t.Errorf("expected %d tokens, got %d", depth*2+1, n)
	}
}

// decodeString decodes a JSON string and returns all tokens
func decodeString(t *testing.T, input string) []token.Token {
	t.Helper()
	buf := token.NewBuffer()
	if err := NewDecoder(strings.NewReader(input)).Produce(buf); err != nil {
		t.Fatalf("decoding %q: %s", input, err)
	}
	return replay(buf)
}

func replay(buf *token.Buffer) []token.Token {
	var toks []token.Token
	for r := buf.Replay(); ; {
		tok := r.Next()
		if tok == nil {
			return toks
		}
		toks = append(toks, tok)
	}
}

func tokenStrings(toks []token.Token) []string {
	var out []string
	for _, tok := range toks {
		out = append(out, tok.String())
	}
	return out
}

// describeTokens renders tokens with their scalar flags so that token
// sequences can be diffed.
func describeTokens(toks []token.Token) []string {
	var out []string
	for _, tok := range toks {
		if s, ok := tok.(*token.Scalar); ok && s.TypeAndFlags&^(token.TypeMask|token.KeyMask) != 0 {
			out = append(out, fmt.Sprintf("%s/%b", s, s.TypeAndFlags>>3))
			continue
		}
		out = append(out, tok.String())
	}
	return out
}
