package main

import (
	"bytes"
	stdjson "encoding/json"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arnodel/jsonfeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

// runJFeed executes the root command with the given stdin and args.
func runJFeed(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestJSONOutput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		args  []string
		want  string
	}{
		{
			name:  "pretty-print",
			input: `{"b":[1,2],"a":"x"}`,
			want:  "{\n  \"a\": \"x\",\n  \"b\": [\n    1,\n    2\n  ]\n}\n",
		},
		{
			name:  "compact",
			input: `{"b": [1, 2], "a": "x"}`,
			args:  []string{"-c"},
			want:  `{"a":"x","b":[1,2]}` + "\n",
		},
		{
			name:  "indent",
			input: `[true]`,
			args:  []string{"--indent", "4"},
			want:  "[\n    true\n]\n",
		},
		{
			name:  "html is not escaped",
			input: `"<a & b>"`,
			want:  "\"<a & b>\"\n",
		},
		{
			name:  "small chunks",
			input: `{"text": "日本語"}`,
			args:  []string{"-c", "--chunk-size", "1", "--prefetch", "2"},
			want:  `{"text":"日本語"}` + "\n",
		},
		{
			name:  "buffered",
			input: `{"text": "日本語"}`,
			args:  []string{"-c", "--buffered"},
			want:  `{"text":"日本語"}` + "\n",
		},
		{
			name:  "colors",
			input: `{"a":1}`,
			args:  []string{"-c", "--color", "always"},
			want:  "{\033[34;1m\"a\"\033[0m:\033[37m1\033[0m}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runJFeed(t, tt.input, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestWriteJSONValues(t *testing.T) {
	n, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)
	v := map[string]any{
		"z":   []any{1e8, 1e-7, -2.5, 3, int64(4), n, stdjson.Number("1.0")},
		"a\n": map[string]any{"t": true, "f": false, "null": nil, "s": "<é>"},
	}
	var out bytes.Buffer
	require.NoError(t, writeJSON(&out, v, -1, nil))
	want := `{"a\n":{"f":false,"null":null,"s":"<é>","t":true},"z":[100000000,1e-7,-2.5,3,4,123456789012345678901234567890,1.0]}` + "\n"
	assert.Equal(t, want, out.String())

	assert.Error(t, writeJSON(io.Discard, []any{struct{}{}}, -1, nil))
}

func TestCharset(t *testing.T) {
	path := writeFile(t, "latin1.json", []byte("[\"caf\xe9\"]"))
	out, err := runJFeed(t, "", "-c", "--charset", "latin1", path)
	require.NoError(t, err)
	assert.Equal(t, "[\"café\"]\n", out)

	out, err = runJFeed(t, "", "-c", "--content-type", "application/json; charset=ISO-8859-1", path)
	require.NoError(t, err)
	assert.Equal(t, "[\"café\"]\n", out)

	_, err = runJFeed(t, "", "--charset", "klingon", path)
	assert.ErrorIs(t, err, jsonfeed.ErrUnsupportedCharset)
}

func TestQuery(t *testing.T) {
	input := `{"items": [{"name": "a", "price": 3}, {"name": "b", "price": 12}]}`
	out, err := runJFeed(t, input, "-c", "-q", ".items[] | select(.price > 5) | .name")
	require.NoError(t, err)
	assert.Equal(t, "\"b\"\n", out)

	out, err = runJFeed(t, input, "-c", "-q", ".items[].name")
	require.NoError(t, err)
	assert.Equal(t, "\"a\"\n\"b\"\n", out)

	_, err = runJFeed(t, input, "-q", ".items[")
	assert.ErrorContains(t, err, "invalid query")

	_, err = runJFeed(t, input, "-q", `error("boom")`)
	assert.ErrorContains(t, err, "boom")
}

func TestYAMLOutput(t *testing.T) {
	out, err := runJFeed(t, `{"name": "x", "tags": ["a", "b"]}`, "-o", "yaml")
	require.NoError(t, err)
	assert.Equal(t, "---\nname: x\ntags:\n- a\n- b\n", out)
}

func TestMsgpackOutput(t *testing.T) {
	out, err := runJFeed(t, `{"name": "x", "ok": true}`, "-o", "msgpack")
	require.NoError(t, err)
	var v map[string]any
	require.NoError(t, msgpack.Unmarshal([]byte(out), &v))
	assert.Equal(t, map[string]any{"name": "x", "ok": true}, v)
}

func TestSchema(t *testing.T) {
	schema := writeFile(t, "schema.json", []byte(`{
		"type": "object",
		"required": ["name"],
		"properties": {"name": {"type": "string"}}
	}`))
	out, err := runJFeed(t, `{"name": "x"}`, "-c", "--schema", schema)
	require.NoError(t, err)
	assert.Equal(t, "{\"name\":\"x\"}\n", out)

	_, err = runJFeed(t, `{"name": 1}`, "--schema", schema)
	assert.ErrorContains(t, err, "schema validation failed")

	_, err = runJFeed(t, `{}`, "--schema", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestRepair(t *testing.T) {
	input := `{"a": "x", "b": [1, 2,],}`
	_, err := runJFeed(t, input, "-c")
	var parseErr *jsonfeed.ParseFeedError
	require.ErrorAs(t, err, &parseErr)

	out, err := runJFeed(t, input, "-c", "--repair")
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":[1,2]}`+"\n", out)

	// Valid input is left alone
	out, err = runJFeed(t, `[1]`, "-c", "--repair", "--chunk-size", "1")
	require.NoError(t, err)
	assert.Equal(t, "[1]\n", out)
}

func TestSeveralFiles(t *testing.T) {
	var paths []string
	for i, content := range []string{`1`, `"two"`, `[3]`, `{"four": 4}`, `5`} {
		paths = append(paths, writeFile(t, string(rune('a'+i))+".json", []byte(content)))
	}
	out, err := runJFeed(t, "", append([]string{"-c", "-j", "2"}, paths...)...)
	require.NoError(t, err)
	assert.Equal(t, "1\n\"two\"\n[3]\n{\"four\":4}\n5\n", out)

	bad := writeFile(t, "bad.json", []byte(`[1 2]`))
	out, err = runJFeed(t, "", "-c", paths[0], bad, paths[1])
	assert.ErrorContains(t, err, "bad.json")
	assert.Equal(t, "1\n\"two\"\n", out)
}

func TestStdinDash(t *testing.T) {
	out, err := runJFeed(t, `{"a": null}`, "-c", "-")
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":null}\n", out)
}

func TestEmptyInput(t *testing.T) {
	_, err := runJFeed(t, "  ", "-c")
	assert.ErrorIs(t, err, jsonfeed.ErrEmptyDocument)
}

func TestInvalidFlags(t *testing.T) {
	for _, args := range [][]string{
		{"--output", "xml"},
		{"--color", "sometimes"},
		{"--chunk-size", "0"},
		{"--jobs", "0"},
		{"--prefetch", "-1"},
		{"--prefetch-factor", "2"},
	} {
		_, err := runJFeed(t, `1`, args...)
		assert.Error(t, err, "%v", args)
	}
}

func TestEnvCommand(t *testing.T) {
	t.Setenv("JSONFEED_PREFETCH", "16")
	out, err := runJFeed(t, "", "env")
	require.NoError(t, err)
	assert.Contains(t, out, "JSONFEED_PREFETCH=16\n")
	assert.Contains(t, out, "JSONFEED_CHUNK_SIZE=8192\n")
}
