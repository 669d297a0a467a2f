package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Neumenon/kore/codec"
	"github.com/Neumenon/kore/kore"
	"github.com/Neumenon/kore/prooftrace"
	"github.com/Neumenon/kore/stream"
)

const sumText = `Lbl'Plus'Int{}(X:SortInt{}, \dv{SortInt{}}("1"))`

func run(t *testing.T, stdin []byte, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(bytes.NewReader(stdin))
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func sortInt() *kore.CompositeSort {
	return kore.NewCompositeSort("SortInt", kore.NewValueType(kore.CategoryInt))
}

func intValue(v string) kore.Pattern {
	return kore.MustApply(kore.NewSymbol(`\dv`, sortInt()), kore.NewStringPattern(v))
}

func sampleTraceFile(t *testing.T) string {
	t.Helper()
	data, err := prooftrace.Serialize(&prooftrace.RewriteTrace{
		Version:       prooftrace.Version,
		InitialConfig: intValue("0"),
		Trace: []*prooftrace.Event{
			prooftrace.NewStepEvent(&prooftrace.RuleEvent{RewriteEvent: prooftrace.RewriteEvent{
				RuleOrdinal:  42,
				Substitution: []prooftrace.Binding{{Name: "VarX", Pattern: intValue("1")}},
			}}),
			prooftrace.NewPatternEvent(intValue("2")),
		},
	})
	require.NoError(t, err)
	return writeFile(t, "run.hint", data)
}

// ============================================================
// convert and print
// ============================================================

func TestConvert_TextBinaryRoundTrip(t *testing.T) {
	in := writeFile(t, "sum.kore", []byte(sumText+"\n"))
	bin := filepath.Join(t.TempDir(), "sum.bin")

	_, err := run(t, nil, "convert", "--to", "binary", in, "-O", bin)
	require.NoError(t, err)

	data, err := os.ReadFile(bin)
	require.NoError(t, err)
	v, size, ok := codec.PeekHeader(data)
	require.True(t, ok)
	assert.Equal(t, codec.CurrentVersion, v)
	assert.NotZero(t, size)

	out, err := run(t, nil, "convert", bin)
	require.NoError(t, err)
	assert.Equal(t, sumText+"\n", out)
}

func TestConvert_OldVersionWithoutSize(t *testing.T) {
	in := writeFile(t, "sum.kore", []byte(sumText))

	out, err := run(t, nil, "convert", "--to", "binary", "--format-version", "1.1.0", in)
	require.NoError(t, err)
	v, size, ok := codec.PeekHeader([]byte(out))
	require.True(t, ok)
	assert.Equal(t, codec.Version{Major: 1, Minor: 1, Patch: 0}, v)
	assert.Zero(t, size)

	printed, err := run(t, []byte(out), "print")
	require.NoError(t, err)
	assert.Equal(t, sumText+"\n", printed)
}

func TestConvert_Compressed(t *testing.T) {
	in := writeFile(t, "sum.kore", []byte(sumText))

	out, err := run(t, nil, "convert", "--to", "binary", "--zstd", in)
	require.NoError(t, err)
	assert.True(t, stream.IsCompressed([]byte(out)))

	printed, err := run(t, []byte(out), "print", "-")
	require.NoError(t, err)
	assert.Equal(t, sumText+"\n", printed)
}

func TestConvert_Errors(t *testing.T) {
	in := writeFile(t, "sum.kore", []byte(sumText))

	_, err := run(t, nil, "convert", "--to", "json", in)
	assert.Error(t, err)

	_, err = run(t, nil, "convert", "--to", "binary", "--format-version", "3.0.0", in)
	var ue *codec.UnsupportedVersionError
	assert.ErrorAs(t, err, &ue)

	_, err = run(t, []byte("X:"), "convert", "--to", "binary")
	assert.Error(t, err)
}

func TestPrint_Container(t *testing.T) {
	var buf bytes.Buffer
	w := stream.NewWriter(&buf)
	require.NoError(t, w.WriteAll([]kore.Pattern{intValue("1"), intValue("2")}))

	out, err := run(t, nil, "print", writeFile(t, "terms.bin", buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "\\dv{SortInt{}}(\"1\")\n\\dv{SortInt{}}(\"2\")\n", out)
}

func TestPrint_MaxPatternSize(t *testing.T) {
	data := codec.Serialize(intValue("123456789"), codec.WithEmitSize())
	path := writeFile(t, "big.bin", data)

	_, err := run(t, nil, "--max-pattern-size", "4", "print", path)
	var fe *codec.FormatError
	assert.ErrorAs(t, err, &fe)
}

func TestPrint_TextInput(t *testing.T) {
	out, err := run(t, nil, "print", writeFile(t, "sum.kore", []byte(sumText+"\n")))
	require.NoError(t, err)
	assert.Equal(t, sumText+"\n", out)
}

func TestConvert_RewritesBinaryVersion(t *testing.T) {
	in := writeFile(t, "sum.kore", []byte(sumText))
	current, err := run(t, nil, "convert", "--to", "binary", in)
	require.NoError(t, err)

	out, err := run(t, []byte(current), "convert", "--to", "binary", "--format-version", "1.0.0")
	require.NoError(t, err)
	v, _, ok := codec.PeekHeader([]byte(out))
	require.True(t, ok)
	assert.Equal(t, codec.Version{Major: 1, Minor: 0, Patch: 0}, v)
}

func TestPrint_MaxDepth(t *testing.T) {
	path := writeFile(t, "sum.bin", codec.Serialize(intValue("1"), codec.WithEmitSize()))

	_, err := run(t, nil, "--max-depth", "1", "print", path)
	var fe *codec.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "nesting too deep", fe.Reason)

	_, err = run(t, nil, "--max-depth", "8", "print", path)
	assert.NoError(t, err)
}

func TestPrint_MaxDecompressedSize(t *testing.T) {
	var buf bytes.Buffer
	w := stream.NewWriter(&buf)
	for i := 0; i < 200; i++ {
		require.NoError(t, w.Write(intValue("1")))
	}
	packed, err := stream.Compress(buf.Bytes())
	require.NoError(t, err)
	path := writeFile(t, "terms.bin.zst", packed)

	_, err = run(t, nil, "--max-decompressed-size", "64", "print", path)
	assert.Error(t, err)

	out, err := run(t, nil, "print", path)
	require.NoError(t, err)
	assert.Equal(t, 200, strings.Count(out, "\n"))
}

// ============================================================
// trace
// ============================================================

func TestTrace_Text(t *testing.T) {
	out, err := run(t, nil, "trace", sampleTraceFile(t))
	require.NoError(t, err)
	assert.Contains(t, out, "version: 1\n")
	assert.Contains(t, out, "  rule: 42 1\n")
	assert.Contains(t, out, "    VarX = \\dv{SortInt{}}(\"1\")\n")
}

func TestTrace_Table(t *testing.T) {
	out, err := run(t, nil, "trace", "-o", "table", sampleTraceFile(t))
	require.NoError(t, err)
	assert.Contains(t, out, "VarX")
	assert.Contains(t, out, "42")
	assert.True(t, strings.HasSuffix(out, "(2 events)\n"))
}

func TestTrace_YAML(t *testing.T) {
	out, err := run(t, nil, "trace", "--output", "yaml", sampleTraceFile(t))
	require.NoError(t, err)

	var doc struct {
		Version       int    `yaml:"version"`
		InitialConfig string `yaml:"initial_config"`
		Trace         []struct {
			Kind         string `yaml:"kind"`
			Ordinal      uint64 `yaml:"ordinal"`
			Pattern      string `yaml:"pattern"`
			Substitution []struct {
				Name string `yaml:"name"`
			} `yaml:"substitution"`
		} `yaml:"trace"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, `\dv{SortInt{}}("0")`, doc.InitialConfig)
	require.Len(t, doc.Trace, 2)
	assert.Equal(t, "rule", doc.Trace[0].Kind)
	assert.Equal(t, uint64(42), doc.Trace[0].Ordinal)
	assert.Equal(t, "VarX", doc.Trace[0].Substitution[0].Name)
	assert.Equal(t, "argument", doc.Trace[1].Kind)
	assert.Equal(t, `\dv{SortInt{}}("2")`, doc.Trace[1].Pattern)
}

func TestTrace_UnknownOutput(t *testing.T) {
	_, err := run(t, nil, "trace", "-o", "html", sampleTraceFile(t))
	assert.Error(t, err)
}

// ============================================================
// check and version
// ============================================================

func TestCheck(t *testing.T) {
	good := writeFile(t, "good.bin", codec.Serialize(intValue("1"), codec.WithEmitSize()))
	trace := sampleTraceFile(t)
	bad := writeFile(t, "bad.bin", []byte("not a pattern"))

	out, err := run(t, nil, "check", good, trace)
	require.NoError(t, err)
	assert.Contains(t, out, "ok   "+good+": 1 patterns")
	assert.Contains(t, out, "ok   "+trace+": proof trace with 0 pre-trace and 2 trace events")

	out, err = run(t, nil, "check", "-j", "2", good, bad)
	require.Error(t, err)
	assert.Contains(t, out, "FAIL "+bad)
	assert.Contains(t, err.Error(), "1 of 2 files failed")
}

func TestVersion(t *testing.T) {
	out, err := run(t, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "kore v"+Version)
	assert.Contains(t, out, "pattern format "+codec.CurrentVersion.String())
}
