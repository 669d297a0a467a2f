package stream

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Neumenon/kore/codec"
	"github.com/Neumenon/kore/kore"
)

func sortInt() *kore.CompositeSort {
	return kore.NewCompositeSort("SortInt", kore.NewValueType(kore.CategoryInt))
}

func intValue(v string) kore.Pattern {
	return kore.MustApply(kore.NewSymbol(`\dv`, sortInt()), kore.NewStringPattern(v))
}

func samplePatterns() []kore.Pattern {
	return []kore.Pattern{
		intValue("0"),
		kore.MustApply(kore.NewSymbol("Lbl'Plus'Int"), kore.NewVariablePattern("X", sortInt()), intValue("1")),
		kore.NewStringPattern("plain"),
	}
}

func writeContainer(t *testing.T, patterns []kore.Pattern) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteAll(patterns))
	assert.Equal(t, len(patterns), w.Count())
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func assertPatterns(t *testing.T, want, got []kore.Pattern) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Equal(got[i]), "pattern %d: want %s, got %s", i, want[i], got[i])
	}
}

// ============================================================
// Plain containers
// ============================================================

func TestReader_ReadsAdjacentPatterns(t *testing.T) {
	data := writeContainer(t, samplePatterns())

	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer r.Close()

	got, err := r.ReadAll()
	require.NoError(t, err)
	assertPatterns(t, samplePatterns(), got)
	assert.Equal(t, 3, r.Count())

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReader_ContainerIsConcatenation(t *testing.T) {
	var want []byte
	for _, p := range samplePatterns() {
		want = append(want, codec.Serialize(p, codec.WithEmitSize())...)
	}
	assert.Equal(t, want, writeContainer(t, samplePatterns()))
}

func TestReader_EmptyContainer(t *testing.T) {
	r, err := NewReader(bytes.NewReader(nil))
	require.NoError(t, err)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReader_OneByteReads(t *testing.T) {
	data := writeContainer(t, samplePatterns())

	r, err := NewReader(iotest.OneByteReader(bytes.NewReader(data)))
	require.NoError(t, err)
	got, err := r.ReadAll()
	require.NoError(t, err)
	assertPatterns(t, samplePatterns(), got)
}

func TestReader_TruncatedPattern(t *testing.T) {
	data := writeContainer(t, samplePatterns())

	r, err := NewReader(bytes.NewReader(data[:len(data)-2]))
	require.NoError(t, err)
	got, err := r.ReadAll()
	assert.Len(t, got, 2)

	var fe *codec.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "truncated body", fe.Reason)
	var se *codec.ShortReadError
	assert.ErrorAs(t, err, &se)
}

func TestReader_MaxPatternSize(t *testing.T) {
	data := writeContainer(t, []kore.Pattern{kore.NewStringPattern("a long enough string")})

	r, err := NewReader(bytes.NewReader(data), WithMaxPatternSize(4))
	require.NoError(t, err)
	_, err = r.Next()
	var fe *codec.FormatError
	require.ErrorAs(t, err, &fe)

	r, err = NewReader(bytes.NewReader(data), WithMaxPatternSize(0))
	require.NoError(t, err)
	_, err = r.Next()
	assert.NoError(t, err)
}

func TestReader_StripRawTerm(t *testing.T) {
	inner := intValue("7")
	wrapped := kore.MustApply(kore.NewSymbol("rawTerm"), kore.MustApply(kore.NewSymbol("inj", sortInt(), sortInt()), inner))
	data := writeContainer(t, []kore.Pattern{wrapped})

	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	p, err := r.Next()
	require.NoError(t, err)
	assert.True(t, inner.Equal(p))

	r, err = NewReader(bytes.NewReader(data), WithStripRawTerm(false))
	require.NoError(t, err)
	p, err = r.Next()
	require.NoError(t, err)
	assert.True(t, wrapped.Equal(p))
}

func TestReader_LogsDecodedPatterns(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	data := writeContainer(t, samplePatterns()[:2])

	r, err := NewReader(bytes.NewReader(data), WithLogger(zap.New(core)))
	require.NoError(t, err)
	_, err = r.ReadAll()
	require.NoError(t, err)

	entries := logs.FilterMessage("decoded pattern").All()
	require.Len(t, entries, 2)
	assert.Equal(t, int64(0), entries[0].ContextMap()["offset"])
	assert.Equal(t, int64(1), entries[1].ContextMap()["index"])
}

func TestWriter_RejectsUnsizedVersion(t *testing.T) {
	w := NewWriter(io.Discard)
	err := w.SetVersion(codec.MinVersion)
	var ue *codec.UnsupportedVersionError
	require.ErrorAs(t, err, &ue)
	assert.NoError(t, w.SetVersion(codec.SizedVersion))
}

// ============================================================
// Compressed containers
// ============================================================

func TestCompressedWriter_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewCompressedWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, w.WriteAll(samplePatterns()))
	require.NoError(t, w.Close())
	assert.True(t, IsCompressed(buf.Bytes()))

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer r.Close()
	got, err := r.ReadAll()
	require.NoError(t, err)
	assertPatterns(t, samplePatterns(), got)
}

func TestCompressDecompress(t *testing.T) {
	plain := writeContainer(t, samplePatterns())
	assert.False(t, IsCompressed(plain))

	packed, err := Compress(plain)
	require.NoError(t, err)
	assert.True(t, IsCompressed(packed))

	out, err := Decompress(packed)
	require.NoError(t, err)
	assert.Equal(t, plain, out)

	out, err = Decompress(plain)
	require.NoError(t, err)
	assert.Equal(t, plain, out)
}

// ============================================================
// Limits
// ============================================================

// nested wraps a string literal in levels applications of f{}.
func nested(levels int) kore.Pattern {
	var p kore.Pattern = kore.NewStringPattern("leaf")
	for i := 0; i < levels; i++ {
		p = kore.MustApply(kore.NewSymbol("f"), p)
	}
	return p
}

func TestReader_NestingLimit(t *testing.T) {
	data := writeContainer(t, []kore.Pattern{nested(9), nested(10)})

	r, err := NewReader(bytes.NewReader(data), WithMaxDepth(10))
	require.NoError(t, err)

	p, err := r.Next()
	require.NoError(t, err)
	assert.True(t, nested(9).Equal(p))

	_, err = r.Next()
	var fe *codec.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "nesting too deep", fe.Reason)
}

func TestReader_DefaultNestingLimit(t *testing.T) {
	data := writeContainer(t, []kore.Pattern{nested(codec.DefaultMaxDepth)})

	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	_, err = r.Next()
	var fe *codec.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "nesting too deep", fe.Reason)
}

func TestDecompress_SizeLimit(t *testing.T) {
	plain := bytes.Repeat([]byte{0}, 1<<16)
	packed, err := Compress(plain)
	require.NoError(t, err)
	require.Less(t, len(packed), 1024)

	_, err = Decompress(packed, WithMaxDecompressedSize(1024))
	assert.Error(t, err)

	out, err := Decompress(packed, WithMaxDecompressedSize(1<<20))
	require.NoError(t, err)
	assert.Equal(t, plain, out)

	out, err = Decompress(packed, WithMaxDecompressedSize(0))
	require.NoError(t, err)
	assert.Len(t, out, 1<<16)
}
