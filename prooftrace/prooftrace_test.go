package prooftrace

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/kore/codec"
	"github.com/Neumenon/kore/kore"
)

func sortInt() *kore.CompositeSort {
	return kore.NewCompositeSort("SortInt", kore.NewValueType(kore.CategoryInt))
}

func intValue(v string) kore.Pattern {
	return kore.MustApply(kore.NewSymbol(`\dv`, sortInt()), kore.NewStringPattern(v))
}

func config(v string) kore.Pattern {
	return kore.MustApply(kore.NewSymbol("Lbl'-LT-'generatedTop'-GT-'"), intValue(v))
}

func sampleTrace() *RewriteTrace {
	return &RewriteTrace{
		Version: Version,
		PreTrace: []*Event{
			NewStepEvent(&HookEvent{
				Name:             "INT.add",
				RelativePosition: "0:1",
				Args: []*Event{
					NewPatternEvent(intValue("1")),
					NewStepEvent(&FunctionEvent{
						Name:             "Lblfoo",
						RelativePosition: "0",
						Args:             []*Event{NewPatternEvent(intValue("2"))},
					}),
				},
				Result: intValue("3"),
			}),
		},
		InitialConfig: config("0"),
		Trace: []*Event{
			NewStepEvent(&SideConditionEvent{RewriteEvent{
				RuleOrdinal:  7,
				Substitution: []Binding{{Name: "Var'Unds'0", Pattern: intValue("0")}},
			}}),
			NewStepEvent(&RuleEvent{RewriteEvent{
				RuleOrdinal: 1234,
				Substitution: []Binding{
					{Name: "VarY", Pattern: intValue("9")},
					{Name: "VarX", Pattern: intValue("0")},
				},
			}}),
			NewPatternEvent(config("1")),
			NewStepEvent(&FunctionEvent{Name: "Lblbar", RelativePosition: ""}),
		},
	}
}

func header(version uint32) []byte {
	buf := append([]byte{}, Magic[:]...)
	return binary.LittleEndian.AppendUint32(buf, version)
}

// ============================================================
// Round trip
// ============================================================

func TestSerializeParse_RoundTrip(t *testing.T) {
	want := sampleTrace()
	data, err := Serialize(want)
	require.NoError(t, err)

	got, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, want.Version, got.Version)
	require.Len(t, got.PreTrace, 1)
	require.Len(t, got.Trace, 4)
	assert.True(t, want.InitialConfig.Equal(got.InitialConfig))
	assert.Equal(t, want.String(), got.String())

	hook, ok := got.PreTrace[0].Step().(*HookEvent)
	require.True(t, ok)
	assert.Equal(t, "INT.add", hook.Name)
	assert.Equal(t, "0:1", hook.RelativePosition)
	require.Len(t, hook.Args, 2)
	assert.True(t, hook.Args[0].IsPattern())
	assert.False(t, hook.Args[0].IsStep())
	assert.True(t, hook.Args[1].IsStep())
	assert.True(t, intValue("3").Equal(hook.Result))

	rule, ok := got.Trace[1].Step().(*RuleEvent)
	require.True(t, ok)
	assert.Equal(t, uint64(1234), rule.RuleOrdinal)
	assert.Equal(t, "VarY", rule.Substitution[0].Name)
	x, ok := rule.Lookup("VarX")
	require.True(t, ok)
	assert.True(t, intValue("0").Equal(x))
	_, ok = rule.Lookup("VarZ")
	assert.False(t, ok)

	_, ok = got.Trace[0].Step().(*SideConditionEvent)
	assert.True(t, ok)
	assert.Nil(t, got.Trace[2].Step())
	assert.Equal(t, KindArgument, got.Trace[2].Kind())
}

func TestParseFrom(t *testing.T) {
	data, err := Serialize(sampleTrace())
	require.NoError(t, err)

	got, err := ParseFrom(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, sampleTrace().String(), got.String())
}

func TestParse_EmptyPreTraceAndTrace(t *testing.T) {
	data, err := Serialize(&RewriteTrace{Version: Version, InitialConfig: config("5")})
	require.NoError(t, err)

	got, err := Parse(data)
	require.NoError(t, err)
	assert.Empty(t, got.PreTrace)
	assert.Empty(t, got.Trace)
	assert.True(t, config("5").Equal(got.InitialConfig))
}

func TestWriter_Incremental(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader(Version))
	require.NoError(t, w.WriteInitialConfig(config("0")))
	require.NoError(t, w.WriteEvent(NewStepEvent(&RuleEvent{RewriteEvent{RuleOrdinal: 1}})))

	got, err := Parse(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, got.Trace, 1)
	assert.Equal(t, KindRule, got.Trace[0].Kind())
}

func TestSerialize_RejectsIncompleteEvents(t *testing.T) {
	_, err := Serialize(&RewriteTrace{Version: Version})
	assert.Error(t, err)

	_, err = Serialize(&RewriteTrace{
		Version:       Version,
		InitialConfig: config("0"),
		Trace:         []*Event{NewStepEvent(&HookEvent{Name: "INT.add"})},
	})
	assert.Error(t, err)

	_, err = Serialize(&RewriteTrace{
		Version:       Version,
		InitialConfig: config("0"),
		Trace:         []*Event{{}},
	})
	assert.Error(t, err)
}

// ============================================================
// Text form
// ============================================================

func TestEvent_String(t *testing.T) {
	e := NewStepEvent(&FunctionEvent{
		Name:             "Lblfoo",
		RelativePosition: "0:1",
		Args: []*Event{
			NewPatternEvent(intValue("1")),
			NewStepEvent(&RuleEvent{RewriteEvent{
				RuleOrdinal:  3,
				Substitution: []Binding{{Name: "X", Pattern: intValue("2")}},
			}}),
		},
	})

	want := "function: Lblfoo (0:1)\n" +
		"  pattern: \\dv{SortInt{}}(\"1\")\n" +
		"  rule: 3 1\n" +
		"    X = \\dv{SortInt{}}(\"2\")"
	assert.Equal(t, want, e.String())
	assert.Equal(t, "side condition", KindSideCondition.String())
	assert.Equal(t, "unknown(0x20)", Kind(0x20).String())
}

// ============================================================
// Errors
// ============================================================

func TestParse_Errors(t *testing.T) {
	cfg := codec.Serialize(config("0"), codec.WithEmitSize())

	withConfig := func(prefix ...byte) []byte {
		buf := append(header(Version), prefix...)
		buf = append(buf, byte(KindConfig))
		return append(buf, cfg...)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"bad magic", []byte("HUNT\x01\x00\x00\x00")},
		{"truncated version", []byte("HINT\x01")},
		{"missing config", header(Version)},
		{"unknown pre-trace tag", withConfig(0x20)},
		{"unknown trace tag", append(withConfig(), 0x09)},
		{"truncated function", append(withConfig(), byte(KindFunction), 0x05, 'a')},
		{"count exceeds input", withConfig(byte(KindRule), 0x01, 0xFF, 0x7F)},
		{"truncated config", append(header(Version), append([]byte{byte(KindConfig)}, cfg[:len(cfg)-1]...)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			var fe *codec.FormatError
			require.ErrorAs(t, err, &fe)
		})
	}
}

// nestedFunctions builds a trace whose pre-trace is one function event
// nested levels deep through its arguments.
func nestedFunctions(levels int) []byte {
	buf := header(Version)
	for i := 1; i < levels; i++ {
		buf = append(buf, byte(KindFunction), 0x00, 0x00, 0x01)
	}
	buf = append(buf, byte(KindFunction), 0x00, 0x00, 0x00, byte(KindConfig))
	return append(buf, codec.Serialize(config("0"), codec.WithEmitSize())...)
}

func TestParse_NestingLimit(t *testing.T) {
	tr, err := Parse(nestedFunctions(5), codec.WithMaxDepth(5))
	require.NoError(t, err)
	require.Len(t, tr.PreTrace, 1)

	_, err = Parse(nestedFunctions(6), codec.WithMaxDepth(5))
	var fe *codec.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "nesting too deep", fe.Reason)

	_, err = Parse(nestedFunctions(codec.DefaultMaxDepth + 1))
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "nesting too deep", fe.Reason)
}

func TestParse_UnsupportedVersion(t *testing.T) {
	data := append(header(2), byte(KindConfig))
	_, err := Parse(data)
	var ue *codec.UnsupportedVersionError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "2", ue.Version)
}

func TestParse_PatternWithoutSize(t *testing.T) {
	data := append(header(Version), byte(KindConfig))
	data = append(data, codec.Serialize(config("0"))...)
	_, err := Parse(data)
	var me *codec.MissingSizeError
	require.ErrorAs(t, err, &me)
}
