// bench - KORE binary codec benchmark runner
//
// Compares the binary pattern format against KORE text for a set of
// generated pattern shapes:
//   - Bytes on wire (text, binary, binary+zstd)
//   - Encode and decode throughput
//
// Output: table on stdout, optional CSV and markdown summary
package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/pflag"

	"github.com/Neumenon/kore/codec"
	"github.com/Neumenon/kore/kore"
	"github.com/Neumenon/kore/stream"
)

type CaseResult struct {
	Name        string
	Nodes       int
	TextBytes   int
	BinaryBytes int
	ZstdBytes   int
	EncodeNs    int64
	DecodeNs    int64
	BytesPct    float64
}

type benchCase struct {
	name    string
	pattern kore.Pattern
}

func main() {
	iterations := pflag.IntP("iterations", "n", 200, "Encode/decode iterations per case")
	csvPath := pflag.String("csv", "", "Write CSV results to this file")
	mdPath := pflag.String("markdown", "", "Write a markdown report to this file")
	pflag.Parse()

	fmt.Fprintf(os.Stderr, "KORE Codec Benchmark Runner\n")
	fmt.Fprintf(os.Stderr, "===========================\n")
	fmt.Fprintf(os.Stderr, "Format: %s, %d iterations per case\n\n", codec.CurrentVersion, *iterations)

	var results []CaseResult
	for _, c := range cases() {
		r, err := runCase(c, *iterations)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skip %s: %v\n", c.name, err)
			continue
		}
		results = append(results, r)
	}

	if *csvPath != "" {
		if f, err := os.Create(*csvPath); err == nil {
			writeCSV(f, results)
			f.Close()
			fmt.Fprintf(os.Stderr, "CSV written to: %s\n", *csvPath)
		}
	}
	if *mdPath != "" {
		if f, err := os.Create(*mdPath); err == nil {
			writeMarkdown(f, results)
			f.Close()
			fmt.Fprintf(os.Stderr, "Markdown written to: %s\n", *mdPath)
		}
	}

	writeTable(os.Stdout, results)
}

func runCase(c benchCase, iterations int) (CaseResult, error) {
	text := c.pattern.String()
	bin := codec.Serialize(c.pattern, codec.WithEmitSize())
	packed, err := stream.Compress(bin)
	if err != nil {
		return CaseResult{}, err
	}

	start := time.Now()
	for i := 0; i < iterations; i++ {
		codec.Serialize(c.pattern, codec.WithEmitSize())
	}
	encode := time.Since(start)

	start = time.Now()
	for i := 0; i < iterations; i++ {
		p, err := codec.Deserialize(bin)
		if err != nil {
			return CaseResult{}, err
		}
		if i == 0 && !p.Equal(c.pattern) {
			return CaseResult{}, fmt.Errorf("round trip changed the pattern")
		}
	}
	decode := time.Since(start)

	n := int64(max(iterations, 1))
	return CaseResult{
		Name:        c.name,
		Nodes:       countNodes(c.pattern),
		TextBytes:   len(text),
		BinaryBytes: len(bin),
		ZstdBytes:   len(packed),
		EncodeNs:    encode.Nanoseconds() / n,
		DecodeNs:    decode.Nanoseconds() / n,
		BytesPct:    float64(len(text)-len(bin)) / float64(len(text)) * 100,
	}, nil
}

// ============================================================
// Generated cases
// ============================================================

func sortInt() *kore.CompositeSort {
	return kore.NewCompositeSort("SortInt", kore.NewValueType(kore.CategoryInt))
}

func intValue(v int) kore.Pattern {
	return kore.MustApply(kore.NewSymbol(`\dv`, sortInt()), kore.NewStringPattern(strconv.Itoa(v)))
}

func plus() *kore.Symbol {
	sym := kore.NewSymbol("Lbl'UndsPlus'Int'Unds'Int")
	sym.AddFormalArgument(sortInt())
	sym.AddFormalArgument(sortInt())
	sym.AddSort(sortInt())
	return sym
}

func cases() []benchCase {
	return []benchCase{
		{"single value", intValue(42)},
		{"wide list", wideList(500)},
		{"deep sum", deepSum(200)},
		{"variables", variables(300)},
		{"long strings", longStrings(50, 512)},
	}
}

func wideList(n int) kore.Pattern {
	list := kore.NewCompositeSort("SortList", kore.NewValueType(kore.CategoryList))
	c := kore.NewCompositePattern(kore.NewSymbol("Lbl'Stop'List", list))
	for i := 0; i < n; i++ {
		_ = c.AddArgument(intValue(i))
	}
	return c
}

func deepSum(depth int) kore.Pattern {
	p := intValue(0)
	for i := 1; i <= depth; i++ {
		p = kore.MustApply(plus(), p, intValue(i))
	}
	return p
}

func variables(n int) kore.Pattern {
	c := kore.NewCompositePattern(kore.NewSymbol("Lbl'-LT-'k'-GT-'"))
	for i := 0; i < n; i++ {
		_ = c.AddArgument(kore.NewVariablePattern("Var"+strconv.Itoa(i%16), sortInt()))
	}
	return c
}

func longStrings(n, size int) kore.Pattern {
	str := kore.NewCompositeSort("SortString", kore.NewValueType(kore.CategoryStringBuffer))
	c := kore.NewCompositePattern(kore.NewSymbol("Lbl'Stop'Strings"))
	for i := 0; i < n; i++ {
		b := make([]byte, size)
		for j := range b {
			b[j] = byte('a' + (i+j)%26)
		}
		_ = c.AddArgument(kore.MustApply(kore.NewSymbol(`\dv`, str), kore.NewStringPattern(string(b))))
	}
	return c
}

func countNodes(p kore.Pattern) int {
	c, ok := p.(*kore.CompositePattern)
	if !ok {
		return 1
	}
	n := 1
	for _, arg := range c.Arguments() {
		n += countNodes(arg)
	}
	return n
}

// ============================================================
// Reports
// ============================================================

func writeTable(w io.Writer, results []CaseResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Case", "Nodes", "Text", "Binary", "Zstd", "Saved", "Encode", "Decode"})

	var text, bin, packed int
	for _, r := range results {
		t.AppendRow(table.Row{
			r.Name, r.Nodes, r.TextBytes, r.BinaryBytes, r.ZstdBytes,
			fmt.Sprintf("%.1f%%", r.BytesPct),
			time.Duration(r.EncodeNs).String(), time.Duration(r.DecodeNs).String(),
		})
		text += r.TextBytes
		bin += r.BinaryBytes
		packed += r.ZstdBytes
	}
	t.AppendFooter(table.Row{"total", "", text, bin, packed, "", "", ""})
	t.Render()
}

func writeCSV(w io.Writer, results []CaseResult) {
	fmt.Fprintln(w, "name,nodes,text_bytes,binary_bytes,zstd_bytes,bytes_pct,encode_ns,decode_ns")
	for _, r := range results {
		fmt.Fprintf(w, "%s,%d,%d,%d,%d,%.1f,%d,%d\n",
			r.Name, r.Nodes, r.TextBytes, r.BinaryBytes, r.ZstdBytes, r.BytesPct, r.EncodeNs, r.DecodeNs)
	}
}

func writeMarkdown(w io.Writer, results []CaseResult) {
	fmt.Fprintf(w, "# KORE Codec Benchmark Results\n\n")
	fmt.Fprintf(w, "**Date:** %s  \n", time.Now().Format("2006-01-02"))
	fmt.Fprintf(w, "**Format Version:** %s  \n\n", codec.CurrentVersion)

	sorted := make([]CaseResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].BytesPct > sorted[j].BytesPct
	})

	fmt.Fprintf(w, "## Size (best savings first)\n\n")
	fmt.Fprintf(w, "| Case | Text | Binary | Zstd | Saved |\n")
	fmt.Fprintf(w, "|------|------|--------|------|-------|\n")
	for _, r := range sorted {
		fmt.Fprintf(w, "| %s | %d | %d | %d | %.1f%% |\n", r.Name, r.TextBytes, r.BinaryBytes, r.ZstdBytes, r.BytesPct)
	}

	fmt.Fprintf(w, "\n## Throughput\n\n")
	fmt.Fprintf(w, "| Case | Nodes | Encode | Decode |\n")
	fmt.Fprintf(w, "|------|-------|--------|--------|\n")
	for _, r := range results {
		fmt.Fprintf(w, "| %s | %d | %s | %s |\n", r.Name, r.Nodes, time.Duration(r.EncodeNs), time.Duration(r.DecodeNs))
	}

	fmt.Fprintf(w, "\n## Methodology\n\n")
	fmt.Fprintf(w, "- **Text:** `Pattern.String()` output\n")
	fmt.Fprintf(w, "- **Binary:** `codec.Serialize` with the size field recorded\n")
	fmt.Fprintf(w, "- **Zstd:** the binary form compressed with `stream.Compress`\n")
}
