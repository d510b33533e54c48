package compiler

import (
	"unicode"

	"golang.org/x/text/unicode/rangetable"
)

// wordRange is one contiguous block of code points that may appear in an
// identifier alongside ordinary letters.
type wordRange struct {
	Lo, Hi rune
	Name   string
}

// wordRanges lists the ideographic blocks accepted in identifiers. Adding a
// script means adding a row here.
var wordRanges = []wordRange{
	{0x3400, 0x4DBF, "CJK Unified Ideographs Extension A"},
	{0x4E00, 0x9FFF, "CJK Unified Ideographs"},
	{0xF900, 0xFAFF, "CJK Compatibility Ideographs"},
	{0x20000, 0x2A6DF, "CJK Unified Ideographs Extension B"},
	{0x2A700, 0x2B73F, "CJK Unified Ideographs Extension C"},
	{0x2B740, 0x2B81F, "CJK Unified Ideographs Extension D"},
	{0x2B820, 0x2CEAF, "CJK Unified Ideographs Extension E"},
	{0x2F800, 0x2FA1F, "CJK Compatibility Ideographs Supplement"},
}

// wordTable is the merged RangeTable built from wordRanges.
var wordTable = buildWordTable(wordRanges)

func buildWordTable(ranges []wordRange) *unicode.RangeTable {
	tables := make([]*unicode.RangeTable, 0, len(ranges))
	for _, r := range ranges {
		tables = append(tables, rangeTable(r.Lo, r.Hi))
	}
	return rangetable.Merge(tables...)
}

// rangeTable describes the closed interval [lo, hi] with stride 1.
func rangeTable(lo, hi rune) *unicode.RangeTable {
	rt := &unicode.RangeTable{}
	if hi <= 0xFFFF {
		rt.R16 = []unicode.Range16{{Lo: uint16(lo), Hi: uint16(hi), Stride: 1}}
		if hi <= unicode.MaxLatin1 {
			rt.LatinOffset = 1
		}
		return rt
	}
	if lo <= 0xFFFF {
		rt.R16 = []unicode.Range16{{Lo: uint16(lo), Hi: 0xFFFF, Stride: 1}}
		lo = 0x10000
	}
	rt.R32 = []unicode.Range32{{Lo: uint32(lo), Hi: uint32(hi), Stride: 1}}
	return rt
}

// isWordStart reports whether r may begin an identifier or keyword.
func isWordStart(r rune) bool {
	return unicode.IsLetter(r) || unicode.Is(wordTable, r)
}

// isWordPart reports whether r may continue an identifier or keyword.
// Combining marks are accepted so decomposed spellings survive until NFC
// normalisation.
func isWordPart(r rune) bool {
	return isWordStart(r) || unicode.IsDigit(r) || r == '_' || unicode.In(r, unicode.Mn, unicode.Mc)
}
