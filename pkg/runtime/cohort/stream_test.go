// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

package cohort

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCG = "\"<teh>\"\n\t\"the\" Err/Orth &typo &SUGGEST\n\"<cat>\"\n\t\"cat\" N Sg\n"

func TestParse_DecodesCohortsAndReadings(t *testing.T) {
	s := Parse(sampleCG)
	require.Empty(t, s.Warnings)
	require.Len(t, s.Blocks, 2)

	first := s.Blocks[0]
	require.Equal(t, BlockCohort, first.Kind)
	assert.Equal(t, "teh", first.Cohort.WordForm)
	require.Len(t, first.Cohort.Readings, 1)
	assert.Equal(t, "the", first.Cohort.Readings[0].BaseForm)
	assert.Equal(t, []string{"Err/Orth", "&typo", "&SUGGEST"}, first.Cohort.Readings[0].Tags)
	assert.Equal(t, 1, first.Cohort.Readings[0].Depth)
}

func TestParse_RoundTrip(t *testing.T) {
	s := Parse(sampleCG)
	assert.Equal(t, sampleCG, s.Serialize())
}

func TestParse_RoundTrip_NoTrailingNewline(t *testing.T) {
	src := strings.TrimSuffix(sampleCG, "\n")
	s := Parse(src)
	assert.False(t, s.TrailingNewline)
	assert.Equal(t, src, s.Serialize())
}

func TestParse_SubreadingDepth(t *testing.T) {
	src := "\"<sunbeam>\"\n\t\"sun#beam\" N Cmp\n\t\t\"sun\" N Cmp/SplitPref\n"
	s := Parse(src)
	require.Len(t, s.Blocks, 1)
	readings := s.Blocks[0].Cohort.Readings
	require.Len(t, readings, 2)
	assert.Equal(t, 1, readings[0].Depth)
	assert.Equal(t, 2, readings[1].Depth)
}

func TestParse_TextAndEscapedBlocks(t *testing.T) {
	src := "\"<a>\"\n\t\"a\" X\n\n:  \n\"<b>\"\n\t\"b\" Y\n"
	s := Parse(src)
	var kinds []BlockKind
	for _, b := range s.Blocks {
		kinds = append(kinds, b.Kind)
	}
	assert.Equal(t, []BlockKind{BlockCohort, BlockText, BlockEscaped, BlockCohort}, kinds)
}

func TestParse_MalformedReadingLineWarnsAndSkips(t *testing.T) {
	src := "\"<teh>\"\n\tmissing-quotes\n\t\"the\" Err/Orth\n"
	s := Parse(src)
	require.Len(t, s.Warnings, 1)
	require.Len(t, s.Blocks, 1)
	assert.Len(t, s.Blocks[0].Cohort.Readings, 1)
}

func TestParse_ReadingWithNoPrecedingCohortWarns(t *testing.T) {
	s := Parse("\t\"orphan\" X\n")
	require.Len(t, s.Warnings, 1)
	assert.Empty(t, s.Blocks)
}

func TestCleanBlank_StripsEscapeMarker(t *testing.T) {
	blk := Block{Kind: BlockEscaped, Text: ":  extra whitespace  "}
	assert.Equal(t, "  extra whitespace  ", CleanBlank(blk))
}
