// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package suggest implements the grammar-suggestion engine (§4.F): it
// consumes a constraint-grammar cohort stream, interprets error and
// relation tags embedded in readings, resolves overlapping error
// regions, generates replacement surface forms via a morphological
// generator, attaches localized messages, and emits Err records with
// byte- or UTF-16-accurate spans.
//
// It is grounded on original_source's modules/divvun/suggest.rs
// (Suggester::run, proc_subreading, the squiggle/replacement/casing,
// demote_error_to_coerror, and expand_errs machinery) but is not a
// line-for-line port: the replacement-candidate cartesian product that
// file builds per cohort range is bounded here (capped combination
// count) rather than fully general. Overlap expansion and error
// demotion otherwise match the original step for step, documented in
// the grounding ledger.
package suggest

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/divvun/divvun-runtime-go/pkg/runtime/cohort"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/fluent"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/fst"
)

// AddedStatus classifies whether a cohort was synthesized by the
// grammar rather than present in the source text.
type AddedStatus int

const (
	NotAdded AddedStatus = iota
	AddedAfterBlank
	AddedBeforeBlank
)

// reading is one folded, logical processed reading (§4.F step 2-3): the
// composition of a cohort's top-level (depth-1) reading with any deeper subreadings
// that elaborate it.
type reading struct {
	suggest      bool
	suggestWF    bool
	coError      bool
	dropPreBlank bool
	fixedCase    bool
	added        AddedStatus
	id           int
	wf           string
	analysis     string
	errTags      map[string]bool
	coErrTags    map[string]bool
	rels         map[string]int // relation name -> target cohort id
	sforms       []string
	deleteSelf   bool
}

func newReading() *reading {
	return &reading{errTags: map[string]bool{}, coErrTags: map[string]bool{}, rels: map[string]int{}}
}

// processedCohort is one cohort after reading decode/fold, before
// relation resolution.
type processedCohort struct {
	form        string
	pos         int
	id          int
	added       AddedStatus
	readings    []*reading
	errTags     map[string]bool
	coErrTags   map[string]bool
	rawPreBlank string
}

var (
	leftRightDeleteRel = regexp.MustCompile(`^(LEFT|RIGHT|DELETE[0-9]*)$`)
	deleteRel          = regexp.MustCompile(`^DELETE[0-9]*$`)
)

// Id is an error-category identifier: either an explicit tag or a
// compiled regular expression (§6's errors.json schema).
type Id struct {
	Explicit string
	Regex    *regexp.Regexp
}

// Matches reports whether tag satisfies this Id.
func (i Id) Matches(tag string) bool {
	if i.Regex != nil {
		return i.Regex.MatchString(tag)
	}
	return i.Explicit == tag
}

// Err is one emitted suggestion record (§6's suggest output schema).
type Err struct {
	Form string   `json:"form"`
	Beg  int      `json:"beg"`
	End  int      `json:"end"`
	Err  string   `json:"err"`
	Msg  [2]string `json:"msg"`
	Rep  []string `json:"rep"`
}

// Generator produces candidate surface forms for a generator analysis
// string, via the same Gateway abstraction used for FST lookups — a
// generator transducer is, mechanically, just another lookup table keyed
// by analysis rather than surface form.
type Generator interface {
	LookupTags(ctx context.Context, input string, descend bool) ([]string, error)
}

// Options configures one Run invocation.
type Options struct {
	Locales  []string // tried in order, then the loader's default locale, then any loaded bundle
	Encoding string   // "" or "utf-8" (byte offsets), "utf-16" (code-unit offsets)
	Ignore   []Id     // Errs whose id matches any of these are dropped
}

// Suggester is a constructed divvun::suggest instance: an immutable
// generator, message loader, and error-category index, reusable across
// invocations.
type Suggester struct {
	Generator      Generator
	Loader         *fluent.Loader
	ErrorMappings  map[string][]Id
}

// Run executes the full §4.F pipeline over text, returning Err records
// sorted by start offset.
func (s *Suggester) Run(ctx context.Context, text string, opts Options) ([]Err, error) {
	stream := cohort.Parse(text)

	cohorts, reconstructed := buildSentence(stream)
	idToIndex := make(map[int]int, len(cohorts))
	for i, c := range cohorts {
		idToIndex[c.id] = i
	}

	for i := range cohorts {
		for _, r := range cohorts[i].readings {
			if r.suggest {
				s.generateSuggestions(ctx, r)
			}
		}
	}

	demote(cohorts, idToIndex)

	var errs []Err
	for i, c := range cohorts {
		for errTag := range c.errTags {
			e := s.buildErr(cohorts, idToIndex, i, errTag, reconstructed, opts.Locales)
			errs = append(errs, e)
		}
	}

	errs = filterIgnored(errs, opts.Ignore)
	errs = expandOverlaps(errs, reconstructed)

	sort.Slice(errs, func(a, b int) bool { return errs[a].Beg < errs[b].Beg })

	if opts.Encoding == "utf-16" {
		var err error
		errs, err = toUTF16Offsets(errs, reconstructed)
		if err != nil {
			return nil, err
		}
	}

	return errs, nil
}

// buildSentence walks the cohort stream, accumulating pre-blanks into
// the following cohort and reconstructing the source text (§4.F step 1).
func buildSentence(stream *cohort.Stream) ([]processedCohort, string) {
	var out []processedCohort
	var text strings.Builder
	var preBlank strings.Builder

	for _, blk := range stream.Blocks {
		switch blk.Kind {
		case cohort.BlockCohort:
			pc := decodeCohort(blk.Cohort)
			pc.rawPreBlank = preBlank.String()
			preBlank.Reset()

			text.WriteString(pc.rawPreBlank)
			pc.pos = text.Len()
			if pc.added == NotAdded {
				text.WriteString(pc.form)
			}

			if pc.id == 0 {
				pc.id = len(out) + 1
			}
			out = append(out, pc)
		default:
			preBlank.WriteString(cohort.CleanBlank(blk))
		}
	}
	text.WriteString(preBlank.String())

	return out, text.String()
}

// decodeCohort decodes and folds one raw cohort's readings into a
// processedCohort (§4.F steps 2-3).
func decodeCohort(c cohort.Cohort) processedCohort {
	pc := processedCohort{form: c.WordForm, errTags: map[string]bool{}, coErrTags: map[string]bool{}}

	var groups [][]cohort.Reading
	for _, r := range c.Readings {
		if r.Depth <= 1 || len(groups) == 0 {
			groups = append(groups, []cohort.Reading{r})
		} else {
			groups[len(groups)-1] = append(groups[len(groups)-1], r)
		}
	}

	for _, g := range groups {
		folded := foldGroup(g)
		if folded.deleteSelf && folded.id != 0 {
			folded.rels["DELETE"] = folded.id
		}
		if folded.id != 0 && pc.id == 0 {
			pc.id = folded.id
		}
		if folded.added != NotAdded {
			pc.added = folded.added
		}
		for tag := range folded.errTags {
			pc.errTags[tag] = true
		}
		for tag := range folded.coErrTags {
			pc.coErrTags[tag] = true
		}
		pc.readings = append(pc.readings, folded)
	}

	return pc
}

func foldGroup(g []cohort.Reading) *reading {
	r := newReading()
	var analyses []string

	for _, sub := range g {
		part := decodeSubreading(sub)
		if part.analysis != "" {
			analyses = append(analyses, part.analysis)
		}
		r.suggest = r.suggest || part.suggest
		r.suggestWF = r.suggestWF || part.suggestWF
		r.coError = r.coError || part.coError
		r.dropPreBlank = r.dropPreBlank || part.dropPreBlank
		r.fixedCase = r.fixedCase || part.fixedCase
		r.deleteSelf = r.deleteSelf || part.deleteSelf
		if part.added != NotAdded && r.added == NotAdded {
			r.added = part.added
		}
		if part.id != 0 && r.id == 0 {
			r.id = part.id
		}
		if part.wf != "" && r.wf == "" {
			r.wf = part.wf
		}
		for tag := range part.errTags {
			r.errTags[tag] = true
		}
		for tag := range part.coErrTags {
			r.coErrTags[tag] = true
		}
		for name, target := range part.rels {
			r.rels[name] = target
		}
	}

	r.analysis = strings.Join(analyses, "#")
	return r
}

// decodeSubreading partitions one raw reading's tags per the §4.F step 2
// table.
func decodeSubreading(sub cohort.Reading) *reading {
	r := newReading()

	var morph strings.Builder
	morph.WriteString(sub.BaseForm)

	for _, tag := range sub.Tags {
		switch {
		case tag == "&LINK" || tag == "&COERROR" || tag == "COERROR":
			r.coError = true
		case tag == "DROP-PRE-BLANK":
			r.dropPreBlank = true
		case tag == "&SUGGEST" || tag == "SUGGEST" || tag == "@SUGGEST":
			r.suggest = true
		case tag == "&SUGGESTWF" || tag == "SUGGESTWF" || tag == "@SUGGESTWF":
			r.suggestWF = true
		case tag == "&ADDED" || tag == "ADDED" || tag == "&ADDED-AFTER-BLANK" || tag == "ADDED-AFTER-BLANK":
			r.added = AddedAfterBlank
		case tag == "&ADDED-BEFORE-BLANK" || tag == "ADDED-BEFORE-BLANK":
			r.added = AddedBeforeBlank
		case tag == "DELETE":
			r.deleteSelf = true
		case tag == "<fixedcase>":
			r.fixedCase = true
		case strings.HasPrefix(tag, "ID:"):
			r.id = atoiOr0(tag[3:])
		case strings.HasPrefix(tag, "R:"):
			parts := strings.SplitN(tag[2:], ":", 2)
			if len(parts) == 2 {
				r.rels[parts[0]] = atoiOr0(parts[1])
			}
		case strings.HasPrefix(tag, `"`) && strings.HasSuffix(tag, `"S`) && len(tag) > 2:
			r.wf = tag[1 : len(tag)-2]
		case strings.HasPrefix(tag, `"<`) && strings.HasSuffix(tag, `>"`) && len(tag) > 3:
			r.wf = tag[2 : len(tag)-2]
		case isCoErrorTag(tag):
			r.coErrTags[tag[3:]] = true
		case strings.HasPrefix(tag, "&"):
			r.errTags[tag[1:]] = true
		case isCGInternalTag(tag):
			// discarded: CG-internal bookkeeping, not a morphological tag.
		default:
			morph.WriteString("+")
			morph.WriteString(tag)
		}
	}

	if r.suggestWF && r.wf != "" {
		r.sforms = append(r.sforms, r.wf)
	}

	full := morph.String()
	if full != sub.BaseForm {
		r.analysis = full
	}
	return r
}

func isCoErrorTag(tag string) bool {
	for _, prefix := range []string{"co&", "cO&", "Co&", "CO&"} {
		if strings.HasPrefix(tag, prefix) {
			return true
		}
	}
	return false
}

func isCGInternalTag(tag string) bool {
	prefixes := []string{"#", "@", "Sem/", "§", "<", "ADD:", "PROTECT:", "UNPROTECT:",
		"MAP:", "REPLACE:", "SELECT:", "REMOVE:", "IFF:", "APPEND:", "SUBSTITUTE:"}
	for _, p := range prefixes {
		if strings.HasPrefix(tag, p) {
			return true
		}
	}
	return false
}

func atoiOr0(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// generateSuggestions calls the generator for a suggest-flagged reading,
// retrying with just the base-form prefix if the full analysis yields
// nothing and contains the "unknown tag combination" marker "+?".
func (s *Suggester) generateSuggestions(ctx context.Context, r *reading) {
	if r.analysis == "" {
		return
	}
	out, err := s.Generator.LookupTags(ctx, r.analysis, false)
	if err != nil {
		out = nil
	}
	if len(out) == 0 && strings.Contains(r.analysis, "+?") {
		base := r.analysis
		if idx := strings.Index(base, "+"); idx >= 0 {
			base = base[:idx]
		}
		out, _ = s.Generator.LookupTags(ctx, base, false)
	}

	seen := map[string]bool{}
	var uniq []string
	for _, o := range out {
		if !seen[o] {
			seen[o] = true
			uniq = append(uniq, o)
		}
	}
	sort.Strings(uniq)
	r.sforms = append(r.sforms, uniq...)
}

// demote pushes a reading's error tags onto its LEFT/RIGHT/DELETE* target
// cohort as co-error tags, so the target is never separately reported
// (§4.F step 4).
func demote(cohorts []processedCohort, idToIndex map[int]int) {
	for _, c := range cohorts {
		for _, r := range c.readings {
			for name, target := range r.rels {
				if !leftRightDeleteRel.MatchString(name) {
					continue
				}
				idx, ok := idToIndex[target]
				if !ok {
					continue
				}
				for tag := range r.errTags {
					cohorts[idx].coErrTags[tag] = true
					delete(cohorts[idx].errTags, tag)
					for _, tr := range cohorts[idx].readings {
						tr.coErrTags[tag] = true
						delete(tr.errTags, tag)
					}
				}
			}
		}
	}
}

// buildErr computes one Err for cohorts[srcIdx]'s errTag (§4.F step 5).
func (s *Suggester) buildErr(cohorts []processedCohort, idToIndex map[int]int, srcIdx int, errTag string, text string, locales []string) Err {
	src := cohorts[srcIdx]

	leftIdx, rightIdx := squiggleBounds(cohorts, idToIndex, src, errTag, srcIdx)
	deleteSet := deleteTargets(src, errTag)

	beg := cohorts[leftIdx].pos
	end := cohorts[rightIdx].pos + len(cohorts[rightIdx].form)
	if cohorts[rightIdx].added != NotAdded {
		end = cohorts[rightIdx].pos
	}
	if beg > len(text) {
		beg = len(text)
	}
	if end > len(text) {
		end = len(text)
	}
	span := text
	if beg <= end {
		span = text[beg:end]
	}

	reps := buildReplacements(cohorts, leftIdx, rightIdx, errTag, deleteSet)
	casing := detectCasing(span)
	anyFixedCase := false
	for i := leftIdx; i <= rightIdx; i++ {
		for _, r := range cohorts[i].readings {
			if r.fixedCase {
				anyFixedCase = true
			}
		}
	}
	if !anyFixedCase {
		for i, rep := range reps {
			reps[i] = applyCasing(rep, casing)
		}
	}
	reps = dedupeNonEqual(reps, span)

	var rep string
	if len(reps) > 0 {
		rep = reps[0]
	}
	title, desc := s.Loader.Message(errTag, locales, src.form, rep)

	return Err{Form: span, Beg: beg, End: end, Err: errTag, Msg: [2]string{title, desc}, Rep: reps}
}

func squiggleBounds(cohorts []processedCohort, idToIndex map[int]int, src processedCohort, errTag string, srcIdx int) (int, int) {
	left, right := srcIdx, srcIdx
	for _, r := range src.readings {
		if !r.errTags[errTag] {
			continue
		}
		for name, target := range r.rels {
			if !leftRightDeleteRel.MatchString(name) {
				continue
			}
			idx, ok := idToIndex[target]
			if !ok {
				continue
			}
			if idx < left {
				left = idx
			}
			if idx > right {
				right = idx
			}
		}
	}
	return left, right
}

func deleteTargets(src processedCohort, errTag string) map[int]bool {
	set := map[int]bool{}
	for _, r := range src.readings {
		if !r.errTags[errTag] {
			continue
		}
		for name, target := range r.rels {
			if deleteRel.MatchString(name) {
				set[target] = true
			}
		}
	}
	return set
}

// buildReplacements constructs candidate replacement strings for the
// cohort span [leftIdx, rightIdx] (§4.F step 5, "Replacement
// construction"). The cartesian product across cohorts is capped to
// avoid pathological blowup on long spans.
func buildReplacements(cohorts []processedCohort, leftIdx, rightIdx int, errTag string, deleteSet map[int]bool) []string {
	const maxCandidates = 32
	candidates := []string{""}

	for i := leftIdx; i <= rightIdx; i++ {
		c := cohorts[i]
		deleted := deleteSet[c.id] && isDeletionUnambiguous(c, errTag)

		blank := c.rawPreBlank
		if c.readings != nil && hasDropPreBlank(c.readings) {
			blank = ""
		}
		if c.added == AddedBeforeBlank {
			blank = ""
		}

		options := []string{""}
		if !deleted {
			options = replacementOptions(c, errTag)
		}

		var next []string
		for _, cand := range candidates {
			for _, opt := range options {
				if len(next) >= maxCandidates {
					break
				}
				next = append(next, cand+blank+opt)
			}
		}
		if len(next) == 0 {
			next = []string{candidates[0] + blank + c.form}
		}
		candidates = next
	}

	return candidates
}

func hasDropPreBlank(readings []*reading) bool {
	for _, r := range readings {
		if r.dropPreBlank {
			return true
		}
	}
	return false
}

// replacementOptions returns the surface-form candidates a cohort
// contributes: suggestions from a matching reading, a word-form override
// from an added reading, or the cohort's own unmodified form.
func replacementOptions(c processedCohort, errTag string) []string {
	for _, r := range c.readings {
		matches := r.errTags[errTag] || r.coErrTags[errTag]
		if !matches {
			continue
		}
		if len(r.sforms) > 0 {
			return r.sforms
		}
		if r.added != NotAdded && r.wf != "" {
			return []string{r.wf}
		}
	}
	// no matching reading carried a replacement: pass the form through unchanged
	return []string{c.form}
}

func isDeletionUnambiguous(c processedCohort, srcErrTag string) bool {
	hasSrcTag := false
	hasOtherErrTag := false
	for tag := range c.errTags {
		if tag == srcErrTag {
			hasSrcTag = true
		} else {
			hasOtherErrTag = true
		}
	}
	for tag := range c.coErrTags {
		if tag == srcErrTag {
			hasSrcTag = true
		}
	}
	if hasSrcTag {
		return true
	}
	return !hasOtherErrTag
}

type casingKind int

const (
	casingLower casingKind = iota
	casingTitle
	casingUpper
	casingMixed
)

func detectCasing(s string) casingKind {
	if s == "" {
		return casingLower
	}
	runes := []rune(s)
	allUpper, allLower := true, true
	for _, r := range runes {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				allUpper = false
			}
			if !unicode.IsLower(r) {
				allLower = false
			}
		}
	}
	switch {
	case allUpper && !allLower:
		return casingUpper
	case allLower:
		return casingLower
	case unicode.IsUpper(runes[0]):
		return casingTitle
	default:
		return casingMixed
	}
}

func applyCasing(s string, kind casingKind) string {
	switch kind {
	case casingUpper:
		return strings.ToUpper(s)
	case casingLower:
		return strings.ToLower(s)
	case casingTitle:
		if s == "" {
			return s
		}
		runes := []rune(s)
		return strings.ToUpper(string(runes[0])) + string(runes[1:])
	default:
		return s
	}
}

func dedupeNonEqual(reps []string, original string) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range reps {
		r = strings.TrimSpace(r)
		if r == "" || r == original || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

func filterIgnored(errs []Err, ignore []Id) []Err {
	if len(ignore) == 0 {
		return errs
	}
	var out []Err
	for _, e := range errs {
		ignored := false
		for _, id := range ignore {
			if id.Matches(e.Err) {
				ignored = true
				break
			}
		}
		if !ignored {
			out = append(out, e)
		}
	}
	return out
}

// expandOverlaps extends each error's span to cover any overlapping
// neighbor, in both directions, without merging the errors themselves
// (§4.F step 7): every Err survives as its own record, each with its
// bounds, form, and replacements grown to absorb the overlap.
func expandOverlaps(errs []Err, text string) []Err {
	if len(errs) < 2 {
		return errs
	}

	sort.Slice(errs, func(a, b int) bool { return errs[a].Beg < errs[b].Beg })
	for i := 1; i < len(errs); i++ {
		e := &errs[i]
		for j := i - 1; j >= 0; j-- {
			f := &errs[j]
			if f.Beg < e.Beg && f.End >= e.Beg {
				add := text[f.Beg:e.Beg]
				e.Form = add + e.Form
				e.Beg = f.Beg
				for k, r := range e.Rep {
					e.Rep[k] = add + r
				}
			}
		}
	}

	sort.Slice(errs, func(a, b int) bool { return errs[a].End < errs[b].End })
	for i := len(errs) - 2; i >= 0; i-- {
		e := &errs[i]
		for j := i + 1; j < len(errs); j++ {
			f := &errs[j]
			if f.End > e.End && f.Beg <= e.End {
				add := text[e.End:f.End]
				e.Form = e.Form + add
				e.End = f.End
				for k, r := range e.Rep {
					e.Rep[k] = r + add
				}
			}
		}
	}

	return errs
}

func toUTF16Offsets(errs []Err, text string) ([]Err, error) {
	runes := []rune(text)
	// byteToUTF16 maps a byte offset (which must fall on a rune boundary,
	// guaranteed since every offset here originates from a cohort or
	// cohort-range boundary) to its UTF-16 code-unit offset.
	byteToUTF16 := make(map[int]int, len(runes)+1)
	bytePos, u16Pos := 0, 0
	byteToUTF16[0] = 0
	for _, r := range runes {
		bytePos += utf8RuneLen(r)
		u16Pos += len(utf16.Encode([]rune{r}))
		byteToUTF16[bytePos] = u16Pos
	}

	out := make([]Err, len(errs))
	for i, e := range errs {
		beg, ok1 := byteToUTF16[e.Beg]
		end, ok2 := byteToUTF16[e.End]
		if !ok1 || !ok2 {
			return nil, errNotOnRuneBoundary
		}
		out[i] = e
		out[i].Beg = beg
		out[i].End = end
	}
	return out, nil
}

func utf8RuneLen(r rune) int {
	switch {
	case r < 0x80:
		return 1
	case r < 0x800:
		return 2
	case r < 0x10000:
		return 3
	default:
		return 4
	}
}

var errNotOnRuneBoundary = &boundaryError{}

type boundaryError struct{}

func (*boundaryError) Error() string {
	return "suggest: utf-16 offset conversion requires byte offsets on rune boundaries"
}
