package diff3

import (
	"bytes"
	"strings"
)

// HunkType classifies a hunk in a three-way merge result.
type HunkType int

const (
	HunkClean    HunkType = iota // Hunk was merged cleanly.
	HunkConflict                 // Hunk has a conflict that requires manual resolution.
)

// Hunk represents a contiguous section of the merge output.
type Hunk struct {
	Type                       HunkType
	Base, Ours, Theirs, Merged []byte
}

// Options control marker rendering and conflict reduction.
type Options struct {
	// Labels name the base, ours and theirs versions. Only the ours and
	// theirs labels appear in conflict markers; the base label is not
	// rendered. Empty labels fall back to "ours"/"theirs".
	Labels [3]string

	// ZealousAlnum aggressively shrinks conflicts: leading and trailing
	// lines whose alphanumeric content matches between the two sides are
	// moved out of the conflict, and hunks that match entirely are resolved
	// to the ours rendering. Matching lines between differing ones stay
	// inside the markers.
	ZealousAlnum bool
}

func (o Options) oursLabel() string {
	if o.Labels[1] != "" {
		return o.Labels[1]
	}
	return "ours"
}

func (o Options) theirsLabel() string {
	if o.Labels[2] != "" {
		return o.Labels[2]
	}
	return "theirs"
}

// Result holds the outcome of a three-way merge.
type Result struct {
	Merged    []byte // Full merged content (with conflict markers if conflicts exist).
	Conflicts int    // Number of conflict hunks remaining in the output.
	Hunks     []Hunk // Individual hunks in document order.
}

// HasConflicts reports whether any hunk required manual resolution.
func (r Result) HasConflicts() bool { return r.Conflicts > 0 }

// Merge performs a three-way merge of base, ours, and theirs.
//
// Algorithm:
//  1. Split base, ours, theirs into lines.
//  2. Compute diff(base, ours) and diff(base, theirs).
//  3. Convert each diff into a sequence of "chunks" — contiguous runs of
//     unchanged or changed regions relative to the base.
//  4. Walk through base lines, consulting both chunk sequences to decide
//     how each base region is handled.
//  5. When both sides change the same base region differently, emit a conflict.
func Merge(base, ours, theirs []byte, opts Options) Result {
	baseLines := splitLines(string(base))
	oursLines := splitLines(string(ours))
	theirsLines := splitLines(string(theirs))

	oursChunks := buildChunks(baseLines, oursLines)
	theirsChunks := buildChunks(baseLines, theirsLines)

	return mergeChunks(baseLines, oursChunks, theirsChunks, opts)
}

// splitLines splits s into lines. A trailing newline does not produce
// an extra empty element (matching standard text file conventions).
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	// Remove trailing empty string caused by a final newline.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// chunk represents a contiguous region relative to the base.
type chunk struct {
	baseStart, baseEnd int      // range [baseStart, baseEnd) in base
	lines              []string // replacement lines for this region
	changed            bool     // true if this region differs from base
}

// buildChunks converts a two-way diff (base → side) into a list of chunks.
// Each chunk covers a contiguous range of base lines and carries the
// corresponding replacement lines from the side.
func buildChunks(base, side []string) []chunk {
	ops := MyersDiff(base, side)

	var chunks []chunk
	baseIdx := 0

	i := 0
	for i < len(ops) {
		op := ops[i]

		if op.Type == Equal {
			// One equal line → unchanged chunk.
			chunks = append(chunks, chunk{
				baseStart: baseIdx,
				baseEnd:   baseIdx + 1,
				lines:     []string{op.Line},
				changed:   false,
			})
			baseIdx++
			i++
			continue
		}

		// Accumulate a contiguous changed region (deletes and/or inserts).
		chunkStart := baseIdx
		var sideLines []string

		for i < len(ops) && ops[i].Type != Equal {
			if ops[i].Type == Delete {
				baseIdx++
			} else { // Insert
				sideLines = append(sideLines, ops[i].Line)
			}
			i++
		}

		chunks = append(chunks, chunk{
			baseStart: chunkStart,
			baseEnd:   baseIdx,
			lines:     sideLines,
			changed:   true,
		})
	}

	return chunks
}

// merger accumulates merge output for one invocation.
type merger struct {
	opts      Options
	merged    bytes.Buffer
	hunks     []Hunk
	conflicts int
}

// mergeChunks walks two chunk sequences (ours and theirs) in parallel,
// aligned by base-line positions, to produce the merge result.
func mergeChunks(baseLines []string, oursChunks, theirsChunks []chunk, opts Options) Result {
	m := &merger{opts: opts}

	oi := 0 // index into oursChunks
	ti := 0 // index into theirsChunks

	for oi < len(oursChunks) || ti < len(theirsChunks) {
		// Determine which chunk(s) to process next based on baseStart.
		var oc, tc *chunk
		if oi < len(oursChunks) {
			oc = &oursChunks[oi]
		}
		if ti < len(theirsChunks) {
			tc = &theirsChunks[ti]
		}

		if oc == nil {
			// Only theirs left.
			m.writeClean(baseLines, tc)
			ti++
			continue
		}
		if tc == nil {
			// Only ours left.
			m.writeClean(baseLines, oc)
			oi++
			continue
		}

		// Both chunks available. They should cover the same base region
		// since they are derived from the same base.
		if oc.baseStart == tc.baseStart && oc.baseEnd == tc.baseEnd {
			// Chunks are aligned.
			switch {
			case !oc.changed && !tc.changed:
				// Both unchanged → take base.
				m.writeClean(baseLines, oc)
			case oc.changed && !tc.changed:
				// Only ours changed → take ours.
				m.writeClean(baseLines, oc)
			case !oc.changed && tc.changed:
				// Only theirs changed → take theirs.
				m.writeClean(baseLines, tc)
			default:
				// Both changed.
				if linesEqual(oc.lines, tc.lines) {
					// Identical change → take either, clean.
					m.writeClean(baseLines, oc)
				} else {
					baseRegion := baseLines[oc.baseStart:oc.baseEnd]
					m.emitConflict(baseRegion, oc.lines, tc.lines)
				}
			}
			oi++
			ti++
			continue
		}

		// Chunks are misaligned. This happens when one side has a change
		// that spans multiple base-aligned chunks on the other side.
		// We need to collect all overlapping chunks from both sides.
		regionStart := min(oc.baseStart, tc.baseStart)
		regionEnd := max(oc.baseEnd, tc.baseEnd)

		// Gather all ours chunks that overlap [regionStart, regionEnd).
		var oursRegion []chunk
		for oi < len(oursChunks) && oursChunks[oi].baseStart < regionEnd {
			oursRegion = append(oursRegion, oursChunks[oi])
			if oursChunks[oi].baseEnd > regionEnd {
				regionEnd = oursChunks[oi].baseEnd
			}
			oi++
		}

		// Gather all theirs chunks that overlap [regionStart, regionEnd).
		var theirsRegion []chunk
		for ti < len(theirsChunks) && theirsChunks[ti].baseStart < regionEnd {
			theirsRegion = append(theirsRegion, theirsChunks[ti])
			if theirsChunks[ti].baseEnd > regionEnd {
				regionEnd = theirsChunks[ti].baseEnd
			}
			ti++
		}

		// Reassemble lines for each side over the region.
		oursOut := assembleRegion(oursRegion)
		theirsOut := assembleRegion(theirsRegion)
		anyOursChanged := anyChanged(oursRegion)
		anyTheirsChanged := anyChanged(theirsRegion)

		baseRegion := baseLines[regionStart:regionEnd]

		switch {
		case !anyOursChanged && !anyTheirsChanged:
			m.writeLines(baseRegion)
			m.hunks = append(m.hunks, Hunk{
				Type:   HunkClean,
				Base:   joinLines(baseRegion),
				Merged: joinLines(baseRegion),
			})
		case anyOursChanged && !anyTheirsChanged:
			m.writeLines(oursOut)
			m.hunks = append(m.hunks, Hunk{
				Type:   HunkClean,
				Base:   joinLines(baseRegion),
				Ours:   joinLines(oursOut),
				Merged: joinLines(oursOut),
			})
		case !anyOursChanged && anyTheirsChanged:
			m.writeLines(theirsOut)
			m.hunks = append(m.hunks, Hunk{
				Type:   HunkClean,
				Base:   joinLines(baseRegion),
				Theirs: joinLines(theirsOut),
				Merged: joinLines(theirsOut),
			})
		default:
			// Both changed in the overlapping region.
			if linesEqual(oursOut, theirsOut) {
				m.writeLines(oursOut)
				m.hunks = append(m.hunks, Hunk{
					Type:   HunkClean,
					Base:   joinLines(baseRegion),
					Ours:   joinLines(oursOut),
					Merged: joinLines(oursOut),
				})
			} else {
				m.emitConflict(baseRegion, oursOut, theirsOut)
			}
		}
	}

	return Result{
		Merged:    m.merged.Bytes(),
		Conflicts: m.conflicts,
		Hunks:     m.hunks,
	}
}

func (m *merger) writeLines(lines []string) {
	for _, l := range lines {
		m.merged.WriteString(l)
		m.merged.WriteByte('\n')
	}
}

func (m *merger) writeClean(baseLines []string, c *chunk) {
	m.writeLines(c.lines)
	m.hunks = append(m.hunks, makeCleanHunk(baseLines, c))
}

// emitConflict renders a conflicting region. With ZealousAlnum enabled, the
// common leading and trailing lines that match between the two sides when
// compared over alphanumeric runs only are hoisted out of the markers, and
// a hunk whose sides match
// entirely resolves cleanly to the ours rendering.
func (m *merger) emitConflict(baseRegion, oursLines, theirsLines []string) {
	var lead, coreOurs, coreTheirs, trail []string
	if m.opts.ZealousAlnum {
		lead, coreOurs, coreTheirs, trail = reduceAlnum(oursLines, theirsLines)
	} else {
		coreOurs, coreTheirs = oursLines, theirsLines
	}

	m.writeLines(lead)

	if len(coreOurs) == 0 && len(coreTheirs) == 0 {
		// Fully reduced: the sides differ only in non-alphanumeric content.
		m.writeLines(trail)
		m.hunks = append(m.hunks, Hunk{
			Type:   HunkClean,
			Base:   joinLines(baseRegion),
			Ours:   joinLines(oursLines),
			Merged: joinLines(oursLines),
		})
		return
	}

	m.conflicts++
	m.merged.WriteString("<<<<<<< " + m.opts.oursLabel() + "\n")
	m.writeLines(coreOurs)
	m.merged.WriteString("=======\n")
	m.writeLines(coreTheirs)
	m.merged.WriteString(">>>>>>> " + m.opts.theirsLabel() + "\n")
	m.writeLines(trail)

	m.hunks = append(m.hunks, Hunk{
		Type:   HunkConflict,
		Base:   joinLines(baseRegion),
		Ours:   joinLines(coreOurs),
		Theirs: joinLines(coreTheirs),
	})
}

// reduceAlnum trims the common alnum-equal prefix and suffix off a pair of
// conflicting sides. Hoisted lines use the ours rendering.
func reduceAlnum(ours, theirs []string) (lead, coreOurs, coreTheirs, trail []string) {
	start := 0
	for start < len(ours) && start < len(theirs) && alnumEqual(ours[start], theirs[start]) {
		start++
	}

	endO, endT := len(ours), len(theirs)
	for endO > start && endT > start && alnumEqual(ours[endO-1], theirs[endT-1]) {
		endO--
		endT--
	}

	return ours[:start], ours[start:endO], theirs[start:endT], ours[endO:]
}

// alnumEqual compares two lines over their alphanumeric characters only.
func alnumEqual(a, b string) bool {
	i, j := 0, 0
	for {
		for i < len(a) && !isAlnum(a[i]) {
			i++
		}
		for j < len(b) && !isAlnum(b[j]) {
			j++
		}
		if i == len(a) || j == len(b) {
			return i == len(a) && j == len(b)
		}
		if a[i] != b[j] {
			return false
		}
		i++
		j++
	}
}

func isAlnum(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func makeCleanHunk(baseLines []string, c *chunk) Hunk {
	h := Hunk{
		Type:   HunkClean,
		Merged: joinLines(c.lines),
	}
	if c.baseStart < c.baseEnd {
		h.Base = joinLines(baseLines[c.baseStart:c.baseEnd])
	}
	if c.changed {
		h.Ours = joinLines(c.lines)
	}
	return h
}

func joinLines(lines []string) []byte {
	if len(lines) == 0 {
		return nil
	}
	var buf bytes.Buffer
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func linesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func assembleRegion(chunks []chunk) []string {
	var lines []string
	for _, c := range chunks {
		lines = append(lines, c.lines...)
	}
	return lines
}

func anyChanged(chunks []chunk) bool {
	for _, c := range chunks {
		if c.changed {
			return true
		}
	}
	return false
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
