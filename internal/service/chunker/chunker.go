package chunker

import (
	"strings"
	"unicode/utf8"

	"docchat/internal/domain/services"
)

// Splitter cuts document text into overlapping segments of at most maxLen
// bytes, preferring paragraph, line, sentence and word boundaries over hard
// cuts. Each segment is an exact substring of the input and carries the
// 1-based inclusive line range it spans, so citations can highlight the
// original document precisely.
type Splitter struct {
	maxLen  int
	overlap int
}

// New returns a Splitter with the given limits. overlap must be smaller
// than maxLen; callers normally pass the config defaults (1000/200).
func New(maxLen, overlap int) *Splitter {
	if maxLen <= 0 {
		maxLen = 1000
	}
	if overlap < 0 || overlap >= maxLen {
		overlap = 0
	}
	return &Splitter{maxLen: maxLen, overlap: overlap}
}

// Split implements services.Chunker.
func (s *Splitter) Split(text string) []services.Segment {
	if text == "" {
		return nil
	}

	var segments []services.Segment
	start := 0
	for start < len(text) {
		end := s.cutPoint(text, start)

		segments = append(segments, services.Segment{
			Content:     text[start:end],
			StartOffset: start,
			EndOffset:   end,
			LineFrom:    lineOf(text, start),
			LineTo:      lineOf(text, end-1),
		})

		if end == len(text) {
			break
		}

		next := runeFloor(text, end-s.overlap)
		if next <= start {
			// Overlap would stall; give up the overlap for this pair
			// rather than loop forever.
			next = end
		}
		start = next
	}

	return segments
}

// cutPoint returns the exclusive end offset of the segment starting at
// start. Separators are tried from coarsest to finest; a candidate is only
// accepted if it lands past the midpoint of the window, so a paragraph
// break near the segment start does not produce a degenerate sliver.
func (s *Splitter) cutPoint(text string, start int) int {
	remaining := len(text) - start
	if remaining <= s.maxLen {
		return len(text)
	}

	window := text[start : start+s.maxLen]
	floor := s.maxLen / 2

	if idx := strings.LastIndex(window, "\n\n"); idx >= floor {
		return start + idx + 2
	}
	if idx := strings.LastIndexByte(window, '\n'); idx >= floor {
		return start + idx + 1
	}
	if idx := lastSentenceEnd(window); idx >= floor {
		return start + idx
	}
	if idx := strings.LastIndexByte(window, ' '); idx >= floor {
		return start + idx + 1
	}

	// Hard cut on a rune boundary.
	return runeFloor(text, start+s.maxLen)
}

// lastSentenceEnd returns the offset just past the last ". ", "! " or "? "
// in window, or -1.
func lastSentenceEnd(window string) int {
	best := -1
	for _, sep := range []string{". ", "! ", "? "} {
		if idx := strings.LastIndex(window, sep); idx >= 0 && idx+2 > best {
			best = idx + 2
		}
	}
	return best
}

// runeFloor moves off backwards to the nearest rune start so substring cuts
// never split a UTF-8 sequence.
func runeFloor(text string, off int) int {
	if off <= 0 {
		return 0
	}
	if off >= len(text) {
		return len(text)
	}
	for off > 0 && !utf8.RuneStart(text[off]) {
		off--
	}
	return off
}

// lineOf returns the 1-based line number containing byte offset off.
func lineOf(text string, off int) int {
	if off < 0 {
		off = 0
	}
	if off > len(text) {
		off = len(text)
	}
	return 1 + strings.Count(text[:off], "\n")
}
