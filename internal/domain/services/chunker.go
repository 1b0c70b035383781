package services

// Segment is one split piece of a document's text. Content is the exact
// substring of the original text spanning [StartOffset, EndOffset); the
// line range is 1-based and inclusive.
type Segment struct {
	Content     string
	StartOffset int
	EndOffset   int
	LineFrom    int
	LineTo      int
}

// Chunker splits raw document text into overlapping segments with exact
// positional metadata. Empty input yields zero segments.
type Chunker interface {
	Split(text string) []Segment
}
