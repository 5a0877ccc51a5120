package domain

// Document is an ephemeral file processing job.
// It lives for one run and yields zero or more Records.
type Document struct {
	// Path is the file location on disk.
	Path string

	// MediaType is the canonical detected type, without parameters.
	MediaType string

	// Digest is the MD5 hex digest of the file contents.
	Digest string

	// Segments is the extracted text, in reading order.
	Segments []Segment
}

// Chunk is a bounded piece of a document before it becomes a Record.
type Chunk struct {
	// Position is the ordinal position within the document.
	Position int

	// Page is the page, slide or row index the chunk came from.
	Page int

	// Content is the chunk text, including any overlap prefix.
	Content string

	// Overlap is the byte length of the prefix repeated from the previous chunk.
	Overlap int

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// Segment is a piece of text with the page it was found on.
type Segment struct {
	Text string
	Page int

	// Overlap is the byte length of a prefix repeated from the
	// preceding segment. Zero for extractor output.
	Overlap int
}

// Extraction is the outcome of extracting one file.
// A failed extraction carries its reason in Err and no segments.
type Extraction struct {
	Segments []Segment
	Err      error
}

// Failed reports whether the extraction did not succeed.
func (e Extraction) Failed() bool {
	return e.Err != nil
}

// Text joins all segment texts without separators.
func (e Extraction) Text() string {
	n := 0
	for _, s := range e.Segments {
		n += len(s.Text)
	}
	b := make([]byte, 0, n)
	for _, s := range e.Segments {
		b = append(b, s.Text...)
	}
	return string(b)
}
