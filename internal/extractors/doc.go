// Package extractors provides format-specific text extraction and the
// ordered Registry that dispatches a file to the right extractor.
//
// Each sub-package implements driven.Extractor for one format. Extractors
// read from disk, return text segments in reading order and signal
// failure with an error wrapping one of the domain sentinels
// (ErrCorruptFile, ErrEmptyExtraction, ErrUnreadable).
//
// The Registry evaluates its rules in registration order; the first rule
// whose predicate matches wins. Failures are returned as values inside
// domain.Extraction and logged once.
package extractors
