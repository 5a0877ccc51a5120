// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentStore: Record persistence and full-text search (Mongo, SQLite, memory)
//   - Extractor: Pulls text out of one file format
//   - ExtractorRegistry: Dispatches a file to the first matching Extractor
//   - TypeDetector: Sniffs a file's media type
//   - PostProcessor: One step of the chunk pipeline (chunk, annotate, normalise)
//   - Annotator: Tokenises, POS-tags and finds named entities in text
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, extractor, or post-processor package
package driven
