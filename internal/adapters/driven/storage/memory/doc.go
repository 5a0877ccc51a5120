// Package memory provides in-process implementations of the driven
// storage ports. Nothing is persisted; the stores back tests and the
// "memory" store backend.
package memory
