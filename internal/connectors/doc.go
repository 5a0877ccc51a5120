// Package connectors provides implementations of the Connector interface
// for document sources. A connector knows how to enumerate the files of
// one source and how to watch it for new ones.
package connectors
