package domain

// ChangeType classifies a filesystem event.
type ChangeType string

// Change types reported by watching connectors.
const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// FileChange is one event observed under a watched directory.
type FileChange struct {
	Path string
	Type ChangeType
}
