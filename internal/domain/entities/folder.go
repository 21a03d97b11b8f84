package entities

// ResolvedFolder is the transient result of one folder resolution. Only the
// id is ever cached; the struct itself is produced fresh per call.
type ResolvedFolder struct {
	FolderID       string
	ParentFolderID string
	FolderName     string
	Verified       bool
	// Created is true when this resolution made the folder rather than
	// finding it.
	Created bool
}
