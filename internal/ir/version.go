package ir

// Version constants for the schema and the backup format.
const (
	// SchemaVersion is the version of the table layout created by the store.
	SchemaVersion = 1

	// SnapshotVersion is the version of the backup snapshot format.
	SnapshotVersion = "1"
)
