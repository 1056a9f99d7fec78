package model

// VersionInfo reports the running build, the applied schema and the optional
// features this server exposes.
type VersionInfo struct {
	AppVersion       string          `json:"appVersion"`
	SchemaVersion    int64           `json:"schemaVersion"`
	Benchmark        string          `json:"benchmark,omitempty"`
	Features         map[string]bool `json:"features"`
	MigrationNeeded  bool            `json:"migrationNeeded"`
	MigrationMessage *string         `json:"migrationMessage,omitempty"`
}
