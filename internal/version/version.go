// Package version carries the tool identity stamped into manifests and
// the index.
package version

// Tool is the tool name recorded in provenance metadata.
const Tool = "apictx"

// Version is the tool version; overridable at build time via -ldflags.
var Version = "0.1.0"

// SchemaVersion identifies the symbol object schema emitted in artifacts.
const SchemaVersion = "1.0"
