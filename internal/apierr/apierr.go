// Package apierr defines the error values reported by the extraction
// pipeline and the query surface.
package apierr

import "fmt"

// Stable error codes. The code is part of the CLI contract: every failure
// is printed as one "code:path:message" line.
const (
	CodeDiscover   = "discover"    // source walk failure
	CodeParse      = "parse"       // file failed to parse
	CodeDuplicate  = "duplicate"   // second occurrence of an FQN
	CodeSchema     = "schema"      // symbol failed schema validation
	CodeMissingRef = "missing_ref" // dangling owner/base reference
	CodeIndex      = "index"       // storage failure during indexing
	CodeEmit       = "emit"        // artifact write failure
	CodeQuery      = "query"       // storage failure during lookup
)

// Error is one pipeline failure, tagged with a stable code and the
// path or FQN it is scoped to.
type Error struct {
	Code    string
	Path    string
	Message string
}

// New builds an Error.
func New(code, path, message string) Error {
	return Error{Code: code, Path: path, Message: message}
}

// Newf builds an Error with a formatted message.
func Newf(code, path, format string, args ...any) Error {
	return Error{Code: code, Path: path, Message: fmt.Sprintf(format, args...)}
}

// Error renders the error in the CLI line format.
func (e Error) Error() string {
	return e.Code + ":" + e.Path + ":" + e.Message
}
