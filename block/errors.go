// CLAUDE:SUMMARY Sentinel errors for the block package: parse failure.
package block

import "errors"

// ErrParse is returned when a document cannot be parsed into blocks.
// Parse is fail-fast: a single malformed block aborts the whole parse.
var ErrParse = errors.New("block: parse failed")
