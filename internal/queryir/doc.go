// Package queryir is the filter document accepted from external callers,
// typically a web query builder.
//
// A document is an ordered JSON list of filters:
//
//	[
//	  {"kind": "registeredBetween", "parameters": {"after": "2024-01-01", "before": "2024-06-30"}},
//	  {"kind": "playedOnServer", "parameters": {"servers": "00000000-0000-7000-8000-00000000a001"}}
//	]
//
// Parse checks the shape against a CUE schema before decoding, so a
// malformed document is rejected with a position rather than half decoded.
// Kinds are not checked here; the filter registry rejects unknown kinds.
//
// All strings are trimmed and NFC-normalised, so a parameter typed on one
// platform compares equal to the same text typed on another.
package queryir
