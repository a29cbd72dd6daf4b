// Package ir holds the record types shared by the store, the reconciliation
// code and the backup format.
//
// ir imports nothing internal. Every other internal package may import it.
//
// Conventions:
//   - ID fields are engine-assigned and only meaningful inside one database
//   - UUID fields are business identifiers shared across databases
//   - timestamps are epoch milliseconds (int64)
//   - db tags name columns, json tags use snake_case
package ir
