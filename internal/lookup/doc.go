// Package lookup reconciles engine-assigned integer keys between databases
// that share business identifiers.
//
// A Table is a snapshot of uuid → id for one database. Reconciling a source
// table against a destination table yields an IDMap from source ids to
// destination ids, which Remap applies to the foreign keys of records before
// they are inserted into the destination.
package lookup
