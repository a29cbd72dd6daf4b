// Package backup exports a plandb database to a portable snapshot and merges
// snapshots into another database.
//
// Internal ids differ between databases, so a merge never trusts them.
// Servers and players are matched by uuid; the snapshot's user and server
// ids are translated to the destination's through reconciled id maps before
// profile and session rows are inserted. A reference that cannot be
// translated fails the whole merge.
package backup
