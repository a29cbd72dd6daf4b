// Package querysql builds SQL text for the two supported engines.
//
// The builders are pure: they never touch a connection and return identical
// text for identical input. Statements are written with ? placeholders;
// Dialect.Rebind converts them to the engine's bind style right before
// execution.
//
// Fragments passed to Where, WhereAny and Join are raw SQL. The builder does
// not parse them, so values must always travel as arguments, never be
// formatted into a fragment.
//
// The only DDL branch between engines is PrimaryKeyColumn.
package querysql
