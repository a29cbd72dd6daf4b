// Package testutil provides throwaway databases and a small fixed player
// dataset for tests.
package testutil
