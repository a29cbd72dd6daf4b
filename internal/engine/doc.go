// Package engine runs units of work against the store.
//
// A UnitOfWork is a named, single-use bundle of an optional precondition and
// the operations to run inside one transaction. The Executor owns the whole
// lifecycle:
//
//  1. reject an instance that already ran (InvalidStateError)
//  2. evaluate the precondition; false means done, no connection is opened
//  3. acquire a dedicated connection and begin a transaction
//  4. create a savepoint when the shared Capabilities allow it, downgrading
//     the capability when the engine reports savepoints as unsupported
//  5. run the operations
//  6. commit, or on failure roll back to the savepoint and discard the
//     transaction
//  7. release the connection on every path
//
// Every failure surfaces as a single *OperationError naming the unit of
// work, the stage that failed, the cause and the rollback outcome. Nothing
// is retried here. Callers that want retries build a fresh unit of work per
// attempt, see Dispatcher.SubmitRetrying.
//
// Execution blocks on connection acquisition and backend locks, so callers
// on latency-sensitive paths submit through a Dispatcher instead of calling
// Execute directly.
package engine
