// Package grid is the in-memory cell store the transaction engine writes to.
//
// A Grid owns an ordered list of sheets. Each Sheet keeps:
//   - stable column and row ids, mapped to and from coordinates
//   - literal cell values
//   - code cells in registration order (the order decides spill precedence)
//   - per-cell formats and borders
//   - cached data and format bounds
//
// The store has no notion of transactions or undo. Every setter returns the
// previous state so callers can build inverse operations. Sheets are not
// safe for concurrent use.
package grid
