// Package operation defines the closed set of grid edits and their wire form.
//
// Every Operation addresses cells through stable ids (a Region or a
// CellRef), never raw coordinates, so an operation recorded on one replica
// applies unchanged on another. Applying an operation yields a unique
// inverse of the same shape; the engine builds it from the state it
// overwrites.
//
// Operations are validated at construction: a payload whose length does not
// match the region's cell count is rejected before it reaches the grid.
package operation
