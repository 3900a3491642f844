// Package ir provides the identity and value types shared by every gridcore
// package.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Cells are addressed by CellRef (sheet id + column id + row id), never
//     by raw coordinates. Pos is derived by lookup in the owning sheet.
//   - Numbers are arbitrary-precision decimals (apd), never float64 at rest
//   - All JSON tags use snake_case
//   - Timestamps are logical clock values, never wall-clock time
package ir
