// Package harness runs scripted editing sessions against the transaction
// engine and checks the outcome.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: python_host
//	description: "A Python cell reads A1 and reruns when A1 changes"
//	sheets: [Sheet 1]
//	steps:
//	  - action: set_value
//	    cell: A1
//	    value: "5"
//	  - action: set_code
//	    cell: B1
//	    language: Python
//	    code: q.cells('A1') * 2
//	    expect:
//	      pending: true
//	  - action: get_cells
//	    range: A1
//	    expect:
//	      cells: ["5"]
//	  - action: complete
//	    output: "10"
//	assertions:
//	  - type: display
//	    cell: B1
//	    value: "10"
//	  - type: replay
//
// Python and JavaScript cells are dispatched to a recording host; complete
// and get_cells steps play the host's part.
//
// # Assertion Types
//
//   - display: the displayed string of one cell
//   - range: the displayed strings of a rectangle, row-major
//   - code_error: the error kind recorded on a code cell
//   - history: whether undo and redo are available
//   - suspended: how many transactions wait on the host
//   - dispatched: how many host requests were sent
//   - replay: flushing to an in-memory log and replaying it rebuilds the same grid
//
// # Deterministic Testing
//
// Sheets get fixed ids, transaction ids are "tx-1", "tx-2", ... and trace
// events are numbered from 1, so a scenario produces the same snapshot on
// every run. RunWithGolden compares it with testdata/golden/<name>.golden.
package harness
