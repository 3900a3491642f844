// Package host defines the boundary between the engine and the external
// interpreter host that runs Python and JavaScript code cells.
//
// The engine sends a CodeRequest when it reaches an external code cell and
// suspends the transaction. While running, the host may ask for cells with
// a GetCellsRequest. It finally reports a CodeResult, which resumes the
// transaction. All messages carry the transaction id.
package host

import (
	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
)

// CodeRequest asks the host to run one code cell.
type CodeRequest struct {
	TransactionID string              `json:"transaction_id"`
	Language      ir.CodeCellLanguage `json:"language"`
	Code          string              `json:"code"`
}

// GetCellsRequest is a mid-flight read issued by running code. A nil
// SheetName means the sheet of the running cell.
type GetCellsRequest struct {
	TransactionID string  `json:"transaction_id"`
	Rect          ir.Rect `json:"rect"`
	SheetName     *string `json:"sheet_name,omitempty"`
	LineNumber    *uint32 `json:"line_number,omitempty"`
}

// CellForArray is one cell returned to the host.
type CellForArray struct {
	X     int64  `json:"x"`
	Y     int64  `json:"y"`
	Value string `json:"value"`
}

// GetCellsFailureKind classifies a refused read.
type GetCellsFailureKind string

const (
	FailureSheetNotFound GetCellsFailureKind = "sheet_not_found"
	FailureSelfReference GetCellsFailureKind = "self_reference"
)

// GetCellsFailure tells the host why a read was refused. The running code
// should stop; the engine has already recorded the error on the cell.
type GetCellsFailure struct {
	Kind    GetCellsFailureKind `json:"kind"`
	Message string              `json:"message"`
}

// GetCellsResponse answers a GetCellsRequest.
type GetCellsResponse struct {
	Cells []CellForArray   `json:"cells"`
	Error *GetCellsFailure `json:"error,omitempty"`
}

// CodeResult completes a CodeRequest.
//
// On success the output is either a scalar (OutputValue) or a row-major
// table of strings (ArrayOutput). Outputs are strings and are parsed like
// user input. CancelCompute abandons the rest of the transaction.
type CodeResult struct {
	TransactionID string     `json:"transaction_id"`
	Success       bool       `json:"success"`
	ErrorMsg      *string    `json:"error_msg,omitempty"`
	LineNumber    *uint32    `json:"line_number,omitempty"`
	OutputValue   *string    `json:"output_value,omitempty"`
	ArrayOutput   [][]string `json:"array_output,omitempty"`
	StdOut        *string    `json:"std_out,omitempty"`
	StdErr        *string    `json:"std_err,omitempty"`
	CancelCompute bool       `json:"cancel_compute,omitempty"`
}

// Output converts the result payload to an array of cell values. A result
// without output yields a single Blank.
func (r CodeResult) Output() *ir.Array {
	if len(r.ArrayOutput) > 0 {
		width := 0
		for _, row := range r.ArrayOutput {
			width = max(width, len(row))
		}
		arr := ir.NewArray(int64(width), int64(len(r.ArrayOutput)))
		for y, row := range r.ArrayOutput {
			for x, s := range row {
				arr.Set(int64(x), int64(y), ir.ParseCellValue(s))
			}
		}
		return arr
	}
	if r.OutputValue != nil {
		return ir.ArrayFromValue(ir.ParseCellValue(*r.OutputValue))
	}
	return ir.ArrayFromValue(ir.Blank{})
}

// Dispatcher delivers code requests to the interpreter host. An error means
// the host is unavailable; the engine records it on the cell and moves on.
type Dispatcher interface {
	Dispatch(req CodeRequest) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(req CodeRequest) error

// Dispatch calls f.
func (f DispatcherFunc) Dispatch(req CodeRequest) error { return f(req) }

// Unavailable is a Dispatcher for engines without an interpreter host.
type Unavailable struct{}

// Dispatch always fails.
func (Unavailable) Dispatch(req CodeRequest) error {
	return ErrUnavailable
}
