package operation

import (
	"encoding/json"
	"fmt"
)

// envelope wraps an operation with its kind tag.
type envelope struct {
	Type Kind            `json:"type"`
	Op   json.RawMessage `json:"op"`
}

func encodeOperations(ops []Operation) ([]envelope, error) {
	out := make([]envelope, len(ops))
	for i, op := range ops {
		if op == nil {
			return nil, fmt.Errorf("operations[%d]: nil operation", i)
		}
		data, err := json.Marshal(op)
		if err != nil {
			return nil, fmt.Errorf("operations[%d] %s: %w", i, op.Kind(), err)
		}
		out[i] = envelope{Type: op.Kind(), Op: data}
	}
	return out, nil
}

func decodeOperations(env []envelope) ([]Operation, error) {
	out := make([]Operation, len(env))
	for i, e := range env {
		op, err := decodeOperation(e)
		if err != nil {
			return nil, fmt.Errorf("operations[%d]: %w", i, err)
		}
		if err := op.Validate(); err != nil {
			return nil, fmt.Errorf("operations[%d]: %w", i, err)
		}
		out[i] = op
	}
	return out, nil
}

func decodeOperation(e envelope) (Operation, error) {
	switch e.Type {
	case KindSetCellValues:
		var op SetCellValues
		if err := json.Unmarshal(e.Op, &op); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Type, err)
		}
		return op, nil
	case KindSetCellCode:
		var op SetCellCode
		if err := json.Unmarshal(e.Op, &op); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Type, err)
		}
		return op, nil
	case KindSetCellFormats:
		var op SetCellFormats
		if err := json.Unmarshal(e.Op, &op); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Type, err)
		}
		return op, nil
	case KindSetBorders:
		var op SetBorders
		if err := json.Unmarshal(e.Op, &op); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Type, err)
		}
		return op, nil
	default:
		return nil, fmt.Errorf("unknown operation type %q", e.Type)
	}
}
