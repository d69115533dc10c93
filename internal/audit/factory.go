package audit

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

const (
	TypeMemory = "memory"
	TypeFile   = "file"
	TypeNoop   = "noop"
)

// New creates the auditor of the given type. Options are the remaining
// fields of the audit configuration block and are decoded per type.
func New(auditType string, options map[string]any) (core.Auditor, error) {
	switch auditType {
	case TypeMemory, "":
		var opts MemoryOptions
		if err := decode(options, &opts); err != nil {
			return nil, fmt.Errorf("failed to decode options for memory auditor: %w", err)
		}
		return NewInMemoryAuditorWithOptions(opts), nil
	case TypeFile:
		var opts FileOptions
		if err := decode(options, &opts); err != nil {
			return nil, fmt.Errorf("failed to decode options for file auditor: %w", err)
		}
		return NewFileAuditor(opts)
	case TypeNoop:
		return NewNoopAuditor(), nil
	default:
		return nil, fmt.Errorf("unknown auditor type '%s'", auditType)
	}
}

func decode(input map[string]any, result any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           result,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}
