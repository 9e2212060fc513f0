package protocol

import (
	"fmt"
	"strings"
)

type Kind int

const (
	TypeMismatch Kind = iota
	KeyNotFound
	ValueNotFound
	DataCorrupted
)

func (k Kind) String() string {
	switch k {
	case TypeMismatch:
		return "type mismatch"
	case KeyNotFound:
		return "key not found"
	case ValueNotFound:
		return "value not found"
	case DataCorrupted:
		return "data corrupted"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// DecodeError identifies the offending element of a rejected document
type DecodeError struct {
	Kind     Kind
	Path     []string
	Expected string // expected type, empty for DataCorrupted
	Context  string
}

func (e *DecodeError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	if e.Expected != "" {
		fmt.Fprintf(&sb, " (expected %s)", e.Expected)
	}
	if len(e.Path) > 0 {
		fmt.Fprintf(&sb, " at %s", e.PathString())
	}
	if e.Context != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Context)
	}
	return sb.String()
}

func (e *DecodeError) PathString() string {
	return strings.Join(e.Path, " -> ")
}
