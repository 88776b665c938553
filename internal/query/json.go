package query

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hoopwithher/polystore/internal/document"
)

// MarshalPredicate renders a predicate as byte-stable JSON for logs,
// error messages, and golden tests. A nil predicate renders as {}.
//
// The rendering is diagnostic, not a wire format: backends translate the
// predicate tree directly, never through this JSON.
func MarshalPredicate(p Predicate) ([]byte, error) {
	var buf bytes.Buffer
	if err := writePredicate(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writePredicate(buf *bytes.Buffer, p Predicate) error {
	switch node := p.(type) {
	case nil:
		buf.WriteString("{}")
		return nil
	case Field:
		return writeField(buf, node)
	case *Field:
		return writeField(buf, *node)
	case And:
		return writeComposite(buf, "and", node.Children)
	case *And:
		return writeComposite(buf, "and", node.Children)
	case Or:
		return writeComposite(buf, "or", node.Children)
	case *Or:
		return writeComposite(buf, "or", node.Children)
	default:
		return fmt.Errorf("unknown predicate type: %T", p)
	}
}

func writeField(buf *bytes.Buffer, f Field) error {
	name, err := json.Marshal(f.Name)
	if err != nil {
		return fmt.Errorf("marshal field name: %w", err)
	}
	operand, err := document.MarshalValue(f.Operand)
	if err != nil {
		return fmt.Errorf("marshal operand for field %q: %w", f.Name, err)
	}
	fmt.Fprintf(buf, `{"field":%s,"op":%q,"operand":%s}`, name, f.Op, operand)
	return nil
}

func writeComposite(buf *bytes.Buffer, kind string, children []Predicate) error {
	fmt.Fprintf(buf, `{"%s":[`, kind)
	for i, child := range children {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writePredicate(buf, child); err != nil {
			return fmt.Errorf("%s[%d]: %w", kind, i, err)
		}
	}
	buf.WriteString("]}")
	return nil
}
