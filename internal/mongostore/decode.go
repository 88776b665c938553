package mongostore

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hoopwithher/polystore/internal/document"
)

// decodeDocument converts a raw server document into the value model.
// The driver's internal "_id" is dropped: the application layer addresses
// documents by its own "id" field, and reads are projected without "_id"
// anyway, so this is a belt for decoding paths that skip the projection.
func decodeDocument(raw bson.D) (document.Document, error) {
	doc := make(document.Document, len(raw))
	for _, e := range raw {
		if e.Key == "_id" {
			continue
		}
		v, err := decodeValue(e.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", e.Key, err)
		}
		doc[e.Key] = v
	}
	return doc, nil
}

func decodeValue(v any) (document.Value, error) {
	switch val := v.(type) {
	case nil, primitive.Null:
		return document.Null{}, nil
	case bool:
		return document.Bool(val), nil
	case int32:
		return document.Int(val), nil
	case int64:
		return document.Int(val), nil
	case float64:
		return document.Float(val), nil
	case string:
		return document.String(val), nil
	case primitive.DateTime:
		return document.Time(val.Time().UTC()), nil
	case primitive.ObjectID:
		return document.String(val.Hex()), nil
	case primitive.A:
		arr := make(document.Array, len(val))
		for i, elem := range val {
			e, err := decodeValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = e
		}
		return arr, nil
	case bson.D:
		sub := make(document.Document, len(val))
		for _, e := range val {
			d, err := decodeValue(e.Value)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", e.Key, err)
			}
			sub[e.Key] = d
		}
		return sub, nil
	case bson.M:
		sub := make(document.Document, len(val))
		for k, elem := range val {
			d, err := decodeValue(elem)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			sub[k] = d
		}
		return sub, nil
	default:
		return nil, fmt.Errorf("unsupported BSON type %T", v)
	}
}
