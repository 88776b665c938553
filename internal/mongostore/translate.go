package mongostore

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hoopwithher/polystore/internal/backend"
	"github.com/hoopwithher/polystore/internal/document"
	"github.com/hoopwithher/polystore/internal/query"
)

// translatePredicate compiles a predicate tree into a native filter
// document. The full tree pushes down: the document database speaks every
// operator in the model.
//
// Empty composites need care - the wire format rejects empty $and/$or
// arrays, so they compile to their vacuous truth values instead.
func translatePredicate(pred query.Predicate) (bson.D, error) {
	switch node := pred.(type) {
	case nil:
		return bson.D{}, nil
	case query.Field:
		return translateField(node)
	case *query.Field:
		return translateField(*node)
	case query.And:
		return translateComposite("$and", node.Children)
	case *query.And:
		return translateComposite("$and", node.Children)
	case query.Or:
		return translateComposite("$or", node.Children)
	case *query.Or:
		return translateComposite("$or", node.Children)
	default:
		return nil, fmt.Errorf("unsupported predicate type: %T", pred)
	}
}

func translateComposite(op string, children []query.Predicate) (bson.D, error) {
	if len(children) == 0 {
		if op == "$and" {
			// Vacuously true.
			return bson.D{}, nil
		}
		// Vacuously false: an empty $or is rejected by the server.
		return bson.D{{Key: "$expr", Value: false}}, nil
	}

	parts := make(bson.A, 0, len(children))
	for i, child := range children {
		part, err := translatePredicate(child)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", op, i, err)
		}
		parts = append(parts, part)
	}
	return bson.D{{Key: op, Value: parts}}, nil
}

func translateField(f query.Field) (bson.D, error) {
	switch f.Op {
	case query.EQ:
		// Plain equality: {field: null} matches missing fields on the
		// server exactly as the reference evaluator does.
		operand, err := translateValue(f.Operand)
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: f.Name, Value: operand}}, nil

	case query.NE:
		operand, err := translateValue(f.Operand)
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: f.Name, Value: bson.D{{Key: "$ne", Value: operand}}}}, nil

	case query.GT, query.GTE:
		operand, err := translateValue(f.Operand)
		if err != nil {
			return nil, err
		}
		op := "$gt"
		if f.Op == query.GTE {
			op = "$gte"
		}
		return bson.D{{Key: f.Name, Value: bson.D{{Key: op, Value: operand}}}}, nil

	case query.RegexCI:
		pattern, ok := f.Operand.(document.String)
		if !ok {
			return nil, fmt.Errorf("regex operand for field %q is %T, not a string", f.Name, f.Operand)
		}
		return bson.D{{Key: f.Name, Value: primitive.Regex{Pattern: string(pattern), Options: "i"}}}, nil

	case query.InSet:
		// $elemMatch keeps membership strict: a scalar field equal to the
		// operand must not match, only an array containing it.
		operand, err := translateValue(f.Operand)
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: f.Name, Value: bson.D{
			{Key: "$elemMatch", Value: bson.D{{Key: "$eq", Value: operand}}},
		}}}, nil

	case query.NotInSet:
		operand, err := translateValue(f.Operand)
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: f.Name, Value: bson.D{
			{Key: "$not", Value: bson.D{
				{Key: "$elemMatch", Value: bson.D{{Key: "$eq", Value: operand}}},
			}},
		}}}, nil

	default:
		return nil, fmt.Errorf("unsupported operator %q", f.Op)
	}
}

// translateUpdate compiles an UpdateSpec into a native update document,
// plus filter conditions the update requires (PositionalSet needs the
// filter to select the array element its positional path refers to).
func translateUpdate(spec query.UpdateSpec) (update bson.D, filterExtra bson.D, err error) {
	set := bson.D{}
	push := bson.D{}
	pull := bson.D{}
	positional := false

	for _, op := range spec.Ops {
		switch o := op.(type) {
		case query.SetFields:
			for _, k := range o.Fields.SortedKeys() {
				v, err := translateValue(o.Fields[k])
				if err != nil {
					return nil, nil, fmt.Errorf("set %q: %w", k, err)
				}
				set = append(set, bson.E{Key: k, Value: v})
			}

		case query.AppendToArray:
			v, err := translateValue(o.Value)
			if err != nil {
				return nil, nil, fmt.Errorf("append to %q: %w", o.Field, err)
			}
			push = append(push, bson.E{Key: o.Field, Value: v})

		case query.RemoveFromArray:
			cond, err := translateElemCondition(o.Match)
			if err != nil {
				return nil, nil, fmt.Errorf("remove from %q: %w", o.Field, err)
			}
			pull = append(pull, bson.E{Key: o.Field, Value: cond})

		case query.PositionalSet:
			if positional {
				return nil, nil, backend.NewUnsupported(backend.KindMongoDB,
					"more than one positional array update in a single spec")
			}
			positional = true

			cond, err := translateElemCondition(o.Match)
			if err != nil {
				return nil, nil, fmt.Errorf("positional set on %q: %w", o.Field, err)
			}
			filterExtra = append(filterExtra, bson.E{
				Key:   o.Field,
				Value: bson.D{{Key: "$elemMatch", Value: cond}},
			})
			for _, k := range o.Set.SortedKeys() {
				v, err := translateValue(o.Set[k])
				if err != nil {
					return nil, nil, fmt.Errorf("positional set %q.%q: %w", o.Field, k, err)
				}
				set = append(set, bson.E{Key: o.Field + ".$." + k, Value: v})
			}

		default:
			return nil, nil, fmt.Errorf("unsupported update op type: %T", op)
		}
	}

	update = bson.D{}
	if len(set) > 0 {
		update = append(update, bson.E{Key: "$set", Value: set})
	}
	if len(push) > 0 {
		update = append(update, bson.E{Key: "$push", Value: push})
	}
	if len(pull) > 0 {
		update = append(update, bson.E{Key: "$pull", Value: pull})
	}
	if len(update) == 0 {
		return nil, nil, fmt.Errorf("empty update spec")
	}
	return update, filterExtra, nil
}

// translateElemCondition compiles an array-element predicate into the
// element-condition document $pull and $elemMatch accept. Element
// conditions are conjunctions over element subfields; disjunctions have
// no wire form there, so Or is rejected rather than silently emulated.
func translateElemCondition(pred query.Predicate) (bson.D, error) {
	cond := bson.D{}
	if err := appendElemCondition(&cond, pred); err != nil {
		return nil, err
	}
	return cond, nil
}

func appendElemCondition(cond *bson.D, pred query.Predicate) error {
	switch node := pred.(type) {
	case nil:
		return nil
	case query.Field:
		return appendElemField(cond, node)
	case *query.Field:
		return appendElemField(cond, *node)
	case query.And:
		for _, child := range node.Children {
			if err := appendElemCondition(cond, child); err != nil {
				return err
			}
		}
		return nil
	case *query.And:
		return appendElemCondition(cond, query.And{Children: node.Children})
	default:
		return backend.NewUnsupported(backend.KindMongoDB,
			fmt.Sprintf("%T inside an array-element condition", pred))
	}
}

func appendElemField(cond *bson.D, f query.Field) error {
	operand, err := translateValue(f.Operand)
	if err != nil {
		return err
	}
	switch f.Op {
	case query.EQ:
		*cond = append(*cond, bson.E{Key: f.Name, Value: operand})
	case query.NE:
		*cond = append(*cond, bson.E{Key: f.Name, Value: bson.D{{Key: "$ne", Value: operand}}})
	case query.GT:
		*cond = append(*cond, bson.E{Key: f.Name, Value: bson.D{{Key: "$gt", Value: operand}}})
	case query.GTE:
		*cond = append(*cond, bson.E{Key: f.Name, Value: bson.D{{Key: "$gte", Value: operand}}})
	case query.RegexCI:
		pattern, ok := f.Operand.(document.String)
		if !ok {
			return fmt.Errorf("regex operand for field %q is %T, not a string", f.Name, f.Operand)
		}
		*cond = append(*cond, bson.E{Key: f.Name, Value: primitive.Regex{Pattern: string(pattern), Options: "i"}})
	default:
		return backend.NewUnsupported(backend.KindMongoDB,
			fmt.Sprintf("operator %q inside an array-element condition", f.Op))
	}
	return nil
}

// translateValue converts a document value to its wire representation.
// Documents keep sorted key order so translations are byte-stable.
func translateValue(v document.Value) (any, error) {
	switch val := v.(type) {
	case nil, document.Null:
		return primitive.Null{}, nil
	case document.Bool:
		return bool(val), nil
	case document.Int:
		return int64(val), nil
	case document.Float:
		return float64(val), nil
	case document.String:
		return string(val), nil
	case document.Time:
		return primitive.NewDateTimeFromTime(time.Time(val)), nil
	case document.Array:
		arr := make(bson.A, len(val))
		for i, elem := range val {
			e, err := translateValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = e
		}
		return arr, nil
	case document.Document:
		doc := make(bson.D, 0, len(val))
		for _, k := range val.SortedKeys() {
			e, err := translateValue(val[k])
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			doc = append(doc, bson.E{Key: k, Value: e})
		}
		return doc, nil
	default:
		return nil, fmt.Errorf("unknown value type: %T", v)
	}
}
