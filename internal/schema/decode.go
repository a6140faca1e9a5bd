package schema

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/ogen-go/ogen/validate"
)

// Raw is an unvalidated JSON object. Values are string, jx.Num, bool, nil,
// []any or Raw.
type Raw map[string]any

// DecodeRaw parses a JSON object without interpreting its fields.
// Malformed input is reported as a validation failure on "body".
func DecodeRaw(data []byte) (Raw, error) {
	d := jx.DecodeBytes(data)
	raw, err := decodeObject(d)
	if err != nil {
		return nil, bodyError(err)
	}
	if d.Next() != jx.Invalid {
		return nil, bodyError(errors.New("unexpected data after JSON object"))
	}
	return raw, nil
}

// DecodeRawList parses a JSON array of objects.
func DecodeRawList(data []byte) ([]Raw, error) {
	d := jx.DecodeBytes(data)
	if d.Next() != jx.Array {
		return nil, bodyError(errors.New("expected JSON array"))
	}

	var out []Raw
	if err := d.Arr(func(d *jx.Decoder) error {
		raw, err := decodeObject(d)
		if err != nil {
			return errors.Wrapf(err, "element %d", len(out))
		}
		out = append(out, raw)
		return nil
	}); err != nil {
		return nil, bodyError(err)
	}
	return out, nil
}

func decodeObject(d *jx.Decoder) (Raw, error) {
	if d.Next() != jx.Object {
		return nil, errors.New("expected JSON object")
	}

	raw := Raw{}
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		v, err := decodeValue(d)
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		raw[key] = v
		return nil
	}); err != nil {
		return nil, err
	}
	return raw, nil
}

func decodeValue(d *jx.Decoder) (any, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		return d.Num()
	case jx.Bool:
		return d.Bool()
	case jx.Null:
		return nil, d.Null()
	case jx.Object:
		return decodeObject(d)
	case jx.Array:
		var items []any
		err := d.Arr(func(d *jx.Decoder) error {
			v, err := decodeValue(d)
			if err != nil {
				return err
			}
			items = append(items, v)
			return nil
		})
		return items, err
	default:
		return nil, errors.New("invalid JSON value")
	}
}

func bodyError(err error) error {
	return &validate.Error{Fields: []validate.FieldError{
		{Name: "body", Error: errors.Wrap(err, "Malformed JSON body")},
	}}
}
