// Package schema validates raw request input and turns it into typed
// product values. Nothing outside this package builds product.Fields from
// client data.
package schema

import (
	"math"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/ogen-go/ogen/validate"
	"github.com/shopspring/decimal"

	"github.com/xenking/coffee-catalog/internal/domain/product"
)

var (
	errRequired       = errors.New("Required")
	errExpectedString = errors.New("Expected string")
	errExpectedNumber = errors.New("Expected number")
	errNameRequired   = errors.New("Name is required")
	errPricePositive  = errors.New("Price must be positive")
	errPriceFinite    = errors.New("Price must be a finite number")
	errInvalidUUID    = errors.New("Invalid UUID")
	errInvalidType    = errors.New("Type must be one of " + typeList())
)

// Create validates the payload of a create request.
func Create(raw Raw) (product.Fields, error) {
	return fields(raw)
}

// Update validates the payload of an update request. Updates replace the
// whole product, so the rules are the same as for Create.
func Update(raw Raw) (product.Fields, error) {
	return fields(raw)
}

// ID validates a product identifier in canonical UUID form. Apart from the
// nil and max UUIDs, the version must be 1-8 and the variant RFC 4122.
func ID(s string) (uuid.UUID, error) {
	// uuid.Parse also accepts braced, URN and unhyphenated forms.
	if len(s) != 36 {
		return uuid.Nil, fieldError("id", errInvalidUUID)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fieldError("id", errInvalidUUID)
	}
	if id == uuid.Nil || id == uuid.Max {
		return id, nil
	}
	if v := id.Version(); v < 1 || v > 8 || id.Variant() != uuid.RFC4122 {
		return uuid.Nil, fieldError("id", errInvalidUUID)
	}
	return id, nil
}

// fields collects every issue in the payload rather than stopping at the
// first one.
func fields(raw Raw) (product.Fields, error) {
	var (
		f        product.Fields
		failures []validate.FieldError
	)
	fail := func(name string, err error) {
		failures = append(failures, validate.FieldError{Name: name, Error: err})
	}

	switch v, ok := raw["name"]; {
	case !ok || v == nil:
		fail("name", errRequired)
	default:
		s, isStr := v.(string)
		switch {
		case !isStr:
			fail("name", errExpectedString)
		case s == "":
			fail("name", errNameRequired)
		default:
			f.Name = s
		}
	}

	if v, ok := raw["description"]; ok && v != nil {
		if s, isStr := v.(string); isStr {
			f.Description = &s
		} else {
			fail("description", errExpectedString)
		}
	}

	switch v, ok := raw["price"]; {
	case !ok || v == nil:
		fail("price", errRequired)
	default:
		price, err := toDecimal(v)
		if err == nil {
			err = checkPrice(price)
		}
		if err != nil {
			fail("price", err)
		} else {
			f.Price = price
		}
	}

	switch v, ok := raw["type"]; {
	case !ok || v == nil:
		fail("type", errRequired)
	default:
		s, isStr := v.(string)
		switch {
		case !isStr:
			fail("type", errExpectedString)
		case !product.Type(s).Valid():
			fail("type", errInvalidType)
		default:
			f.Type = product.Type(s)
		}
	}

	if len(failures) > 0 {
		return product.Fields{}, &validate.Error{Fields: failures}
	}
	return f, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case jx.Num:
		d, err := decimal.NewFromString(string(n))
		if err != nil {
			return decimal.Zero, errExpectedNumber
		}
		return d, nil
	case decimal.Decimal:
		return n, nil
	case float64:
		return decimal.NewFromFloat(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	default:
		return decimal.Zero, errExpectedNumber
	}
}

// Prices are rendered as float64, so values that overflow to infinity or
// underflow to zero are rejected.
func checkPrice(d decimal.Decimal) error {
	if !d.IsPositive() {
		return errPricePositive
	}
	// d is in [10^(mag-1), 10^mag).
	mag := d.NumDigits() + int(d.Exponent())
	switch {
	case mag-1 > 308:
		return errPriceFinite
	case mag < -324:
		return errPricePositive
	}
	switch v := d.InexactFloat64(); {
	case math.IsInf(v, 0):
		return errPriceFinite
	case v == 0:
		return errPricePositive
	}
	return nil
}

func fieldError(name string, err error) error {
	return &validate.Error{Fields: []validate.FieldError{{Name: name, Error: err}}}
}

func typeList() string {
	types := product.Types()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
