package protocol

import "errors"

// FieldKind is the lexical type of a command field
type FieldKind uint8

const (
	FieldNumber FieldKind = iota // up to Width ASCII digits
	FieldChar                    // exactly one byte
)

var (
	ErrMissingField  = errors.New("missing field")
	ErrBadChar       = errors.New("unexpected character")
	ErrTrailingInput = errors.New("trailing input")
	ErrFieldRange    = errors.New("field out of range")
)

// FieldSpec declares one field of a command
type FieldSpec struct {
	Name    string
	Kind    FieldKind
	Width   int    // max digits for FieldNumber
	Max     uint32 // inclusive upper bound for FieldNumber, 0 = none
	Allowed string // accepted bytes for FieldChar, empty = any
}

// Number declares a numeric field of at most width digits
func Number(name string, width int) FieldSpec {
	return FieldSpec{Name: name, Kind: FieldNumber, Width: width}
}

// NumberMax declares a numeric field of at most width digits and value max
func NumberMax(name string, width int, max uint32) FieldSpec {
	return FieldSpec{Name: name, Kind: FieldNumber, Width: width, Max: max}
}

// Char declares a single-byte field restricted to allowed
func Char(name string, allowed string) FieldSpec {
	return FieldSpec{Name: name, Kind: FieldChar, Allowed: allowed}
}

// Schema is the field layout of a command. With Repeat set the whole field
// group may occur several times, at least once.
type Schema struct {
	Fields []FieldSpec
	Repeat bool
}

// FieldError reports which field failed to parse
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Value is one parsed field
type Value struct {
	Num  uint32
	Char byte
}

// Fields is the typed result of parsing a command's arguments
type Fields struct {
	values []Value
	group  int
}

// Len returns the number of parsed fields
func (f *Fields) Len() int { return len(f.values) }

// Groups returns how many times the field group occurred
func (f *Fields) Groups() int {
	if f.group == 0 {
		return 0
	}
	return len(f.values) / f.group
}

// Uint returns numeric field i
func (f *Fields) Uint(i int) uint32 { return f.values[i].Num }

// Char returns character field i
func (f *Fields) Char(i int) byte { return f.values[i].Char }

// ParseFields tokenizes command arguments against a schema. A single '|' may
// precede each field, so both "|0100|0500" and "01000500" forms are accepted
// as long as numeric fields are written at their full width.
func ParseFields(b []byte, s Schema) (Fields, error) {
	res := Fields{group: len(s.Fields)}
	pos := 0
	for {
		for _, spec := range s.Fields {
			if pos < len(b) && b[pos] == FieldSep {
				pos++
			}
			if pos >= len(b) {
				return res, &FieldError{Field: spec.Name, Err: ErrMissingField}
			}
			var v Value
			switch spec.Kind {
			case FieldNumber:
				start := pos
				for pos < len(b) && pos-start < spec.Width && b[pos] >= '0' && b[pos] <= '9' {
					pos++
				}
				n, err := ParseDigits(b[start:pos])
				if err != nil {
					if pos == start && b[pos] != FieldSep {
						err = ErrNotDigit
					}
					return res, &FieldError{Field: spec.Name, Err: err}
				}
				if spec.Max != 0 && n > spec.Max {
					return res, &FieldError{Field: spec.Name, Err: ErrFieldRange}
				}
				v.Num = n
			case FieldChar:
				c := b[pos]
				if spec.Allowed != "" && !containsByte(spec.Allowed, c) {
					return res, &FieldError{Field: spec.Name, Err: ErrBadChar}
				}
				v.Char = c
				pos++
			}
			res.values = append(res.values, v)
		}
		if !s.Repeat || len(s.Fields) == 0 {
			break
		}
		if pos < len(b) && b[pos] == FieldSep {
			pos++
		}
		if pos >= len(b) {
			return res, nil
		}
	}
	for pos < len(b) && (b[pos] == ' ' || b[pos] == FieldSep) {
		pos++
	}
	if pos < len(b) {
		return res, ErrTrailingInput
	}
	return res, nil
}

func containsByte(s string, c byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return true
		}
	}
	return false
}
