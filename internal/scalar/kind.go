// Package scalar defines the closed set of column kinds neonsql can decode and load.
//
// Every table indexed by Kind is declared with a length assertion against NumKinds,
// so adding a Kind breaks the build until each dispatch site handles it.
package scalar

import "strings"

// Kind is a scalar column type.
type Kind int

const (
	Unsupported Kind = iota
	Text
	Boolean
	SmallInt
	Integer
	BigInt
	Float4
	Float8
	Timestamp

	// NumKinds is the number of defined kinds. Keep it last.
	NumKinds
)

var kindNames = [...]string{
	Unsupported: "unsupported",
	Text:        "text",
	Boolean:     "boolean",
	SmallInt:    "smallint",
	Integer:     "integer",
	BigInt:      "bigint",
	Float4:      "real",
	Float8:      "double precision",
	Timestamp:   "timestamp",
}

// Compile-time check that kindNames covers every Kind.
var _ = [1]struct{}{}[len(kindNames)-int(NumKinds)]

// String returns the SQL name of the kind.
func (k Kind) String() string {
	if k < 0 || k >= NumKinds {
		return kindNames[Unsupported]
	}
	return kindNames[k]
}

// Loadable reports whether text fields can be coerced into this kind.
func (k Kind) Loadable() bool {
	switch k {
	case Text, Boolean, SmallInt, Integer, BigInt, Float4, Float8:
		return true
	default:
		return false
	}
}

// typeNames maps runtime type names (pg_type.typname) and information_schema
// data_type spellings onto kinds.
var typeNames = map[string]Kind{
	"text":              Text,
	"varchar":           Text,
	"character varying": Text,
	"bpchar":            Text,
	"character":         Text,
	"char(n)":           Text,
	"name":              Text,

	"bool":    Boolean,
	"boolean": Boolean,

	"int2":        SmallInt,
	"smallint":    SmallInt,
	"smallserial": SmallInt,
	"serial2":     SmallInt,

	"int":     Integer,
	"int4":    Integer,
	"integer": Integer,
	"serial":  Integer,
	"serial4": Integer,

	"int8":      BigInt,
	"bigint":    BigInt,
	"bigserial": BigInt,
	"serial8":   BigInt,

	"float4": Float4,
	"real":   Float4,

	"float8":           Float8,
	"double precision": Float8,
	"float":            Float8,

	"timestamp":                   Timestamp,
	"timestamptz":                 Timestamp,
	"timestamp without time zone": Timestamp,
	"timestamp with time zone":    Timestamp,
}

// ParseKind maps a type name to its Kind. Matching is case-insensitive and ignores
// a trailing type modifier, so "VARCHAR(20)" is Text. Unknown names are Unsupported.
func ParseKind(typeName string) Kind {
	name := strings.ToLower(strings.TrimSpace(typeName))
	if k, ok := typeNames[name]; ok {
		return k
	}
	if i := strings.IndexByte(name, '('); i > 0 {
		base := strings.TrimSpace(name[:i])
		// "timestamp(3) with time zone" keeps its suffix after the modifier.
		if j := strings.IndexByte(name, ')'); j > i {
			base = strings.TrimSpace(base + name[j+1:])
		}
		if k, ok := typeNames[base]; ok {
			return k
		}
	}
	return Unsupported
}
