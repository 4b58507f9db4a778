package metadata

import (
	"fmt"
	"strings"
)

// TypeKind enumerates the unified SQL type lattice.
type TypeKind string

const (
	TypeInteger   TypeKind = "integer"
	TypeBigInt    TypeKind = "bigint"
	TypeSmallInt  TypeKind = "smallint"
	TypeTinyInt   TypeKind = "tinyint"
	TypeDecimal   TypeKind = "decimal"
	TypeFloat     TypeKind = "float"
	TypeDouble    TypeKind = "double"
	TypeVarchar   TypeKind = "varchar"
	TypeChar      TypeKind = "char"
	TypeText      TypeKind = "text"
	TypeBinary    TypeKind = "binary"
	TypeVarBinary TypeKind = "varbinary"
	TypeBlob      TypeKind = "blob"
	TypeDate      TypeKind = "date"
	TypeTime      TypeKind = "time"
	TypeDateTime  TypeKind = "datetime"
	TypeTimestamp TypeKind = "timestamp"
	TypeBoolean   TypeKind = "boolean"
	TypeJSON      TypeKind = "json"
	TypeUUID      TypeKind = "uuid"
	TypeEnum      TypeKind = "enum"
	TypeArray     TypeKind = "array"
	TypeOther     TypeKind = "other"
)

// DataType is a unified SQL data type. Length applies to varchar, char
// and varbinary (0 means unspecified); Values holds enum members; Elem
// is the array element type; Name carries the original type name for
// TypeOther.
type DataType struct {
	Kind   TypeKind  `json:"kind"`
	Length int       `json:"length,omitempty"`
	Values []string  `json:"values,omitempty"`
	Elem   *DataType `json:"elem,omitempty"`
	Name   string    `json:"name,omitempty"`
}

// Simple constructs a DataType with no parameters.
func Simple(kind TypeKind) DataType {
	return DataType{Kind: kind}
}

// Varchar constructs a varchar type; length 0 means unspecified.
func Varchar(length int) DataType {
	return DataType{Kind: TypeVarchar, Length: length}
}

// Char constructs a char type; length 0 means unspecified.
func Char(length int) DataType {
	return DataType{Kind: TypeChar, Length: length}
}

// Enum constructs an enum type over the given members.
func Enum(values ...string) DataType {
	return DataType{Kind: TypeEnum, Values: values}
}

// Array constructs an array over an element type.
func Array(elem DataType) DataType {
	return DataType{Kind: TypeArray, Elem: &elem}
}

// Other wraps an unrecognized backend type name.
func Other(name string) DataType {
	return DataType{Kind: TypeOther, Name: name}
}

// String renders the type the way it is shown in completion details
// and hover cards, e.g. "VARCHAR(255)", "INTEGER[]", "ENUM(a, b)".
func (t DataType) String() string {
	switch t.Kind {
	case TypeVarchar, TypeChar, TypeVarBinary:
		if t.Length > 0 {
			return fmt.Sprintf("%s(%d)", strings.ToUpper(string(t.Kind)), t.Length)
		}
		return strings.ToUpper(string(t.Kind))
	case TypeEnum:
		return fmt.Sprintf("ENUM(%s)", strings.Join(t.Values, ", "))
	case TypeArray:
		if t.Elem != nil {
			return t.Elem.String() + "[]"
		}
		return "ARRAY"
	case TypeOther:
		if t.Name != "" {
			return strings.ToUpper(t.Name)
		}
		return "UNKNOWN"
	default:
		return strings.ToUpper(string(t.Kind))
	}
}

// Equal reports deep equality of two data types.
func (t DataType) Equal(other DataType) bool {
	if t.Kind != other.Kind || t.Length != other.Length || t.Name != other.Name {
		return false
	}
	if len(t.Values) != len(other.Values) {
		return false
	}
	for i := range t.Values {
		if t.Values[i] != other.Values[i] {
			return false
		}
	}
	if (t.Elem == nil) != (other.Elem == nil) {
		return false
	}
	if t.Elem != nil {
		return t.Elem.Equal(*other.Elem)
	}
	return true
}
