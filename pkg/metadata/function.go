package metadata

import (
	"fmt"
	"strings"
)

// FunctionType classifies a SQL function.
type FunctionType string

const (
	FunctionTypeScalar    FunctionType = "scalar"
	FunctionTypeAggregate FunctionType = "aggregate"
	FunctionTypeWindow    FunctionType = "window"
	FunctionTypeTable     FunctionType = "table"
)

// FunctionParameter is one parameter of a SQL function.
type FunctionParameter struct {
	Name       string   `json:"name"`
	DataType   DataType `json:"data_type"`
	HasDefault bool     `json:"has_default,omitempty"`
	IsVariadic bool     `json:"is_variadic,omitempty"`
}

// FunctionMetadata describes a SQL function for completion and hover.
type FunctionMetadata struct {
	Name         string              `json:"name"`
	ReturnType   DataType            `json:"return_type"`
	Parameters   []FunctionParameter `json:"parameters,omitempty"`
	FunctionType FunctionType        `json:"function_type"`
	Description  string              `json:"description,omitempty"`
	Example      string              `json:"example,omitempty"`
	IsBuiltin    bool                `json:"is_builtin"`
}

// NewFunction creates function metadata; functions default to scalar
// builtins.
func NewFunction(name string, returnType DataType) FunctionMetadata {
	return FunctionMetadata{
		Name:         name,
		ReturnType:   returnType,
		FunctionType: FunctionTypeScalar,
		IsBuiltin:    true,
	}
}

// WithParameters sets the parameter list.
func (f FunctionMetadata) WithParameters(params ...FunctionParameter) FunctionMetadata {
	f.Parameters = params
	return f
}

// WithType sets the function type.
func (f FunctionMetadata) WithType(ft FunctionType) FunctionMetadata {
	f.FunctionType = ft
	return f
}

// WithDescription sets the description shown in hover cards.
func (f FunctionMetadata) WithDescription(desc string) FunctionMetadata {
	f.Description = desc
	return f
}

// WithExample sets the usage example.
func (f FunctionMetadata) WithExample(example string) FunctionMetadata {
	f.Example = example
	return f
}

// Signature renders the function signature for completion details and
// hover, e.g. "COUNT(expr ANY) -> BIGINT".
func (f FunctionMetadata) Signature() string {
	params := make([]string, len(f.Parameters))
	for i, p := range f.Parameters {
		if p.IsVariadic {
			params[i] = fmt.Sprintf("%s %s...", p.Name, p.DataType)
		} else {
			params[i] = fmt.Sprintf("%s %s", p.Name, p.DataType)
		}
	}
	return fmt.Sprintf("%s(%s) -> %s", f.Name, strings.Join(params, ", "), f.ReturnType)
}
