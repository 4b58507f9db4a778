package registry

import "github.com/woxQAQ/unified-sql-lsp/pkg/metadata"

func postgresBuiltins() []metadata.FunctionMetadata {
	anyType := metadata.Other("any")
	str := metadata.Simple(metadata.TypeText)
	num := metadata.Simple(metadata.TypeDouble)
	i64 := metadata.Simple(metadata.TypeBigInt)
	ts := metadata.Simple(metadata.TypeTimestamp)
	js := metadata.Simple(metadata.TypeJSON)
	anyArr := metadata.Array(metadata.Other("any"))

	param := func(name string, t metadata.DataType) metadata.FunctionParameter {
		return metadata.FunctionParameter{Name: name, DataType: t}
	}

	funcs := []metadata.FunctionMetadata{
		// Aggregates.
		metadata.NewFunction("COUNT", i64).
			WithType(metadata.FunctionTypeAggregate).
			WithParameters(param("expr", anyType)).
			WithDescription("Count the number of rows").
			WithExample("SELECT COUNT(*) FROM users"),
		metadata.NewFunction("SUM", num).
			WithType(metadata.FunctionTypeAggregate).
			WithParameters(param("expr", num)).
			WithDescription("Sum of values in a group"),
		metadata.NewFunction("AVG", num).
			WithType(metadata.FunctionTypeAggregate).
			WithParameters(param("expr", num)).
			WithDescription("Average of values in a group"),
		metadata.NewFunction("MIN", anyType).
			WithType(metadata.FunctionTypeAggregate).
			WithParameters(param("expr", anyType)).
			WithDescription("Minimum value in a group"),
		metadata.NewFunction("MAX", anyType).
			WithType(metadata.FunctionTypeAggregate).
			WithParameters(param("expr", anyType)).
			WithDescription("Maximum value in a group"),
		metadata.NewFunction("STRING_AGG", str).
			WithType(metadata.FunctionTypeAggregate).
			WithParameters(param("expr", str), param("delimiter", str)).
			WithDescription("Concatenate group values with a delimiter").
			WithExample("SELECT STRING_AGG(name, ', ') FROM users"),
		metadata.NewFunction("ARRAY_AGG", anyArr).
			WithType(metadata.FunctionTypeAggregate).
			WithParameters(param("expr", anyType)).
			WithDescription("Collect group values into an array"),
		metadata.NewFunction("JSON_AGG", js).
			WithType(metadata.FunctionTypeAggregate).
			WithParameters(param("expr", anyType)).
			WithDescription("Collect group values into a JSON array"),
		metadata.NewFunction("JSONB_AGG", js).
			WithType(metadata.FunctionTypeAggregate).
			WithParameters(param("expr", anyType)).
			WithDescription("Collect group values into a JSONB array"),

		// Numeric scalars.
		metadata.NewFunction("ABS", num).
			WithParameters(param("x", num)).
			WithDescription("Absolute value"),
		metadata.NewFunction("CEIL", i64).
			WithParameters(param("x", num)).
			WithDescription("Smallest integer not less than x"),
		metadata.NewFunction("FLOOR", i64).
			WithParameters(param("x", num)).
			WithDescription("Largest integer not greater than x"),
		metadata.NewFunction("ROUND", num).
			WithParameters(param("x", num), param("d", i64)).
			WithDescription("Round x to d decimal places"),

		// String scalars.
		metadata.NewFunction("CONCAT", str).
			WithParameters(metadata.FunctionParameter{Name: "str", DataType: str, IsVariadic: true}).
			WithDescription("Concatenate strings"),
		metadata.NewFunction("SUBSTRING", str).
			WithParameters(param("str", str), param("pos", i64), param("len", i64)).
			WithDescription("Extract a substring"),
		metadata.NewFunction("LENGTH", i64).
			WithParameters(param("str", str)).
			WithDescription("String length in characters"),
		metadata.NewFunction("UPPER", str).
			WithParameters(param("str", str)).
			WithDescription("Convert to upper case"),
		metadata.NewFunction("LOWER", str).
			WithParameters(param("str", str)).
			WithDescription("Convert to lower case"),
		metadata.NewFunction("TRIM", str).
			WithParameters(param("str", str)).
			WithDescription("Strip leading and trailing whitespace"),

		// Conditionals.
		metadata.NewFunction("COALESCE", anyType).
			WithParameters(metadata.FunctionParameter{Name: "expr", DataType: anyType, IsVariadic: true}).
			WithDescription("First non-NULL argument"),
		metadata.NewFunction("NULLIF", anyType).
			WithParameters(param("a", anyType), param("b", anyType)).
			WithDescription("NULL when both arguments are equal"),
		metadata.NewFunction("CAST", anyType).
			WithParameters(param("expr", anyType)).
			WithDescription("Convert a value to another type").
			WithExample("CAST(x AS TEXT)"),

		// Arrays.
		metadata.NewFunction("ARRAY_LENGTH", i64).
			WithParameters(param("arr", anyArr), param("dim", i64)).
			WithDescription("Length of an array dimension"),
		metadata.NewFunction("ARRAY_APPEND", anyArr).
			WithParameters(param("arr", anyArr), param("elem", anyType)).
			WithDescription("Append an element to an array"),
		metadata.NewFunction("ARRAY_PREPEND", anyArr).
			WithParameters(param("elem", anyType), param("arr", anyArr)).
			WithDescription("Prepend an element to an array"),
		metadata.NewFunction("ARRAY_CAT", anyArr).
			WithParameters(param("a", anyArr), param("b", anyArr)).
			WithDescription("Concatenate two arrays"),

		// JSON.
		metadata.NewFunction("JSON_BUILD_OBJECT", js).
			WithParameters(metadata.FunctionParameter{Name: "kv", DataType: anyType, IsVariadic: true}).
			WithDescription("Build a JSON object from key/value pairs"),
		metadata.NewFunction("JSONB_SET", js).
			WithParameters(param("target", js), param("path", metadata.Array(str)), param("value", js)).
			WithDescription("Replace a value at a path in a JSONB document"),

		// Date and time.
		metadata.NewFunction("NOW", ts).
			WithDescription("Current date and time"),
		metadata.NewFunction("EXTRACT", num).
			WithParameters(param("field", str), param("source", ts)).
			WithDescription("Extract a subfield from a date/time value").
			WithExample("EXTRACT(YEAR FROM created_at)"),
		metadata.NewFunction("DATE_TRUNC", ts).
			WithParameters(param("field", str), param("source", ts)).
			WithDescription("Truncate a timestamp to a precision"),
		metadata.NewFunction("AGE", metadata.Other("interval")).
			WithParameters(param("a", ts), param("b", ts)).
			WithDescription("Interval between two timestamps"),

		// Window functions.
		metadata.NewFunction("ROW_NUMBER", i64).
			WithType(metadata.FunctionTypeWindow).
			WithDescription("Sequential row number within the window"),
		metadata.NewFunction("RANK", i64).
			WithType(metadata.FunctionTypeWindow).
			WithDescription("Rank with gaps within the window"),
		metadata.NewFunction("DENSE_RANK", i64).
			WithType(metadata.FunctionTypeWindow).
			WithDescription("Rank without gaps within the window"),
		metadata.NewFunction("NTILE", i64).
			WithType(metadata.FunctionTypeWindow).
			WithParameters(param("buckets", i64)).
			WithDescription("Bucket number within the window"),
		metadata.NewFunction("LAG", anyType).
			WithType(metadata.FunctionTypeWindow).
			WithParameters(param("expr", anyType), param("offset", i64)).
			WithDescription("Value from a preceding row"),
		metadata.NewFunction("LEAD", anyType).
			WithType(metadata.FunctionTypeWindow).
			WithParameters(param("expr", anyType), param("offset", i64)).
			WithDescription("Value from a following row"),
		metadata.NewFunction("FIRST_VALUE", anyType).
			WithType(metadata.FunctionTypeWindow).
			WithParameters(param("expr", anyType)).
			WithDescription("First value in the window frame"),
		metadata.NewFunction("LAST_VALUE", anyType).
			WithType(metadata.FunctionTypeWindow).
			WithParameters(param("expr", anyType)).
			WithDescription("Last value in the window frame"),
		metadata.NewFunction("NTH_VALUE", anyType).
			WithType(metadata.FunctionTypeWindow).
			WithParameters(param("expr", anyType), param("n", i64)).
			WithDescription("N-th value in the window frame"),
	}

	return funcs
}
