package registry

import "github.com/woxQAQ/unified-sql-lsp/pkg/metadata"

func mysqlBuiltins() []metadata.FunctionMetadata {
	anyType := metadata.Other("any")
	str := metadata.Simple(metadata.TypeText)
	num := metadata.Simple(metadata.TypeDouble)
	i64 := metadata.Simple(metadata.TypeBigInt)
	dt := metadata.Simple(metadata.TypeDateTime)

	param := func(name string, t metadata.DataType) metadata.FunctionParameter {
		return metadata.FunctionParameter{Name: name, DataType: t}
	}

	return []metadata.FunctionMetadata{
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
		metadata.NewFunction("GROUP_CONCAT", str).
			WithType(metadata.FunctionTypeAggregate).
			WithParameters(param("expr", anyType)).
			WithDescription("Concatenate group values into a string").
			WithExample("SELECT GROUP_CONCAT(name SEPARATOR ', ') FROM users"),

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
			WithDescription("String length in bytes"),
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
		metadata.NewFunction("IF", anyType).
			WithParameters(param("cond", metadata.Simple(metadata.TypeBoolean)), param("then", anyType), param("else", anyType)).
			WithDescription("Return then if cond is true, else otherwise"),
		metadata.NewFunction("IFNULL", anyType).
			WithParameters(param("expr", anyType), param("fallback", anyType)).
			WithDescription("Return fallback when expr is NULL"),
		metadata.NewFunction("COALESCE", anyType).
			WithParameters(metadata.FunctionParameter{Name: "expr", DataType: anyType, IsVariadic: true}).
			WithDescription("First non-NULL argument"),
		metadata.NewFunction("CAST", anyType).
			WithParameters(param("expr", anyType)).
			WithDescription("Convert a value to another type").
			WithExample("CAST(x AS CHAR)"),
		metadata.NewFunction("CONVERT", anyType).
			WithParameters(param("expr", anyType)).
			WithDescription("Convert a value to another type or charset"),

		// Date and time.
		metadata.NewFunction("NOW", dt).
			WithDescription("Current date and time"),
		metadata.NewFunction("CURDATE", metadata.Simple(metadata.TypeDate)).
			WithDescription("Current date"),
		metadata.NewFunction("CURTIME", metadata.Simple(metadata.TypeTime)).
			WithDescription("Current time"),
		metadata.NewFunction("DATE_FORMAT", str).
			WithParameters(param("date", dt), param("format", str)).
			WithDescription("Format a date per a format string").
			WithExample("DATE_FORMAT(created_at, '%Y-%m-%d')"),
		metadata.NewFunction("DATE_ADD", dt).
			WithParameters(param("date", dt), param("interval", anyType)).
			WithDescription("Add an interval to a date"),
		metadata.NewFunction("DATE_SUB", dt).
			WithParameters(param("date", dt), param("interval", anyType)).
			WithDescription("Subtract an interval from a date"),
		metadata.NewFunction("DATEDIFF", i64).
			WithParameters(param("a", dt), param("b", dt)).
			WithDescription("Days between two dates"),

		// Window functions (MySQL 8).
		metadata.NewFunction("ROW_NUMBER", i64).
			WithType(metadata.FunctionTypeWindow).
			WithDescription("Sequential row number within the window"),
		metadata.NewFunction("RANK", i64).
			WithType(metadata.FunctionTypeWindow).
			WithDescription("Rank with gaps within the window"),
		metadata.NewFunction("DENSE_RANK", i64).
			WithType(metadata.FunctionTypeWindow).
			WithDescription("Rank without gaps within the window"),
		metadata.NewFunction("LAG", anyType).
			WithType(metadata.FunctionTypeWindow).
			WithParameters(param("expr", anyType), param("offset", i64)).
			WithDescription("Value from a preceding row"),
		metadata.NewFunction("LEAD", anyType).
			WithType(metadata.FunctionTypeWindow).
			WithParameters(param("expr", anyType), param("offset", i64)).
			WithDescription("Value from a following row"),
	}
}
