package mysql

import (
	"strconv"
	"strings"
)

var binaryTypes = map[string]bool{
	"BINARY":     true,
	"VARBINARY":  true,
	"TINYBLOB":   true,
	"BLOB":       true,
	"MEDIUMBLOB": true,
	"LONGBLOB":   true,
	"BIT":        true,
	"GEOMETRY":   true,
}

var integerTypes = map[string]bool{
	"TINYINT":   true,
	"SMALLINT":  true,
	"MEDIUMINT": true,
	"INT":       true,
	"INTEGER":   true,
	"BIGINT":    true,
	"YEAR":      true,
}

// normalize converts a text-protocol []byte into the Go value its column type
// implies. DECIMAL stays textual to keep its exact digits. Anything that fails
// to parse falls back to a string.
func normalize(v any, dbType string) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}

	typ := strings.ToUpper(dbType)
	unsigned := strings.HasPrefix(typ, "UNSIGNED ")
	typ = strings.TrimPrefix(typ, "UNSIGNED ")

	switch {
	case binaryTypes[typ]:
		return b
	case integerTypes[typ] && unsigned:
		if n, err := strconv.ParseUint(string(b), 10, 64); err == nil {
			return n
		}
	case integerTypes[typ]:
		if n, err := strconv.ParseInt(string(b), 10, 64); err == nil {
			return n
		}
	case typ == "FLOAT" || typ == "DOUBLE":
		if f, err := strconv.ParseFloat(string(b), 64); err == nil {
			return f
		}
	}
	return string(b)
}
