package viewer

import (
	"fmt"
	"maps"
	"strconv"
	"time"
)

// QueryParameters are the named form fields submitted with a query.
// Recognized fields are "type" and "date".
type QueryParameters map[string]string

// Type returns the record type requested ("students", "teachers", ...).
func (p QueryParameters) Type() string { return p["type"] }

// Date returns the requested date, if any.
func (p QueryParameters) Date() string { return p["date"] }

// Clone returns an independent copy. A nil receiver yields an empty map.
func (p QueryParameters) Clone() QueryParameters {
	out := make(QueryParameters, len(p))
	maps.Copy(out, p)
	return out
}

// Record types understood by the bundled data sources.
const (
	TypeStudents   = "students"
	TypeTeachers   = "teachers"
	TypeClasses    = "classes"
	TypeAttendance = "attendance"
)

// RecordTypes lists the record types in the order the form offers them.
var RecordTypes = []string{TypeStudents, TypeTeachers, TypeClasses, TypeAttendance}

// Field is one column/value pair of a Record.
type Field struct {
	Column string
	Value  any // string, integer or float
}

// Record is one row of tabular data. Field order is column order.
type Record []Field

// With returns r extended by one field.
func (r Record) With(column string, value any) Record {
	return append(r, Field{Column: column, Value: value})
}

// Get returns the value stored under column.
func (r Record) Get(column string) (any, bool) {
	for _, f := range r {
		if f.Column == column {
			return f.Value, true
		}
	}
	return nil, false
}

// Columns returns the record's column names in insertion order.
func (r Record) Columns() []string {
	cols := make([]string, len(r))
	for i, f := range r {
		cols[i] = f.Column
	}
	return cols
}

// ResultSet is the ordered collection of records returned by one fetch.
// A result set is replaced wholesale and never modified in place.
type ResultSet []Record

// Columns returns the column set of the result: the columns of the first
// record. Columns that only appear in later records are not included.
func (rs ResultSet) Columns() []string {
	if len(rs) == 0 {
		return nil
	}
	return rs[0].Columns()
}

// FormatValue renders a scalar cell value as display text.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.DateOnly)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
