// Package datasource holds what the SQL-backed data sources share: the
// query catalog that maps a record type to a SELECT statement and the
// coercion of driver values into viewer scalars.
package datasource

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/emis-viewer/internal/viewer"
)

// ErrUnknownType is returned by Build for a record type without a query.
var ErrUnknownType = errors.New("unknown record type")

// Dialect renders bind placeholders for a SQL engine.
type Dialect int

const (
	Postgres Dialect = iota // $1, $2, ...
	SQLite                  // ?
)

func (d Dialect) placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Statement is a ready-to-run query.
type Statement struct {
	SQL  string
	Args []any
}

type queryDef struct {
	selectSQL string
	dateCol   string // filtered by params.Date() when set
	orderBy   string
}

// Column aliases define the column names and order shown in the table.
var catalog = map[string]queryDef{
	viewer.TypeStudents: {
		selectSQL: `SELECT student_code AS "ID", full_name AS "Name", age AS "Age", ` +
			`class_name AS "Class", grade AS "Grade", attendance_pct || '%' AS "Attendance" FROM students`,
		orderBy: "student_code",
	},
	viewer.TypeTeachers: {
		selectSQL: `SELECT teacher_code AS "ID", full_name AS "Name", subject AS "Subject", ` +
			`class_count AS "Classes", student_count AS "Students" FROM teachers`,
		orderBy: "teacher_code",
	},
	viewer.TypeClasses: {
		selectSQL: `SELECT class_code AS "ID", name AS "Name", teacher_name AS "Teacher", ` +
			`student_count AS "Students", room AS "Room" FROM classes`,
		orderBy: "class_code",
	},
	viewer.TypeAttendance: {
		selectSQL: `SELECT attendance_date AS "Date", class_name AS "Class", present AS "Present", ` +
			`absent AS "Absent", percentage || '%' AS "Percentage" FROM attendance`,
		dateCol: "attendance_date",
		orderBy: "class_name",
	},
}

// Build returns the statement answering params in the given dialect.
// Types without a catalog entry return ErrUnknownType.
func Build(d Dialect, params viewer.QueryParameters) (Statement, error) {
	def, ok := catalog[params.Type()]
	if !ok {
		return Statement{}, fmt.Errorf("%w: %q", ErrUnknownType, params.Type())
	}

	var b strings.Builder
	b.WriteString(def.selectSQL)

	var args []any
	if def.dateCol != "" && params.Date() != "" {
		args = append(args, params.Date())
		fmt.Fprintf(&b, " WHERE %s = %s", def.dateCol, d.placeholder(len(args)))
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(def.orderBy)

	return Statement{SQL: b.String(), Args: args}, nil
}

// Scalar converts a driver value into a string, int or float64.
func Scalar(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return val
	case []byte:
		return string(val)
	case int:
		return val
	case int16:
		return int(val)
	case int32:
		return int(val)
	case int64:
		return int(val)
	case float32:
		return float64(val)
	case float64:
		return val
	case bool:
		return val
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format(time.DateOnly)
	case pgtype.Numeric:
		return numericScalar(val)
	case pgtype.Date:
		if !val.Valid {
			return ""
		}
		return val.Time.Format(time.DateOnly)
	case pgtype.Text:
		if !val.Valid {
			return ""
		}
		return val.String
	default:
		return fmt.Sprintf("%v", v)
	}
}

// numericScalar keeps whole numbers as int and everything else as float64.
func numericScalar(n pgtype.Numeric) any {
	if !n.Valid || n.NaN {
		return ""
	}
	if n.Exp >= 0 && n.Int != nil {
		whole := new(big.Int).Mul(n.Int, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n.Exp)), nil))
		if whole.IsInt64() {
			return int(whole.Int64())
		}
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return ""
	}
	return f.Float64
}
