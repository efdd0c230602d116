package datasource

import (
	"math/big"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/emis-viewer/internal/viewer"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		params   viewer.QueryParameters
		wantTail string
		wantArgs []any
	}{
		{
			name:     "students",
			dialect:  Postgres,
			params:   viewer.QueryParameters{"type": "students"},
			wantTail: "FROM students ORDER BY student_code",
		},
		{
			name:     "attendance postgres with date",
			dialect:  Postgres,
			params:   viewer.QueryParameters{"type": "attendance", "date": "2024-03-01"},
			wantTail: "FROM attendance WHERE attendance_date = $1 ORDER BY class_name",
			wantArgs: []any{"2024-03-01"},
		},
		{
			name:     "attendance sqlite with date",
			dialect:  SQLite,
			params:   viewer.QueryParameters{"type": "attendance", "date": "2024-03-01"},
			wantTail: "FROM attendance WHERE attendance_date = ? ORDER BY class_name",
			wantArgs: []any{"2024-03-01"},
		},
		{
			name:     "attendance without date is unfiltered",
			dialect:  SQLite,
			params:   viewer.QueryParameters{"type": "attendance"},
			wantTail: "FROM attendance ORDER BY class_name",
		},
		{
			name:     "date ignored for other types",
			dialect:  Postgres,
			params:   viewer.QueryParameters{"type": "teachers", "date": "2024-03-01"},
			wantTail: "FROM teachers ORDER BY teacher_code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := Build(tt.dialect, tt.params)
			require.NoError(t, err)
			assert.Contains(t, st.SQL, tt.wantTail)
			assert.Equal(t, tt.wantArgs, st.Args)
		})
	}
}

func TestBuild_UnknownType(t *testing.T) {
	_, err := Build(Postgres, viewer.QueryParameters{"type": "parents"})
	require.ErrorIs(t, err, ErrUnknownType)

	_, err = Build(Postgres, viewer.QueryParameters{})
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestBuild_ColumnOrder(t *testing.T) {
	st, err := Build(Postgres, viewer.QueryParameters{"type": "students"})
	require.NoError(t, err)

	idx := func(s string) int {
		for i := 0; i+len(s) <= len(st.SQL); i++ {
			if st.SQL[i:i+len(s)] == s {
				return i
			}
		}
		return -1
	}
	order := []string{`"ID"`, `"Name"`, `"Age"`, `"Class"`, `"Grade"`, `"Attendance"`}
	for i := 1; i < len(order); i++ {
		assert.Less(t, idx(order[i-1]), idx(order[i]), "%s before %s", order[i-1], order[i])
	}
}

func TestScalar(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"string", "Class 1", "Class 1"},
		{"bytes", []byte("Room 101"), "Room 101"},
		{"int32", int32(17), 17},
		{"int64", int64(42), 42},
		{"float32", float32(1.5), 1.5},
		{"time", day, "2024-03-01"},
		{"zero time", time.Time{}, ""},
		{"pg date", pgtype.Date{Time: day, Valid: true}, "2024-03-01"},
		{"pg date null", pgtype.Date{}, ""},
		{"pg text", pgtype.Text{String: "Math", Valid: true}, "Math"},
		{"pg numeric whole", pgtype.Numeric{Int: big.NewInt(93), Exp: 0, Valid: true}, 93},
		{"pg numeric scaled", pgtype.Numeric{Int: big.NewInt(9), Exp: 1, Valid: true}, 90},
		{"pg numeric fraction", pgtype.Numeric{Int: big.NewInt(925), Exp: -1, Valid: true}, 92.5},
		{"pg numeric null", pgtype.Numeric{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Scalar(tt.in))
		})
	}
}
