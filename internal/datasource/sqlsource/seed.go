package sqlsource

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

var (
	seedSubjects = []string{"Math", "Science", "History", "English", "Art"}
	seedGrades   = []string{"A", "B", "C", "D", "E"}
)

// Seed fills empty tables with a small deterministic demo data set for
// the given attendance date. Tables that already hold rows are left alone.
func (s *Source) Seed(ctx context.Context, date string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := seedIfEmpty(tx, &Student{}, demoStudents()); err != nil {
			return err
		}
		if err := seedIfEmpty(tx, &Teacher{}, demoTeachers()); err != nil {
			return err
		}
		if err := seedIfEmpty(tx, &Class{}, demoClasses()); err != nil {
			return err
		}
		return seedIfEmpty(tx, &Attendance{}, demoAttendance(date))
	})
}

func seedIfEmpty[T any](tx *gorm.DB, model *T, rows []T) error {
	var n int64
	if err := tx.Model(model).Count(&n).Error; err != nil {
		return fmt.Errorf("count %T: %w", model, err)
	}
	if n > 0 {
		return nil
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("seed %T: %w", model, err)
	}
	return nil
}

func demoStudents() []Student {
	out := make([]Student, 25)
	for i := range out {
		out[i] = Student{
			StudentCode:   fmt.Sprintf("STD%03d", i+1),
			FullName:      fmt.Sprintf("Student %d", i+1),
			Age:           10 + i%10,
			ClassName:     fmt.Sprintf("Class %d", i%5+1),
			Grade:         seedGrades[i%len(seedGrades)],
			AttendancePct: 70 + (i*7)%30,
		}
	}
	return out
}

func demoTeachers() []Teacher {
	out := make([]Teacher, 12)
	for i := range out {
		out[i] = Teacher{
			TeacherCode:  fmt.Sprintf("TCH%03d", i+1),
			FullName:     fmt.Sprintf("Teacher %d", i+1),
			Subject:      seedSubjects[i%len(seedSubjects)],
			ClassCount:   i%5 + 1,
			StudentCount: 20 + (i*11)%50,
		}
	}
	return out
}

func demoClasses() []Class {
	out := make([]Class, 5)
	for i := range out {
		out[i] = Class{
			ClassCode:    fmt.Sprintf("CLS%03d", i+1),
			Name:         fmt.Sprintf("Class %d", i+1),
			TeacherName:  fmt.Sprintf("Teacher %d", i*2+1),
			StudentCount: 15 + i*4,
			Room:         fmt.Sprintf("Room %d", 101+i),
		}
	}
	return out
}

func demoAttendance(date string) []Attendance {
	out := make([]Attendance, 5)
	for i := range out {
		present := 20 + i
		absent := i % 3
		out[i] = Attendance{
			AttendanceDate: date,
			ClassName:      fmt.Sprintf("Class %d", i+1),
			Present:        present,
			Absent:         absent,
			Percentage:     present * 100 / (present + absent),
		}
	}
	return out
}
