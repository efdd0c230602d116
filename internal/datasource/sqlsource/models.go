package sqlsource

// Tables read by the query catalog. Column names follow gorm's snake_case
// naming of the field names.

type Student struct {
	ID            uint   `gorm:"primaryKey"`
	StudentCode   string `gorm:"uniqueIndex;not null"`
	FullName      string `gorm:"not null"`
	Age           int
	ClassName     string `gorm:"index"`
	Grade         string `gorm:"size:1"`
	AttendancePct int
}

func (Student) TableName() string { return "students" }

type Teacher struct {
	ID           uint   `gorm:"primaryKey"`
	TeacherCode  string `gorm:"uniqueIndex;not null"`
	FullName     string `gorm:"not null"`
	Subject      string
	ClassCount   int
	StudentCount int
}

func (Teacher) TableName() string { return "teachers" }

type Class struct {
	ID           uint   `gorm:"primaryKey"`
	ClassCode    string `gorm:"uniqueIndex;not null"`
	Name         string `gorm:"not null"`
	TeacherName  string
	StudentCount int
	Room         string
}

func (Class) TableName() string { return "classes" }

// Attendance is one class's attendance for a day. AttendanceDate is
// stored as YYYY-MM-DD text.
type Attendance struct {
	ID             uint   `gorm:"primaryKey"`
	AttendanceDate string `gorm:"index;not null"`
	ClassName      string `gorm:"not null"`
	Present        int
	Absent         int
	Percentage     int
}

func (Attendance) TableName() string { return "attendance" }

func allModels() []any {
	return []any{&Student{}, &Teacher{}, &Class{}, &Attendance{}}
}
