package attendance

import (
	"context"
	"errors"
	"math"
	"time"

	"rollcall/internal/roster"
)

var (
	// ErrNotTeacher is returned when a mark-sheet targets a non-teacher
	// account.
	ErrNotTeacher = errors.New("target user is not a teacher")
	// ErrInvalidDate is returned for dates not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("invalid date: want YYYY-MM-DD")
)

// DateLayout is the calendar-date format used everywhere (no time part).
const DateLayout = "2006-01-02"

// Summary is a student's own attendance rollup across all teachers.
type Summary struct {
	PresentCount int     `json:"present_count"`
	AbsentCount  int     `json:"absent_count"`
	Percent      float64 `json:"attendance_percent"`
}

// Service coordinates mark-sheet writes and reporting.
type Service struct {
	repo  *Repository
	users *roster.Repository
}

// NewService creates a service backed by the two repositories.
func NewService(repo *Repository, users *roster.Repository) *Service {
	return &Service{repo: repo, users: users}
}

// resolveTeacher loads the teacher and the subject stamped onto every record
// of the submission. Editing the subject later does not rewrite old rows.
func (s *Service) resolveTeacher(ctx context.Context, teacherID int64) (roster.User, string, error) {
	teacher, err := s.users.GetByID(ctx, teacherID)
	if err != nil {
		return roster.User{}, "", err
	}
	if teacher.Role != roster.RoleTeacher {
		return roster.User{}, "", ErrNotTeacher
	}
	return teacher, teacher.SubjectOrEmpty(), nil
}

// MarkSheet records a teacher's sheet for one date and returns the subject
// it was stamped with.
func (s *Service) MarkSheet(ctx context.Context, teacherID int64, date string, marks []Mark) (string, error) {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return "", ErrInvalidDate
	}
	_, subject, err := s.resolveTeacher(ctx, teacherID)
	if err != nil {
		return "", err
	}
	if err := s.repo.UpsertMarks(ctx, teacherID, subject, date, marks); err != nil {
		return "", err
	}
	return subject, nil
}

// SheetFor returns the already-recorded sheet for a teacher and date,
// defaulting to today when date is empty.
func (s *Service) SheetFor(ctx context.Context, teacherID int64, date string) (string, string, map[int64]Record, error) {
	if date == "" {
		date = time.Now().Format(DateLayout)
	} else if _, err := time.Parse(DateLayout, date); err != nil {
		return "", "", nil, ErrInvalidDate
	}
	_, subject, err := s.resolveTeacher(ctx, teacherID)
	if err != nil {
		return "", "", nil, err
	}
	sheet, err := s.repo.Sheet(ctx, teacherID, date, subject)
	if err != nil {
		return "", "", nil, err
	}
	return date, subject, sheet, nil
}

// TeacherReport returns every student's percentage over this teacher's
// records. Students with zero records come back as exactly 0.
func (s *Service) TeacherReport(ctx context.Context, teacherID int64) ([]StudentStat, error) {
	stats, err := s.repo.TeacherStats(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	for i := range stats {
		stats[i].Percent = Percentage(stats[i].PresentCount, stats[i].TotalClasses)
	}
	return stats, nil
}

// StudentSummary rolls up a student's records across all teachers.
func (s *Service) StudentSummary(ctx context.Context, studentID int64) (Summary, error) {
	present, total, err := s.repo.StudentCounts(ctx, studentID)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		PresentCount: present,
		AbsentCount:  total - present,
		Percent:      Percentage(present, total),
	}, nil
}

// Percentage returns present/total as a percentage rounded to two decimal
// places; zero total yields 0 rather than NaN.
func Percentage(present, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(present)/float64(total)*100*100) / 100
}
