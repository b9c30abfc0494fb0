package repositories

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appMigrations "github.com/yigit/rollcall/internal/app/migrations"
	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/domain/attendance"
	"github.com/yigit/rollcall/internal/domain/schedule"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
)

// testPool connects to ROLLCALL_TEST_DATABASE_URL and applies the migrations.
// Tests that need Postgres are skipped when the variable is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("ROLLCALL_TEST_DATABASE_URL")
	if url == "" || testing.Short() {
		t.Skip("ROLLCALL_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = appMigrations.NewMigrator(pool).MigrateFromDirectory(ctx, filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	return pool
}

type checkInFixture struct {
	repos     *Repositories
	session   *models.Session
	students  []int64
	openUntil time.Time
}

// newCheckInFixture creates a course with one open session and the given
// number of enrolled students. Everything is removed on cleanup.
func newCheckInFixture(t *testing.T, pool *pgxpool.Pool, students int) *checkInFixture {
	t.Helper()
	ctx := context.Background()
	repos := NewRepositories(pool)
	tag := uuid.NewString()[:8]

	var instructorID int64
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO users (email, password, name, role_type) VALUES ($1, 'x', 'Instructor', 'instructor') RETURNING id`,
		"inst-"+tag+"@campus.edu").Scan(&instructorID))
	userIDs := []int64{instructorID}

	var courseID int64
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO courses (name, code, instructor_id, start_date, day_of_week) VALUES ($1, $2, $3, '2025-09-01', 1) RETURNING id`,
		"Course "+tag, "C"+tag, instructorID).Scan(&courseID))

	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM courses WHERE id = $1`, courseID)
		_, _ = pool.Exec(context.Background(), `DELETE FROM users WHERE id = ANY($1)`, userIDs)
	})

	f := &checkInFixture{repos: repos}
	for i := range students {
		var id int64
		require.NoError(t, pool.QueryRow(ctx,
			`INSERT INTO users (email, password, name, student_number, role_type) VALUES ($1, 'x', 'Student', $2, 'student') RETURNING id`,
			uuid.NewString()+"@campus.edu", tag+"-"+string(rune('a'+i))).Scan(&id))
		userIDs = append(userIDs, id)
		require.NoError(t, repos.EnrollmentRepository.Enroll(ctx, courseID, id))
		f.students = append(f.students, id)
	}

	f.session = &models.Session{
		CourseID:       courseID,
		Week:           1,
		Date:           time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		Title:          "Week 1 class",
		Kind:           schedule.KindRegular,
		AttendanceType: models.AttendanceByCode,
	}
	require.NoError(t, repos.SessionRepository.Create(ctx, f.session))

	now := time.Now()
	f.openUntil = now.Add(10 * time.Minute)
	opened, err := repos.SessionRepository.Toggle(ctx, f.session.ID, now, f.openUntil, "1234")
	require.NoError(t, err)
	require.True(t, opened.IsOpen)
	return f
}

func countMarks(t *testing.T, pool *pgxpool.Pool, sessionID, studentID int64) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM attendances WHERE session_id = $1 AND student_id = $2`, sessionID, studentID).Scan(&n))
	return n
}

func TestAttendanceRepository_CheckInOncePerSession(t *testing.T) {
	pool := testPool(t)
	f := newCheckInFixture(t, pool, 1)
	ctx := context.Background()
	student := f.students[0]

	mark, err := f.repos.AttendanceRepository.CheckIn(ctx, f.session.ID, student, attendance.StatusPresent, time.Now())
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, mark.Status)
	require.NotNil(t, mark.CheckedAt)

	_, err = f.repos.AttendanceRepository.CheckIn(ctx, f.session.ID, student, attendance.StatusLate, time.Now())
	assert.ErrorIs(t, err, apperrors.ErrAlreadyCheckedIn)

	assert.Equal(t, 1, countMarks(t, pool, f.session.ID, student))
	stored, err := f.repos.AttendanceRepository.GetByID(ctx, mark.ID)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, stored.Status)
}

func TestAttendanceRepository_ConcurrentCheckIns(t *testing.T) {
	pool := testPool(t)
	f := newCheckInFixture(t, pool, 1)
	student := f.students[0]

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.repos.AttendanceRepository.CheckIn(context.Background(), f.session.ID, student, attendance.StatusPresent, time.Now())
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrAlreadyCheckedIn)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, countMarks(t, pool, f.session.ID, student))
}

func TestAttendanceRepository_CheckInAfterWindow(t *testing.T) {
	pool := testPool(t)
	f := newCheckInFixture(t, pool, 1)

	_, err := f.repos.AttendanceRepository.CheckIn(context.Background(), f.session.ID, f.students[0], attendance.StatusPresent, f.openUntil.Add(time.Second))
	assert.ErrorIs(t, err, apperrors.ErrAttendanceClosed)
}

func TestStatusScan_LegacyValue(t *testing.T) {
	pool := testPool(t)
	f := newCheckInFixture(t, pool, 1)
	ctx := context.Background()

	var id int64
	require.NoError(t, pool.QueryRow(ctx,
		`UPDATE attendances SET status = '1' WHERE session_id = $1 AND student_id = $2 RETURNING id`,
		f.session.ID, f.students[0]).Scan(&id))

	mark, err := f.repos.AttendanceRepository.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, mark.Status)
}
