package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rabea25/SISAPI/internal/models"
)

var termColumns = []string{"id", "academic_year_id", "student_id", "year_name", "name", "gpa", "cgpa",
	"registered_hours", "earned_hours", "created_at", "updated_at"}

func TestTermRepositoryLockByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	rows := sqlmock.NewRows(termColumns).
		AddRow("term-1", "year-1", "stu-1", "2024-2025", "fall", 3.5, 3.2, 15, 12, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE t.id = $1 FOR UPDATE OF t")).
		WithArgs("term-1").
		WillReturnRows(rows)

	term, err := repo.LockByID(context.Background(), nil, "term-1")
	require.NoError(t, err)
	assert.Equal(t, models.TermFall, term.Name)
	assert.Equal(t, "2024-2025", term.YearName)
	assert.Equal(t, 15, term.RegisteredHours)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositoryLockByIDMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE t.id = $1 FOR UPDATE OF t")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.LockByID(context.Background(), nil, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestTermRepositoryListByStudentOrdersChronologically(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	rows := sqlmock.NewRows(termColumns).
		AddRow("term-1", "year-1", "stu-1", "2023-2024", "fall", 3.0, 3.0, 18, 18, time.Now(), time.Now()).
		AddRow("term-2", "year-1", "stu-1", "2023-2024", "spring", 2.0, 2.5, 18, 15, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY y.name, CASE t.name WHEN 'fall' THEN 1")).
		WithArgs("stu-1").
		WillReturnRows(rows)

	terms, err := repo.ListByStudent(context.Background(), nil, "stu-1")
	require.NoError(t, err)
	require.Len(t, terms, 2)
	assert.Equal(t, models.TermSpring, terms[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositoryListByYearAndName(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	rows := sqlmock.NewRows(termColumns).
		AddRow("term-1", "year-1", "stu-1", "2024-2025", "spring", 0, 0, 12, 0, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE y.name = $1 AND t.name = $2")).
		WithArgs("2024-2025", models.TermSpring).
		WillReturnRows(rows)

	terms, err := repo.ListByYearAndName(context.Background(), "2024-2025", models.TermSpring)
	require.NoError(t, err)
	require.Len(t, terms, 1)
	assert.Equal(t, "stu-1", terms[0].StudentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositoryUpdateGradesLeavesRegisteredHours(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE terms SET gpa = ")).
		WithArgs(2.5, 2.8, 9, sqlmock.AnyArg(), "term-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	term := &models.Term{ID: "term-1", GPA: 2.5, CGPA: 2.8, EarnedHours: 9, RegisteredHours: 12}
	require.NoError(t, repo.UpdateGrades(context.Background(), nil, term))
	assert.False(t, term.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
