package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rabea25/SISAPI/internal/models"
)

func TestOfferingRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOfferingRepository(db)

	rows := sqlmock.NewRows([]string{"id", "course_code", "group_number", "capacity", "is_active", "credit_hours", "course_name"}).
		AddRow("off-1", "CS101", 1, 40, true, 3, "Intro")
	mock.ExpectQuery(regexp.QuoteMeta("FROM offerings o JOIN courses c ON c.code = o.course_code WHERE o.id = $1")).
		WithArgs("off-1").
		WillReturnRows(rows)

	offering, err := repo.FindByID(context.Background(), nil, "off-1")
	require.NoError(t, err)
	assert.Equal(t, 40, offering.Capacity)
	assert.True(t, offering.Active)
	assert.Equal(t, 3, offering.CreditHours)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferingRepositoryListSectionsSkipsEmptyInput(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOfferingRepository(db)

	sections, err := repo.ListSections(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, sections)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferingRepositoryListSections(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOfferingRepository(db)

	rows := sqlmock.NewRows([]string{"id", "offering_id", "name", "section_type", "capacity"}).
		AddRow("sec-1", "off-1", "L1", "LEC", 40).
		AddRow("sec-2", "off-1", "T1", "TUT", 20)
	mock.ExpectQuery(regexp.QuoteMeta("FROM sections\nWHERE offering_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(rows)

	sections, err := repo.ListSections(context.Background(), []string{"off-1"})
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, models.SectionTypeTutorial, sections[1].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferingRepositoryCreateSectionWithSlots(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOfferingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sections")).
		WithArgs(sqlmock.AnyArg(), "off-1", "L1", models.SectionTypeLecture, 30).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO time_slots")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), 0, 1, 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO time_slots")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), 2, 3, 4, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	section := &models.Section{OfferingID: "off-1", Name: "L1", Type: models.SectionTypeLecture, Capacity: 30}
	slots := []models.TimeSlot{
		{Day: 0, StartPeriod: 1, EndPeriod: 2},
		{Day: 2, StartPeriod: 3, EndPeriod: 4},
	}
	require.NoError(t, repo.CreateSection(context.Background(), nil, section, slots))
	assert.NotEmpty(t, section.ID)
	assert.Equal(t, section.ID, slots[0].SectionID)
	assert.Equal(t, section.ID, slots[1].SectionID)
	assert.NotEqual(t, slots[0].ID, slots[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
