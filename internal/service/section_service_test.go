package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rabea25/SISAPI/internal/dto"
	"github.com/Rabea25/SISAPI/internal/models"
	appErrors "github.com/Rabea25/SISAPI/pkg/errors"
)

type sectionWriterStub struct {
	offerings map[string]models.Offering
	created   []models.Section
	slots     []models.TimeSlot
	createErr error
}

func (s *sectionWriterStub) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Offering, error) {
	offering, ok := s.offerings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &offering, nil
}

func (s *sectionWriterStub) CreateSection(ctx context.Context, exec sqlx.ExtContext, section *models.Section, slots []models.TimeSlot) error {
	if s.createErr != nil {
		return s.createErr
	}
	section.ID = "sec-new"
	s.created = append(s.created, *section)
	s.slots = append(s.slots, slots...)
	return nil
}

type catalogInvalidatorSpy struct {
	calls int
}

func (s *catalogInvalidatorSpy) InvalidateAll(ctx context.Context) {
	s.calls++
}

func newSectionFixture(t *testing.T) (*SectionService, sqlmock.Sqlmock, *sectionWriterStub, *catalogInvalidatorSpy) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	writer := &sectionWriterStub{offerings: map[string]models.Offering{
		"off-cs101": {ID: "off-cs101", CourseCode: "CS101", Capacity: 30, Active: true},
	}}
	spy := &catalogInvalidatorSpy{}
	return NewSectionService(sqlx.NewDb(db, "sqlmock"), writer, spy, nil, nil), mock, writer, spy
}

func TestSectionServiceCreate(t *testing.T) {
	svc, mock, writer, spy := newSectionFixture(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	room := "B-201"

	resp, err := svc.Create(context.Background(), "off-cs101", dto.CreateSectionRequest{
		Name:     "L1",
		Type:     models.SectionTypeLecture,
		Capacity: 30,
		TimeSlots: []dto.TimeSlotRequest{
			{Day: models.Saturday, StartPeriod: 1, EndPeriod: 2, Location: &room},
			{Day: models.Tuesday, StartPeriod: 3, EndPeriod: 3},
		},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, "sec-new", resp.ID)
	assert.Equal(t, "off-cs101", resp.OfferingID)
	assert.Equal(t, []string{"Saturday", "Tuesday"}, resp.DayNames)
	require.Len(t, writer.slots, 2)
	assert.Equal(t, &room, writer.slots[0].Location)
	assert.Equal(t, 1, spy.calls)
}

func TestSectionServiceCapacityCannotExceedOffering(t *testing.T) {
	svc, mock, writer, spy := newSectionFixture(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), "off-cs101", dto.CreateSectionRequest{
		Name: "B1", Type: models.SectionTypeLab, Capacity: 31,
	})
	requireAppError(t, err, appErrors.ErrValidation.Code, "section capacity (31) cannot exceed offering capacity (30)")
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, writer.created)
	assert.Zero(t, spy.calls)
}

func TestSectionServiceRejectsBadInput(t *testing.T) {
	svc, mock, _, _ := newSectionFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "off-cs101", dto.CreateSectionRequest{
		Name: "T1", Type: models.SectionTypeTutorial, Capacity: 10,
		TimeSlots: []dto.TimeSlotRequest{{Day: models.Monday, StartPeriod: 4, EndPeriod: 2}},
	})
	requireAppError(t, err, appErrors.ErrValidation.Code, "end period cannot be earlier than start period")

	_, err = svc.Create(ctx, "off-cs101", dto.CreateSectionRequest{Name: "X", Type: "SEM", Capacity: 10})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = svc.Create(ctx, "missing", dto.CreateSectionRequest{Name: "L1", Type: models.SectionTypeLecture, Capacity: 10})
	requireAppError(t, err, appErrors.ErrNotFound.Code, "offering not found")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionServiceDuplicateNameConflicts(t *testing.T) {
	svc, mock, writer, spy := newSectionFixture(t)
	writer.createErr = fmt.Errorf("insert section: %w", &pq.Error{Code: "23505", Constraint: "sections_offering_id_name_key"})
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), "off-cs101", dto.CreateSectionRequest{
		Name: "L1", Type: models.SectionTypeLecture, Capacity: 30,
	})
	requireAppError(t, err, appErrors.ErrConflict.Code, "section L1 already exists in offering")
	assert.Equal(t, http.StatusConflict, appErrors.FromError(err).Status)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Zero(t, spy.calls)
}
