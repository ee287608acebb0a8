package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rabea25/SISAPI/internal/models"
	appErrors "github.com/Rabea25/SISAPI/pkg/errors"
)

type eligibilityStudentsStub struct {
	student *models.Student
	history []models.GradedCourse
}

func (s *eligibilityStudentsStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s.student == nil || s.student.ID != id {
		return nil, sql.ErrNoRows
	}
	student := *s.student
	return &student, nil
}

func (s *eligibilityStudentsStub) ListGradedCourses(ctx context.Context, exec sqlx.ExtContext, studentID string) ([]models.GradedCourse, error) {
	return s.history, nil
}

type catalogStub struct {
	edges       []models.PrerequisiteEdge
	departments map[string][]string
	offerings   []models.Offering
	listCalls   int
}

func (c *catalogStub) PrerequisiteEdges(ctx context.Context) ([]models.PrerequisiteEdge, error) {
	return c.edges, nil
}

func (c *catalogStub) CourseDepartmentCodes(ctx context.Context, courseCode string) ([]string, error) {
	return c.departments[courseCode], nil
}

func (c *catalogStub) ListActiveOfferingsForDepartments(ctx context.Context, codes []string) ([]models.Offering, error) {
	c.listCalls++
	var out []models.Offering
	for _, offering := range c.offerings {
		if offering.Active && intersects(c.departments[offering.CourseCode], codes) {
			out = append(out, offering)
		}
	}
	return out, nil
}

type sectionTreeStub struct {
	offerings map[string]models.Offering
	sections  []models.Section
	slots     []models.TimeSlot
}

func (s *sectionTreeStub) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Offering, error) {
	offering, ok := s.offerings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &offering, nil
}

func (s *sectionTreeStub) ListSections(ctx context.Context, offeringIDs []string) ([]models.Section, error) {
	var out []models.Section
	for _, section := range s.sections {
		for _, id := range offeringIDs {
			if section.OfferingID == id {
				out = append(out, section)
			}
		}
	}
	return out, nil
}

func (s *sectionTreeStub) ListTimeSlots(ctx context.Context, sectionIDs []string) ([]models.TimeSlot, error) {
	var out []models.TimeSlot
	for _, slot := range s.slots {
		for _, id := range sectionIDs {
			if slot.SectionID == id {
				out = append(out, slot)
			}
		}
	}
	return out, nil
}

type enrollmentListStub struct {
	enrollments []models.Enrollment
}

func (s *enrollmentListStub) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	return s.enrollments, nil
}

// memCacheRepo stores JSON payloads in a map.
type memCacheRepo struct {
	items map[string][]byte
}

func newMemCacheRepo() *memCacheRepo {
	return &memCacheRepo{items: make(map[string][]byte)}
}

func (m *memCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	return nil
}

func (m *memCacheRepo) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.items, key)
	}
	return nil
}

func (m *memCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
		}
	}
	return nil
}

type eligibilityFixture struct {
	svc         *EligibilityService
	students    *eligibilityStudentsStub
	catalog     *catalogStub
	enrollments *enrollmentListStub
	cache       *memCacheRepo
}

func newEligibilityFixture(cacheEnabled bool) *eligibilityFixture {
	offerings := []models.Offering{
		{ID: "off-cs101", CourseCode: "CS101", Active: true, CreditHours: 3},
		{ID: "off-cs102", CourseCode: "CS102", Active: true, CreditHours: 3},
		{ID: "off-cs201", CourseCode: "CS201", Active: true, CreditHours: 3},
		{ID: "off-ee101", CourseCode: "EE101", Active: true, CreditHours: 3},
		{ID: "off-gen101", CourseCode: "GEN101", Active: true, CreditHours: 2},
		{ID: "off-cs103", CourseCode: "CS103", Active: false, CreditHours: 3},
	}
	byID := make(map[string]models.Offering, len(offerings))
	for _, o := range offerings {
		byID[o.ID] = o
	}

	f := &eligibilityFixture{
		students: &eligibilityStudentsStub{student: &models.Student{ID: "stu-1", DepartmentCode: "CS", Status: models.StudentStatusActive}},
		catalog: &catalogStub{
			edges: []models.PrerequisiteEdge{
				{CourseCode: "CS201", PrerequisiteCode: "CS101"},
				{CourseCode: "CS201", PrerequisiteCode: "CS102"},
			},
			departments: map[string][]string{
				"CS101":  {"CS"},
				"CS102":  {"CS"},
				"CS103":  {"CS"},
				"CS201":  {"CS"},
				"EE101":  {"EE"},
				"GEN101": {"GEN"},
			},
			offerings: offerings,
		},
		enrollments: &enrollmentListStub{},
		cache:       newMemCacheRepo(),
	}
	sections := &sectionTreeStub{
		offerings: byID,
		sections: []models.Section{
			{ID: "cs201-tut", OfferingID: "off-cs201", Name: "T1", Type: models.SectionTypeTutorial, Capacity: 20},
			{ID: "cs201-lec", OfferingID: "off-cs201", Name: "L1", Type: models.SectionTypeLecture, Capacity: 40},
		},
		slots: []models.TimeSlot{
			{ID: "slot-1", SectionID: "cs201-lec", Day: models.Sunday, StartPeriod: 1, EndPeriod: 2},
		},
	}
	cache := NewCacheService(f.cache, nil, time.Minute, nil, cacheEnabled)
	f.svc = NewEligibilityService(f.students, f.catalog, sections, f.enrollments, cache,
		EligibilityConfig{GeneralDepartmentCode: "gen"}, nil)
	return f
}

func (f *eligibilityFixture) grade(course, letter string) {
	f.students.history = append(f.students.history, models.GradedCourse{
		EnrollmentID: "enr-" + course, TermID: "term-1", CourseCode: course, CreditHours: 3, LetterGrade: letter,
	})
}

func courseCodes(views []models.OfferingView) []string {
	codes := make([]string, len(views))
	for i, v := range views {
		codes[i] = v.CourseCode
	}
	return codes
}

func TestEligibilityServicePrerequisitesMustAllBePassed(t *testing.T) {
	f := newEligibilityFixture(false)
	ctx := context.Background()

	views, err := f.svc.EligibleOfferings(ctx, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"CS101", "CS102", "GEN101"}, courseCodes(views))

	f.grade("CS101", "B")
	views, err = f.svc.EligibleOfferings(ctx, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"CS102", "GEN101"}, courseCodes(views))
	err = f.svc.CheckOffering(ctx, "stu-1", "off-cs201")
	requireAppError(t, err, appErrors.ErrValidation.Code, "missing prerequisites for CS201: CS102")

	f.grade("CS102", "D-")
	views, err = f.svc.EligibleOfferings(ctx, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"CS201", "GEN101"}, courseCodes(views))
	require.NoError(t, f.svc.CheckOffering(ctx, "stu-1", "off-cs201"))

	cs201 := views[0]
	assert.Equal(t, []models.SectionType{models.SectionTypeLecture, models.SectionTypeTutorial}, cs201.SectionTypes)
	require.Len(t, cs201.Sections, 2)
	assert.False(t, cs201.Enrolled)

	// A failed retake no longer counts as passed.
	f.students.history[1].LetterGrade = "F"
	views, err = f.svc.EligibleOfferings(ctx, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"CS102", "GEN101"}, courseCodes(views))
}

func TestEligibilityServiceCheckOfferingRejections(t *testing.T) {
	f := newEligibilityFixture(false)
	ctx := context.Background()
	f.grade("CS101", "A")

	requireAppError(t, f.svc.CheckOffering(ctx, "stu-1", "off-ee101"), appErrors.ErrValidation.Code, "course EE101 is not open to department CS")
	requireAppError(t, f.svc.CheckOffering(ctx, "stu-1", "off-cs101"), appErrors.ErrValidation.Code, "course CS101 already passed")
	requireAppError(t, f.svc.CheckOffering(ctx, "stu-1", "missing"), appErrors.ErrNotFound.Code, "offering not found")
	requireAppError(t, f.svc.CheckOffering(ctx, "ghost", "off-cs102"), appErrors.ErrNotFound.Code, "student not found")
	require.NoError(t, f.svc.CheckOffering(ctx, "stu-1", "off-gen101"))
}

func TestEligibilityServiceMarksOpenEnrollments(t *testing.T) {
	f := newEligibilityFixture(false)
	f.enrollments.enrollments = []models.Enrollment{
		{ID: "enr-open", OfferingID: "off-cs102"},
		{ID: "enr-done", OfferingID: "off-gen101", LetterGrade: "F"},
	}

	views, err := f.svc.EligibleOfferings(context.Background(), "stu-1")
	require.NoError(t, err)
	for _, view := range views {
		switch view.ID {
		case "off-cs102":
			assert.True(t, view.Enrolled)
			require.NotNil(t, view.EnrollmentID)
			assert.Equal(t, "enr-open", *view.EnrollmentID)
		default:
			assert.False(t, view.Enrolled, view.ID)
		}
	}
}

func TestEligibilityServiceCachesPerStudent(t *testing.T) {
	f := newEligibilityFixture(true)
	ctx := context.Background()

	first, err := f.svc.EligibleOfferings(ctx, "stu-1")
	require.NoError(t, err)
	second, err := f.svc.EligibleOfferings(ctx, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, courseCodes(first), courseCodes(second))
	assert.Equal(t, 1, f.catalog.listCalls)

	f.svc.Invalidate(ctx, "stu-1")
	_, err = f.svc.EligibleOfferings(ctx, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 2, f.catalog.listCalls)

	f.svc.InvalidateAll(ctx)
	assert.Empty(t, f.cache.items)
}
