package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Rabea25/SISAPI/internal/curriculum"
	"github.com/Rabea25/SISAPI/internal/grading"
	"github.com/Rabea25/SISAPI/internal/models"
	appErrors "github.com/Rabea25/SISAPI/pkg/errors"
)

type eligibilityStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListGradedCourses(ctx context.Context, exec sqlx.ExtContext, studentID string) ([]models.GradedCourse, error)
}

type eligibilityCatalogReader interface {
	PrerequisiteEdges(ctx context.Context) ([]models.PrerequisiteEdge, error)
	CourseDepartmentCodes(ctx context.Context, courseCode string) ([]string, error)
	ListActiveOfferingsForDepartments(ctx context.Context, departmentCodes []string) ([]models.Offering, error)
}

type sectionTreeReader interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Offering, error)
	ListSections(ctx context.Context, offeringIDs []string) ([]models.Section, error)
	ListTimeSlots(ctx context.Context, sectionIDs []string) ([]models.TimeSlot, error)
}

type studentEnrollmentReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
}

// EligibilityConfig tunes the resolver.
type EligibilityConfig struct {
	GeneralDepartmentCode string
	CacheTTL              time.Duration
}

// EligibilityService resolves the offerings a student may register for.
type EligibilityService struct {
	students    eligibilityStudentReader
	catalog     eligibilityCatalogReader
	sections    sectionTreeReader
	enrollments studentEnrollmentReader
	cache       *CacheService
	cfg         EligibilityConfig
	logger      *zap.Logger
}

// NewEligibilityService constructs the resolver.
func NewEligibilityService(
	students eligibilityStudentReader,
	catalog eligibilityCatalogReader,
	sections sectionTreeReader,
	enrollments studentEnrollmentReader,
	cache *CacheService,
	cfg EligibilityConfig,
	logger *zap.Logger,
) *EligibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.GeneralDepartmentCode = strings.ToUpper(strings.TrimSpace(cfg.GeneralDepartmentCode))
	return &EligibilityService{
		students:    students,
		catalog:     catalog,
		sections:    sections,
		enrollments: enrollments,
		cache:       cache,
		cfg:         cfg,
		logger:      logger,
	}
}

func eligibilityCacheKey(studentID string) string {
	return "eligibility:student:" + studentID
}

// standing is what the resolver knows about a student's academic record.
type standing struct {
	student     *models.Student
	departments []string
	passed      map[string]struct{}
	graph       *curriculum.PrerequisiteGraph
}

func (s *EligibilityService) loadStanding(ctx context.Context, studentID string) (*standing, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	history, err := s.students.ListGradedCourses(ctx, nil, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course history")
	}
	passed := make(map[string]struct{}, len(history))
	for _, course := range history {
		if grading.IsPassing(course.LetterGrade) {
			passed[course.CourseCode] = struct{}{}
		}
	}

	edges, err := s.catalog.PrerequisiteEdges(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prerequisites")
	}
	graph := curriculum.NewPrerequisiteGraph()
	for _, edge := range edges {
		graph.AddPrerequisite(edge.CourseCode, edge.PrerequisiteCode)
	}

	departments := []string{strings.ToUpper(student.DepartmentCode)}
	if s.cfg.GeneralDepartmentCode != "" && s.cfg.GeneralDepartmentCode != departments[0] {
		departments = append(departments, s.cfg.GeneralDepartmentCode)
	}

	return &standing{student: student, departments: departments, passed: passed, graph: graph}, nil
}

// EligibleOfferings lists the active offerings open to the student: the
// course admits one of the student's departments, has not been passed, and
// has every prerequisite passed.
func (s *EligibilityService) EligibleOfferings(ctx context.Context, studentID string) ([]models.OfferingView, error) {
	var cached []models.OfferingView
	if hit, _ := s.cache.Get(ctx, eligibilityCacheKey(studentID), &cached); hit {
		return cached, nil
	}

	st, err := s.loadStanding(ctx, studentID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.catalog.ListActiveOfferingsForDepartments(ctx, st.departments)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list offerings")
	}

	eligible := make([]models.Offering, 0, len(candidates))
	for _, offering := range candidates {
		if _, done := st.passed[offering.CourseCode]; done {
			continue
		}
		if !st.graph.Satisfied(offering.CourseCode, st.passed) {
			continue
		}
		eligible = append(eligible, offering)
	}

	views, err := s.buildViews(ctx, studentID, eligible)
	if err != nil {
		return nil, err
	}

	_ = s.cache.Set(ctx, eligibilityCacheKey(studentID), views, s.cfg.CacheTTL)
	return views, nil
}

func (s *EligibilityService) buildViews(ctx context.Context, studentID string, offerings []models.Offering) ([]models.OfferingView, error) {
	views := make([]models.OfferingView, 0, len(offerings))
	if len(offerings) == 0 {
		return views, nil
	}

	offeringIDs := make([]string, len(offerings))
	for i, offering := range offerings {
		offeringIDs[i] = offering.ID
	}
	tree, err := loadSectionTree(ctx, s.sections, offeringIDs)
	if err != nil {
		return nil, err
	}

	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	open := make(map[string]string, len(enrollments))
	for _, enrollment := range enrollments {
		if !enrollment.Graded() {
			open[enrollment.OfferingID] = enrollment.ID
		}
	}

	for _, offering := range offerings {
		sections := tree[offering.ID]
		if sections == nil {
			sections = []models.SectionView{}
		}
		view := models.OfferingView{
			Offering:     offering,
			SectionTypes: sectionTypesOf(sections),
			Sections:     sections,
		}
		if id, ok := open[offering.ID]; ok {
			enrollmentID := id
			view.Enrolled = true
			view.EnrollmentID = &enrollmentID
		}
		views = append(views, view)
	}
	return views, nil
}

// CheckOffering re-applies the eligibility rules to a single offering before
// it is committed.
func (s *EligibilityService) CheckOffering(ctx context.Context, studentID, offeringID string) error {
	offering, err := s.sections.FindByID(ctx, nil, offeringID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}

	st, err := s.loadStanding(ctx, studentID)
	if err != nil {
		return err
	}

	allowed, err := s.catalog.CourseDepartmentCodes(ctx, offering.CourseCode)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course departments")
	}
	if !intersects(allowed, st.departments) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course %s is not open to department %s", offering.CourseCode, st.student.DepartmentCode))
	}
	if _, done := st.passed[offering.CourseCode]; done {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course %s already passed", offering.CourseCode))
	}
	if missing := st.graph.MissingPrerequisites(offering.CourseCode, st.passed); len(missing) > 0 {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("missing prerequisites for %s: %s", offering.CourseCode, strings.Join(missing, ", ")))
	}
	return nil
}

// Invalidate drops the cached eligibility view of the students.
func (s *EligibilityService) Invalidate(ctx context.Context, studentIDs ...string) {
	if len(studentIDs) == 0 {
		return
	}
	keys := make([]string, len(studentIDs))
	for i, id := range studentIDs {
		keys[i] = eligibilityCacheKey(id)
	}
	_ = s.cache.Evict(ctx, keys...)
}

// InvalidateAll drops every cached eligibility view, used when the catalog changes.
func (s *EligibilityService) InvalidateAll(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, eligibilityCacheKey("*"))
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if strings.EqualFold(x, y) {
				return true
			}
		}
	}
	return false
}

// loadSectionTree returns, per offering, its sections with their time slots.
func loadSectionTree(ctx context.Context, reader sectionTreeReader, offeringIDs []string) (map[string][]models.SectionView, error) {
	sections, err := reader.ListSections(ctx, offeringIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	sectionIDs := make([]string, len(sections))
	for i, section := range sections {
		sectionIDs[i] = section.ID
	}
	slots, err := reader.ListTimeSlots(ctx, sectionIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time slots")
	}
	bySection := make(map[string][]models.TimeSlot, len(sections))
	for _, slot := range slots {
		bySection[slot.SectionID] = append(bySection[slot.SectionID], slot)
	}

	tree := make(map[string][]models.SectionView, len(offeringIDs))
	for _, section := range sections {
		slotsOf := bySection[section.ID]
		if slotsOf == nil {
			slotsOf = []models.TimeSlot{}
		}
		tree[section.OfferingID] = append(tree[section.OfferingID], models.SectionView{Section: section, TimeSlots: slotsOf})
	}
	return tree, nil
}

func sectionTypesOf(sections []models.SectionView) []models.SectionType {
	seen := make(map[models.SectionType]struct{})
	types := make([]models.SectionType, 0, 3)
	for _, section := range sections {
		if _, ok := seen[section.Type]; ok {
			continue
		}
		seen[section.Type] = struct{}{}
		types = append(types, section.Type)
	}
	models.SortSectionTypes(types)
	return types
}
