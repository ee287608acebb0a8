package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Rabea25/SISAPI/internal/grading"
	"github.com/Rabea25/SISAPI/internal/models"
	"github.com/Rabea25/SISAPI/internal/repository"
	appErrors "github.com/Rabea25/SISAPI/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type gradeEnrollmentRepository interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Enrollment, error)
	FindViewByID(ctx context.Context, id string) (*models.EnrollmentView, error)
	UpdateScores(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error
	ListViewsByTerm(ctx context.Context, exec sqlx.ExtContext, termID string) ([]models.EnrollmentView, error)
	ListSelectedSections(ctx context.Context, enrollmentIDs []string) ([]repository.SelectedSection, error)
}

type gradeTermRepository interface {
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Term, error)
	ListByStudent(ctx context.Context, exec sqlx.ExtContext, studentID string) ([]models.Term, error)
	ListByYearAndName(ctx context.Context, yearName string, name models.TermName) ([]models.Term, error)
	UpdateGrades(ctx context.Context, exec sqlx.ExtContext, term *models.Term) error
}

type gradeStudentRepository interface {
	ListGradedCourses(ctx context.Context, exec sqlx.ExtContext, studentID string) ([]models.GradedCourse, error)
	RaiseEarnedHours(ctx context.Context, exec sqlx.ExtContext, studentID string, total int) error
}

// GradeService records raw scores and finalizes term GPA, cumulative GPA and
// earned hours. It never touches registered hours.
type GradeService struct {
	db          txProvider
	enrollments gradeEnrollmentRepository
	terms       gradeTermRepository
	students    gradeStudentRepository
	sections    sectionTreeReader
	clock       TermClock
	eligibility eligibilityInvalidator
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	concurrency int
}

// GradeServiceParams groups the collaborators of GradeService.
type GradeServiceParams struct {
	DB          txProvider
	Enrollments gradeEnrollmentRepository
	Terms       gradeTermRepository
	Students    gradeStudentRepository
	Sections    sectionTreeReader
	Clock       TermClock
	Eligibility eligibilityInvalidator
	Metrics     *MetricsService
	Validator   *validator.Validate
	Logger      *zap.Logger
	Concurrency int
}

// NewGradeService constructs the service.
func NewGradeService(p GradeServiceParams) *GradeService {
	if p.Validator == nil {
		p.Validator = validator.New()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Concurrency <= 0 {
		p.Concurrency = 1
	}
	return &GradeService{
		db:          p.DB,
		enrollments: p.Enrollments,
		terms:       p.Terms,
		students:    p.Students,
		sections:    p.Sections,
		clock:       p.Clock,
		eligibility: p.Eligibility,
		metrics:     p.Metrics,
		validator:   p.Validator,
		logger:      p.Logger,
		concurrency: p.Concurrency,
	}
}

// RecordScores stores coursework and exam scores and derives total, numeric
// and letter grade.
func (s *GradeService) RecordScores(ctx context.Context, enrollmentID string, input models.ScoreInput) (*models.EnrollmentView, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}

	enrollment, err := s.enrollments.FindByID(ctx, nil, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	if input.CourseworkMax != nil {
		enrollment.CourseworkMax = *input.CourseworkMax
	}
	if input.ExamMax != nil {
		enrollment.ExamMax = *input.ExamMax
	}
	if input.Coursework > enrollment.CourseworkMax {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("coursework %d exceeds maximum %d", input.Coursework, enrollment.CourseworkMax))
	}
	if input.Exam > enrollment.ExamMax {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("exam %d exceeds maximum %d", input.Exam, enrollment.ExamMax))
	}

	result := grading.Calculate(input.Coursework, enrollment.CourseworkMax, input.Exam, enrollment.ExamMax)
	enrollment.Coursework = input.Coursework
	enrollment.Exam = input.Exam
	enrollment.Total = result.Total
	enrollment.NumericGrade = result.NumericGrade
	enrollment.LetterGrade = result.LetterGrade

	if err := s.enrollments.UpdateScores(ctx, nil, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store scores")
	}
	if s.eligibility != nil {
		s.eligibility.Invalidate(ctx, enrollment.StudentID)
	}

	view, err := s.enrollments.FindViewByID(ctx, enrollment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	views := []models.EnrollmentView{*view}
	if err := s.attachSections(ctx, views); err != nil {
		return nil, err
	}
	return &views[0], nil
}

// FinalizeStudentTerm recomputes GPA, cumulative GPA and earned hours of one
// student term and raises the student's earned-hours counter.
func (s *GradeService) FinalizeStudentTerm(ctx context.Context, termID string) (view *models.TermView, err error) {
	if s.db == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	term, err := s.terms.LockByID(ctx, tx, termID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrNotFound, "term not found")
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
		return nil, err
	}

	history, err := s.students.ListGradedCourses(ctx, tx, term.StudentID)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course history")
		return nil, err
	}
	studentTerms, err := s.terms.ListByStudent(ctx, tx, term.StudentID)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student terms")
		return nil, err
	}

	diag := &grading.Diagnostics{}
	rollup := rollUp(term.ID, history, studentTerms, diag)
	term.GPA = rollup.gpa
	term.CGPA = rollup.cgpa
	term.EarnedHours = rollup.termEarned

	if err = s.terms.UpdateGrades(ctx, tx, term); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store term grades")
		return nil, err
	}
	if err = s.students.RaiseEarnedHours(ctx, tx, term.StudentID, rollup.totalEarned); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update earned hours")
		return nil, err
	}

	enrollments, err := s.enrollments.ListViewsByTerm(ctx, tx, term.ID)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list term enrollments")
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit term grades")
		return nil, err
	}

	s.report(term, diag)
	if s.eligibility != nil {
		s.eligibility.Invalidate(ctx, term.StudentID)
	}

	if err = s.attachSections(ctx, enrollments); err != nil {
		return nil, err
	}
	complete := true
	for _, e := range enrollments {
		if !e.Graded() {
			complete = false
			break
		}
	}
	return &models.TermView{
		Term:        *term,
		Complete:    complete,
		Enrollments: enrollments,
		Diagnostics: diag.Unrecognized,
	}, nil
}

// FinalizeTerm finalizes every student term of an academic year and term
// name, defaulting to the current clock when either is empty.
func (s *GradeService) FinalizeTerm(ctx context.Context, academicYear string, name models.TermName) (*models.TermFinalization, error) {
	if academicYear == "" || name == "" {
		clock, err := s.clock.Current(ctx)
		if err != nil {
			return nil, err
		}
		if academicYear == "" {
			academicYear = clock.AcademicYear
		}
		if name == "" {
			name = clock.Term
		}
	}
	if !name.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown term %q", name))
	}

	terms, err := s.terms.ListByYearAndName(ctx, academicYear, name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list terms")
	}

	finalized := make([]models.TermView, len(terms))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range terms {
		i := i
		g.Go(func() error {
			view, err := s.FinalizeStudentTerm(gctx, terms[i].ID)
			if err != nil {
				return err
			}
			finalized[i] = *view
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("term finalized",
		zap.String("academic_year", academicYear),
		zap.String("term", string(name)),
		zap.Int("students", len(terms)),
	)
	return &models.TermFinalization{AcademicYear: academicYear, Term: name, Finalized: finalized}, nil
}

func (s *GradeService) report(term *models.Term, diag *grading.Diagnostics) {
	s.metrics.RecordFinalization()
	if diag.Empty() {
		return
	}
	s.metrics.RecordUnrecognizedGrades(len(diag.Unrecognized))
	for _, d := range diag.Unrecognized {
		s.logger.Warn("unrecognized letter grade skipped",
			zap.String("code", d.Code),
			zap.String("term_id", term.ID),
			zap.String("student_id", term.StudentID),
			zap.String("enrollment_id", d.EnrollmentID),
			zap.String("grade", d.Grade),
		)
	}
}

// attachSections fills the selected sections and the missing section types of views.
func (s *GradeService) attachSections(ctx context.Context, views []models.EnrollmentView) error {
	if len(views) == 0 || s.sections == nil {
		return nil
	}
	enrollmentIDs := make([]string, len(views))
	offeringIDs := make([]string, 0, len(views))
	seen := make(map[string]struct{}, len(views))
	for i, v := range views {
		enrollmentIDs[i] = v.ID
		if _, ok := seen[v.OfferingID]; !ok {
			seen[v.OfferingID] = struct{}{}
			offeringIDs = append(offeringIDs, v.OfferingID)
		}
	}

	selected, err := s.enrollments.ListSelectedSections(ctx, enrollmentIDs)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list selected sections")
	}
	tree, err := loadSectionTree(ctx, s.sections, offeringIDs)
	if err != nil {
		return err
	}

	chosen := make(map[string]map[string]struct{}, len(views))
	for _, row := range selected {
		if chosen[row.EnrollmentID] == nil {
			chosen[row.EnrollmentID] = make(map[string]struct{})
		}
		chosen[row.EnrollmentID][row.ID] = struct{}{}
	}

	for i := range views {
		picked := chosen[views[i].ID]
		sections := make([]models.SectionView, 0, len(picked))
		have := make(map[models.SectionType]struct{})
		for _, section := range tree[views[i].OfferingID] {
			if _, ok := picked[section.ID]; ok {
				sections = append(sections, section)
				have[section.Type] = struct{}{}
			}
		}
		missing := make([]models.SectionType, 0)
		for _, t := range sectionTypesOf(tree[views[i].OfferingID]) {
			if _, ok := have[t]; !ok {
				missing = append(missing, t)
			}
		}
		views[i].Sections = sections
		views[i].MissingSectionTypes = missing
	}
	return nil
}

type termRollup struct {
	gpa         float64
	cgpa        float64
	termEarned  int
	totalEarned int
}

// rollUp derives the aggregates of termID from the student's full history.
// The finalized term uses its fresh GPA; other terms keep their stored GPA.
func rollUp(termID string, history []models.GradedCourse, terms []models.Term, diag *grading.Diagnostics) termRollup {
	byTerm := make(map[string][]grading.Course, len(terms))
	earned := make(map[string]int, len(terms))
	var totalEarned int
	for _, course := range history {
		byTerm[course.TermID] = append(byTerm[course.TermID], grading.Course{
			EnrollmentID: course.EnrollmentID,
			CreditHours:  course.CreditHours,
			LetterGrade:  course.LetterGrade,
		})
		if grading.IsPassing(course.LetterGrade) {
			earned[course.TermID] += course.CreditHours
			totalEarned += course.CreditHours
		}
	}

	gpa := grading.TermGPA(byTerm[termID], diag)

	rollupTerms := make([]grading.Term, 0, len(terms))
	for _, t := range terms {
		stored := t.GPA
		if t.ID == termID {
			stored = gpa
		}
		rollupTerms = append(rollupTerms, grading.Term{
			ID:      t.ID,
			Year:    t.YearName,
			Order:   t.Name.Order(),
			GPA:     stored,
			Courses: byTerm[t.ID],
		})
	}

	return termRollup{
		gpa:         gpa,
		cgpa:        grading.CumulativeGPA(rollupTerms, diag),
		termEarned:  earned[termID],
		totalEarned: totalEarned,
	}
}
