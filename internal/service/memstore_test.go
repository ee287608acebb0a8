package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/Rabea25/SISAPI/internal/models"
	"github.com/Rabea25/SISAPI/internal/repository"
)

// memRegistrationStore is an in-memory registrationStore. Transactions are
// serialised and a failed transaction restores the previous state.
type memRegistrationStore struct {
	mu          sync.Mutex
	offerings   map[string]models.Offering
	sections    map[string][]models.Section
	years       map[string]models.AcademicYear
	terms       map[string]models.Term
	enrollments map[string]models.Enrollment
	selections  map[string][]string
	seq         int
	commits     int
	rollbacks   int
}

type memState struct {
	years       map[string]models.AcademicYear
	terms       map[string]models.Term
	enrollments map[string]models.Enrollment
	selections  map[string][]string
	seq         int
}

func newMemRegistrationStore() *memRegistrationStore {
	return &memRegistrationStore{
		offerings:   make(map[string]models.Offering),
		sections:    make(map[string][]models.Section),
		years:       make(map[string]models.AcademicYear),
		terms:       make(map[string]models.Term),
		enrollments: make(map[string]models.Enrollment),
		selections:  make(map[string][]string),
	}
}

func (s *memRegistrationStore) addOffering(offering models.Offering, sections ...models.Section) {
	s.offerings[offering.ID] = offering
	for _, section := range sections {
		section.OfferingID = offering.ID
		s.sections[offering.ID] = append(s.sections[offering.ID], section)
	}
}

func (s *memRegistrationStore) snapshot() memState {
	st := memState{
		years:       make(map[string]models.AcademicYear, len(s.years)),
		terms:       make(map[string]models.Term, len(s.terms)),
		enrollments: make(map[string]models.Enrollment, len(s.enrollments)),
		selections:  make(map[string][]string, len(s.selections)),
		seq:         s.seq,
	}
	for k, v := range s.years {
		st.years[k] = v
	}
	for k, v := range s.terms {
		st.terms[k] = v
	}
	for k, v := range s.enrollments {
		st.enrollments[k] = v
	}
	for k, v := range s.selections {
		st.selections[k] = append([]string(nil), v...)
	}
	return st
}

func (s *memRegistrationStore) restore(st memState) {
	s.years = st.years
	s.terms = st.terms
	s.enrollments = st.enrollments
	s.selections = st.selections
	s.seq = st.seq
}

func (s *memRegistrationStore) RunInTx(ctx context.Context, fn func(tx repository.RegistrationTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.snapshot()
	if err := fn(&memRegistrationTx{store: s}); err != nil {
		s.restore(saved)
		s.rollbacks++
		return err
	}
	s.commits++
	return nil
}

func (s *memRegistrationStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *memRegistrationStore) termByID(id string) models.Term {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terms[id]
}

func (s *memRegistrationStore) enrollmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.enrollments)
}

func (s *memRegistrationStore) holders(sectionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ids := range s.selections {
		for _, id := range ids {
			if id == sectionID {
				n++
			}
		}
	}
	return n
}

type memRegistrationTx struct {
	store *memRegistrationStore
}

func (t *memRegistrationTx) FindOffering(ctx context.Context, offeringID string) (*models.Offering, error) {
	offering, ok := t.store.offerings[offeringID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &offering, nil
}

func (t *memRegistrationTx) LockOfferingSections(ctx context.Context, offeringID string) ([]models.Section, error) {
	return append([]models.Section(nil), t.store.sections[offeringID]...), nil
}

func (t *memRegistrationTx) GetOrCreateAcademicYear(ctx context.Context, studentID, name string) (*models.AcademicYear, error) {
	key := studentID + "|" + name
	year, ok := t.store.years[key]
	if !ok {
		year = models.AcademicYear{ID: t.store.nextID("year"), StudentID: studentID, Name: name}
		t.store.years[key] = year
	}
	return &year, nil
}

func (t *memRegistrationTx) GetOrCreateTerm(ctx context.Context, year *models.AcademicYear, name models.TermName) (*models.Term, error) {
	for _, term := range t.store.terms {
		if term.AcademicYearID == year.ID && term.Name == name {
			return &term, nil
		}
	}
	term := models.Term{
		ID:             t.store.nextID("term"),
		AcademicYearID: year.ID,
		StudentID:      year.StudentID,
		YearName:       year.Name,
		Name:           name,
	}
	t.store.terms[term.ID] = term
	return &term, nil
}

func (t *memRegistrationTx) FindEnrollment(ctx context.Context, studentID, offeringID string) (*models.Enrollment, error) {
	for _, e := range t.store.enrollments {
		if e.StudentID == studentID && e.OfferingID == offeringID {
			return &e, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (t *memRegistrationTx) CreateEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	enrollment.ID = t.store.nextID("enrollment")
	t.store.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (t *memRegistrationTx) DeleteEnrollment(ctx context.Context, enrollmentID string) error {
	if _, ok := t.store.enrollments[enrollmentID]; !ok {
		return sql.ErrNoRows
	}
	delete(t.store.enrollments, enrollmentID)
	delete(t.store.selections, enrollmentID)
	return nil
}

func (t *memRegistrationTx) SelectedSectionIDs(ctx context.Context, enrollmentID string) ([]string, error) {
	return append([]string(nil), t.store.selections[enrollmentID]...), nil
}

func (t *memRegistrationTx) CountSectionHolders(ctx context.Context, sectionIDs []string) (map[string]int, error) {
	wanted := make(map[string]struct{}, len(sectionIDs))
	for _, id := range sectionIDs {
		wanted[id] = struct{}{}
	}
	counts := make(map[string]int, len(sectionIDs))
	for _, ids := range t.store.selections {
		for _, id := range ids {
			if _, ok := wanted[id]; ok {
				counts[id]++
			}
		}
	}
	return counts, nil
}

func (t *memRegistrationTx) ReplaceSelections(ctx context.Context, enrollmentID string, sectionIDs []string) error {
	t.store.selections[enrollmentID] = append([]string(nil), sectionIDs...)
	return nil
}

func (t *memRegistrationTx) SumEnrolledCredits(ctx context.Context, termID string) (int, error) {
	total := 0
	for _, e := range t.store.enrollments {
		if e.TermID == termID {
			total += t.store.offerings[e.OfferingID].CreditHours
		}
	}
	return total, nil
}

func (t *memRegistrationTx) SetRegisteredHours(ctx context.Context, termID string, hours int) error {
	term, ok := t.store.terms[termID]
	if !ok {
		return sql.ErrNoRows
	}
	term.RegisteredHours = hours
	t.store.terms[termID] = term
	return nil
}
