package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Rabea25/SISAPI/internal/models"
)

// CatalogRepository reads courses, their prerequisites and department access.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// PrerequisiteEdges loads the whole prerequisite graph.
func (r *CatalogRepository) PrerequisiteEdges(ctx context.Context) ([]models.PrerequisiteEdge, error) {
	const query = `SELECT course_code, prerequisite_code FROM course_prerequisites ORDER BY course_code, prerequisite_code`
	var edges []models.PrerequisiteEdge
	if err := r.db.SelectContext(ctx, &edges, query); err != nil {
		return nil, fmt.Errorf("list prerequisite edges: %w", err)
	}
	return edges, nil
}

// CourseDepartmentCodes lists the departments allowed to take course.
func (r *CatalogRepository) CourseDepartmentCodes(ctx context.Context, courseCode string) ([]string, error) {
	const query = `SELECT d.code FROM course_departments cd JOIN departments d ON d.id = cd.department_id
WHERE cd.course_code = $1 ORDER BY d.code`
	var codes []string
	if err := r.db.SelectContext(ctx, &codes, query, courseCode); err != nil {
		return nil, fmt.Errorf("list course departments: %w", err)
	}
	return codes, nil
}

// ListActiveOfferingsForDepartments returns active offerings whose course is
// open to any of the department codes.
func (r *CatalogRepository) ListActiveOfferingsForDepartments(ctx context.Context, departmentCodes []string) ([]models.Offering, error) {
	if len(departmentCodes) == 0 {
		return nil, nil
	}
	const query = `SELECT DISTINCT o.id, o.course_code, o.group_number, o.capacity, o.is_active, c.credit_hours, c.name AS course_name
FROM offerings o
JOIN courses c ON c.code = o.course_code
JOIN course_departments cd ON cd.course_code = c.code
JOIN departments d ON d.id = cd.department_id
WHERE o.is_active = TRUE AND d.code = ANY($1)
ORDER BY o.course_code, o.group_number`
	var offerings []models.Offering
	if err := r.db.SelectContext(ctx, &offerings, query, pq.Array(departmentCodes)); err != nil {
		return nil, fmt.Errorf("list eligible offerings: %w", err)
	}
	return offerings, nil
}
