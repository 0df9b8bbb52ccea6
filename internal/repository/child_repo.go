package repository

import (
	"database/sql"
	"fmt"

	"readinglog/internal/database"
	"readinglog/internal/models"
)

const childColumns = "id, name, grade, birth_year, birth_month, enrollment_year, enrollment_month, notes, created_at"

// ChildRepository handles database operations for children
type ChildRepository struct {
	db *database.DB
}

// NewChildRepository creates a new child repository
func NewChildRepository(db *database.DB) *ChildRepository {
	return &ChildRepository{db: db}
}

// CreateChild inserts a child and returns its ID
func (r *ChildRepository) CreateChild(c *models.Child) (int64, error) {
	return createChild(r.db, c)
}

func createChild(q database.DBTX, c *models.Child) (int64, error) {
	query := `INSERT INTO children (name, grade, birth_year, birth_month, enrollment_year, enrollment_month, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	id, err := q.ExecReturningID(query,
		c.Name,
		nullString(c.Grade),
		nullInt(c.BirthYear),
		nullInt(c.BirthMonth),
		nullInt(c.EnrollmentYear),
		nullInt(c.EnrollmentMonth),
		nullString(c.Notes),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create child: %w", err)
	}
	return id, nil
}

// GetChildByID retrieves a child by ID. It returns nil when no child exists.
func (r *ChildRepository) GetChildByID(id int64) (*models.Child, error) {
	query := "SELECT " + childColumns + " FROM children WHERE id = ?"
	child, err := scanChild(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	return child, nil
}

// ListChildren returns all children, newest first, or alphabetically when byName is set
func (r *ChildRepository) ListChildren(byName bool) ([]models.Child, error) {
	order := "created_at DESC, id DESC"
	if byName {
		order = "name ASC, id ASC"
	}
	rows, err := r.db.Query("SELECT " + childColumns + " FROM children ORDER BY " + order)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	children := []models.Child{}
	for rows.Next() {
		child, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, *child)
	}
	return children, rows.Err()
}

// UpdateChild overwrites a child's editable fields. It reports false when the child does not exist.
func (r *ChildRepository) UpdateChild(c *models.Child) (bool, error) {
	query := `UPDATE children SET name = ?, grade = ?, birth_year = ?, birth_month = ?,
		enrollment_year = ?, enrollment_month = ?, notes = ? WHERE id = ?`
	res, err := r.db.Exec(query,
		c.Name,
		nullString(c.Grade),
		nullInt(c.BirthYear),
		nullInt(c.BirthMonth),
		nullInt(c.EnrollmentYear),
		nullInt(c.EnrollmentMonth),
		nullString(c.Notes),
		c.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update child: %w", err)
	}
	return rowsAffected(res)
}

// DeleteChild deletes a child; its reading records go with it
func (r *ChildRepository) DeleteChild(id int64) (bool, error) {
	res, err := r.db.Exec("DELETE FROM children WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete child: %w", err)
	}
	return rowsAffected(res)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanChild(row rowScanner) (*models.Child, error) {
	var (
		c                    models.Child
		grade, notes         sql.NullString
		birthYear, birthMon  sql.NullInt64
		enrollYear, enrollMo sql.NullInt64
	)
	if err := row.Scan(&c.ID, &c.Name, &grade, &birthYear, &birthMon, &enrollYear, &enrollMo, &notes, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Grade = stringPtr(grade)
	c.BirthYear = intPtr(birthYear)
	c.BirthMonth = intPtr(birthMon)
	c.EnrollmentYear = intPtr(enrollYear)
	c.EnrollmentMonth = intPtr(enrollMo)
	c.Notes = stringPtr(notes)
	return &c, nil
}
