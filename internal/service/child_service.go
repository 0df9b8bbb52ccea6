package service

import (
	"fmt"

	"readinglog/internal/models"
	"readinglog/internal/repository"
)

// ChildService handles child profile business logic
type ChildService struct {
	childRepo *repository.ChildRepository
}

// NewChildService creates a new child service
func NewChildService(childRepo *repository.ChildRepository) *ChildService {
	return &ChildService{childRepo: childRepo}
}

func validateChild(c *models.Child) error {
	if err := requireText("name", c.Name); err != nil {
		return err
	}
	if err := validateYear("birth_year", c.BirthYear); err != nil {
		return err
	}
	if err := validateMonth("birth_month", c.BirthMonth); err != nil {
		return err
	}
	if err := validateYear("enrollment_year", c.EnrollmentYear); err != nil {
		return err
	}
	return validateMonth("enrollment_month", c.EnrollmentMonth)
}

// CreateChild validates and stores a child, returning its ID
func (s *ChildService) CreateChild(c *models.Child) (int64, error) {
	if err := validateChild(c); err != nil {
		return 0, err
	}
	return s.childRepo.CreateChild(c)
}

// GetChild retrieves a child by ID
func (s *ChildService) GetChild(id int64) (*models.Child, error) {
	child, err := s.childRepo.GetChildByID(id)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, ErrChildNotFound
	}
	return child, nil
}

// ListChildren returns all children, newest first or by name
func (s *ChildService) ListChildren(byName bool) ([]models.Child, error) {
	return s.childRepo.ListChildren(byName)
}

// UpdateChild replaces a child's editable fields
func (s *ChildService) UpdateChild(c *models.Child) error {
	if err := validateChild(c); err != nil {
		return err
	}
	ok, err := s.childRepo.UpdateChild(c)
	if err != nil {
		return err
	}
	if !ok {
		return ErrChildNotFound
	}
	return nil
}

// DeleteChild deletes a child and, through the store's cascade, their records
func (s *ChildService) DeleteChild(id int64) error {
	ok, err := s.childRepo.DeleteChild(id)
	if err != nil {
		return fmt.Errorf("failed to delete child %d: %w", id, err)
	}
	if !ok {
		return ErrChildNotFound
	}
	return nil
}
