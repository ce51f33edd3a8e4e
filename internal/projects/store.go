package projects

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/EmpoweredVote/EV-CityMap/internal/middleware"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrUserNotFound matches middleware.ErrUserNotFound so the user middleware maps it to 404.
	ErrUserNotFound    = middleware.ErrUserNotFound
	ErrProjectNotFound = errors.New("project not found")
)

// Store persists users and their saved projects.
type Store interface {
	// IdentifyUser returns the user with username, creating it on first sight.
	IdentifyUser(ctx context.Context, username string) (User, error)

	// UserExists returns ErrUserNotFound for unknown ids.
	UserExists(ctx context.Context, id string) error

	// ListProjects returns a user's projects newest first. A non-empty attribute keeps
	// only projects with a filter on that attribute.
	ListProjects(ctx context.Context, userID, attribute string) ([]Project, error)

	// SaveProject stores a new project. filters must be a JSON array.
	SaveProject(ctx context.Context, userID, name string, filters json.RawMessage) (Project, error)

	// GetProject returns ErrProjectNotFound for unknown ids.
	GetProject(ctx context.Context, id string) (Project, error)
}

// GormStore implements Store on gorm.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// NewGormStore wraps d.
func NewGormStore(d *gorm.DB) *GormStore {
	return &GormStore{db: d}
}

func (s *GormStore) IdentifyUser(ctx context.Context, username string) (User, error) {
	username = strings.TrimSpace(username)
	candidate := User{ID: uuid.NewString(), Username: username}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "username"}}, DoNothing: true}).
		Create(&candidate).Error
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}

	var user User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *GormStore) UserExists(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrUserNotFound
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *GormStore) ListProjects(ctx context.Context, userID, attribute string) ([]Project, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if attribute != "" {
		q = q.Where("? = ANY(attributes)", attribute)
	}

	projects := make([]Project, 0)
	if err := q.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (s *GormStore) SaveProject(ctx context.Context, userID, name string, filters json.RawMessage) (Project, error) {
	p := Project{
		ID:         uuid.NewString(),
		UserID:     userID,
		Name:       name,
		Filters:    string(filters),
		Attributes: filterAttributes(filters),
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return Project{}, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

func (s *GormStore) GetProject(ctx context.Context, id string) (Project, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Project{}, ErrProjectNotFound
	}
	var p Project
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Project{}, ErrProjectNotFound
	}
	if err != nil {
		return Project{}, fmt.Errorf("load project: %w", err)
	}
	return p, nil
}
