package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/synthetica/platform/internal/store/model"
)

type Project interface {
	List(ctx context.Context, filter *ProjectQueryFilter) (model.ProjectList, error)
	Create(ctx context.Context, project model.Project) (*model.Project, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Project, error)
	Update(ctx context.Context, project model.Project) (*model.Project, error)
	Archive(ctx context.Context, id uuid.UUID) (*model.Project, error)
	AddMember(ctx context.Context, member model.ProjectMember) error
	RemoveMember(ctx context.Context, projectID uuid.UUID, username string) error
	InitialMigration() error
}

type ProjectStore struct {
	db *gorm.DB
}

// Make sure we conform to Project interface
var _ Project = (*ProjectStore)(nil)

func NewProjectStore(db *gorm.DB) Project {
	return &ProjectStore{db: db}
}

func (s *ProjectStore) InitialMigration() error {
	db := s.getDB(context.Background())
	if err := db.AutoMigrate(&model.Project{}); err != nil {
		return err
	}
	return db.AutoMigrate(&model.ProjectMember{})
}

func (s *ProjectStore) List(ctx context.Context, filter *ProjectQueryFilter) (model.ProjectList, error) {
	var projects model.ProjectList
	tx := s.getDB(ctx).Preload("Members")

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if result := tx.Order("created_at").Find(&projects); result.Error != nil {
		return nil, result.Error
	}
	return projects, nil
}

func (s *ProjectStore) Create(ctx context.Context, project model.Project) (*model.Project, error) {
	result := s.getDB(ctx).Clauses(clause.Returning{}).Create(&project)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, result.Error
	}
	return &project, nil
}

func (s *ProjectStore) Get(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	project := model.NewProjectFromID(id)
	result := s.getDB(ctx).Preload("Members").First(&project)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return project, nil
}

func (s *ProjectStore) Update(ctx context.Context, project model.Project) (*model.Project, error) {
	selectFields := []string{"name", "description"}
	if project.Settings != nil {
		selectFields = append(selectFields, "settings")
	}

	result := s.getDB(ctx).Model(&project).Clauses(clause.Returning{}).Select(selectFields).Updates(&project)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return &project, nil
}

// Archive flips the project to archived. Archiving twice is a no-op.
func (s *ProjectStore) Archive(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	project := model.NewProjectFromID(id)
	result := s.getDB(ctx).Model(project).Clauses(clause.Returning{}).Update("status", model.ProjectStatusArchived)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return project, nil
}

func (s *ProjectStore) AddMember(ctx context.Context, member model.ProjectMember) error {
	// upsert so changing a member's role does not require a delete first
	result := s.getDB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(&member)
	return result.Error
}

func (s *ProjectStore) RemoveMember(ctx context.Context, projectID uuid.UUID, username string) error {
	result := s.getDB(ctx).Delete(&model.ProjectMember{}, "project_id = ? AND username = ?", projectID, username)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *ProjectStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
