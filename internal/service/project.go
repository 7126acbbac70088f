package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	api "github.com/synthetica/platform/api/v1alpha1"
	"github.com/synthetica/platform/internal/auth"
	"github.com/synthetica/platform/internal/config"
	"github.com/synthetica/platform/internal/service/mappers"
	"github.com/synthetica/platform/internal/storage"
	"github.com/synthetica/platform/internal/store"
	"github.com/synthetica/platform/internal/store/model"
)

type ProjectService struct {
	store       store.Store
	objectStore storage.ObjectStore
	cfg         *config.Config
}

func NewProjectService(store store.Store, objectStore storage.ObjectStore, cfg *config.Config) *ProjectService {
	return &ProjectService{
		store:       store,
		objectStore: objectStore,
		cfg:         cfg,
	}
}

func (s *ProjectService) ListProjects(ctx context.Context, user auth.User) (model.ProjectList, error) {
	return s.store.Project().List(ctx, store.NewProjectQueryFilter().ByOrgID(user.Organization))
}

func (s *ProjectService) GetProject(ctx context.Context, user auth.User, id uuid.UUID) (*model.Project, error) {
	project, err := s.store.Project().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrProjectNotFound(id)
		}
		return nil, err
	}

	if project.OrgID != user.Organization {
		return nil, NewErrResourceForbidden(id, "project")
	}

	return project, nil
}

func (s *ProjectService) CreateProject(ctx context.Context, user auth.User, form api.ProjectCreate) (*model.Project, error) {
	if _, err := activeCustomerByOrg(ctx, s.store, user.Organization); err != nil {
		return nil, err
	}

	project := mappers.ProjectFromApi(uuid.New(), user, &form)
	project.StorageBucket = bucketName(project.ID)
	project.StorageRegion = s.cfg.Service.Storage.Region

	if s.objectStore != nil {
		if err := s.objectStore.EnsureBucket(ctx, project.StorageBucket, project.StorageRegion); err != nil {
			return nil, err
		}
	}

	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.store.Project().Create(ctx, project)
	if err != nil {
		_, _ = store.Rollback(ctx)
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, NewErrDuplicateProject(project.Name)
		}
		return nil, err
	}

	// the creator owns the project
	if err := s.store.Project().AddMember(ctx, model.ProjectMember{
		ProjectID: result.ID,
		Username:  user.Username,
		Role:      model.RoleOwner,
	}); err != nil {
		_, _ = store.Rollback(ctx)
		return nil, err
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}

	result.Members = append(result.Members, model.ProjectMember{
		ProjectID: result.ID,
		Username:  user.Username,
		Role:      model.RoleOwner,
	})

	return result, nil
}

func (s *ProjectService) UpdateProject(ctx context.Context, user auth.User, id uuid.UUID, form api.ProjectUpdate) (*model.Project, error) {
	project, err := s.GetProject(ctx, user, id)
	if err != nil {
		return nil, err
	}

	if project.Status == model.ProjectStatusArchived {
		return nil, NewErrProjectArchived(id)
	}

	updated, err := s.store.Project().Update(ctx, *mappers.UpdateProjectFromApi(project, &form))
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, NewErrDuplicateProject(*form.Name)
		}
		return nil, err
	}
	return updated, nil
}

// ArchiveProject retires the project. The datasets stay around until their
// retention window closes.
func (s *ProjectService) ArchiveProject(ctx context.Context, user auth.User, id uuid.UUID) (*model.Project, error) {
	if _, err := s.GetProject(ctx, user, id); err != nil {
		return nil, err
	}

	project, err := s.store.Project().Archive(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrProjectNotFound(id)
		}
		return nil, err
	}

	zap.S().Named("project_service").Infow("project archived", "project_id", id, "org_id", user.Organization)

	return project, nil
}

func (s *ProjectService) AddProjectMember(ctx context.Context, user auth.User, id uuid.UUID, form api.ProjectMemberAdd) (*model.Project, error) {
	project, err := s.GetProject(ctx, user, id)
	if err != nil {
		return nil, err
	}

	if project.Status == model.ProjectStatusArchived {
		return nil, NewErrProjectArchived(id)
	}

	if err := s.store.Project().AddMember(ctx, mappers.ProjectMemberFromApi(id, &form)); err != nil {
		return nil, err
	}

	return s.GetProject(ctx, user, id)
}

func (s *ProjectService) RemoveProjectMember(ctx context.Context, user auth.User, id uuid.UUID, username string) error {
	if _, err := s.GetProject(ctx, user, id); err != nil {
		return err
	}

	if err := s.store.Project().RemoveMember(ctx, id, username); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrResourceNotFound(id, "project member")
		}
		return err
	}
	return nil
}

func bucketName(projectID uuid.UUID) string {
	return fmt.Sprintf("synthetica-%s", projectID)
}
