package services

import (
	"context"
	"errors"

	"github.com/launchdeck/launchdeck/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SnapshotService stores project versions. Locked snapshots are read-only;
// edits always land in the project's unlocked draft.
type SnapshotService struct {
	db *gorm.DB
}

func NewSnapshotService(db *gorm.DB) *SnapshotService {
	return &SnapshotService{db: db}
}

func (s *SnapshotService) Get(ctx context.Context, id string) (*models.Snapshot, error) {
	var snap models.Snapshot
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&snap).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	return &snap, nil
}

// GetOptional returns nil without error when id is nil.
func (s *SnapshotService) GetOptional(ctx context.Context, id *string) (*models.Snapshot, error) {
	if id == nil {
		return nil, nil
	}
	return s.Get(ctx, *id)
}

// ListVersions returns every snapshot of the project, newest first.
func (s *SnapshotService) ListVersions(ctx context.Context, projectID string) ([]models.Snapshot, error) {
	var snaps []models.Snapshot
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("version DESC").
		Find(&snaps).Error
	return snaps, err
}

// EditDraft runs mutate against the project's draft inside a transaction,
// creating the draft from the latest snapshot first when needed.
func (s *SnapshotService) EditDraft(ctx context.Context, projectID, userID string, mutate func(*models.Snapshot) error) (*models.Snapshot, error) {
	var draft *models.Snapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", projectID).First(&project).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return err
		}

		d, err := ensureDraft(tx, &project, userID)
		if err != nil {
			return err
		}
		if err := mutate(d); err != nil {
			return err
		}
		if err := saveSnapshot(tx, d); err != nil {
			return err
		}
		draft = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return draft, nil
}

// ensureDraft returns the unlocked snapshot new_snapshot_id points at, or
// creates version+1 from the most recent snapshot and points the project at it.
func ensureDraft(tx *gorm.DB, project *models.Project, userID string) (*models.Snapshot, error) {
	var base *models.Snapshot
	if project.NewSnapshotID != nil {
		var current models.Snapshot
		if err := tx.Where("id = ?", *project.NewSnapshotID).First(&current).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
		} else {
			if !current.IsLocked {
				return &current, nil
			}
			base = &current
		}
	}

	if base == nil && project.PublicSnapshotID != nil {
		var public models.Snapshot
		if err := tx.Where("id = ?", *project.PublicSnapshotID).First(&public).Error; err == nil {
			base = &public
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	var maxVersion int
	if err := tx.Model(&models.Snapshot{}).
		Where("project_id = ?", project.ID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&maxVersion).Error; err != nil {
		return nil, err
	}

	var draft *models.Snapshot
	if base != nil {
		draft = base.NextVersion(userID)
	} else {
		draft = &models.Snapshot{ProjectID: project.ID, Status: models.StatusIdea, CreatedBy: userID}
	}
	draft.Version = maxVersion + 1

	if err := tx.Create(draft).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&models.Project{}).Where("id = ?", project.ID).
		Update("new_snapshot_id", draft.ID).Error; err != nil {
		return nil, err
	}
	project.NewSnapshotID = &draft.ID
	return draft, nil
}

// saveSnapshot writes content fields. The is_locked filter keeps a snapshot
// locked concurrently from being overwritten.
func saveSnapshot(tx *gorm.DB, snap *models.Snapshot) error {
	if snap.IsLocked {
		return ErrSnapshotLocked
	}
	res := tx.Model(snap).
		Where("is_locked = ?", false).
		Select("name", "slogan", "description", "status", "country", "city",
			"repository_urls", "website_urls", "logo_url", "banner_url", "video_urls",
			"contents", "team_members", "updated_at").
		Updates(snap)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSnapshotLocked
	}
	return nil
}

// lockSnapshot marks the snapshot immutable.
func lockSnapshot(tx *gorm.DB, id string) error {
	return tx.Model(&models.Snapshot{}).Where("id = ?", id).Update("is_locked", true).Error
}

func appendUnique(list []string, id string) []string {
	for _, v := range list {
		if v == id {
			return list
		}
	}
	return append(list, id)
}

func removeID(list []string, id string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
