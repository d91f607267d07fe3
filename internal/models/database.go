package models

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/launchdeck/launchdeck/backend/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open connects to the configured database. Driver errors such as unique
// violations are translated into gorm.ErrDuplicatedKey.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      logger.Warn,
			// Lookups that expect a miss (sessions, optional rows) are not warnings.
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}

func InitDB(cfg *config.DatabaseConfig) error {
	db, err := Open(cfg)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

func AutoMigrate() error {
	return Migrate(DB)
}

// Migrate creates or updates all tables, plus the publish function on postgres.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Project{},
		&Snapshot{},
		&ProjectPermission{},
		&TeamMember{},
		&ProjectContent{},
		&ProjectScoring{},
		&SystemLog{},
	); err != nil {
		return err
	}

	if db.Dialector.Name() == "postgres" {
		if err := db.Exec(publishProjectDraftSQL).Error; err != nil {
			return fmt.Errorf("create publish_project_draft: %w", err)
		}
	}
	return nil
}

func GetDB() *gorm.DB {
	return DB
}

// publishProjectDraftSQL promotes the draft snapshot to public and locks it in
// one statement scope. Returns the promoted snapshot id, or NULL when there is
// no draft.
const publishProjectDraftSQL = `
CREATE OR REPLACE FUNCTION publish_project_draft(p_project_id text)
RETURNS text AS $$
DECLARE
	v_new text;
	v_public text;
BEGIN
	SELECT new_snapshot_id, public_snapshot_id INTO v_new, v_public
	FROM projects WHERE id = p_project_id FOR UPDATE;

	IF NOT FOUND THEN
		RAISE EXCEPTION 'project % not found', p_project_id;
	END IF;

	IF v_new IS NULL OR v_new = v_public THEN
		RETURN NULL;
	END IF;

	UPDATE snapshots SET is_locked = true, updated_at = now() WHERE id = v_new;
	UPDATE projects SET public_snapshot_id = v_new, updated_at = now() WHERE id = p_project_id;

	RETURN v_new;
END;
$$ LANGUAGE plpgsql;
`
