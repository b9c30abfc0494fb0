package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
)

var errSettingNotFound = apperrors.NewResourceNotFoundError("setting not found")

const upsertSettingSQL = `
	INSERT INTO system_settings (key, value, updated_at) VALUES ($1, $2, CURRENT_TIMESTAMP)
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

// SettingRepository stores the system settings key-value table
type SettingRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewSettingRepository creates a new SettingRepository
func NewSettingRepository(db *pgxpool.Pool) *SettingRepository {
	return &SettingRepository{
		db: db,
		sb: statementBuilder(),
	}
}

func (r *SettingRepository) selectSettings() squirrel.SelectBuilder {
	return r.sb.Select("key", "value", "description", "updated_at").From("system_settings")
}

// List returns all settings ordered by key
func (r *SettingRepository) List(ctx context.Context) ([]*models.Setting, error) {
	return getAll[models.Setting](ctx, r.db, r.selectSettings().OrderBy("key ASC"))
}

// Get returns one setting
func (r *SettingRepository) Get(ctx context.Context, key string) (*models.Setting, error) {
	return getOne[models.Setting](ctx, r.db, r.selectSettings().Where(squirrel.Eq{"key": key}), errSettingNotFound)
}

// Upsert sets a single setting
func (r *SettingRepository) Upsert(ctx context.Context, key, value string) error {
	_, err := r.db.Exec(ctx, upsertSettingSQL, key, value)
	return err
}

// UpsertMany sets several settings in one transaction
func (r *SettingRepository) UpsertMany(ctx context.Context, values map[string]string) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for key, value := range values {
			batch.Queue(upsertSettingSQL, key, value)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// EnsureDefaults inserts any missing settings without touching existing ones
func (r *SettingRepository) EnsureDefaults(ctx context.Context, defaults []models.Setting) error {
	if len(defaults) == 0 {
		return nil
	}

	insert := r.sb.Insert("system_settings").Columns("key", "value", "description")
	for _, s := range defaults {
		insert = insert.Values(s.Key, s.Value, s.Description)
	}
	sql, args, err := insert.Suffix("ON CONFLICT (key) DO NOTHING").ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
