package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/db"
	"go.uber.org/zap"
	"gorm.io/gorm/clause"
)

// ErrNoDatabase is returned by operations that need the remote store when
// the service runs on local documents only.
var ErrNoDatabase = errors.New("database not configured")

// RoleRepository reads and grants rows of user_roles.
type RoleRepository struct {
	db  *db.DB
	log *zap.Logger
}

// NewRoleRepository creates a role repository. database may be nil, in which
// case nobody holds a stored role.
func NewRoleRepository(database *db.DB, logger *zap.Logger) *RoleRepository {
	return &RoleRepository{db: database, log: logger}
}

// HasRole reports whether userID was granted role.
func (r *RoleRepository) HasRole(ctx context.Context, userID, role string) (bool, error) {
	if r.db == nil {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&db.UserRole{}).
		Where("user_id = ? AND role = ?", userID, role).
		Count(&count).Error
	if err != nil {
		r.log.Error("Failed to check role", zap.String("user_id", userID), zap.String("role", role), zap.Error(err))
		return false, err
	}
	return count > 0, nil
}

func (r *RoleRepository) IsAdmin(ctx context.Context, userID string) (bool, error) {
	return r.HasRole(ctx, userID, db.RoleAdmin)
}

// Grant gives userID role. Granting an existing role is a no-op.
func (r *RoleRepository) Grant(ctx context.Context, userID, role string) error {
	if r.db == nil {
		return ErrNoDatabase
	}
	row := db.UserRole{ID: uuid.NewString(), UserID: userID, Role: role, CreatedAt: time.Now().UTC()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	if err != nil {
		r.log.Error("Failed to grant role", zap.String("user_id", userID), zap.String("role", role), zap.Error(err))
		return err
	}
	r.log.Info("Role granted", zap.String("user_id", userID), zap.String("role", role))
	return nil
}
