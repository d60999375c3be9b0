package storage

import (
	"context"
	"errors"

	"github.com/clinicops/clinic-portal/libs/db"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
)

type UserRepository struct {
	db db.DBTX
}

func NewUserRepository(d db.DBTX) *UserRepository {
	return &UserRepository{db: d}
}

// FindByID returns ok=false when no active user has the id.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (model.User, bool, error) {
	var (
		u    model.User
		role string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, name, email, role, is_active FROM users WHERE id = $1 AND is_active
	`, id).Scan(&u.ID, &u.Name, &u.Email, &role, &u.IsActive)
	if err != nil {
		if errors.Is(classify(err), ErrNotFound) {
			return model.User{}, false, nil
		}
		return model.User{}, false, err
	}
	u.Role = model.Role(role)
	return u, true, nil
}
