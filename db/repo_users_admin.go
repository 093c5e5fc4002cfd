// db/repo_users_admin.go
package db

import (
	"context"

	"lsys/identity"
	"lsys/models"
)

// SetWorker flips the worker flag of an existing account.
func (r *Repo) SetWorker(ctx context.Context, uid int64, isWorker bool) error {
	res := r.DB.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", uid).
		Update("is_worker", isWorker)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return identity.ErrNotFound
	}
	return nil
}

func (r *Repo) CountWorkers(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).
		Model(&models.Account{}).
		Where("is_worker = ?", true).
		Count(&n).Error
	return n, err
}
