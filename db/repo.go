package db

import (
	"context"
	"errors"
	"fmt"

	"lsys/identity"
	"lsys/models"

	"gorm.io/gorm"
)

type Repo struct{ DB *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db} }

func (r *Repo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Accounts

func (r *Repo) ListAccounts(ctx context.Context) ([]identity.Account, error) {
	var rows []models.Account
	if err := r.DB.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]identity.Account, len(rows))
	for i, row := range rows {
		out[i] = toAccount(row)
	}
	return out, nil
}

func (r *Repo) CreateAccount(ctx context.Context, a identity.Account) (int64, error) {
	row := models.Account{
		Name:     a.Name,
		Email:    a.Email,
		PassHash: a.PassHash,
		IsWorker: a.IsWorker,
	}
	if err := r.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, err
	}
	return row.ID, nil
}

func (r *Repo) UpdatePassHash(ctx context.Context, uid int64, hash string) error {
	res := r.DB.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", uid).
		Update("pass_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("account %d: %w", uid, gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *Repo) FindAccountByEmail(ctx context.Context, email string) (identity.Account, error) {
	var row models.Account
	err := r.DB.WithContext(ctx).Where("email = ?", email).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return identity.Account{}, identity.ErrNotFound
	}
	if err != nil {
		return identity.Account{}, err
	}
	return toAccount(row), nil
}

func toAccount(row models.Account) identity.Account {
	return identity.Account{
		UID:      row.ID,
		Name:     row.Name,
		Email:    row.Email,
		PassHash: row.PassHash,
		IsWorker: row.IsWorker,
	}
}
