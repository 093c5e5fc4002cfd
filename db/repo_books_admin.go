// db/repo_books_admin.go
package db

import (
	"context"
	"strings"
	"time"

	"lsys/catalog"
	"lsys/models"

	"gorm.io/gorm"
)

// HoldRow is one book joined with the account holding it, if any.
type HoldRow struct {
	BID         int64   `gorm:"column:bid" json:"bid"`
	ISBN        int64   `gorm:"column:isbn" json:"isbn"`
	Name        string  `gorm:"column:name" json:"name"`
	HolderID    *int64  `gorm:"column:holder_id" json:"holderId,omitempty"`
	HolderName  *string `gorm:"column:holder_name" json:"holderName,omitempty"`
	HolderEmail *string `gorm:"column:holder_email" json:"holderEmail,omitempty"`
	Due         *string `gorm:"column:due" json:"due,omitempty"`
	IsBorrow    *bool   `gorm:"column:is_borrow" json:"isBorrow,omitempty"`
	Overdue     bool    `gorm:"column:overdue" json:"overdue"` // computed in SQL
}

// State names the hold as the catalogue does.
func (h HoldRow) State() string {
	switch {
	case h.IsBorrow == nil:
		return catalog.Available.String()
	case *h.IsBorrow:
		return catalog.Borrowed.String()
	default:
		return catalog.Reserved.String()
	}
}

type HoldsQuery struct {
	Q     string // substring of the book name or holder email
	State string // "", "available", "reserved", "borrowed", "overdue", "held"
	Page  int
	Size  int
	Today time.Time
}

type PagedHolds struct {
	Total int64     `json:"total"`
	Rows  []HoldRow `json:"rows"`
}

// ListHolds is the worker view of the books table. Due dates are stored as
// YYYY-MM-DD text, so overdue is a plain string comparison.
func (r *Repo) ListHolds(ctx context.Context, q HoldsQuery) (*PagedHolds, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Size <= 0 || q.Size > 200 {
		q.Size = 50
	}
	if q.Today.IsZero() {
		q.Today = time.Now()
	}
	today := catalog.FormatDay(q.Today)

	base := func() *gorm.DB {
		tx := r.DB.WithContext(ctx).
			Table(models.BookTable + " b").
			Joins("LEFT JOIN " + models.AccountTable + " a ON a.id = b.user_id")

		if s := strings.TrimSpace(q.Q); s != "" {
			pat := "%" + strings.ToLower(s) + "%"
			tx = tx.Where("LOWER(b.name) LIKE ? OR LOWER(a.email) LIKE ?", pat, pat)
		}
		switch q.State {
		case "available":
			tx = tx.Where("b.is_borrow IS NULL")
		case "reserved":
			tx = tx.Where("b.is_borrow = ?", false)
		case "borrowed":
			tx = tx.Where("b.is_borrow = ?", true)
		case "held":
			tx = tx.Where("b.is_borrow IS NOT NULL")
		case "overdue":
			tx = tx.Where(`b."time" IS NOT NULL AND b."time" < ?`, today)
		}
		return tx
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []HoldRow
	err := base().
		Select(`
			b.id AS bid, b.isbn, b.name,
			b.user_id AS holder_id,
			a.name AS holder_name,
			a.email AS holder_email,
			b."time" AS due,
			b.is_borrow,
			CASE WHEN b."time" IS NOT NULL AND b."time" < ? THEN TRUE ELSE FALSE END AS overdue
		`, today).
		Order("b.name, b.id").
		Offset((q.Page - 1) * q.Size).
		Limit(q.Size).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return &PagedHolds{Total: total, Rows: rows}, nil
}
