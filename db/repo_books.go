package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lsys/catalog"
	"lsys/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Books

func (r *Repo) LoadBooks(ctx context.Context) ([]catalog.Book, error) {
	var rows []models.Book
	if err := r.DB.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]catalog.Book, 0, len(rows))
	for _, row := range rows {
		b, err := toBook(row)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *Repo) LoadBook(ctx context.Context, bid int64) (catalog.Book, error) {
	var row models.Book
	err := r.DB.WithContext(ctx).First(&row, "id = ?", bid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return catalog.Book{}, fmt.Errorf("bid %d: %w", bid, catalog.ErrBookNotFound)
	}
	if err != nil {
		return catalog.Book{}, err
	}
	return toBook(row)
}

func (r *Repo) LoadAuthors(ctx context.Context) ([]catalog.Author, error) {
	var rows []models.Author
	if err := r.DB.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]catalog.Author, len(rows))
	for i, row := range rows {
		out[i] = catalog.Author{ID: row.ID, Name: row.Name}
	}
	return out, nil
}

func (r *Repo) LoadAuthorship(ctx context.Context) ([]catalog.Authorship, error) {
	var rows []models.Wrote
	if err := r.DB.WithContext(ctx).Order("isbn, author_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]catalog.Authorship, len(rows))
	for i, row := range rows {
		out[i] = catalog.Authorship{AuthorID: row.AuthorID, ISBN: row.ISBN}
	}
	return out, nil
}

// SaveStatus writes to over from. The update only matches while the row
// still holds from, so a change made by another process since the catalogue
// was loaded comes back as catalog.ErrStaleSnapshot.
func (r *Repo) SaveStatus(ctx context.Context, bid int64, from, to catalog.Status) error {
	q := r.DB.WithContext(ctx).Model(&models.Book{}).Where("id = ?", bid)

	flag, holder, due := from.Raw()
	if flag == nil {
		q = q.Where("is_borrow IS NULL")
	} else {
		q = q.Where(`is_borrow = ? AND user_id = ? AND "time" = ?`, *flag, *holder, catalog.FormatDay(*due))
	}

	res := q.Updates(statusColumns(to))
	if res.Error != nil {
		return fmt.Errorf("update book %d: %w", bid, res.Error)
	}
	if res.RowsAffected == 0 {
		return catalog.ErrStaleSnapshot
	}
	return nil
}

// NewBook is a catalogue entry to insert with its authors.
type NewBook struct {
	ISBN      int64
	Name      string
	Published string
	Authors   []string
}

// AddBook inserts one available copy, creating missing authors and linking
// them to the ISBN. Returns the new bid.
func (r *Repo) AddBook(ctx context.Context, nb NewBook) (int64, error) {
	name := strings.TrimSpace(nb.Name)
	if name == "" {
		return 0, errors.New("book name is required")
	}

	var bid int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := models.Book{ISBN: nb.ISBN, Name: name, Published: nb.Published}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		bid = row.ID

		for _, an := range nb.Authors {
			an = strings.TrimSpace(an)
			if an == "" {
				continue
			}
			a := models.Author{Name: an}
			if err := tx.Where(models.Author{Name: an}).FirstOrCreate(&a).Error; err != nil {
				return err
			}
			// the same author may already be linked through another copy
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.Wrote{AuthorID: a.ID, ISBN: nb.ISBN}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("add book %q: %w", name, err)
	}
	return bid, nil
}

func toBook(row models.Book) (catalog.Book, error) {
	st, err := decodeStatus(row)
	if err != nil {
		return catalog.Book{}, fmt.Errorf("book %d: %w", row.ID, err)
	}
	return catalog.Book{
		ISBN:      row.ISBN,
		BID:       row.ID,
		Name:      row.Name,
		Published: row.Published,
		Status:    st,
	}, nil
}

func decodeStatus(row models.Book) (catalog.Status, error) {
	var due *time.Time
	if row.Time != nil {
		t, err := catalog.ParseDay(*row.Time)
		if err != nil {
			return catalog.Status{}, fmt.Errorf("%w: due date %q", catalog.ErrIntegrity, *row.Time)
		}
		due = &t
	}
	return catalog.FromRaw(row.IsBorrow, row.UserID, due)
}

// statusColumns is the column set for an update; an available status clears
// all three.
func statusColumns(st catalog.Status) map[string]any {
	flag, holder, due := st.Raw()
	if flag == nil {
		return map[string]any{"user_id": nil, "time": nil, "is_borrow": nil}
	}
	return map[string]any{
		"user_id":   *holder,
		"time":      catalog.FormatDay(*due),
		"is_borrow": *flag,
	}
}
