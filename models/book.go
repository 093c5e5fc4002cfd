// models/book.go
package models

const (
	BookTable      = "books"
	AuthorTable    = "authors"
	WroteTable     = "wrote"
	BorrowLogTable = "borrow_log"
)

// Book is one catalogue row (a physical copy). UserID, Time and IsBorrow are
// all NULL for an available copy and all set otherwise; the checks enforce it.
type Book struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	ISBN      int64  `gorm:"column:isbn;index;not null"`
	Name      string `gorm:"not null"`
	Published string `gorm:"not null"`

	UserID   *int64  `gorm:"column:user_id;check:chk_books_holder,(\"time\" IS NULL) = (user_id IS NULL)"`
	Time     *string `gorm:"column:time;type:text;check:chk_books_flag,(\"time\" IS NULL) = (is_borrow IS NULL)"`
	IsBorrow *bool   `gorm:"column:is_borrow"`
}

type Author struct {
	ID   int64  `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"uniqueIndex;not null"`
}

// Wrote links an author to a work. ISBN is not unique in books, so it cannot
// carry a foreign key.
type Wrote struct {
	AuthorID int64  `gorm:"uniqueIndex:idx_wrote_pair;not null"`
	ISBN     int64  `gorm:"column:isbn;uniqueIndex:idx_wrote_pair;not null"`
	Author   Author `gorm:"foreignKey:AuthorID"`
}

// BorrowLog keeps closed borrow intervals. Nothing writes it yet.
type BorrowLog struct {
	UserID     int64   `gorm:"not null;uniqueIndex:idx_borrow_log_out;uniqueIndex:idx_borrow_log_in"`
	BookID     int64   `gorm:"not null;uniqueIndex:idx_borrow_log_out;uniqueIndex:idx_borrow_log_in"`
	BorrowTime string  `gorm:"not null;uniqueIndex:idx_borrow_log_out;check:chk_borrow_log_interval,borrow_time <> return_time"`
	ReturnTime string  `gorm:"not null;uniqueIndex:idx_borrow_log_in"`
	User       Account `gorm:"foreignKey:UserID"`
	Book       Book    `gorm:"foreignKey:BookID"`
}

func (Book) TableName() string      { return BookTable }
func (Author) TableName() string    { return AuthorTable }
func (Wrote) TableName() string     { return WroteTable }
func (BorrowLog) TableName() string { return BorrowLogTable }
