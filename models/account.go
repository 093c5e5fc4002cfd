package models

const AccountTable = "accounts"

// Account is one registered reader or worker. ID is assigned by the database.
type Account struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	Name     string `gorm:"not null"`
	Email    string `gorm:"uniqueIndex;not null"`
	PassHash string `gorm:"column:pass_hash;not null"`
	IsWorker bool   `gorm:"not null;default:false"`
}

func (Account) TableName() string { return AccountTable }
