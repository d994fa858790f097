package models

// Sequence is a named monotonic counter. Task numbers are drawn from the
// "task" row inside the transaction that inserts the task.
type Sequence struct {
	Name      string `gorm:"primarykey;type:varchar(64)" json:"name"`
	LastValue int64  `gorm:"not null;default:0" json:"last_value"`
}
