package models

// User represents a registered player or an admin.
type User struct {
	BaseModel
	Name           string          `json:"name"`
	Email          string          `gorm:"uniqueIndex" json:"email"`
	Phone          string          `json:"phone"`
	DocumentID     string          `json:"document_id"`
	PasswordHash   string          `json:"-"`
	IsAdmin        bool            `json:"is_admin"`
	Participations []Participation `json:"participations,omitempty"`
}
