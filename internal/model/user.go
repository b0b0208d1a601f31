package model

// User is a minimal identity row so scan events can reference who scanned.
// Credential handling and token issuance live in a separate auth service.
type User struct {
	BaseModel
	Email    string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email" validate:"required,email"`
	FullName string `gorm:"type:varchar(255)" json:"full_name"`
	IsActive bool   `gorm:"default:true" json:"is_active"`
}
