package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	Phone        string
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"not null"`
	RegisteredAt time.Time `gorm:"not null"`
}

func (UserModel) TableName() string { return "usuarios" }

type PropertyModel struct {
	ID            uint   `gorm:"primaryKey"`
	PublisherID   uint   `gorm:"not null;index"`
	Title         string `gorm:"not null"`
	Description   string
	OperationType string  `gorm:"not null"`
	PropertyType  string  `gorm:"not null"`
	Price         float64 `gorm:"not null"`
	Currency      string  `gorm:"not null"`
	Address       string  `gorm:"not null"`
	City          string
	Country       string
	Bathrooms     int
	Bedrooms      int
	AreaM2        float64
	Status        string    `gorm:"not null;index"`
	PublishedAt   time.Time `gorm:"not null;index"`

	Photos []PropertyPhotoModel `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
}

func (PropertyModel) TableName() string { return "propiedades" }

type PropertyPhotoModel struct {
	ID         uint   `gorm:"primaryKey"`
	PropertyID uint   `gorm:"not null;index"`
	StorageRef string `gorm:"not null"`
	Primary    bool   `gorm:"not null;column:es_principal"`
	UploadMeta datatypes.JSON
}

func (PropertyPhotoModel) TableName() string { return "propiedad_fotos" }

type InquiryModel struct {
	ID          uint      `gorm:"primaryKey"`
	RequesterID uint      `gorm:"not null;uniqueIndex:idx_solicitud_unica;index"`
	PropertyID  uint      `gorm:"not null;uniqueIndex:idx_solicitud_unica;index"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (InquiryModel) TableName() string { return "solicitudes" }
