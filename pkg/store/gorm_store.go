package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"casaya/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&UserModel{}, &PropertyModel{}, &PropertyPhotoModel{}, &InquiryModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveUser inserts a user and returns the assigned ID.
func (s *GormStore) SaveUser(u domain.User) (uint, error) {
	model := userToModel(u)
	if err := s.db.Create(&model).Error; err != nil {
		return 0, err
	}
	return model.ID, nil
}

// HasUserEmail checks if the email is already registered.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id uint) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// ListProperties returns active listings newest-first with their photos.
func (s *GormStore) ListProperties() ([]domain.Property, error) {
	return s.listProperties("status = ?", string(domain.StatusActive))
}

// ListPropertiesByPublisher returns one publisher's listings newest-first.
func (s *GormStore) ListPropertiesByPublisher(publisherID uint) ([]domain.Property, error) {
	return s.listProperties("publisher_id = ?", publisherID)
}

func (s *GormStore) listProperties(cond string, args ...any) ([]domain.Property, error) {
	var models []PropertyModel
	if err := s.db.Where(cond, args...).
		Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("es_principal DESC, id ASC")
		}).
		Order("published_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Property, 0, len(models))
	for _, m := range models {
		res = append(res, propertyFromModel(m))
	}
	return res, nil
}

// GetProperty retrieves one listing with photos and publisher contact.
func (s *GormStore) GetProperty(id uint) (domain.Property, domain.Contact, bool, error) {
	var model PropertyModel
	if err := s.db.Preload("Photos", func(db *gorm.DB) *gorm.DB {
		return db.Order("es_principal DESC, id ASC")
	}).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Property{}, domain.Contact{}, false, nil
		}
		return domain.Property{}, domain.Contact{}, false, err
	}
	var contact domain.Contact
	var publisher UserModel
	if err := s.db.First(&publisher, "id = ?", model.PublisherID).Error; err == nil {
		contact = domain.Contact{Name: publisher.Name, Phone: publisher.Phone, Email: publisher.Email}
	} else if err != gorm.ErrRecordNotFound {
		return domain.Property{}, domain.Contact{}, false, err
	}
	return propertyFromModel(model), contact, true, nil
}

// BeginPublication opens the transaction for one publication request.
func (s *GormStore) BeginPublication(ctx context.Context) (PublicationTx, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin tx: %w", tx.Error)
	}
	return &gormPublicationTx{tx: tx}, nil
}

type gormPublicationTx struct {
	tx   *gorm.DB
	once sync.Once
}

func (p *gormPublicationTx) InsertProperty(prop domain.Property) (uint, error) {
	model := propertyToModel(prop)
	if err := p.tx.Create(&model).Error; err != nil {
		return 0, err
	}
	return model.ID, nil
}

func (p *gormPublicationTx) InsertPhoto(photo domain.PropertyPhoto, meta domain.UploadMeta) (uint, error) {
	rawMeta, _ := json.Marshal(meta)
	model := PropertyPhotoModel{
		PropertyID: photo.PropertyID,
		StorageRef: photo.StorageRef,
		Primary:    photo.Primary,
		UploadMeta: rawMeta,
	}
	if err := p.tx.Create(&model).Error; err != nil {
		return 0, err
	}
	return model.ID, nil
}

func (p *gormPublicationTx) Commit() error {
	var err error
	p.once.Do(func() {
		err = p.tx.Commit().Error
	})
	return err
}

func (p *gormPublicationTx) Rollback() error {
	var err error
	p.once.Do(func() {
		err = p.tx.Rollback().Error
	})
	return err
}

// CreateInquiry inserts one inquiry and returns the assigned ID.
func (s *GormStore) CreateInquiry(inq domain.Inquiry) (uint, error) {
	model := InquiryModel{
		RequesterID: inq.RequesterID,
		PropertyID:  inq.PropertyID,
		CreatedAt:   inq.CreatedAt,
	}
	if err := s.db.Create(&model).Error; err != nil {
		return 0, err
	}
	return model.ID, nil
}

// HasInquiry reports whether the requester already inquired about the listing.
func (s *GormStore) HasInquiry(requesterID, propertyID uint) (bool, error) {
	var count int64
	err := s.db.Model(&InquiryModel{}).
		Where("requester_id = ? AND property_id = ?", requesterID, propertyID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetInquiry returns one inquiry by ID.
func (s *GormStore) GetInquiry(id uint) (domain.Inquiry, bool, error) {
	var model InquiryModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Inquiry{}, false, nil
		}
		return domain.Inquiry{}, false, err
	}
	return inquiryFromModel(model), true, nil
}

// ListInquiriesByRequester returns the inquiries one user has sent, newest
// first, each with the targeted listing and its publisher's contact.
func (s *GormStore) ListInquiriesByRequester(requesterID uint) ([]domain.InquiryWithProperty, error) {
	var models []InquiryModel
	if err := s.db.Where("requester_id = ?", requesterID).
		Order("created_at DESC, id DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.InquiryWithProperty, 0, len(models))
	for _, m := range models {
		view := domain.InquiryWithProperty{Inquiry: inquiryFromModel(m)}
		var property PropertyModel
		err := s.db.Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("es_principal DESC, id ASC")
		}).First(&property, "id = ?", m.PropertyID).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			return nil, err
		}
		if err == nil {
			view.PropertyTitle = property.Title
			view.PropertyAddress = property.Address
			if len(property.Photos) > 0 {
				view.PropertyPhoto = property.Photos[0].StorageRef
			}
			owner, ok, err := s.GetUserByID(property.PublisherID)
			if err != nil {
				return nil, err
			}
			if ok {
				view.OwnerName = owner.Name
				view.OwnerPhone = owner.Phone
				view.OwnerEmail = owner.Email
			}
		}
		res = append(res, view)
	}
	return res, nil
}

// ListInquiriesByProperty returns the inquiries one listing has received,
// newest first, each with the requester's contact.
func (s *GormStore) ListInquiriesByProperty(propertyID uint) ([]domain.InquiryWithRequester, error) {
	var models []InquiryModel
	if err := s.db.Where("property_id = ?", propertyID).
		Order("created_at DESC, id DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.InquiryWithRequester, 0, len(models))
	for _, m := range models {
		view := domain.InquiryWithRequester{Inquiry: inquiryFromModel(m)}
		requester, ok, err := s.GetUserByID(m.RequesterID)
		if err != nil {
			return nil, err
		}
		if ok {
			view.RequesterName = requester.Name
			view.RequesterPhone = requester.Phone
			view.RequesterEmail = requester.Email
		}
		res = append(res, view)
	}
	return res, nil
}

// DeleteInquiry removes one inquiry by ID.
func (s *GormStore) DeleteInquiry(id uint) error {
	return s.db.Delete(&InquiryModel{}, "id = ?", id).Error
}

func inquiryFromModel(m InquiryModel) domain.Inquiry {
	return domain.Inquiry{
		ID:          m.ID,
		RequesterID: m.RequesterID,
		PropertyID:  m.PropertyID,
		CreatedAt:   m.CreatedAt,
	}
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		RegisteredAt: u.RegisteredAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		Phone:        m.Phone,
		PasswordHash: m.PasswordHash,
		Role:         domain.UserRole(m.Role),
		RegisteredAt: m.RegisteredAt,
	}
}

func propertyToModel(p domain.Property) PropertyModel {
	return PropertyModel{
		ID:            p.ID,
		PublisherID:   p.PublisherID,
		Title:         p.Title,
		Description:   p.Description,
		OperationType: p.OperationType,
		PropertyType:  p.PropertyType,
		Price:         p.Price,
		Currency:      p.Currency,
		Address:       p.Address,
		City:          p.City,
		Country:       p.Country,
		Bathrooms:     p.Bathrooms,
		Bedrooms:      p.Bedrooms,
		AreaM2:        p.AreaM2,
		Status:        string(p.Status),
		PublishedAt:   p.PublishedAt,
	}
}

func propertyFromModel(m PropertyModel) domain.Property {
	photos := make([]domain.PropertyPhoto, 0, len(m.Photos))
	for _, ph := range m.Photos {
		photos = append(photos, domain.PropertyPhoto{
			ID:         ph.ID,
			PropertyID: ph.PropertyID,
			StorageRef: ph.StorageRef,
			Primary:    ph.Primary,
		})
	}
	return domain.Property{
		ID:            m.ID,
		PublisherID:   m.PublisherID,
		Title:         m.Title,
		Description:   m.Description,
		OperationType: m.OperationType,
		PropertyType:  m.PropertyType,
		Price:         m.Price,
		Currency:      m.Currency,
		Address:       m.Address,
		City:          m.City,
		Country:       m.Country,
		Bathrooms:     m.Bathrooms,
		Bedrooms:      m.Bedrooms,
		AreaM2:        m.AreaM2,
		Status:        domain.PropertyStatus(m.Status),
		PublishedAt:   m.PublishedAt,
		Photos:        photos,
	}
}
