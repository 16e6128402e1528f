package store

import (
	"context"

	"casaya/pkg/domain"
)

// Store defines persistence operations for users and listings.
type Store interface {
	// users
	SaveUser(u domain.User) (uint, error)
	HasUserEmail(email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id uint) (domain.User, bool, error)

	// listings, read side
	ListProperties() ([]domain.Property, error)
	ListPropertiesByPublisher(publisherID uint) ([]domain.Property, error)
	GetProperty(id uint) (domain.Property, domain.Contact, bool, error)

	// publication, write side
	BeginPublication(ctx context.Context) (PublicationTx, error)

	// inquiries
	CreateInquiry(inq domain.Inquiry) (uint, error)
	HasInquiry(requesterID, propertyID uint) (bool, error)
	GetInquiry(id uint) (domain.Inquiry, bool, error)
	ListInquiriesByRequester(requesterID uint) ([]domain.InquiryWithProperty, error)
	ListInquiriesByProperty(propertyID uint) ([]domain.InquiryWithRequester, error)
	DeleteInquiry(id uint) error
}

// PublicationTx scopes one property publication to a single database
// transaction. Rows inserted through it become visible only on Commit;
// Rollback restores the pre-request state. Rollback after Commit (or a
// second Rollback) is a no-op so deferred cleanup stays safe.
type PublicationTx interface {
	InsertProperty(p domain.Property) (uint, error)
	InsertPhoto(photo domain.PropertyPhoto, meta domain.UploadMeta) (uint, error)
	Commit() error
	Rollback() error
}

// SessionStore tracks issued access tokens so they can be revoked.
type SessionStore interface {
	Save(ctx context.Context, token string, userID uint) error
	Check(ctx context.Context, token string) (uint, bool, error)
	Delete(ctx context.Context, token string) error
}
