package app

import (
	"context"
	"fmt"
	"time"

	"casaya/pkg/domain"
)

// CreateInquiry records a contact request from the authenticated user for
// one listing. The requester identity comes from the session, never from
// the request body. A requester sends at most one inquiry per listing.
func (a *App) CreateInquiry(ctx context.Context, requesterID, propertyID uint) (domain.Inquiry, error) {
	_, _, ok, err := a.store.GetProperty(propertyID)
	if err != nil {
		return domain.Inquiry{}, fmt.Errorf("check property: %w", err)
	}
	if !ok {
		return domain.Inquiry{}, ErrPropertyNotFound
	}
	exists, err := a.store.HasInquiry(requesterID, propertyID)
	if err != nil {
		return domain.Inquiry{}, fmt.Errorf("check inquiry: %w", err)
	}
	if exists {
		return domain.Inquiry{}, ErrDuplicateInquiry
	}
	inq := domain.Inquiry{
		RequesterID: requesterID,
		PropertyID:  propertyID,
		CreatedAt:   time.Now().UTC(),
	}
	id, err := a.store.CreateInquiry(inq)
	if err != nil {
		return domain.Inquiry{}, fmt.Errorf("create inquiry: %w", err)
	}
	inq.ID = id
	return inq, nil
}

// ListInquiriesByRequester returns the inquiries one user has sent, newest
// first, with the targeted listing and its publisher's contact.
func (a *App) ListInquiriesByRequester(ctx context.Context, requesterID uint) ([]domain.InquiryWithProperty, error) {
	inquiries, err := a.store.ListInquiriesByRequester(requesterID)
	if err != nil {
		return nil, fmt.Errorf("list inquiries by requester: %w", err)
	}
	return inquiries, nil
}

// ListInquiriesByProperty returns the inquiries one listing has received,
// newest first, with each requester's contact.
func (a *App) ListInquiriesByProperty(ctx context.Context, propertyID uint) ([]domain.InquiryWithRequester, error) {
	inquiries, err := a.store.ListInquiriesByProperty(propertyID)
	if err != nil {
		return nil, fmt.Errorf("list inquiries by property: %w", err)
	}
	return inquiries, nil
}

// DeleteInquiry withdraws an inquiry. Only the user who sent it may delete
// it.
func (a *App) DeleteInquiry(ctx context.Context, requesterID, inquiryID uint) error {
	inq, ok, err := a.store.GetInquiry(inquiryID)
	if err != nil {
		return fmt.Errorf("get inquiry: %w", err)
	}
	if !ok {
		return ErrInquiryNotFound
	}
	if inq.RequesterID != requesterID {
		return ErrNotInquiryOwner
	}
	if err := a.store.DeleteInquiry(inquiryID); err != nil {
		return fmt.Errorf("delete inquiry: %w", err)
	}
	return nil
}
