package app

import (
	"context"
	"fmt"

	"casaya/pkg/domain"
)

// PropertyDetail is one listing together with its publisher contact.
type PropertyDetail struct {
	Property domain.Property
	Contact  domain.Contact
}

// ListProperties returns all active listings, newest first, each with its
// photo references (primary first).
func (a *App) ListProperties(ctx context.Context) ([]domain.Property, error) {
	properties, err := a.store.ListProperties()
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	return properties, nil
}

// ListPropertiesByPublisher returns one publisher's listings, newest first.
func (a *App) ListPropertiesByPublisher(ctx context.Context, publisherID uint) ([]domain.Property, error) {
	properties, err := a.store.ListPropertiesByPublisher(publisherID)
	if err != nil {
		return nil, fmt.Errorf("list properties by publisher: %w", err)
	}
	return properties, nil
}

// GetProperty returns one listing with photos and publisher contact.
func (a *App) GetProperty(ctx context.Context, id uint) (PropertyDetail, error) {
	property, contact, ok, err := a.store.GetProperty(id)
	if err != nil {
		return PropertyDetail{}, fmt.Errorf("get property: %w", err)
	}
	if !ok {
		return PropertyDetail{}, ErrPropertyNotFound
	}
	return PropertyDetail{Property: property, Contact: contact}, nil
}
