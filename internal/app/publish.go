package app

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/url"
	"time"

	"casaya/internal/util"
	"casaya/pkg/domain"
	"casaya/pkg/events"
)

// PublicationResult reports a committed publication.
type PublicationResult struct {
	PropertyID uint
	ImageCount int
}

// PublishProperty ingests one property submission: metadata plus uploaded
// images, atomically across the database and image storage.
//
// The database transaction and the image store do not share a transaction
// manager, so all-or-nothing is enforced by ordering plus compensation: the
// property row is inserted first, then each image is stored and its photo
// row inserted in submission order. Every stored reference is tracked for
// the duration of the request; on any failure after the transaction opens
// the transaction is rolled back and exactly those files are deleted again,
// in reverse order of creation. The first successfully stored image becomes
// the primary photo. A property is never committed with zero photos.
func (a *App) PublishProperty(ctx context.Context, publisherID uint, values url.Values, form *multipart.Form) (PublicationResult, error) {
	req, err := ParsePublication(publisherID, values)
	if err != nil {
		return PublicationResult{}, err
	}
	files, err := NormalizeImages(form)
	if err != nil {
		return PublicationResult{}, err
	}

	logger := util.LoggerFromContext(ctx)
	now := time.Now().UTC()

	tx, err := a.store.BeginPublication(ctx)
	if err != nil {
		return PublicationResult{}, fmt.Errorf("begin publication: %w", err)
	}

	var storedRefs []string
	abort := func(cause error) (PublicationResult, error) {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("publication rollback failed", "err", rbErr)
		}
		// Reverse order of creation, best-effort: an individual delete
		// failure is logged, not returned, so compensation always runs
		// to completion.
		for i := len(storedRefs) - 1; i >= 0; i-- {
			if rmErr := a.images.Remove(ctx, storedRefs[i]); rmErr != nil {
				logger.Warn("compensation delete failed", "ref", storedRefs[i], "err", rmErr)
			}
		}
		return PublicationResult{}, cause
	}

	propertyID, err := tx.InsertProperty(req.property(now))
	if err != nil {
		return abort(fmt.Errorf("insert property: %w", err))
	}

	stored := 0
	for _, f := range files {
		if f.Dead {
			continue
		}
		src, err := f.Open()
		if err != nil {
			return abort(fmt.Errorf("open upload %q: %w", f.OriginalName, err))
		}
		ref, err := a.images.Save(ctx, f.OriginalName, f.ContentType, src, f.SizeBytes)
		src.Close()
		if err != nil {
			return abort(fmt.Errorf("store image %q: %w", f.OriginalName, err))
		}
		storedRefs = append(storedRefs, ref)

		photo := domain.PropertyPhoto{
			PropertyID: propertyID,
			StorageRef: ref,
			Primary:    stored == 0,
		}
		meta := domain.UploadMeta{
			OriginalName: f.OriginalName,
			ContentType:  f.ContentType,
			SizeBytes:    f.SizeBytes,
		}
		if _, err := tx.InsertPhoto(photo, meta); err != nil {
			return abort(fmt.Errorf("insert photo: %w", err))
		}
		stored++
	}

	if stored == 0 {
		return abort(ErrZeroImages)
	}
	if err := tx.Commit(); err != nil {
		return abort(fmt.Errorf("commit publication: %w", err))
	}

	if err := a.events.PublishListing(ctx, events.ListingPublished{
		PropertyID:  propertyID,
		PublisherID: publisherID,
		City:        req.City,
		Price:       req.Price,
		ImageCount:  stored,
		PublishedAt: now,
	}); err != nil {
		logger.Warn("listing event publish failed", "id_propiedad", propertyID, "err", err)
	}

	logger.Info("property published", "id_propiedad", propertyID, "imagenes", stored)
	return PublicationResult{PropertyID: propertyID, ImageCount: stored}, nil
}
