package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"casaya/pkg/domain"
)

// MemoryStore keeps everything in-process. It backs tests and local runs
// without Postgres, and mirrors the transactional visibility rules of the
// real store: publication inserts land only on Commit.
type MemoryStore struct {
	mu         sync.RWMutex
	users       map[uint]domain.User
	emails      map[string]uint
	properties  map[uint]domain.Property
	photos      map[uint][]domain.PropertyPhoto
	inquiries   map[uint]domain.Inquiry
	nextUser    uint
	nextProp    uint
	nextPhoto   uint
	nextInquiry uint

	// Failure injection for coordinator tests.
	FailPropertyInsert bool
	FailPhotoInsertAt  int // 1-based photo insert that fails; 0 disables
}

var errInjected = errors.New("injected repository failure")

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[uint]domain.User),
		emails:     make(map[string]uint),
		properties: make(map[uint]domain.Property),
		photos:     make(map[uint][]domain.PropertyPhoto),
		inquiries:  make(map[uint]domain.Inquiry),
	}
}

func (m *MemoryStore) SaveUser(u domain.User) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.emails[u.Email]; exists {
		return 0, errors.New("duplicate email")
	}
	m.nextUser++
	u.ID = m.nextUser
	m.users[u.ID] = u
	m.emails[u.Email] = u.ID
	return u.ID, nil
}

func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.emails[email]
	return ok, nil
}

func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.emails[email]
	if !ok {
		return domain.User{}, false, nil
	}
	return m.users[id], true, nil
}

func (m *MemoryStore) GetUserByID(id uint) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *MemoryStore) ListProperties() ([]domain.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Property, 0, len(m.properties))
	for _, p := range m.properties {
		if p.Status != domain.StatusActive {
			continue
		}
		p.Photos = m.sortedPhotos(p.ID)
		res = append(res, p)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].PublishedAt.Equal(res[j].PublishedAt) {
			return res[i].ID > res[j].ID
		}
		return res[i].PublishedAt.After(res[j].PublishedAt)
	})
	return res, nil
}

func (m *MemoryStore) ListPropertiesByPublisher(publisherID uint) ([]domain.Property, error) {
	all, err := m.ListProperties()
	if err != nil {
		return nil, err
	}
	res := all[:0]
	for _, p := range all {
		if p.PublisherID == publisherID {
			res = append(res, p)
		}
	}
	return res, nil
}

func (m *MemoryStore) GetProperty(id uint) (domain.Property, domain.Contact, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.properties[id]
	if !ok {
		return domain.Property{}, domain.Contact{}, false, nil
	}
	p.Photos = m.sortedPhotos(id)
	var contact domain.Contact
	if u, ok := m.users[p.PublisherID]; ok {
		contact = domain.Contact{Name: u.Name, Phone: u.Phone, Email: u.Email}
	}
	return p, contact, true, nil
}

// FindPropertyByTitle reports whether a committed listing with the title
// exists. Used by tests asserting compensation left no trace.
func (m *MemoryStore) FindPropertyByTitle(title string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.properties {
		if p.Title == title {
			return true
		}
	}
	return false
}

func (m *MemoryStore) CreateInquiry(inq domain.Inquiry) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.inquiries {
		if existing.RequesterID == inq.RequesterID && existing.PropertyID == inq.PropertyID {
			return 0, errors.New("duplicate inquiry")
		}
	}
	m.nextInquiry++
	inq.ID = m.nextInquiry
	m.inquiries[inq.ID] = inq
	return inq.ID, nil
}

func (m *MemoryStore) HasInquiry(requesterID, propertyID uint) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, inq := range m.inquiries {
		if inq.RequesterID == requesterID && inq.PropertyID == propertyID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) GetInquiry(id uint) (domain.Inquiry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inq, ok := m.inquiries[id]
	return inq, ok, nil
}

func (m *MemoryStore) ListInquiriesByRequester(requesterID uint) ([]domain.InquiryWithProperty, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.InquiryWithProperty, 0)
	for _, inq := range m.inquiries {
		if inq.RequesterID != requesterID {
			continue
		}
		view := domain.InquiryWithProperty{Inquiry: inq}
		if p, ok := m.properties[inq.PropertyID]; ok {
			view.PropertyTitle = p.Title
			view.PropertyAddress = p.Address
			if photos := m.sortedPhotos(p.ID); len(photos) > 0 {
				view.PropertyPhoto = photos[0].StorageRef
			}
			if owner, ok := m.users[p.PublisherID]; ok {
				view.OwnerName = owner.Name
				view.OwnerPhone = owner.Phone
				view.OwnerEmail = owner.Email
			}
		}
		res = append(res, view)
	}
	sortInquiriesNewestFirst(res, func(v domain.InquiryWithProperty) domain.Inquiry { return v.Inquiry })
	return res, nil
}

func (m *MemoryStore) ListInquiriesByProperty(propertyID uint) ([]domain.InquiryWithRequester, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.InquiryWithRequester, 0)
	for _, inq := range m.inquiries {
		if inq.PropertyID != propertyID {
			continue
		}
		view := domain.InquiryWithRequester{Inquiry: inq}
		if requester, ok := m.users[inq.RequesterID]; ok {
			view.RequesterName = requester.Name
			view.RequesterPhone = requester.Phone
			view.RequesterEmail = requester.Email
		}
		res = append(res, view)
	}
	sortInquiriesNewestFirst(res, func(v domain.InquiryWithRequester) domain.Inquiry { return v.Inquiry })
	return res, nil
}

func (m *MemoryStore) DeleteInquiry(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inquiries, id)
	return nil
}

func sortInquiriesNewestFirst[T any](views []T, inquiry func(T) domain.Inquiry) {
	sort.Slice(views, func(i, j int) bool {
		a, b := inquiry(views[i]), inquiry(views[j])
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID > b.ID
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

func (m *MemoryStore) sortedPhotos(propertyID uint) []domain.PropertyPhoto {
	photos := append([]domain.PropertyPhoto(nil), m.photos[propertyID]...)
	sort.Slice(photos, func(i, j int) bool {
		if photos[i].Primary != photos[j].Primary {
			return photos[i].Primary
		}
		return photos[i].ID < photos[j].ID
	})
	return photos
}

// BeginPublication returns a buffering transaction; inserts become visible
// only when Commit is called.
func (m *MemoryStore) BeginPublication(context.Context) (PublicationTx, error) {
	return &memoryPublicationTx{store: m}, nil
}

type memoryPublicationTx struct {
	store    *MemoryStore
	property *domain.Property
	photos   []domain.PropertyPhoto
	inserts  int
	done     bool
}

func (t *memoryPublicationTx) InsertProperty(p domain.Property) (uint, error) {
	if t.store.FailPropertyInsert {
		return 0, errInjected
	}
	t.store.mu.Lock()
	t.store.nextProp++
	p.ID = t.store.nextProp
	t.store.mu.Unlock()
	t.property = &p
	return p.ID, nil
}

func (t *memoryPublicationTx) InsertPhoto(photo domain.PropertyPhoto, _ domain.UploadMeta) (uint, error) {
	t.inserts++
	if t.store.FailPhotoInsertAt > 0 && t.inserts == t.store.FailPhotoInsertAt {
		return 0, errInjected
	}
	t.store.mu.Lock()
	t.store.nextPhoto++
	photo.ID = t.store.nextPhoto
	t.store.mu.Unlock()
	t.photos = append(t.photos, photo)
	return photo.ID, nil
}

func (t *memoryPublicationTx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.property != nil {
		t.store.properties[t.property.ID] = *t.property
		t.store.photos[t.property.ID] = append(t.store.photos[t.property.ID], t.photos...)
	}
	return nil
}

func (t *memoryPublicationTx) Rollback() error {
	t.done = true
	t.property = nil
	t.photos = nil
	return nil
}
