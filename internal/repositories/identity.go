// package repositories provides persistence for the identity collection.
//
// The collection is a single JSON array stored under [store.KeyIdentities]. Every operation re-reads the
// array from the store so that identities registered by another context are visible immediately.
package repositories

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/streamsavvy/internal/models"
	"github.com/desertthunder/streamsavvy/internal/shared"
	"github.com/desertthunder/streamsavvy/internal/store"
)

var _ models.Repository[*models.Identity] = (*IdentityRepository)(nil)

// IdentityRepository implements [models.Repository] for [models.Identity] records.
type IdentityRepository struct {
	store *store.Store
	now   func() time.Time

	mu sync.Mutex
}

// NewIdentityRepository creates a new [IdentityRepository] over the given store.
func NewIdentityRepository(s *store.Store) *IdentityRepository {
	return &IdentityRepository{store: s, now: time.Now}
}

func (r *IdentityRepository) load() []models.Identity {
	var identities []models.Identity
	r.store.Read(store.KeyIdentities, &identities)
	return identities
}

func (r *IdentityRepository) save(identities []models.Identity) {
	if identities == nil {
		identities = []models.Identity{}
	}
	r.store.Write(store.KeyIdentities, identities)
}

func indexByEmail(identities []models.Identity, email string) int {
	email = models.NormalizeEmail(email)
	for i, identity := range identities {
		if models.NormalizeEmail(identity.Email) == email {
			return i
		}
	}
	return -1
}

func indexByID(identities []models.Identity, id string) int {
	for i, identity := range identities {
		if identity.ID == id {
			return i
		}
	}
	return -1
}

// Create assigns an id and creation time, then appends the identity.
//
// Fails with [shared.ErrDuplicateEmail] and leaves the collection unchanged if the email is taken.
func (r *IdentityRepository) Create(identity *models.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity.Email = strings.TrimSpace(identity.Email)
	identities := r.load()
	if indexByEmail(identities, identity.Email) >= 0 {
		return fmt.Errorf("%w: %s", shared.ErrDuplicateEmail, identity.Email)
	}

	identity.ID = shared.GenerateID()
	if identity.CreatedAt == "" {
		identity.CreatedAt = r.now().UTC().Format(time.RFC3339)
	}

	if err := identity.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	r.save(append(identities, *identity))
	return nil
}

// Get retrieves an identity by id.
func (r *IdentityRepository) Get(id string) (*models.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identities := r.load()
	i := indexByID(identities, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: identity %s", shared.ErrNotFound, id)
	}
	identity := identities[i]
	return &identity, nil
}

// FindByEmail retrieves an identity by case-insensitive email.
func (r *IdentityRepository) FindByEmail(email string) (*models.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identities := r.load()
	i := indexByEmail(identities, email)
	if i < 0 {
		return nil, fmt.Errorf("%w: identity with email %s", shared.ErrNotFound, email)
	}
	identity := identities[i]
	return &identity, nil
}

// Update replaces the identity with the same id. Changing the email to one held by another identity fails with
// [shared.ErrDuplicateEmail].
func (r *IdentityRepository) Update(identity *models.Identity) error {
	if err := identity.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	identities := r.load()
	i := indexByID(identities, identity.ID)
	if i < 0 {
		return fmt.Errorf("%w: identity %s", shared.ErrNotFound, identity.ID)
	}

	if j := indexByEmail(identities, identity.Email); j >= 0 && j != i {
		return fmt.Errorf("%w: %s", shared.ErrDuplicateEmail, identity.Email)
	}

	identities[i] = *identity
	r.save(identities)
	return nil
}

// Delete removes an identity by id.
func (r *IdentityRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	identities := r.load()
	i := indexByID(identities, id)
	if i < 0 {
		return fmt.Errorf("%w: identity %s", shared.ErrNotFound, id)
	}

	r.save(append(identities[:i], identities[i+1:]...))
	return nil
}

// List returns identities in registration order. The "email" criterion filters by email.
func (r *IdentityRepository) List(criteria map[string]any) ([]*models.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email, _ := criteria["email"].(string)

	var result []*models.Identity
	for _, identity := range r.load() {
		if email != "" && models.NormalizeEmail(identity.Email) != models.NormalizeEmail(email) {
			continue
		}
		result = append(result, &identity)
	}
	return result, nil
}

// Count returns the number of stored identities.
func (r *IdentityRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.load())
}

// SeedDemo registers the demo identity if its email is free. hash is the encoded credential for the demo password.
func (r *IdentityRepository) SeedDemo(hash string) (*models.Identity, error) {
	demo := &models.Identity{
		FullName:     DemoFullName,
		Email:        DemoEmail,
		PasswordHash: hash,
	}
	if err := r.Create(demo); err != nil {
		return nil, err
	}
	return demo, nil
}

// Demo identity registered by [IdentityRepository.SeedDemo].
const (
	DemoFullName = "Test User"
	DemoEmail    = "test@example.com"
	DemoPassword = "password123"
)
