package repositories

import (
	"bytes"
	"errors"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/streamsavvy/internal/models"
	"github.com/desertthunder/streamsavvy/internal/shared"
	"github.com/desertthunder/streamsavvy/internal/store"
)

// setupTestStore creates a store over an in-memory substrate
func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(store.NewMemorySubstrate(), log.New(&bytes.Buffer{}))
}

func TestIdentityRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewIdentityRepository(setupTestStore(t))
		identity := &models.Identity{FullName: "Ada", Email: "ada@x.com", PasswordHash: "h"}

		if err := repo.Create(identity); err != nil {
			t.Fatalf("failed to create identity: %v", err)
		}
		if identity.ID == "" {
			t.Error("identity ID should be set after creation")
		}
		if identity.CreatedAt == "" {
			t.Error("createdAt should be set after creation")
		}
		if repo.Count() != 1 {
			t.Errorf("expected 1 identity, got %d", repo.Count())
		}
	})

	t.Run("Create duplicate email", func(t *testing.T) {
		s := setupTestStore(t)
		repo := NewIdentityRepository(s)
		if err := repo.Create(&models.Identity{FullName: "Ada", Email: "ada@x.com"}); err != nil {
			t.Fatal(err)
		}

		var before []models.Identity
		s.Read(store.KeyIdentities, &before)

		err := repo.Create(&models.Identity{FullName: "Other Ada", Email: " ADA@x.com "})
		if !errors.Is(err, shared.ErrDuplicateEmail) {
			t.Fatalf("expected ErrDuplicateEmail, got %v", err)
		}

		var after []models.Identity
		s.Read(store.KeyIdentities, &after)
		if len(after) != len(before) || after[0] != before[0] {
			t.Error("collection must not change on duplicate sign-up")
		}
	})

	t.Run("Get and FindByEmail", func(t *testing.T) {
		repo := NewIdentityRepository(setupTestStore(t))
		identity := &models.Identity{FullName: "Ada", Email: "ada@x.com"}
		repo.Create(identity)

		got, err := repo.Get(identity.ID)
		if err != nil {
			t.Fatalf("failed to get identity: %v", err)
		}
		if got.Email != "ada@x.com" {
			t.Errorf("expected email ada@x.com, got %s", got.Email)
		}

		byEmail, err := repo.FindByEmail("Ada@X.com")
		if err != nil || byEmail.ID != identity.ID {
			t.Errorf("FindByEmail() = %+v, %v", byEmail, err)
		}

		if _, err := repo.Get("missing"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if _, err := repo.FindByEmail("nobody@x.com"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewIdentityRepository(setupTestStore(t))
		ada := &models.Identity{FullName: "Ada", Email: "ada@x.com"}
		bob := &models.Identity{FullName: "Bob", Email: "bob@x.com"}
		repo.Create(ada)
		repo.Create(bob)

		ada.FullName = "Ada Lovelace"
		ada.HasCompletedPayment = true
		if err := repo.Update(ada); err != nil {
			t.Fatalf("failed to update identity: %v", err)
		}
		got, _ := repo.Get(ada.ID)
		if got.FullName != "Ada Lovelace" || !got.HasCompletedPayment {
			t.Errorf("update not applied: %+v", got)
		}

		bob.Email = "ada@x.com"
		if err := repo.Update(bob); !errors.Is(err, shared.ErrDuplicateEmail) {
			t.Errorf("expected ErrDuplicateEmail, got %v", err)
		}

		ghost := &models.Identity{ID: "ghost", Email: "ghost@x.com"}
		if err := repo.Update(ghost); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewIdentityRepository(setupTestStore(t))
		identity := &models.Identity{FullName: "Ada", Email: "ada@x.com"}
		repo.Create(identity)

		if err := repo.Delete(identity.ID); err != nil {
			t.Fatalf("failed to delete identity: %v", err)
		}
		if err := repo.Delete(identity.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
		if repo.Count() != 0 {
			t.Errorf("expected empty collection, got %d", repo.Count())
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewIdentityRepository(setupTestStore(t))
		repo.Create(&models.Identity{FullName: "Ada", Email: "ada@x.com"})
		repo.Create(&models.Identity{FullName: "Bob", Email: "bob@x.com"})

		all, err := repo.List(nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 2 || all[0].FullName != "Ada" || all[1].FullName != "Bob" {
			t.Errorf("expected registration order, got %+v", all)
		}

		filtered, _ := repo.List(map[string]any{"email": "BOB@x.com"})
		if len(filtered) != 1 || filtered[0].FullName != "Bob" {
			t.Errorf("expected only Bob, got %+v", filtered)
		}
	})

	t.Run("shared between contexts", func(t *testing.T) {
		sub := store.NewMemorySubstrate()
		first := NewIdentityRepository(store.New(sub, log.New(&bytes.Buffer{})))
		second := NewIdentityRepository(store.New(sub, log.New(&bytes.Buffer{})))

		first.Create(&models.Identity{FullName: "Ada", Email: "ada@x.com"})
		if err := second.Create(&models.Identity{FullName: "Ada", Email: "ada@x.com"}); !errors.Is(err, shared.ErrDuplicateEmail) {
			t.Errorf("second context should see the first identity, got %v", err)
		}
	})

	t.Run("corrupt collection reads as empty", func(t *testing.T) {
		sub := store.NewMemorySubstrate()
		sub.Set(store.KeyIdentities, []byte("[{broken"))
		repo := NewIdentityRepository(store.New(sub, log.New(&bytes.Buffer{})))

		if repo.Count() != 0 {
			t.Errorf("expected empty collection, got %d", repo.Count())
		}
		if err := repo.Create(&models.Identity{FullName: "Ada", Email: "ada@x.com"}); err != nil {
			t.Errorf("create over corrupt data should succeed: %v", err)
		}
	})

	t.Run("SeedDemo", func(t *testing.T) {
		repo := NewIdentityRepository(setupTestStore(t))
		demo, err := repo.SeedDemo("hash")
		if err != nil {
			t.Fatalf("SeedDemo failed: %v", err)
		}
		if demo.Email != DemoEmail {
			t.Errorf("expected demo email, got %s", demo.Email)
		}
		if _, err := repo.SeedDemo("hash"); !errors.Is(err, shared.ErrDuplicateEmail) {
			t.Errorf("second seed should report duplicate, got %v", err)
		}
	})
}
