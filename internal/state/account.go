// package state keeps in-memory session, account, watchlist and notification state consistent with the
// documents persisted in a [store.Store].
//
// Key types:
//   - [Lifecycle] : sign-up, payment, sign-in/out, profile and password changes
//   - [Reconciler] : the watchlist, resynchronized when another context writes it
//   - [Notifications] : capped, deduplicated notification feed
//   - [TrendingNotifier] : turns new trending titles into notifications
package state

import (
	"encoding/json"

	"github.com/desertthunder/streamsavvy/internal/models"
	"github.com/desertthunder/streamsavvy/internal/store"
)

// accountUser and accountDoc accept both the account and the session document shapes. Pointer fields distinguish
// an absent value from an empty one so the precedence chain only falls through on absence.
type accountUser struct {
	ID                  *string `json:"id"`
	FullName            *string `json:"fullName"`
	Email               *string `json:"email"`
	Password            *string `json:"password"`
	HasCompletedPayment *bool   `json:"hasCompletedPayment"`
}

type accountDoc struct {
	accountUser
	User *accountUser `json:"user"`
}

func firstString(vals ...*string) string {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return ""
}

func firstBool(vals ...*bool) bool {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return false
}

// NormalizeAccount produces the canonical account view from an account-shaped or session-shaped document.
//
// Identity fields come from the nested user object, then the top-level fields, then "". The payment flag comes
// from the top level, then the nested user, then false. Invalid JSON yields the zero account. A plaintext
// password in the input is never carried into the result.
func NormalizeAccount(raw []byte) models.Account {
	var doc accountDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return models.Account{}
	}

	nested := doc.User
	if nested == nil {
		nested = &accountUser{}
	}

	return models.Account{
		User: models.UserRef{
			ID:       firstString(nested.ID, doc.ID),
			FullName: firstString(nested.FullName, doc.FullName),
			Email:    firstString(nested.Email, doc.Email),
		},
		HasCompletedPayment: firstBool(doc.HasCompletedPayment, nested.HasCompletedPayment),
	}
}

// NormalizeValue marshals v and normalizes it with [NormalizeAccount].
func NormalizeValue(v any) models.Account {
	raw, err := json.Marshal(v)
	if err != nil {
		return models.Account{}
	}
	return NormalizeAccount(raw)
}

// PersistAccount normalizes data and writes the account document. Failures are logged by the store.
func PersistAccount(s *store.Store, data any) models.Account {
	account := NormalizeValue(data)
	s.Write(store.KeyAccount, account)
	return account
}

// loadAccount reads and normalizes the account document.
func loadAccount(s *store.Store) (models.Account, bool) {
	var raw json.RawMessage
	if !s.Read(store.KeyAccount, &raw) {
		return models.Account{}, false
	}
	return NormalizeAccount(raw), true
}
