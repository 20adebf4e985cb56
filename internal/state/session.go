package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/streamsavvy/internal/credentials"
	"github.com/desertthunder/streamsavvy/internal/models"
	"github.com/desertthunder/streamsavvy/internal/repositories"
	"github.com/desertthunder/streamsavvy/internal/shared"
	"github.com/desertthunder/streamsavvy/internal/store"
)

// BreachChecker reports how many times a password appears in known breaches.
type BreachChecker interface {
	Count(ctx context.Context, password string) (int, error)
}

// BreachReport is the soft warning attached to sign-up and password changes.
type BreachReport struct {
	Checked bool
	Count   int
}

// Breached reports whether the password was found in a breach.
func (b BreachReport) Breached() bool { return b.Count > 0 }

// SignUpInput is the registration form.
type SignUpInput struct {
	FullName string `validate:"required,max=100"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

// SignUpResult is returned by [Lifecycle.SignUp].
type SignUpResult struct {
	User   models.UserRef
	Breach BreachReport
}

// ProfileUpdate holds the fields to change; nil fields are kept.
type ProfileUpdate struct {
	FullName *string `validate:"omitempty,min=1,max=100"`
	Email    *string `validate:"omitempty,email"`
}

type newPassword struct {
	Password string `validate:"required,min=8"`
}

// Lifecycle is the session state machine.
//
// In memory it holds the session flags and the current [models.Phase]. Every mutation updates memory first and
// then writes the session and account documents through the store.
type Lifecycle struct {
	store      *store.Store
	identities *repositories.IdentityRepository
	verifier   credentials.Verifier
	breach     BreachChecker
	logger     *log.Logger

	mu      sync.Mutex
	session models.Session
	phase   models.Phase
}

// LifecycleOpts wires the lifecycle's collaborators. Breach may be nil to skip breach checks.
type LifecycleOpts struct {
	Store      *store.Store
	Identities *repositories.IdentityRepository
	Verifier   credentials.Verifier
	Breach     BreachChecker
	Logger     *log.Logger
}

// NewLifecycle creates a Lifecycle and loads the persisted session and account documents.
func NewLifecycle(opts LifecycleOpts) *Lifecycle {
	if opts.Identities == nil {
		opts.Identities = repositories.NewIdentityRepository(opts.Store)
	}
	if opts.Verifier == nil {
		opts.Verifier = credentials.NewHasher(credentials.DefaultParams)
	}
	if opts.Logger == nil {
		opts.Logger = opts.Store.Logger()
	}

	l := &Lifecycle{
		store:      opts.Store,
		identities: opts.Identities,
		verifier:   opts.Verifier,
		breach:     opts.Breach,
		logger:     opts.Logger,
	}
	l.load()
	return l
}

// load derives the in-memory session from the persisted documents.
//
// A session document wins for every flag it sets; unset flags fall back to the account document. With only an
// account document the user is remembered as signed up but not authenticated.
func (l *Lifecycle) load() {
	l.mu.Lock()
	defer l.mu.Unlock()

	var persisted models.Session
	hasSession := l.store.Read(store.KeySession, &persisted)
	account, hasAccount := loadAccount(l.store)

	switch {
	case hasSession:
		l.session = models.Session{
			IsAuthenticated:     persisted.IsAuthenticated,
			HasCompletedSignUp:  persisted.HasCompletedSignUp || hasAccount,
			HasCompletedPayment: persisted.HasCompletedPayment || (hasAccount && account.HasCompletedPayment),
			User:                persisted.User,
		}
		if l.session.User == nil && hasAccount {
			user := account.User
			l.session.User = &user
		}
	case hasAccount:
		user := account.User
		l.session = models.Session{
			HasCompletedSignUp:  true,
			HasCompletedPayment: account.HasCompletedPayment,
			User:                &user,
		}
	default:
		l.session = models.Session{}
	}

	if err := l.session.Validate(); err != nil {
		l.logger.Warn("discarding inconsistent session", "error", err)
		l.session.IsAuthenticated = false
	}

	l.phase = phaseOf(l.session)
}

func phaseOf(s models.Session) models.Phase {
	switch {
	case s.IsAuthenticated:
		return models.PhaseAuthenticated
	case s.HasCompletedSignUp && s.HasCompletedPayment:
		return models.PhaseSignedUpPaid
	case s.HasCompletedSignUp:
		return models.PhaseSignedUpUnpaid
	default:
		return models.PhaseAnonymous
	}
}

// persistSession must be called with mu held.
func (l *Lifecycle) persistSession() {
	l.store.Write(store.KeySession, l.session)
}

// persistBoth must be called with mu held.
func (l *Lifecycle) persistBoth() {
	l.persistSession()
	if l.session.User != nil {
		PersistAccount(l.store, models.Account{User: *l.session.User, HasCompletedPayment: l.session.HasCompletedPayment})
	}
}

// clear must be called with mu held.
func (l *Lifecycle) clear() {
	l.session = models.Session{}
	l.phase = models.PhaseSignedOut
	l.store.Remove(store.KeySession)
	l.store.Remove(store.KeyAccount)
}

func (l *Lifecycle) checkBreach(ctx context.Context, password string) BreachReport {
	if l.breach == nil {
		return BreachReport{}
	}
	count, err := l.breach.Count(ctx, password)
	if err != nil {
		l.logger.Warn("breach check failed", "error", err)
		return BreachReport{}
	}
	if count > 0 {
		l.logger.Warn("password found in known breaches", "count", count)
	}
	return BreachReport{Checked: true, Count: count}
}

// verify checks plain against the identity's credential and upgrades legacy or outdated hashes in place.
func (l *Lifecycle) verify(identity *models.Identity, plain string) bool {
	switch {
	case identity.PasswordHash != "":
		ok, err := l.verifier.Verify(plain, identity.PasswordHash)
		if err != nil {
			l.logger.Warn("stored credential is unreadable", "id", identity.ID, "error", err)
			return false
		}
		if ok && l.verifier.NeedsRehash(identity.PasswordHash) {
			l.rehash(identity, plain)
		}
		return ok
	case identity.LegacyPassword != "":
		if !credentials.VerifyLegacy(plain, identity.LegacyPassword) {
			return false
		}
		l.rehash(identity, plain)
		return true
	default:
		return false
	}
}

func (l *Lifecycle) rehash(identity *models.Identity, plain string) {
	hash, err := l.verifier.Hash(plain)
	if err != nil {
		l.logger.Warn("failed to upgrade credential", "id", identity.ID, "error", err)
		return
	}
	identity.PasswordHash = hash
	identity.LegacyPassword = ""
	if err := l.identities.Update(identity); err != nil {
		l.logger.Warn("failed to store upgraded credential", "id", identity.ID, "error", err)
	}
}

// SignUp registers a new identity and authenticates it pending payment.
func (l *Lifecycle) SignUp(ctx context.Context, in SignUpInput) (*SignUpResult, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	if err := shared.ValidateStruct(in); err != nil {
		return nil, err
	}

	hash, err := l.verifier.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	l.mu.Lock()
	identity := &models.Identity{FullName: in.FullName, Email: in.Email, PasswordHash: hash}
	if err := l.identities.Create(identity); err != nil {
		l.mu.Unlock()
		return nil, err
	}

	ref := identity.Ref()
	l.session = models.Session{
		IsAuthenticated:     true,
		HasCompletedSignUp:  true,
		HasCompletedPayment: identity.HasCompletedPayment,
		User:                &ref,
	}
	l.phase = models.PhaseSignedUpUnpaid
	l.persistBoth()
	l.mu.Unlock()

	l.logger.Info("signed up", "id", ref.ID, "email", ref.Email)
	return &SignUpResult{User: ref, Breach: l.checkBreach(ctx, in.Password)}, nil
}

// CompletePayment marks the bound user as paid.
func (l *Lifecycle) CompletePayment(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.session.User == nil || l.session.User.ID == "" {
		return shared.ErrNoActiveUser
	}

	identity, err := l.identities.Get(l.session.User.ID)
	if err != nil {
		return err
	}
	identity.HasCompletedPayment = true
	if err := l.identities.Update(identity); err != nil {
		return err
	}

	l.session.HasCompletedPayment = true
	l.session.HasCompletedSignUp = true
	if l.phase == models.PhaseSignedUpUnpaid {
		l.phase = models.PhaseSignedUpPaid
	}
	l.persistBoth()

	l.logger.Info("payment completed", "id", identity.ID)
	return nil
}

// SignIn authenticates by email and password. On failure the session is left untouched.
func (l *Lifecycle) SignIn(ctx context.Context, email, password string) (models.UserRef, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	identity, err := l.identities.FindByEmail(email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return models.UserRef{}, shared.ErrInvalidCredentials
		}
		return models.UserRef{}, err
	}
	if !l.verify(identity, password) {
		return models.UserRef{}, shared.ErrInvalidCredentials
	}

	ref := identity.Ref()
	l.session = models.Session{
		IsAuthenticated:     true,
		HasCompletedSignUp:  true,
		HasCompletedPayment: identity.HasCompletedPayment,
		User:                &ref,
	}
	l.phase = models.PhaseAuthenticated
	l.persistBoth()

	l.logger.Info("signed in", "id", ref.ID)
	return ref, nil
}

// SignOut clears the session and removes both persisted documents.
func (l *Lifecycle) SignOut() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clear()
}

// UpdateProfile merges fields into the signed-in identity.
func (l *Lifecycle) UpdateProfile(ctx context.Context, fields ProfileUpdate) (models.UserRef, error) {
	if fields.FullName != nil {
		name := strings.TrimSpace(*fields.FullName)
		fields.FullName = &name
	}
	if fields.Email != nil {
		email := strings.TrimSpace(*fields.Email)
		fields.Email = &email
	}
	if err := shared.ValidateStruct(fields); err != nil {
		return models.UserRef{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.session.IsAuthenticated || l.session.User == nil {
		return models.UserRef{}, shared.ErrNoActiveUser
	}

	identity, err := l.identities.Get(l.session.User.ID)
	if err != nil {
		return models.UserRef{}, err
	}

	if fields.FullName != nil {
		identity.FullName = *fields.FullName
	}
	if fields.Email != nil {
		identity.Email = *fields.Email
	}
	if err := l.identities.Update(identity); err != nil {
		return models.UserRef{}, err
	}

	ref := identity.Ref()
	l.session.User = &ref
	l.persistBoth()
	return ref, nil
}

// ChangePassword replaces the signed-in identity's password after verifying the current one.
func (l *Lifecycle) ChangePassword(ctx context.Context, current, next string) (BreachReport, error) {
	if err := shared.ValidateStruct(newPassword{Password: next}); err != nil {
		return BreachReport{}, err
	}

	l.mu.Lock()
	if l.session.User == nil || l.session.User.ID == "" {
		l.mu.Unlock()
		return BreachReport{}, shared.ErrNoActiveUser
	}

	identity, err := l.identities.Get(l.session.User.ID)
	if err != nil {
		l.mu.Unlock()
		return BreachReport{}, err
	}
	if !l.verify(identity, current) {
		l.mu.Unlock()
		return BreachReport{}, shared.ErrInvalidCredentials
	}

	hash, err := l.verifier.Hash(next)
	if err != nil {
		l.mu.Unlock()
		return BreachReport{}, fmt.Errorf("failed to hash password: %w", err)
	}
	identity.PasswordHash = hash
	identity.LegacyPassword = ""
	err = l.identities.Update(identity)
	l.mu.Unlock()
	if err != nil {
		return BreachReport{}, err
	}

	l.logger.Info("password changed", "id", identity.ID)
	return l.checkBreach(ctx, next), nil
}

// DeleteAccount removes the signed-in identity and signs out. If the identity is already gone the session is
// still cleared and [shared.ErrNotFound] is returned.
func (l *Lifecycle) DeleteAccount(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.session.IsAuthenticated || l.session.User == nil {
		return shared.ErrNoActiveUser
	}

	id := l.session.User.ID
	err := l.identities.Delete(id)
	l.clear()
	if err != nil {
		return err
	}

	l.logger.Info("account deleted", "id", id)
	return nil
}

// CanAccessHome reports whether the session is authenticated.
func (l *Lifecycle) CanAccessHome() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.session.IsAuthenticated
}

// Session returns a copy of the in-memory session.
func (l *Lifecycle) Session() models.Session {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.session
	if s.User != nil {
		user := *s.User
		s.User = &user
	}
	return s
}

// Phase returns the current lifecycle phase.
func (l *Lifecycle) Phase() models.Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.phase
}

// User returns the bound user, if any.
func (l *Lifecycle) User() (models.UserRef, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.session.User == nil {
		return models.UserRef{}, false
	}
	return *l.session.User, true
}

// Reload re-derives the session from the persisted documents.
func (l *Lifecycle) Reload() {
	l.load()
}
