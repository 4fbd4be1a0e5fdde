package crud

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tweetapi/auth"
	"tweetapi/domain"
	"tweetapi/errs"
)

const msgSessionNotFound = "The session does not exist or has expired."

// SessionService stores sessions in the database. The tokens handed to clients are
// never stored, only their HMAC hashes, so a leaked sessions table can't be used to
// impersonate anyone. It implements the domain.SessionService interface.
type SessionService struct {
	sessionValidator
}

// sessionValidator hashes and checks tokens before passing them on to sessionGorm.
type sessionValidator struct {
	hmac auth.HMAC
	ttl  time.Duration
	sessionGorm
}

// sessionGorm runs CRUD operations on the sessions table.
type sessionGorm struct {
	db *gorm.DB
}

// NewSessionService returns an instance of SessionService.
func NewSessionService(db *gorm.DB, hmacKey string, ttl time.Duration) *SessionService {
	return &SessionService{
		sessionValidator{
			hmac: auth.NewHMAC(hmacKey),
			ttl:  ttl,
			sessionGorm: sessionGorm{
				db: db,
			},
		},
	}
}

var _ domain.SessionService = &SessionService{}

// Create makes a new session for the user and returns its token.
func (sv *sessionValidator) Create(ctx context.Context, userID int) (string, error) {
	if userID <= 0 {
		return "", errs.UserIdInvalid
	}
	token, err := auth.MakeSessionToken()
	if err != nil {
		return "", fmt.Errorf("make session token: %w", err)
	}
	session := &domain.Session{
		TokenHash: sv.hmac.Hash(token),
		UserID:    userID,
		ExpiresAt: time.Now().Add(sv.ttl),
	}
	if err := sv.sessionGorm.Create(ctx, session); err != nil {
		return "", err
	}
	return token, nil
}

// UserID returns the ID of the user the token belongs to.
func (sv *sessionValidator) UserID(ctx context.Context, token string) (int, error) {
	if err := sv.tokenValid(token); err != nil {
		return 0, err
	}
	session, err := sv.sessionGorm.ByTokenHash(ctx, sv.hmac.Hash(token))
	if err != nil {
		return 0, err
	}
	if !session.ExpiresAt.After(time.Now()) {
		return 0, errs.Errorf(errs.ENOTFOUND, msgSessionNotFound)
	}
	return session.UserID, nil
}

// Delete destroys the session of the token. Deleting an unknown session is not an error.
func (sv *sessionValidator) Delete(ctx context.Context, token string) error {
	if err := sv.tokenValid(token); err != nil {
		return err
	}
	return sv.sessionGorm.DeleteByTokenHash(ctx, sv.hmac.Hash(token))
}

// tokenValid makes sure the token is base64 encoded and long enough to have been made by Create.
func (sv *sessionValidator) tokenValid(token string) error {
	n, err := auth.NBytes(token)
	if err != nil {
		return errs.TokenInvalid
	}
	if n < auth.SessionTokenBytes {
		return errs.TokenInvalid
	}
	return nil
}

// ByTokenHash retrieves a Session by its token hash.
func (sg *sessionGorm) ByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	var session domain.Session
	if err := first(ctx, sg.db.Where("token_hash = ?", tokenHash), &session, msgSessionNotFound); err != nil {
		return nil, err
	}
	return &session, nil
}

// Create stores a new Session record.
func (sg *sessionGorm) Create(ctx context.Context, session *domain.Session) error {
	if err := sg.db.WithContext(ctx).Omit(clause.Associations).Create(session).Error; err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// DeleteByTokenHash deletes the Session with the given token hash.
func (sg *sessionGorm) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	err := sg.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&domain.Session{}).Error
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes all sessions that expired before now and returns how many were removed.
func (sg *sessionGorm) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := sg.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Session{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}
