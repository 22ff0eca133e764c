package memory

import (
	"context"
	"errors"
	"time"

	"github.com/shandysiswandi/otpgate/internal/adminauth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
)

// ErrTokenCollision is returned when a freshly generated token is already bound.
var ErrTokenCollision = errors.New("memory: session token collision")

type SessionStoreConfig struct {
	// Grace keeps expired sessions answering "expired" for a while before a sweep drops them.
	Grace time.Duration
}

// SessionStore binds opaque tokens to identities. It is keyed by the token's
// HMAC so a memory dump does not reveal usable tokens.
type SessionStore struct {
	items  *shardedMap[entity.Session]
	cfg    SessionStoreConfig
	clock  clock.Clocker
	hash   hash.Hash
	tokens uid.StringID
}

func NewSessionStore(cfg SessionStoreConfig, clk clock.Clocker, h hash.Hash, tokens uid.StringID) *SessionStore {
	return &SessionStore{
		items:  newShardedMap[entity.Session](),
		cfg:    cfg,
		clock:  clk,
		hash:   h,
		tokens: tokens,
	}
}

// Issue creates a session for identity valid for ttl and returns its token.
func (s *SessionStore) Issue(_ context.Context, identity string, ttl time.Duration) (*entity.Session, string, error) {
	token := s.tokens.Generate()
	tokenHash, err := s.hash.Hash(token)
	if err != nil {
		return nil, "", err
	}

	now := s.clock.Now()
	sess := entity.Session{
		TokenHash: string(tokenHash),
		Identity:  identity,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	collided := false
	s.items.compute(sess.TokenHash, func(cur entity.Session, ok bool) (entity.Session, bool) {
		if ok {
			collided = true
			return cur, true
		}
		return sess, true
	})
	if collided {
		return nil, "", ErrTokenCollision
	}

	return &sess, token, nil
}

// Verify looks the token up. Unknown and revoked tokens are indistinguishable.
func (s *SessionStore) Verify(_ context.Context, token string) entity.SessionCheck {
	if token == "" {
		return entity.SessionCheck{}
	}

	tokenHash, err := s.hash.Hash(token)
	if err != nil {
		return entity.SessionCheck{}
	}

	sess, ok := s.items.get(string(tokenHash))
	if !ok || sess.Revoked {
		return entity.SessionCheck{}
	}

	if !s.clock.Now().Before(sess.ExpiresAt) {
		return entity.SessionCheck{Expired: true, ExpiresAt: sess.ExpiresAt}
	}

	return entity.SessionCheck{Valid: true, Identity: sess.Identity, ExpiresAt: sess.ExpiresAt}
}

// Revoke makes token unusable. Revoking an unknown token is not an error.
func (s *SessionStore) Revoke(_ context.Context, token string) error {
	tokenHash, err := s.hash.Hash(token)
	if err != nil {
		return err
	}

	s.items.compute(string(tokenHash), func(sess entity.Session, ok bool) (entity.Session, bool) {
		sess.Revoked = true
		return sess, ok
	})

	return nil
}

// Sweep drops revoked sessions and those past expiry plus grace.
func (s *SessionStore) Sweep(_ context.Context) int {
	now := s.clock.Now()
	return s.items.sweep(func(sess entity.Session) bool {
		return sess.Revoked || !now.Before(sess.ExpiresAt.Add(s.cfg.Grace))
	})
}

func (s *SessionStore) Len() int {
	return s.items.len()
}
