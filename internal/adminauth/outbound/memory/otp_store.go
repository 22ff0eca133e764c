package memory

import (
	"context"
	"time"

	"github.com/shandysiswandi/otpgate/internal/adminauth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
)

// maxSuperseded bounds how many replaced codes a challenge remembers.
const maxSuperseded = 8

type OTPStoreConfig struct {
	TTL         time.Duration
	MaxAttempts int
	// Grace keeps dead challenges around after ExpiresAt before a sweep drops them.
	Grace time.Duration
}

// OTPStore keeps at most one challenge per identity.
type OTPStore struct {
	items *shardedMap[entity.Challenge]
	cfg   OTPStoreConfig
	clock clock.Clocker
	hash  hash.Hash
	codes otp.OTP
	ids   uid.StringID
}

func NewOTPStore(cfg OTPStoreConfig, clk clock.Clocker, h hash.Hash, codes otp.OTP, ids uid.StringID) *OTPStore {
	return &OTPStore{
		items: newShardedMap[entity.Challenge](),
		cfg:   cfg,
		clock: clk,
		hash:  h,
		codes: codes,
		ids:   ids,
	}
}

// Create issues a fresh challenge for identity, replacing any previous one,
// and returns the plaintext code. The code is not retrievable afterwards.
// A replaced challenge that was still active leaves its hash behind so its
// code is recognised, and refused, without costing the new challenge an attempt.
func (s *OTPStore) Create(_ context.Context, identity string) (*entity.Challenge, string, error) {
	code, err := s.codes.Generate()
	if err != nil {
		return nil, "", err
	}

	codeHash, err := s.hash.Hash(code)
	if err != nil {
		return nil, "", err
	}

	now := s.clock.Now()
	ch := entity.Challenge{
		ID:                s.ids.Generate(),
		Identity:          identity,
		CodeHash:          string(codeHash),
		CreatedAt:         now,
		ExpiresAt:         now.Add(s.cfg.TTL),
		AttemptsRemaining: s.cfg.MaxAttempts,
	}

	s.items.compute(identity, func(cur entity.Challenge, ok bool) (entity.Challenge, bool) {
		if ok && cur.Active(now) {
			ch.Superseded = supersede(cur)
		}
		return ch, true
	})

	return &ch, code, nil
}

// Lookup returns a copy of the identity's active challenge.
func (s *OTPStore) Lookup(_ context.Context, identity string) (*entity.Challenge, bool) {
	ch, ok := s.items.get(identity)
	if !ok || !ch.Active(s.clock.Now()) {
		return nil, false
	}
	return &ch, true
}

// VerifyAndConsume checks code against the identity's challenge and records
// the attempt atomically.
func (s *OTPStore) VerifyAndConsume(_ context.Context, identity, code string) entity.VerifyResult {
	var res entity.VerifyResult
	now := s.clock.Now()

	s.items.compute(identity, func(ch entity.Challenge, ok bool) (entity.Challenge, bool) {
		if !ok || !ch.Active(now) {
			res = entity.VerifyResult{Outcome: entity.OutcomeNotFound}
			return ch, ok
		}

		if s.hash.Verify(ch.CodeHash, code) {
			ch.Consumed = true
			res = entity.VerifyResult{Outcome: entity.OutcomeValid}
			return ch, true
		}

		if s.isSuperseded(ch, code) {
			res = entity.VerifyResult{Outcome: entity.OutcomeNotFound, Superseded: true}
			return ch, true
		}

		ch.AttemptsRemaining--
		if ch.AttemptsRemaining <= 0 {
			ch.AttemptsRemaining = 0
			res = entity.VerifyResult{Outcome: entity.OutcomeAttemptsExceeded}
		} else {
			res = entity.VerifyResult{Outcome: entity.OutcomeMismatch, AttemptsRemaining: ch.AttemptsRemaining}
		}
		return ch, true
	})

	return res
}

// isSuperseded compares code against every replaced hash without stopping
// at the first hit.
func (s *OTPStore) isSuperseded(ch entity.Challenge, code string) bool {
	hit := false
	for _, h := range ch.Superseded {
		if s.hash.Verify(h, code) {
			hit = true
		}
	}
	return hit
}

func supersede(prev entity.Challenge) []string {
	hashes := make([]string, 0, len(prev.Superseded)+1)
	hashes = append(hashes, prev.Superseded...)
	hashes = append(hashes, prev.CodeHash)
	if len(hashes) > maxSuperseded {
		hashes = hashes[len(hashes)-maxSuperseded:]
	}
	return hashes
}

// Discard removes the identity's challenge if it is still challengeID.
func (s *OTPStore) Discard(_ context.Context, identity, challengeID string) {
	s.items.deleteIf(identity, func(ch entity.Challenge) bool {
		return ch.ID == challengeID
	})
}

// Sweep drops consumed and exhausted challenges and those past expiry plus grace.
func (s *OTPStore) Sweep(_ context.Context) int {
	now := s.clock.Now()
	return s.items.sweep(func(ch entity.Challenge) bool {
		return ch.Consumed || ch.AttemptsRemaining <= 0 || !now.Before(ch.ExpiresAt.Add(s.cfg.Grace))
	})
}

// Len is the number of challenges held, live or not yet swept.
func (s *OTPStore) Len() int {
	return s.items.len()
}
