package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"leadgen_backend/internal/leadgen/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix      = "leadgen:"
	redisIdentitySetKey = redisKeyPrefix + "identities"
	defaultSessionTTL   = 24 * time.Hour
	maxWatchRetries     = 5
)

// addLeadsScript claims each identity in KEYS[1] and appends the leads whose
// claim was new to KEYS[2] in one RPUSH. If the push fails the claims are
// released, so a failed write never hides an identity. ARGV[1] is the list
// TTL in seconds, then identity and encoded lead pairs. It returns the
// zero-based indexes of the accepted pairs.
var addLeadsScript = redis.NewScript(`
local fresh, claimed, accepted = {}, {}, {}
for i = 2, #ARGV, 2 do
  if redis.call('SADD', KEYS[1], ARGV[i]) == 1 then
    table.insert(claimed, ARGV[i])
    table.insert(fresh, ARGV[i + 1])
    table.insert(accepted, (i - 2) / 2)
  end
end
if #fresh == 0 then
  return accepted
end
local pushed = redis.pcall('RPUSH', KEYS[2], unpack(fresh))
if type(pushed) == 'table' and pushed.err then
  redis.call('SREM', KEYS[1], unpack(claimed))
  return pushed
end
redis.call('EXPIRE', KEYS[2], ARGV[1])
return accepted
`)

// RedisStore is a Store shared by every process pointing at the same Redis.
// It lets a standalone worker fill sessions that the API process streams.
//
// Session metadata lives as JSON under leadgen:session:<id>, leads in the list
// leadgen:session:<id>:leads, and the dedup index in the set
// leadgen:identities. Claiming and appending run in one script.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

// NewRedisStore wraps an existing client. ttl bounds how long sessions are
// kept after their last write; zero means 24h.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl, now: time.Now}
}

// sessionMeta is everything but the leads, which are kept in their own list.
type sessionMeta struct {
	ID            string              `json:"id"`
	UserID        *string             `json:"userId,omitempty"`
	Params        domain.SearchParams `json:"params"`
	Status        domain.Status       `json:"status"`
	Error         string              `json:"error,omitempty"`
	StartedAt     time.Time           `json:"startedAt"`
	FinishedAt    *time.Time          `json:"finishedAt,omitempty"`
	ProvidersUsed []string            `json:"providersUsed"`
	Warnings      []string            `json:"warnings,omitempty"`
}

func metaFromSession(s domain.Session) sessionMeta {
	return sessionMeta{
		ID:            s.ID,
		UserID:        s.UserID,
		Params:        s.Params,
		Status:        s.Status,
		Error:         s.Error,
		StartedAt:     s.StartedAt,
		FinishedAt:    s.FinishedAt,
		ProvidersUsed: s.ProvidersUsed,
		Warnings:      s.Warnings,
	}
}

func (m sessionMeta) toSession(leads []domain.Lead) domain.Session {
	providers := m.ProvidersUsed
	if providers == nil {
		providers = []string{}
	}
	if leads == nil {
		leads = []domain.Lead{}
	}
	return domain.Session{
		ID:            m.ID,
		UserID:        m.UserID,
		Params:        m.Params,
		Status:        m.Status,
		Error:         m.Error,
		StartedAt:     m.StartedAt,
		FinishedAt:    m.FinishedAt,
		Leads:         leads,
		ProvidersUsed: providers,
		Warnings:      m.Warnings,
	}
}

func sessionKey(id string) string { return redisKeyPrefix + "session:" + id }
func leadsKey(id string) string   { return redisKeyPrefix + "session:" + id + ":leads" }

// CreateSession implements Store.
func (s *RedisStore) CreateSession(ctx context.Context, params domain.SearchParams, userID *string) (domain.Session, error) {
	return s.CreateSessionWithID(ctx, uuid.NewString(), params, userID)
}

// CreateSessionWithID implements Store.
func (s *RedisStore) CreateSessionWithID(ctx context.Context, id string, params domain.SearchParams, userID *string) (domain.Session, error) {
	session := newSession(id, params, userID, s.now())
	data, err := json.Marshal(metaFromSession(session))
	if err != nil {
		return domain.Session{}, fmt.Errorf("encode session: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(id), data, s.ttl)
		pipe.Del(ctx, leadsKey(id))
		return nil
	})
	if err != nil {
		return domain.Session{}, fmt.Errorf("store session: %w", err)
	}
	return session, nil
}

// GetSession implements Store.
func (s *RedisStore) GetSession(ctx context.Context, id string) (domain.Session, bool, error) {
	meta, found, err := s.readMeta(ctx, s.rdb, id)
	if err != nil || !found {
		return domain.Session{}, found, err
	}

	raw, err := s.rdb.LRange(ctx, leadsKey(id), 0, -1).Result()
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("read leads: %w", err)
	}
	leads := make([]domain.Lead, 0, len(raw))
	for _, item := range raw {
		var lead domain.Lead
		if err := json.Unmarshal([]byte(item), &lead); err != nil {
			return domain.Session{}, false, fmt.Errorf("decode lead: %w", err)
		}
		leads = append(leads, lead)
	}
	return meta.toSession(leads), true, nil
}

// UpdateStatus implements Store.
func (s *RedisStore) UpdateStatus(ctx context.Context, id string, status domain.Status, errMsg string) error {
	return s.updateMeta(ctx, id, func(m *sessionMeta) bool {
		session := m.toSession(nil)
		if !applyStatus(&session, status, errMsg, s.now()) {
			return false
		}
		m.Status = session.Status
		m.Error = session.Error
		m.FinishedAt = session.FinishedAt
		return true
	})
}

// AddProviders implements Store.
func (s *RedisStore) AddProviders(ctx context.Context, id string, providerIDs []string) error {
	return s.updateMeta(ctx, id, func(m *sessionMeta) bool {
		before := len(m.ProvidersUsed)
		m.ProvidersUsed = appendMissing(m.ProvidersUsed, providerIDs)
		return len(m.ProvidersUsed) != before
	})
}

// AddWarning implements Store.
func (s *RedisStore) AddWarning(ctx context.Context, id string, warning string) error {
	return s.updateMeta(ctx, id, func(m *sessionMeta) bool {
		before := len(m.Warnings)
		m.Warnings = appendMissing(m.Warnings, []string{warning})
		return len(m.Warnings) != before
	})
}

// AddLeads implements Store. Claim and append are one script, so two
// processes racing on the same lead accept it at most once and a failed
// append leaves the identity free for a retry.
func (s *RedisStore) AddLeads(ctx context.Context, id string, raw []domain.RawLead) ([]domain.Lead, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	exists, err := s.rdb.Exists(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("check session: %w", err)
	}
	if exists == 0 {
		return nil, nil
	}

	now := s.now()
	leads := make([]domain.Lead, len(raw))
	keys := []string{redisIdentitySetKey, leadsKey(id)}
	args := make([]any, 0, 1+2*len(raw))
	args = append(args, int64(s.ttl/time.Second))
	for i, r := range raw {
		leads[i] = materialize(r, now)
		data, err := json.Marshal(leads[i])
		if err != nil {
			return nil, fmt.Errorf("encode lead: %w", err)
		}
		args = append(args, r.Key(), data)
	}

	indexes, err := addLeadsScript.Run(ctx, s.rdb, keys, args...).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("append leads: %w", err)
	}

	accepted := make([]domain.Lead, 0, len(indexes))
	for _, i := range indexes {
		accepted = append(accepted, leads[i])
	}
	return accepted, nil
}

func (s *RedisStore) readMeta(ctx context.Context, c redis.Cmdable, id string) (sessionMeta, bool, error) {
	data, err := c.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return sessionMeta{}, false, nil
	}
	if err != nil {
		return sessionMeta{}, false, fmt.Errorf("read session: %w", err)
	}
	var meta sessionMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return sessionMeta{}, false, fmt.Errorf("decode session: %w", err)
	}
	return meta, true, nil
}

// updateMeta applies mutate under WATCH so concurrent writers never lose an
// update. mutate returns false to skip the write.
func (s *RedisStore) updateMeta(ctx context.Context, id string, mutate func(*sessionMeta) bool) error {
	key := sessionKey(id)
	txf := func(tx *redis.Tx) error {
		meta, found, err := s.readMeta(ctx, tx, id)
		if err != nil || !found {
			return err
		}
		if !mutate(&meta) {
			return nil
		}
		data, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update session %s: too much contention", id)
}
