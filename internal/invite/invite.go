package invite

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	redisstore "github.com/ddorjelama/KeyUsageProfiler/internal/storage/redis"
)

// KeyPrefix is the key namespace of stored invite tokens.
const KeyPrefix = "invitetoken:"

// DefaultTTL bounds how long an issued invite stays redeemable.
const DefaultTTL = 900 * time.Second

var (
	// ErrInvalid marks tokens that do not parse or do not match the stored
	// invite for their team.
	ErrInvalid = errors.New("invite: invalid token")
	// ErrExpired marks tokens whose team has no live invite. Expired and
	// never-issued are indistinguishable on purpose.
	ErrExpired = errors.New("invite: no live invite for team")
)

// Service issues and redeems team invite tokens. A team holds at most one
// live token; issuing again replaces it and restarts the clock. Redeeming
// does not consume the token, so one invite can admit several members
// within its window.
type Service struct {
	store *redisstore.Store
	ttl   time.Duration
}

// New builds a Service with the given token lifetime. ttl<=0 selects
// DefaultTTL.
func New(store *redisstore.Store, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{store: store, ttl: ttl}
}

// Create issues a fresh token for the team and stores it under the team's
// invite key. The token embeds the team id as its last segment so redeem
// can locate the stored copy without a scan.
func (s *Service) Create(ctx context.Context, teamID int64) (string, error) {
	id := strconv.FormatInt(teamID, 10)
	token := uuid.NewString() + "-" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + id
	if err := s.store.Set(ctx, KeyPrefix+id, token, s.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Redeem validates a presented token and returns the team it admits to.
func (s *Service) Redeem(ctx context.Context, token string) (int64, error) {
	teamID, err := TeamID(token)
	if err != nil {
		return 0, err
	}
	stored, ok, err := s.store.Get(ctx, KeyPrefix+strconv.FormatInt(teamID, 10))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrExpired
	}
	if stored != token {
		// A newer invite replaced this one.
		return 0, ErrInvalid
	}
	return teamID, nil
}

// TeamID extracts the team id from a token without touching the store.
func TeamID(token string) (int64, error) {
	i := strings.LastIndexByte(token, '-')
	if i < 0 || i == len(token)-1 {
		return 0, ErrInvalid
	}
	teamID, err := strconv.ParseInt(token[i+1:], 10, 64)
	if err != nil || teamID <= 0 {
		return 0, ErrInvalid
	}
	return teamID, nil
}
