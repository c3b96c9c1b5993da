package redis

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/infra/memory"
)

// SessionStore is a Redis-aware implementation of app.SessionStore. Sessions
// themselves stay in process (timers and locks do not serialize), while the
// per-quiz active/ended index is mirrored into Redis sets so operators and
// sibling processes can observe which sessions a quiz has:
//
//	SADD quiz:{quizID}:sessions:active {sessionID}
//	SMOVE active -> ended on finalize
type SessionStore struct {
	*memory.SessionStore
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		SessionStore: memory.NewSessionStore(),
		client:       client,
		ttl:          ttl,
	}
}

func (s *SessionStore) Add(session *app.Session) {
	s.SessionStore.Add(session)

	ctx := context.Background()
	key := s.activeKey(session.QuizID())
	// best-effort mirror; the in-process index stays authoritative
	_ = s.client.SAdd(ctx, key, session.ID()).Err()
	if s.ttl > 0 {
		_ = s.client.Expire(ctx, key, s.ttl).Err()
	}
}

func (s *SessionStore) MarkEnded(quizID string, sessionID int64) {
	s.SessionStore.MarkEnded(quizID, sessionID)

	ctx := context.Background()
	_ = s.client.SMove(ctx, s.activeKey(quizID), s.endedKey(quizID), sessionID).Err()
	if s.ttl > 0 {
		_ = s.client.Expire(ctx, s.endedKey(quizID), s.ttl).Err()
	}
}

// MirroredList reads the index back from Redis; used by tooling that has no
// access to the in-process store.
func (s *SessionStore) MirroredList(ctx context.Context, quizID string) (domain.SessionList, error) {
	active, err := s.client.SMembers(ctx, s.activeKey(quizID)).Result()
	if err != nil {
		return domain.SessionList{}, err
	}
	ended, err := s.client.SMembers(ctx, s.endedKey(quizID)).Result()
	if err != nil {
		return domain.SessionList{}, err
	}
	return domain.SessionList{
		ActiveSessions:   parseIDs(active),
		InactiveSessions: parseIDs(ended),
	}, nil
}

func (s *SessionStore) activeKey(quizID string) string {
	return "quiz:" + quizID + ":sessions:active"
}

func (s *SessionStore) endedKey(quizID string) string {
	return "quiz:" + quizID + ":sessions:ended"
}

func parseIDs(members []string) []int64 {
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		if id, err := strconv.ParseInt(m, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
