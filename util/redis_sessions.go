package util

import (
	"context"
	"fmt"

	"github.com/citasalud/hospital-api/config"
	"github.com/redis/go-redis/v9"
)

func userSessionsKey(userID uint) string {
	return fmt.Sprintf("user_sessions:%d", userID)
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

const removeSessionScript = `
		local removed = redis.call('SREM', KEYS[1], ARGV[1])
		if removed > 0 then
			local count = redis.call('SCARD', KEYS[1])
			if count == 0 then
				redis.call('DEL', KEYS[1])
			end
		end
		return removed
	`

// AddSessionToUserSet records the session token in the per-user Redis set.
// The set carries no TTL; it is cleaned up explicitly on logout or when the
// user's sessions are invalidated.
func AddSessionToUserSet(userID uint, token string) error {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return nil
	}
	ctx := context.Background()
	key := userSessionsKey(userID)
	if err := rdb.SAdd(ctx, key, token).Err(); err != nil {
		return err
	}
	return rdb.Persist(ctx, key).Err()
}

// RemoveSessionTokenFromUserSet removes a single session token from the
// per-user set, deleting the set atomically once it empties.
func RemoveSessionTokenFromUserSet(userID uint, token string) error {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return nil
	}
	return rdb.Eval(context.Background(), removeSessionScript, []string{userSessionsKey(userID)}, token).Err()
}

// InvalidateUserSessions deletes every session:<token> key for the user along
// with the per-user set itself. Used on password change and account deletion.
func InvalidateUserSessions(userID uint) error {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return nil
	}
	ctx := context.Background()
	key := userSessionsKey(userID)
	members, err := rdb.SMembers(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	for _, tok := range members {
		_ = rdb.Del(ctx, sessionKey(tok)).Err()
	}
	return rdb.Del(ctx, key).Err()
}
