package storage

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Advisory presence mirror. The in-memory registry in service/chat is the
// authority; these keys only let other services answer "is this user
// reachable, and through which gateway" without talking to the gateway.
//
// key: im:presence:<user>, value: gateway id, TTL bounds staleness.
func presenceKey(user string) string { return "im:presence:" + user }

// PresenceOnline marks the user online on the given gateway and renews the TTL.
func PresenceOnline(user, gatewayID string, ttl time.Duration) error {
	if rdb == nil {
		return fmt.Errorf("redis not initialized")
	}
	return rdb.Set(ctx, presenceKey(user), gatewayID, ttl).Err()
}

// PresenceOffline removes the user's presence key.
func PresenceOffline(user string) error {
	if rdb == nil {
		return fmt.Errorf("redis not initialized")
	}
	return rdb.Del(ctx, presenceKey(user)).Err()
}

// PresenceLookup reports whether the user is online and on which gateway.
func PresenceLookup(user string) (gatewayID string, online bool, err error) {
	if rdb == nil {
		return "", false, fmt.Errorf("redis not initialized")
	}
	val, err := rdb.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Mirror adapts the package functions to the gateway's PresenceMirror hook.
type Mirror struct {
	GatewayID string
	TTL       time.Duration
}

func (m Mirror) Online(user string) {
	ttl := m.TTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	_ = PresenceOnline(user, m.GatewayID, ttl)
}

func (m Mirror) Offline(user string) {
	_ = PresenceOffline(user)
}
