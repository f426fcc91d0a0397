package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	goredis "github.com/redis/go-redis/v9"
)

const claimPrefix = "payroll:claim:"

// ClaimStore records which (contract, employee, pay period) triples already
// had a payment submitted.
type ClaimStore struct {
	client goredis.UniversalClient
}

func NewClaimStore(client goredis.UniversalClient) *ClaimStore {
	return &ClaimStore{client: client}
}

// NewClient connects to redis and checks the connection.
func NewClient(ctx context.Context, addr, user, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Username: user,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

func claimKey(contract, employee common.Address, nextPayTimestamp uint64) string {
	return claimPrefix + strings.ToLower(contract.Hex()) + ":" + strings.ToLower(employee.Hex()) + ":" + strconv.FormatUint(nextPayTimestamp, 10)
}

// Claim atomically takes the claim for one pay period. It returns false when
// the period was already claimed.
func (s *ClaimStore) Claim(ctx context.Context, contract, employee common.Address, nextPayTimestamp uint64, ttl time.Duration) (bool, error) {
	key := claimKey(contract, employee, nextPayTimestamp)
	result, err := s.client.SetArgs(ctx, key, time.Now().Unix(), goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis claim: %w", err)
	}
	return result == "OK", nil
}

func (s *ClaimStore) Release(ctx context.Context, contract, employee common.Address, nextPayTimestamp uint64) error {
	if err := s.client.Del(ctx, claimKey(contract, employee, nextPayTimestamp)).Err(); err != nil {
		return fmt.Errorf("redis release claim: %w", err)
	}
	return nil
}
