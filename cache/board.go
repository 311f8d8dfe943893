package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/go-redis/redis/v8"

	"cfanalytics/model"
)

const DefaultBoardKey = "cf:board:rating"

// Board ranks tracked handles by current rating.
type Board interface {
	Update(ctx context.Context, handle string, rating int) error
	Remove(ctx context.Context, handle string) error
	Top(ctx context.Context, k int) ([]model.BoardEntry, error)
}

// RatingBoard keeps the board in a Redis sorted set.
type RatingBoard struct {
	client *redis.Client
	key    string
}

func NewRatingBoard(client *redis.Client, key string) *RatingBoard {
	if key == "" {
		key = DefaultBoardKey
	}
	return &RatingBoard{client: client, key: key}
}

func (b *RatingBoard) Update(ctx context.Context, handle string, rating int) error {
	err := b.client.ZAdd(ctx, b.key, &redis.Z{Score: float64(rating), Member: CanonicalHandle(handle)}).Err()
	if err != nil {
		return fmt.Errorf("failed to update board for %s: %w", handle, err)
	}
	return nil
}

func (b *RatingBoard) Remove(ctx context.Context, handle string) error {
	if err := b.client.ZRem(ctx, b.key, CanonicalHandle(handle)).Err(); err != nil {
		return fmt.Errorf("failed to remove %s from board: %w", handle, err)
	}
	return nil
}

func (b *RatingBoard) Top(ctx context.Context, k int) ([]model.BoardEntry, error) {
	if k <= 0 {
		return []model.BoardEntry{}, nil
	}
	zs, err := b.client.ZRevRangeWithScores(ctx, b.key, 0, int64(k-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read board: %w", err)
	}
	out := make([]model.BoardEntry, 0, len(zs))
	for i, z := range zs {
		handle, _ := z.Member.(string)
		out = append(out, model.BoardEntry{Handle: handle, Rating: int(z.Score), Rank: int64(i + 1)})
	}
	return out, nil
}

// MemoryBoard mirrors RatingBoard ordering: rating desc, then handle desc as ZREVRANGE does.
type MemoryBoard struct {
	mu      sync.RWMutex
	ratings map[string]int
}

func NewMemoryBoard() *MemoryBoard {
	return &MemoryBoard{ratings: make(map[string]int)}
}

func (b *MemoryBoard) Update(_ context.Context, handle string, rating int) error {
	b.mu.Lock()
	b.ratings[CanonicalHandle(handle)] = rating
	b.mu.Unlock()
	return nil
}

func (b *MemoryBoard) Remove(_ context.Context, handle string) error {
	b.mu.Lock()
	delete(b.ratings, CanonicalHandle(handle))
	b.mu.Unlock()
	return nil
}

func (b *MemoryBoard) Top(_ context.Context, k int) ([]model.BoardEntry, error) {
	b.mu.RLock()
	out := make([]model.BoardEntry, 0, len(b.ratings))
	for h, r := range b.ratings {
		out = append(out, model.BoardEntry{Handle: h, Rating: r})
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].Handle > out[j].Handle
	})
	if k < len(out) {
		out = out[:max(k, 0)]
	}
	for i := range out {
		out[i].Rank = int64(i + 1)
	}
	return out, nil
}
