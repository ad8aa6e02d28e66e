package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"minimarket/internal/domain/entity"
	"minimarket/internal/domain/repository"
	"minimarket/pkg/logger"
)

const productCacheKeyPrefix = "product:"

var errCacheMiss = errors.New("cache miss")

// ProductCache stores single products keyed by id.
type ProductCache interface {
	Get(ctx context.Context, id string) (*entity.Product, error)
	Set(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id string) error
}

type redisProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisProductCache(client *redis.Client, ttl time.Duration) ProductCache {
	return &redisProductCache{client: client, ttl: ttl}
}

func (c *redisProductCache) key(id string) string {
	return productCacheKeyPrefix + id
}

func (c *redisProductCache) Get(ctx context.Context, id string) (*entity.Product, error) {
	val, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errCacheMiss
		}
		return nil, fmt.Errorf("get product %s from redis: %w", id, err)
	}

	var product entity.Product
	if err := json.Unmarshal(val, &product); err != nil {
		_ = c.Delete(ctx, id)
		return nil, fmt.Errorf("unmarshal cached product %s: %w", id, err)
	}
	return &product, nil
}

func (c *redisProductCache) Set(ctx context.Context, product *entity.Product) error {
	if product == nil || product.ID == "" {
		return errors.New("cannot cache product without id")
	}

	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("marshal product %s: %w", product.ID, err)
	}

	if err := c.client.Set(ctx, c.key(product.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set product %s in redis: %w", product.ID, err)
	}
	return nil
}

func (c *redisProductCache) Delete(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("delete product %s from redis: %w", id, err)
	}
	return nil
}

// cachedProductRepository serves GetByID from the cache and invalidates the
// entry on every write. Lists always go to the store.
type cachedProductRepository struct {
	repository.ProductRepository
	cache ProductCache
}

func NewCachedProductRepository(next repository.ProductRepository, cache ProductCache) repository.ProductRepository {
	return &cachedProductRepository{ProductRepository: next, cache: cache}
}

func (r *cachedProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	product, err := r.cache.Get(ctx, id)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, errCacheMiss) {
		logger.Warn("product cache read failed: %v", err)
	}

	product, err = r.ProductRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, product); err != nil {
		logger.Warn("product cache write failed: %v", err)
	}
	return product, nil
}

func (r *cachedProductRepository) Update(ctx context.Context, product *entity.Product) error {
	defer r.invalidate(ctx, product.ID)
	return r.ProductRepository.Update(ctx, product)
}

func (r *cachedProductRepository) Delete(ctx context.Context, id string) error {
	defer r.invalidate(ctx, id)
	return r.ProductRepository.Delete(ctx, id)
}

func (r *cachedProductRepository) IncrementViews(ctx context.Context, id string) error {
	defer r.invalidate(ctx, id)
	return r.ProductRepository.IncrementViews(ctx, id)
}

func (r *cachedProductRepository) invalidate(ctx context.Context, id string) {
	if err := r.cache.Delete(ctx, id); err != nil {
		logger.Warn("product cache invalidation failed: %v", err)
	}
}

// cachedReviewRepository drops the cached product whenever a review write
// changes its rating aggregate.
type cachedReviewRepository struct {
	repository.ReviewRepository
	cache ProductCache
}

func NewCachedReviewRepository(next repository.ReviewRepository, cache ProductCache) repository.ReviewRepository {
	return &cachedReviewRepository{ReviewRepository: next, cache: cache}
}

func (r *cachedReviewRepository) Create(ctx context.Context, review *entity.Review) error {
	defer r.invalidate(ctx, review.ProductID)
	return r.ReviewRepository.Create(ctx, review)
}

func (r *cachedReviewRepository) Update(ctx context.Context, review *entity.Review) error {
	defer r.invalidate(ctx, review.ProductID)
	return r.ReviewRepository.Update(ctx, review)
}

func (r *cachedReviewRepository) Delete(ctx context.Context, review *entity.Review) error {
	defer r.invalidate(ctx, review.ProductID)
	return r.ReviewRepository.Delete(ctx, review)
}

func (r *cachedReviewRepository) invalidate(ctx context.Context, productID string) {
	if err := r.cache.Delete(ctx, productID); err != nil {
		logger.Warn("product cache invalidation failed: %v", err)
	}
}
