// Package ratelimit limits request rates per client key. RedisLimiter keeps a
// sliding window in a Redis sorted set so several instances share one budget;
// MemoryLimiter is a token bucket per key for single-instance deployments and
// tests.
package ratelimit
