// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// rateLimiterPool hands out one token bucket per caller identity.
// Entries are never evicted; the identity space (client IDs plus a
// shared guest bucket per remote IP) is small enough in practice.
type rateLimiterPool struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newRateLimiterPool(rps float64, burst int) *rateLimiterPool {
	return &rateLimiterPool{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (p *rateLimiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if lim, ok := p.limiters[key]; ok {
		return lim
	}
	lim := rate.NewLimiter(p.rps, p.burst)
	p.limiters[key] = lim
	return lim
}

// RateLimit creates a per-caller rate limiting middleware.
//
// Authenticated requests are limited per client ID; guests share a
// bucket per remote IP. Rejections return 429 without consuming the
// handler's budget.
//
//	v1.Use(middleware.RateLimit(10, 20)) // 10 req/s, burst 20
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	pool := newRateLimiterPool(rps, burst)

	return func(c *gin.Context) {
		key := GetSession(c).ClientID
		if key == "" {
			key = "guest:" + c.ClientIP()
		}

		if !pool.get(key).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
