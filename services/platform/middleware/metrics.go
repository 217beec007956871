// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Not-Another-Coach/nac-platform/services/platform/observability"
)

// RequestMetrics records handler latency per route template and status
// code. Unmatched paths share one "unmatched" label so random 404
// traffic cannot explode label cardinality.
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		observability.ObserveRequestDuration(endpoint,
			strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
