package middleware

import "github.com/gin-gonic/gin"

// CacheHeader reports whether an analytics payload came from the report cache.
const CacheHeader = "X-Cache"

// SetCacheHit marks the response as served from cache or computed.
func SetCacheHit(c *gin.Context, hit bool) {
	if hit {
		c.Header(CacheHeader, "HIT")
		return
	}
	c.Header(CacheHeader, "MISS")
}
