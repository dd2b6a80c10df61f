// Package router builds the gin engine serving the job API.
package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ncobase/jobqueue/ctxutil"
	"github.com/ncobase/jobqueue/logging/logger"
	"github.com/ncobase/jobqueue/net/resp"
)

// Registrar mounts routes on a router
type Registrar interface {
	Register(r gin.IRouter)
}

// New returns an engine with recovery, trace id and access log middleware and
// the given route registrars mounted. mode is a gin mode; empty keeps the
// current one.
func New(mode string, registrars ...Registrar) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}

	engine := gin.New()
	engine.Use(ctxutil.Trace(), Logger(), Recovery())
	engine.NoRoute(func(c *gin.Context) {
		resp.Fail(c.Writer, resp.NotFound(fmt.Sprintf("route %s %s not found", c.Request.Method, c.Request.URL.Path)))
	})

	for _, r := range registrars {
		r.Register(engine)
	}
	return engine
}

// Logger writes one access log line per request
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ctx := ctxutil.FromGinContext(c)
		kv := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error(ctx, "HTTP request", kv...)
		case status >= http.StatusBadRequest:
			logger.Warn(ctx, "HTTP request", kv...)
		default:
			logger.Debug(ctx, "HTTP request", kv...)
		}
	}
}

// Recovery turns a handler panic into a 500 response
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(ctxutil.FromGinContext(c), "Panic recovered", "panic", r, "path", c.Request.URL.Path)
				if !c.Writer.Written() {
					resp.Fail(c.Writer, resp.InternalServer(""))
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
