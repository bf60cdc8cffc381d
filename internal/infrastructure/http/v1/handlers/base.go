// Package handlers implements the HTTP API endpoints over the sync engine.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"cargodesk/internal/core/apperror"
)

// CRUD wires a resource's engine operations into standard routes. Nil
// operations are skipped, so read-only resources register only the getters.
type CRUD[E any] struct {
	List   func(ctx context.Context) ([]*E, error)
	Get    func(ctx context.Context, id string) (*E, error)
	Create func(ctx context.Context, e *E) (*E, error)
	Update func(ctx context.Context, id string, e *E) (*E, error)
	Delete func(ctx context.Context, id string) error
}

// Register mounts the resource under group/path.
func Register[E any](group *gin.RouterGroup, path string, ops CRUD[E]) {
	g := group.Group(path)

	if ops.List != nil {
		g.GET("", func(c *gin.Context) {
			items, err := ops.List(c.Request.Context())
			if err != nil {
				abortErr(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
		})
	}
	if ops.Get != nil {
		g.GET("/:id", func(c *gin.Context) {
			item, err := ops.Get(c.Request.Context(), c.Param("id"))
			if err != nil {
				abortErr(c, err)
				return
			}
			c.JSON(http.StatusOK, item)
		})
	}
	if ops.Create != nil {
		g.POST("", func(c *gin.Context) {
			var e E
			if err := c.ShouldBindJSON(&e); err != nil {
				abortErr(c, apperror.NewValidation("malformed request body").WithCause(err))
				return
			}
			created, err := ops.Create(c.Request.Context(), &e)
			if err != nil {
				abortErr(c, err)
				return
			}
			c.JSON(http.StatusCreated, created)
		})
	}
	if ops.Update != nil {
		g.PUT("/:id", func(c *gin.Context) {
			var e E
			if err := c.ShouldBindJSON(&e); err != nil {
				abortErr(c, apperror.NewValidation("malformed request body").WithCause(err))
				return
			}
			updated, err := ops.Update(c.Request.Context(), c.Param("id"), &e)
			if err != nil {
				abortErr(c, err)
				return
			}
			c.JSON(http.StatusOK, updated)
		})
	}
	if ops.Delete != nil {
		g.DELETE("/:id", func(c *gin.Context) {
			if err := ops.Delete(c.Request.Context(), c.Param("id")); err != nil {
				abortErr(c, err)
				return
			}
			c.Status(http.StatusNoContent)
		})
	}
}

// abortErr hands the error to the ErrorHandler middleware.
func abortErr(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
