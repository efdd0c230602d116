package web

import (
	"context"

	"github.com/JonMunkholm/emis-viewer/internal/viewer"
)

type controllerKey struct{}

func withController(ctx context.Context, c *viewer.Controller) context.Context {
	return context.WithValue(ctx, controllerKey{}, c)
}

// controllerFrom returns the session controller installed by withSession.
func controllerFrom(ctx context.Context) *viewer.Controller {
	c, _ := ctx.Value(controllerKey{}).(*viewer.Controller)
	return c
}
