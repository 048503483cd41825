// Package server defines the lifecycle shared by network servers.
package server

import (
	"context"
	"net/http"
)

type Server interface {
	Options() Options
	Handle(handler http.Handler) error
	Start() error
	Stop(ctx context.Context) error
	// Address is the bound address once started.
	Address() string
}
