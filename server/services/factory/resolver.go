package factory

import (
	"context"

	"github.com/devboard/devboard/common/models"
)

// Request carries everything a resolver needs to create a factory.
type Request struct {
	Identity models.Identity
	// Authorization is the caller's inbound Authorization header.
	Authorization string
	Parameters    models.FactoryParameters
}

// Resolver turns factory parameters into a factory. The service asks resolvers in
// descending priority order and the first that accepts the parameters creates the factory.
type Resolver interface {
	// Name identifies the resolver in logs.
	Name() string
	Priority() models.ResolverPriority
	// Accept returns true if the resolver can create a factory from the parameters.
	// An error is treated by the service as a refusal.
	Accept(params models.FactoryParameters) (bool, error)
	CreateFactory(ctx context.Context, request *Request) (*models.Factory, error)
}
