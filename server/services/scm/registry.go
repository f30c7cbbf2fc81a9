package scm

import (
	"fmt"
	"sync"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/common/models"
)

// FileResolverChain is the ordered set of file resolvers. The first resolver that
// accepts a URL serves it, so the generic resolver must be registered last.
type FileResolverChain struct {
	resolvers []FileResolver
	mutex     sync.RWMutex
}

func NewFileResolverChain(resolvers ...FileResolver) *FileResolverChain {
	c := &FileResolverChain{}
	for _, r := range resolvers {
		c.Register(r)
	}
	return c
}

// Register appends a resolver to the chain. If a resolver with that name is already
// registered then this function will panic.
func (c *FileResolverChain) Register(resolver FileResolver) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for _, r := range c.resolvers {
		if r.Name() == resolver.Name() {
			panic(fmt.Sprintf("FileResolverChain: attempt to register resolver %q more than once", resolver.Name()))
		}
	}
	c.resolvers = append(c.resolvers, resolver)
}

// For returns the first resolver that accepts repositoryURL.
func (c *FileResolverChain) For(repositoryURL string) (FileResolver, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	for _, r := range c.resolvers {
		if r.Accept(repositoryURL) {
			return r, nil
		}
	}
	return nil, gerror.NewErrValidationFailed("Unsupported repository URL").EDetail("repository", repositoryURL)
}

// Get returns the resolver registered for the named provider.
func (c *FileResolverChain) Get(name models.SystemName) (FileResolver, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	for _, r := range c.resolvers {
		if r.Name() == name {
			return r, nil
		}
	}
	return nil, gerror.NewErrNotFound("Not Found").IDetail("resolver", name)
}

// APIClientRegistry holds one APIClient per provider.
type APIClientRegistry struct {
	clientByName map[models.SystemName]APIClient
	mutex        sync.RWMutex
}

func NewAPIClientRegistry(clients ...APIClient) *APIClientRegistry {
	r := &APIClientRegistry{clientByName: make(map[models.SystemName]APIClient)}
	for _, c := range clients {
		r.Register(c)
	}
	return r
}

// Register an APIClient. If a client with that name is already registered then this function will panic.
func (r *APIClientRegistry) Register(client APIClient) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.clientByName[client.Name()]; ok {
		panic(fmt.Sprintf("APIClientRegistry: attempt to register client %q more than once", client.Name()))
	}
	r.clientByName[client.Name()] = client
}

// Get the registered client by name. If a client with the specified name does not
// exist an error will be returned.
func (r *APIClientRegistry) Get(name models.SystemName) (APIClient, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	client, ok := r.clientByName[name]
	if !ok {
		return nil, gerror.NewErrNotFound("Not Found").IDetail("SCM", name)
	}
	return client, nil
}
