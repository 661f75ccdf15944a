package identity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	domain "github.com/example/taskflow/domain/task"
)

// IdentityPort resolves bearer tokens for other modules.
type IdentityPort interface {
	// ResolvePrincipal returns the anonymous principal for an empty token and
	// domain.ErrUnauthenticated for a rejected one.
	ResolvePrincipal(ctx context.Context, token string) (domain.Principal, error)
}

// identityAdapter wraps ServiceContainer for type-safe cross-module communication.
type identityAdapter struct {
	container mono.ServiceContainer
}

// NewIdentityAdapter creates a new adapter for identity services.
// container is the ServiceContainer from the identity module received via SetDependencyServiceContainer.
func NewIdentityAdapter(container mono.ServiceContainer) IdentityPort {
	if container == nil {
		panic("identity adapter requires non-nil ServiceContainer")
	}
	return &identityAdapter{container: container}
}

// ResolvePrincipal resolves a token via the resolve-principal service.
func (a *identityAdapter) ResolvePrincipal(ctx context.Context, token string) (domain.Principal, error) {
	req := ResolvePrincipalRequest{Token: token}
	var resp ResolvePrincipalResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceResolvePrincipal,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return domain.Anonymous(), fmt.Errorf("%s service call failed: %w", ServiceResolvePrincipal, err)
	}

	if !resp.Valid {
		return domain.Anonymous(), fmt.Errorf("%s: %w", resp.Error, domain.ErrUnauthenticated)
	}
	return resp.Principal, nil
}

// LocalPort resolves tokens in-process with a Verifier.
type LocalPort struct {
	Verifier *Verifier
}

// ResolvePrincipal implements IdentityPort.
func (p LocalPort) ResolvePrincipal(_ context.Context, token string) (domain.Principal, error) {
	principal, err := p.Verifier.Resolve(token)
	if err != nil {
		return domain.Anonymous(), fmt.Errorf("%s: %w", err.Error(), domain.ErrUnauthenticated)
	}
	return principal, nil
}
