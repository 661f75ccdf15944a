package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	domain "github.com/example/taskflow/domain/task"
)

// ServiceResolvePrincipal is the request-reply service that maps a bearer
// token to the acting principal.
const ServiceResolvePrincipal = "resolve-principal"

// ResolvePrincipalRequest carries the bearer token to resolve.
type ResolvePrincipalRequest struct {
	Token string `json:"token"`
}

// ResolvePrincipalResponse carries the resolved principal. Valid is false
// when a non-empty token was rejected.
type ResolvePrincipalResponse struct {
	Principal domain.Principal `json:"principal"`
	Valid     bool             `json:"valid"`
	Error     string           `json:"error,omitempty"`
}

// IdentityModule verifies access tokens on behalf of other modules.
type IdentityModule struct {
	verifier *Verifier
	config   TokenConfig
}

// Compile-time interface checks.
var _ mono.Module = (*IdentityModule)(nil)
var _ mono.ServiceProviderModule = (*IdentityModule)(nil)
var _ mono.HealthCheckableModule = (*IdentityModule)(nil)

// NewModule creates a new IdentityModule.
func NewModule(config TokenConfig) *IdentityModule {
	return &IdentityModule{
		verifier: NewVerifier(config),
		config:   config,
	}
}

// Name returns the module name.
func (m *IdentityModule) Name() string {
	return "identity"
}

// Verifier returns the token verifier.
func (m *IdentityModule) Verifier() *Verifier {
	return m.verifier
}

// RegisterServices registers request-reply services in the service container.
func (m *IdentityModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceResolvePrincipal, json.Unmarshal, json.Marshal, m.resolvePrincipal,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceResolvePrincipal, err)
	}

	log.Printf("[identity] Registered services: %s", ServiceResolvePrincipal)
	return nil
}

func (m *IdentityModule) resolvePrincipal(_ context.Context, req ResolvePrincipalRequest, _ *mono.Msg) (ResolvePrincipalResponse, error) {
	principal, err := m.verifier.Resolve(req.Token)
	if err != nil {
		return ResolvePrincipalResponse{Principal: principal, Valid: false, Error: err.Error()}, nil
	}
	return ResolvePrincipalResponse{Principal: principal, Valid: true}, nil
}

// Health reports whether the module can verify tokens.
func (m *IdentityModule) Health(_ context.Context) mono.HealthStatus {
	if m.config.SecretKey == "" {
		return mono.HealthStatus{
			Healthy: false,
			Message: "token secret not configured",
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"issuer": m.config.Issuer,
		},
	}
}

// Start initializes the module.
func (m *IdentityModule) Start(_ context.Context) error {
	if m.config.SecretKey == "" {
		return errors.New("identity: token secret must not be empty")
	}
	log.Printf("[identity] Module started (issuer: %s)", m.config.Issuer)
	return nil
}

// Stop shuts down the module.
func (m *IdentityModule) Stop(_ context.Context) error {
	log.Println("[identity] Module stopped")
	return nil
}
