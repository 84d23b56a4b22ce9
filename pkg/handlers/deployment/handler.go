// Package deployment exposes provisioning over HTTP for orchestrators that
// prefer an API over the CLI.
package deployment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/de-tools/sql-atlas/pkg/models/api"
	"github.com/de-tools/sql-atlas/pkg/models/domain"
	"github.com/de-tools/sql-atlas/pkg/services/firewall"
	"github.com/de-tools/sql-atlas/pkg/services/provision"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Provisioner runs a full reconciliation pass.
type Provisioner interface {
	Run(ctx context.Context, req provision.Request) (*provision.Result, error)
}

// ServerProber answers existence queries for the status endpoint.
type ServerProber interface {
	Exists(ctx context.Context, id domain.ResourceIdentity) (*domain.ServerHandle, error)
}

type Handler struct {
	flow   Provisioner
	prober ServerProber

	// resourceGroup scopes status lookups when the request does not name one.
	resourceGroup string
}

func NewHandler(flow Provisioner, prober ServerProber, resourceGroup string) *Handler {
	return &Handler{flow: flow, prober: prober, resourceGroup: resourceGroup}
}

// Provision accepts a deployment document and runs the flow. The admin secret
// never appears in the response; consumers read it from the vault.
func (h *Handler) Provision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	var body api.Deployment
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "malformed deployment document", http.StatusBadRequest)
		return
	}

	req, err := buildRequest(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.flow.Run(ctx, req)
	if err != nil {
		logger.Error().Err(err).Str("server", body.Server).Msg("provisioning run failed")
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	response := api.ProvisionResult{
		Server:  body.Server,
		FQDN:    result.Outputs.FullyQualifiedDomainName,
		Created: result.Created,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().Err(err).Msg("failed to encode provision result")
	}
}

// Status reports whether a server exists in scope.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	server := chi.URLParam(r, "server")

	resourceGroup := r.URL.Query().Get("resourceGroup")
	if resourceGroup == "" {
		resourceGroup = h.resourceGroup
	}

	handle, err := h.prober.Exists(ctx, domain.ResourceIdentity{
		Name:          server,
		ResourceGroup: resourceGroup,
	})
	if err != nil {
		logger.Error().Err(err).Str("server", server).Msg("status probe failed")
		http.Error(w, "failed to probe server", http.StatusBadGateway)
		return
	}

	status := api.DeploymentStatus{Server: server, Exists: handle != nil}
	if handle != nil {
		status.FQDN = handle.FQDN
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		logger.Error().Err(err).Str("server", server).Msg("failed to encode deployment status")
	}
}

// buildRequest validates an API deployment document to the same standard as a
// file-based one: required identity fields, known location and editions, and
// the firewall rule checks LoadDocument applies.
func buildRequest(body api.Deployment) (provision.Request, error) {
	if body.Server == "" || body.ResourceGroup == "" {
		return provision.Request{}, fmt.Errorf("server and resourceGroup are required")
	}
	if body.AdminUsername == "" {
		return provision.Request{}, fmt.Errorf("adminUsername is required")
	}

	location, err := domain.ParseLocation(body.Location)
	if err != nil {
		return provision.Request{}, err
	}

	req := provision.Request{
		Identity: domain.ResourceIdentity{
			Name:          body.Server,
			ResourceGroup: body.ResourceGroup,
			Location:      location,
		},
		AdminUsername: body.AdminUsername,
		// Secret naming convention shared with the pipeline scripts.
		SecretName: body.Server + "-admin",
	}

	for _, db := range body.Databases {
		edition := domain.EditionDefault
		if db.Edition != "" {
			edition, err = domain.ParseEdition(db.Edition)
			if err != nil {
				return provision.Request{}, err
			}
		}
		req.Databases = append(req.Databases, domain.DatabaseSpec{
			Name:             db.Name,
			Edition:          edition,
			ServiceObjective: db.ServiceObjective,
		})
	}

	for _, rule := range body.FirewallRules {
		req.FirewallRules = append(req.FirewallRules, domain.FirewallRule{
			Name:           rule.Name,
			StartIPAddress: rule.StartIPAddress,
			EndIPAddress:   rule.EndIPAddress,
		})
	}
	if err := firewall.ValidateRules(req.FirewallRules); err != nil {
		return provision.Request{}, err
	}

	return req, nil
}

func statusFor(err error) int {
	var collision *domain.NameCollisionError
	if errors.As(err, &collision) {
		return http.StatusConflict
	}
	var parse *domain.ConfigParseError
	if errors.As(err, &parse) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}
