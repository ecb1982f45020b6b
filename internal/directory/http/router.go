package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/campusreach/directory/internal/directory/service"
	"github.com/campusreach/directory/internal/directory/store"
	"github.com/campusreach/directory/pkg/httpx"
	"github.com/campusreach/directory/pkg/jwtx"
	"github.com/campusreach/directory/pkg/slogx"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	signer       *jwtx.Signer
	verifier     *jwtx.Verifier
	issuer       string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store              store.Store
	InvitationService  *service.InvitationService
	IdentityService    *service.IdentityService
	BillingService     *service.BillingService
	InstitutionService *service.InstitutionService

	WebhookSecret    string
	WebhookTolerance time.Duration
}

func NewRouter(
	signer *jwtx.Signer,
	verifier *jwtx.Verifier,
	issuer, buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		signer:       signer,
		verifier:     verifier,
		issuer:       issuer,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerInvitations()
	r.registerInstitutionData()
	r.registerBilling()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			CampusReach Directory Service API
//	@version		0.1.0
//	@description	Multi-tenant onboarding and entitlement backend for the institution directory.
//	@description	Covers invitation-gated admin registration, institution profile management with a
//	@description	field-level audit trail, billing webhook ingestion and premium entitlement checks.
//
//	@contact.name				CampusReach Team
//	@contact.url				https://github.com/campusreach/directory
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{IdentityService: r.IdentityService}

	// POST /auth/register - strict rate limit by IP (public signup endpoint)
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /auth/login - strict rate limit by IP + email form field to prevent brute force
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "email"),
		),
	)

	// GET /auth/me - lenient rate limit by authenticated admin
	r.Mux.Handle("GET /v1/auth/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByAdmin(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerInvitations() {
	h := &InvitationHandler{InvitationService: r.InvitationService}

	// Minting, listing and revoking codes are platform-operator operations
	superAdmin := func(next http.Handler) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireRole("super_admin"),
			httpx.RateLimitByAdmin(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("POST /v1/invitations", superAdmin(http.HandlerFunc(h.HandleCreate)))
	r.Mux.Handle("GET /v1/invitations", superAdmin(http.HandlerFunc(h.HandleList)))
	r.Mux.Handle("POST /v1/invitations/{id}/revoke", superAdmin(http.HandlerFunc(h.HandleRevoke)))

	// POST /invitations/validate - strict rate limit by IP (unauthenticated probe surface)
	r.Mux.Handle("POST /v1/invitations/validate",
		httpx.Chain(http.HandlerFunc(h.HandleValidate),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerInstitutionData() {
	h := &InstitutionDataHandler{
		InstitutionService: r.InstitutionService,
		IdentityService:    r.IdentityService,
	}

	read := func(next http.Handler) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByAdmin(httpx.LenientLimit),
		)
	}
	write := func(next http.Handler) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByAdmin(httpx.ModerateLimit),
		)
	}

	// POST /institutions - platform-operator provisioning
	r.Mux.Handle("POST /v1/institutions",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireRole("super_admin"),
			httpx.RateLimitByAdmin(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /v1/institution-data/{id}", read(http.HandlerFunc(h.HandleGet)))
	r.Mux.Handle("GET /v1/institution-data/{id}/quality", read(http.HandlerFunc(h.HandleQuality)))
	r.Mux.Handle("GET /v1/institution-data/{id}/verification-history", read(http.HandlerFunc(h.HandleVerificationHistory)))

	r.Mux.Handle("PUT /v1/institution-data/{id}/basic-info", write(http.HandlerFunc(h.HandleBasicInfo)))
	r.Mux.Handle("PUT /v1/institution-data/{id}/cost-data", write(http.HandlerFunc(h.HandleCostData)))
	r.Mux.Handle("PUT /v1/institution-data/{id}/admissions-data", write(http.HandlerFunc(h.HandleAdmissionsData)))
	r.Mux.Handle("POST /v1/institution-data/{id}/verify-current", write(http.HandlerFunc(h.HandleVerifyCurrent)))
}

func (r *Router) registerBilling() {
	webhookHandler := &BillingWebhookHandler{
		BillingService: r.BillingService,
		WebhookSecret:  r.WebhookSecret,
		Tolerance:      r.WebhookTolerance,
	}

	// POST /webhooks/billing - strict rate limit by IP (signature-gated, no bearer token)
	r.Mux.Handle("POST /v1/webhooks/billing",
		httpx.Chain(webhookHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// GET /entitlement - lenient rate limit by authenticated admin
	entitlementHandler := &EntitlementHandler{BillingService: r.BillingService}
	r.Mux.Handle("GET /v1/entitlement",
		httpx.Chain(entitlementHandler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByAdmin(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.signer),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /metrics", promhttp.Handler())
}
