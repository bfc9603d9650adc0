package http

import (
	"Uplink-Backend/internal/auth"
	"Uplink-Backend/internal/ratelimit"
	"Uplink-Backend/internal/repository"
	"Uplink-Backend/internal/service"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Server HTTP сервер с обработчиками
type Server struct {
	authHandlers    *auth.AuthHandlers
	shortenHandler  *ShortenHandler
	redirectHandler *RedirectHandler
	linksHandler    *LinksHandler
	tokensHandler   *TokensHandler
	healthHandler   *HealthHandler
	authMiddleware  *auth.Middleware
	log             *zap.Logger
}

// NewServer создает новый HTTP сервер
func NewServer(
	storage repository.Storage,
	linkService *service.LinkService,
	redirectService *service.RedirectService,
	tokenService *auth.TokenService,
	jwtService *auth.JWTService,
	passwordService *auth.PasswordService,
	limiter ratelimit.Limiter,
	hosts *HostResolver,
	log *zap.Logger,
) *Server {
	return &Server{
		authHandlers:    auth.NewAuthHandlers(storage, jwtService, passwordService, log),
		shortenHandler:  NewShortenHandler(linkService, tokenService, limiter, hosts, log),
		redirectHandler: NewRedirectHandler(redirectService, log),
		linksHandler:    NewLinksHandler(storage, log),
		tokensHandler:   NewTokensHandler(storage, tokenService, log),
		healthHandler:   NewHealthHandler(storage, log),
		authMiddleware:  auth.NewMiddleware(jwtService, log),
		log:             log,
	}
}

// SetupRoutes настраивает маршруты
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Health checks (без аутентификации)
	mux.HandleFunc("/health", s.healthHandler.Health)
	mux.HandleFunc("/ready", s.healthHandler.Ready)

	// Публичный API создания коротких ссылок (Bearer API токен + rate limit)
	mux.HandleFunc("/api/v1/shorten", s.withCORS(s.shortenHandler.Shorten))

	// JSON-вариант редиректа (без аутентификации)
	mux.HandleFunc("/api/redirect/", s.redirectHandler.HandleAPIRedirect)

	// Auth endpoints (без аутентификации)
	mux.HandleFunc("/api/auth/register", s.withCORS(s.authHandlers.Register))
	mux.HandleFunc("/api/auth/login", s.withCORS(s.authHandlers.Login))

	// Управляющая поверхность (сессионный JWT)
	mux.HandleFunc("/api/links", s.withCORS(s.authMiddleware.RequireAuth(s.linksHandler.ListLinks)))
	mux.HandleFunc("/api/links/", s.withCORS(s.authMiddleware.RequireAuth(s.handleLinksAPI)))
	mux.HandleFunc("/api/stats/", s.withCORS(s.authMiddleware.RequireAuth(s.linksHandler.GetStats)))
	mux.HandleFunc("/api/tokens", s.withCORS(s.authMiddleware.RequireAuth(s.tokensHandler.HandleTokens)))
	mux.HandleFunc("/api/tokens/", s.withCORS(s.authMiddleware.RequireAuth(s.tokensHandler.HandleTokenByID)))

	// Redirect endpoint (без аутентификации) - должен быть последним
	mux.HandleFunc("/", s.redirectHandler.HandleRedirect)

	return mux
}

// handleLinksAPI обрабатывает /api/links/* endpoints с разными HTTP методами
func (s *Server) handleLinksAPI(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.linksHandler.ListLinks(w, r)
	case http.MethodDelete:
		s.linksHandler.DeleteLink(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// withCORS добавляет CORS headers к обработчику
func (s *Server) withCORS(handler http.HandlerFunc) http.HandlerFunc {
	return s.authMiddleware.CORS(handler)
}

// isSystemPath проверяет, является ли путь служебным (не коротким кодом)
func isSystemPath(path string) bool {
	systemPaths := []string{
		"/api/",
		"/health",
		"/ready",
	}

	for _, systemPath := range systemPaths {
		if strings.HasPrefix(path, systemPath) {
			return true
		}
	}

	return false
}
