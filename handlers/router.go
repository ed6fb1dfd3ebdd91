package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/camden-git/portfoliobackend/auth"
	"github.com/camden-git/portfoliobackend/logging"
	"github.com/camden-git/portfoliobackend/metrics"
	"github.com/camden-git/portfoliobackend/repository"
	"github.com/camden-git/portfoliobackend/services"
)

const defaultRequestTimeout = 60 * time.Second

var (
	allowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	allowedHeaders = []string{"Accept", "Authorization", "Content-Type", RequestIDHeader}
)

// Deps is everything the router needs. Media and Translator may be nil, in
// which case their endpoints answer 503.
type Deps struct {
	DB            *sql.DB
	ContentBlocks repository.ContentBlockRepositoryInterface
	Newsletter    repository.NewsletterRepositoryInterface
	Media         *services.MediaLibrary
	Translator    *services.Translator
	Auth          auth.Authenticator
	TokenIssuer   TokenIssuer
	Metrics       *metrics.Metrics
	Log           *logging.Logger

	MaxUploadBytes     int64
	ExposeErrorDetails bool
	RequestTimeout     time.Duration
	TokenTTL           time.Duration
}

// NewRouter builds the single HTTP entrypoint of the API.
func NewRouter(deps Deps) http.Handler {
	if deps.Log == nil {
		deps.Log = logging.Nop()
	}
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = defaultRequestTimeout
	}
	er := errorRenderer{log: deps.Log, exposeDetails: deps.ExposeErrorDetails}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:       []string{"*"},
		AllowedMethods:       allowedMethods,
		AllowedHeaders:       []string{"*"},
		ExposedHeaders:       []string{RequestIDHeader},
		AllowCredentials:     false,
		MaxAge:               86400,
		OptionsSuccessStatus: http.StatusOK,
	})

	r := chi.NewRouter()
	r.Use(Recoverer(deps.Log, deps.ExposeErrorDetails))
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(deps.Log))
	r.Use(Metrics(deps.Metrics))
	r.Use(middleware.Timeout(deps.RequestTimeout))
	r.Use(corsHandler.Handler)
	r.Use(AllowAnyOrigin)
	r.Use(RequireWriteAuth(deps.Auth))

	notFound := func(w http.ResponseWriter, r *http.Request) {
		WriteAPIError(w, errRouteNotFound.Status, errRouteNotFound.Message, "")
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	artworks := &ArtworkHandler{DB: deps.DB, Log: deps.Log}
	sections := &SectionHandler{DB: deps.DB, Log: deps.Log}
	collections := &CollectionHandler{DB: deps.DB, Log: deps.Log}
	exhibitions := &ExhibitionHandler{DB: deps.DB, Log: deps.Log}
	critics := &CriticHandler{DB: deps.DB, Log: deps.Log}
	content := &ContentHandler{Repo: deps.ContentBlocks}
	newsletter := &NewsletterHandler{Repo: deps.Newsletter, Log: deps.Log}
	mediaHandler := &MediaHandler{DB: deps.DB, Library: deps.Media, MaxUploadBytes: deps.MaxUploadBytes, Log: deps.Log}
	translate := &TranslateHandler{Translator: deps.Translator}
	authHandler := &AuthHandler{Issuer: deps.TokenIssuer, TTL: deps.TokenTTL}

	r.Get("/health", er.handle(health(deps.DB)))
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	r.Get("/images/{filename}", er.handle(mediaHandler.ServeImage))

	r.Route("/api", func(r chi.Router) {
		r.Route("/artworks", func(r chi.Router) {
			r.Get("/", er.handle(artworks.List))
			r.Post("/", er.handle(artworks.Create))
			r.Get("/{id}", er.handle(artworks.Get))
			r.Put("/{id}", er.handle(artworks.Update))
			r.Delete("/{id}", er.handle(artworks.Delete))
		})

		r.Route("/sections", func(r chi.Router) {
			r.Get("/", er.handle(sections.List))
			r.Post("/", er.handle(sections.Create))
			r.Get("/{id}", er.handle(sections.Get))
			r.Put("/{id}", er.handle(sections.Update))
			r.Delete("/{id}", er.handle(sections.Delete))
		})

		r.Route("/collections", func(r chi.Router) {
			r.Get("/", er.handle(collections.List))
			r.Post("/", er.handle(collections.Create))
			r.Get("/{identifier}", er.handle(collections.Get))
			r.Put("/{identifier}", er.handle(collections.Update))
			r.Delete("/{identifier}", er.handle(collections.Delete))
		})

		r.Route("/exhibitions", func(r chi.Router) {
			r.Get("/", er.handle(exhibitions.List))
			r.Post("/", er.handle(exhibitions.Create))
			r.Get("/{identifier}", er.handle(exhibitions.Get))
			r.Put("/{identifier}", er.handle(exhibitions.Update))
			r.Delete("/{identifier}", er.handle(exhibitions.Delete))
		})

		r.Route("/critics", func(r chi.Router) {
			r.Get("/", er.handle(critics.List))
			r.Post("/", er.handle(critics.Create))
			r.Get("/{id}", er.handle(critics.Get))
			r.Put("/{id}", er.handle(critics.Update))
			r.Delete("/{id}", er.handle(critics.Delete))
		})

		r.Route("/content", func(r chi.Router) {
			r.Get("/", er.handle(content.List))
			r.Get("/{key}", er.handle(content.Get))
			r.Put("/{key}", er.handle(content.Save))
		})

		r.Post("/upload", er.handle(mediaHandler.Upload))
		r.Get("/media", er.handle(mediaHandler.List))
		r.Get("/storage/stats", er.handle(mediaHandler.Stats))
		r.Get("/regenerate-thumbnails", er.handle(mediaHandler.RegenerateThumbnails))
		r.Get("/images/{filename}/usage", er.handle(mediaHandler.Usage))
		r.Delete("/images/{filename}", er.handle(mediaHandler.Delete))

		r.Route("/newsletter", func(r chi.Router) {
			r.Post("/", er.handle(newsletter.Subscribe))
			r.Get("/", er.handle(newsletter.List))
			r.Delete("/{id}", er.handle(newsletter.Delete))
		})

		r.Post("/translate", er.handle(translate.Translate))
		r.Post("/auth/token", er.handle(authHandler.IssueToken))
	})

	return r
}

func health(db *sql.DB) apiFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				return &APIError{Status: http.StatusServiceUnavailable, Message: "Database unavailable", Detail: err.Error()}
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return nil
	}
}
