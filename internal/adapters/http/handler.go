package httpadapter

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PabloGalante/trackmate-insights/internal/app/recommendation"
	"github.com/PabloGalante/trackmate-insights/internal/domain"
	"github.com/PabloGalante/trackmate-insights/internal/observability"
)

// statusClientClosedRequest is the nginx convention for a caller that hung up
// before the response was ready.
const statusClientClosedRequest = 499

// StatsService is what the summary endpoint needs from the aggregation engine.
type StatsService interface {
	Summarize(ctx context.Context, owner domain.UserID, now time.Time) (domain.StatsSummary, error)
}

// RecommendationService is what the recommendations endpoint needs.
type RecommendationService interface {
	GetOrFetch(ctx context.Context, owner domain.UserID, cooldown time.Duration, forceRefresh bool) (recommendation.Result, error)
}

type Options struct {
	JWTSecret string
	Cooldown  time.Duration
	Now       func() time.Time
}

type Server struct {
	stats StatsService
	recs  RecommendationService
	opts  Options
}

func NewServer(stats StatsService, recs RecommendationService, opts Options) http.Handler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{stats: stats, recs: recs, opts: opts}

	r := gin.New()
	r.Use(gin.Recovery(), withRequestID(), withLogging(), withCORS())

	r.GET("/healthz", s.handleHealthz)

	protected := r.Group("/")
	protected.Use(authenticate([]byte(opts.JWTSecret)))
	{
		protected.GET("/stats/summary", s.handleStatsSummary)
		protected.GET("/recommendations", s.handleRecommendations)

		// Paths used by the existing mobile client.
		protected.GET("/api/stats/summary", s.handleStatsSummary)
		protected.GET("/api/ai/recommendations", s.handleRecommendations)
	}

	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "not found")
	})

	return r
}

// ─────────────────────────────────────────────
// DTOs (responses)
// ─────────────────────────────────────────────

type suggestionResponse struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Recommendation string `json:"recommendation"`
	Category       string `json:"category"`
}

type recommendationsResponse struct {
	Suggestions []suggestionResponse `json:"suggestions"`
	FetchedAt   time.Time            `json:"fetchedAt"`
	Stale       bool                 `json:"stale"`
	Warning     string               `json:"warning,omitempty"`
}

// ─────────────────────────────────────────────
// Handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(c *gin.Context) {
	writeJSON(c, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatsSummary(c *gin.Context) {
	owner := ownerFrom(c)

	summary, err := s.stats.Summarize(c.Request.Context(), owner, s.opts.Now())
	if err != nil {
		internalError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, summary)
}

func (s *Server) handleRecommendations(c *gin.Context) {
	owner := ownerFrom(c)

	force := false
	if raw := c.Query("forceRefresh"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "forceRefresh must be a boolean")
			return
		}
		force = v
	}

	res, err := s.recs.GetOrFetch(c.Request.Context(), owner, s.opts.Cooldown, force)
	if err != nil {
		if res.Stale && len(res.Suggestions) > 0 {
			observability.LoggerFromContext(c.Request.Context()).Warnw("serving stale recommendations",
				"user_id", owner,
				"error", err,
			)
			resp := toRecommendationsResponse(res)
			resp.Warning = "recommendations could not be refreshed; showing the last available list"
			writeJSON(c, http.StatusOK, resp)
			return
		}
		s.recommendationError(c, owner, err)
		return
	}

	writeJSON(c, http.StatusOK, toRecommendationsResponse(res))
}

// recommendationError maps a fetch failure with nothing cached to a status.
func (s *Server) recommendationError(c *gin.Context, owner domain.UserID, err error) {
	log := observability.LoggerFromContext(c.Request.Context()).With("user_id", owner)

	var ue *domain.UpstreamError
	status := 0
	if errors.As(err, &ue) {
		status = ue.Status
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(c, http.StatusNotFound, "user not found")
	case errors.Is(err, domain.ErrValidation):
		log.Errorw("advice response failed validation", "error", err)
		writeError(c, http.StatusInternalServerError, "advice service returned an invalid response")
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		log.Errorw("advice service unavailable", "error", err, "status", status)
		writeError(c, http.StatusGatewayTimeout, "advice service unavailable, try again later")
	case errors.Is(err, domain.ErrUpstream):
		log.Errorw("advice service error", "error", err, "status", status)
		writeError(c, http.StatusBadGateway, "advice service error")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Client went away; the fetch keeps running in the background.
		c.Status(statusClientClosedRequest)
	default:
		internalError(c, err)
	}
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

func toRecommendationsResponse(res recommendation.Result) recommendationsResponse {
	out := recommendationsResponse{
		Suggestions: make([]suggestionResponse, 0, len(res.Suggestions)),
		FetchedAt:   res.FetchedAt,
		Stale:       res.Stale,
	}
	for _, sg := range res.Suggestions {
		out.Suggestions = append(out.Suggestions, suggestionResponse{
			ID:             sg.ID,
			Title:          sg.Title,
			Recommendation: sg.Recommendation,
			Category:       string(sg.Category),
		})
	}
	return out
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, map[string]string{
		"error": msg,
	})
}

func badRequest(c *gin.Context, msg string) {
	writeError(c, http.StatusBadRequest, msg)
}

func internalError(c *gin.Context, err error) {
	observability.LoggerFromContext(c.Request.Context()).Errorw("request failed",
		"path", c.FullPath(),
		"error", err,
	)
	writeError(c, http.StatusInternalServerError, "internal server error")
}
