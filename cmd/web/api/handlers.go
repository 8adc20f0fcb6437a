package api

import (
	"context"
	_ "embed"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/manzanit0/placefinder/pkg/mapview"
	"github.com/manzanit0/placefinder/pkg/middleware"
	"github.com/manzanit0/placefinder/pkg/places"
	"github.com/manzanit0/placefinder/pkg/search"
)

const (
	MsgNoValidSuggestions = "No valid place suggestions found."
	MsgStaleSelection     = "The suggestions changed while you were selecting. Please pick again."
	MsgMissingCredential  = "Please provide your own Google Maps API key."
	MsgNoHistory          = "History is not enabled."

	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

//go:embed index.html
var indexHTML []byte

type History interface {
	List(ctx context.Context, sessionID string, limit int) ([]search.Resolution, error)
}

type Controller struct {
	orchestrator *search.Orchestrator
	history      History
}

// NewController builds the HTTP controller. history may be nil.
func NewController(o *search.Orchestrator, h History) *Controller {
	return &Controller{orchestrator: o, history: h}
}

func (ctrl *Controller) Register(r gin.IRouter) {
	r.GET("/", ctrl.Index)

	api := r.Group("/api")
	api.GET("/session", ctrl.GetSession)
	api.POST("/credential", ctrl.SetCredential)
	api.GET("/suggestions", ctrl.Suggestions)
	api.POST("/selection", ctrl.Select)
	api.GET("/history", ctrl.History)
}

func (ctrl *Controller) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (ctrl *Controller) GetSession(c *gin.Context) {
	s := middleware.GetSession(c)

	var query string
	if set := s.Suggestions(); set != nil {
		query = set.Query
	}

	c.JSON(http.StatusOK, gin.H{
		"state":          s.State(),
		"has_secret":     s.HasSecret(),
		"has_credential": s.Credential() != "",
		"query":          query,
		"history":        ctrl.history != nil,
	})
}

type credentialRequest struct {
	Key string `json:"key"`
}

func (ctrl *Controller) SetCredential(c *gin.Context) {
	var req credentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := middleware.GetSession(c)
	s.SetInput(req.Key)

	c.JSON(http.StatusOK, gin.H{
		"has_secret":     s.HasSecret(),
		"has_credential": s.Credential() != "",
	})
}

func (ctrl *Controller) Suggestions(c *gin.Context) {
	query := c.Query("q")
	s := middleware.GetSession(c)

	labels, err := ctrl.orchestrator.Search(c.Request.Context(), s, query)
	if err != nil {
		status, body := errorResponse(err)
		body["query"] = query
		body["suggestions"] = labels
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, gin.H{"query": query, "suggestions": labels})
}

func (ctrl *Controller) Select(c *gin.Context) {
	var sel search.Selection
	if err := c.ShouldBindJSON(&sel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := middleware.GetSession(c)

	res, err := ctrl.orchestrator.Select(c.Request.Context(), s, sel)
	if errors.Is(err, search.ErrNoValidSuggestion) {
		c.JSON(http.StatusOK, gin.H{"warning": MsgNoValidSuggestions})
		return
	}

	if err != nil {
		c.JSON(errorResponse(err))
		return
	}

	marker := mapview.NewMarker(res.Coordinate.Latitude, res.Coordinate.Longitude, res.Label)
	marker.Address = res.Address

	c.JSON(http.StatusOK, mapview.NewPayload(marker))
}

func (ctrl *Controller) History(c *gin.Context) {
	if ctrl.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": MsgNoHistory})
		return
	}

	limit := defaultHistoryLimit
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}

		limit = n
	}

	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	s := middleware.GetSession(c)
	resolutions, err := ctrl.history.List(c.Request.Context(), s.ID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to list history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"resolutions": resolutions})
}

func errorResponse(err error) (int, gin.H) {
	var pe *places.Error

	switch {
	case errors.Is(err, places.ErrMissingCredential):
		return http.StatusBadRequest, gin.H{"error": MsgMissingCredential}
	case errors.Is(err, places.ErrEmptyQuery):
		return http.StatusBadRequest, gin.H{"error": err.Error()}
	case errors.Is(err, search.ErrStaleSelection):
		return http.StatusConflict, gin.H{"error": MsgStaleSelection}
	case errors.As(err, &pe):
		return http.StatusBadGateway, gin.H{"error": pe.UserMessage(), "kind": pe.Kind.String()}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, gin.H{"error": places.UserMessage(err)}
	default:
		return http.StatusInternalServerError, gin.H{"error": places.UserMessage(err)}
	}
}
