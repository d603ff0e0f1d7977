package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/xeptore/reactordj/catalog"
	"github.com/xeptore/reactordj/errutil"
	"github.com/xeptore/reactordj/log"
	"github.com/xeptore/reactordj/player"
)

// Controller is the part of a playback session exposed over HTTP.
type Controller interface {
	SelectTrack(i int)
	SelectVisible(pos int)
	Next()
	Previous()
	TogglePlay()
	SetVolume(v float64)
	SetFilter(text string)
	Snapshot() player.Snapshot
}

type Options struct {
	Controller Controller
	// CatalogStatus reports the current catalog lifecycle.
	CatalogStatus func() catalog.Status
	// Reload fetches the catalog again. Nil disables the reload route.
	Reload func(ctx context.Context) error
	Hub    *Hub
}

type CatalogStatusResponse struct {
	State  catalog.State `json:"state"`
	Tracks int           `json:"tracks"`
	Error  string        `json:"error,omitempty"`
}

type volumeRequest struct {
	Volume *float64 `json:"volume" binding:"required"`
}

type filterRequest struct {
	Text *string `json:"text" binding:"required"`
}

type handlers struct {
	opts   Options
	logger zerolog.Logger
}

func NewRouter(opts Options, logger zerolog.Logger) *gin.Engine {
	h := &handlers{
		opts:   opts,
		logger: logger.With().Str("module", "httpapi").Logger(),
	}

	r := gin.New()
	r.Use(gin.CustomRecovery(h.panicked), h.accessLog)

	api := r.Group("/api")
	{
		api.GET("/state", h.state)
		api.POST("/tracks/:index/select", h.selectTrack)
		api.POST("/view/:pos/select", h.selectVisible)
		api.POST("/next", h.command(opts.Controller.Next))
		api.POST("/previous", h.command(opts.Controller.Previous))
		api.POST("/toggle", h.command(opts.Controller.TogglePlay))
		api.PUT("/volume", h.setVolume)
		api.PUT("/filter", h.setFilter)
		api.GET("/catalog/status", h.catalogStatus)
		if nil != opts.Reload {
			api.POST("/catalog/reload", h.reload)
		}
		if nil != opts.Hub {
			api.GET("/ws", h.websocket)
		}
	}
	return r
}

func (h *handlers) accessLog(c *gin.Context) {
	startedAt := time.Now()
	c.Next()
	h.logger.
		Debug().
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Int("status", c.Writer.Status()).
		Dur("elapsed", time.Since(startedAt)).
		Msg("Request served")
}

func (h *handlers) panicked(c *gin.Context, thing any) {
	h.logger.Error().Func(log.Panic(thing)).Str("path", c.FullPath()).Msg("Recovered from handler panic")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func (h *handlers) state(c *gin.Context) {
	c.JSON(http.StatusOK, h.opts.Controller.Snapshot())
}

func (h *handlers) command(fn func()) gin.HandlerFunc {
	return func(c *gin.Context) {
		fn()
		c.JSON(http.StatusOK, h.opts.Controller.Snapshot())
	}
}

func (h *handlers) selectTrack(c *gin.Context) {
	i, err := strconv.Atoi(c.Param("index"))
	if nil != err {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
		return
	}
	h.opts.Controller.SelectTrack(i)
	c.JSON(http.StatusOK, h.opts.Controller.Snapshot())
}

func (h *handlers) selectVisible(c *gin.Context) {
	pos, err := strconv.Atoi(c.Param("pos"))
	if nil != err {
		c.JSON(http.StatusBadRequest, gin.H{"error": "position must be an integer"})
		return
	}
	if n := len(h.opts.Controller.Snapshot().FilteredView); pos < 0 || pos >= n {
		c.JSON(http.StatusNotFound, gin.H{"error": "position is outside of the filtered view", "visible": n})
		return
	}
	h.opts.Controller.SelectVisible(pos)
	c.JSON(http.StatusOK, h.opts.Controller.Snapshot())
}

func (h *handlers) setVolume(c *gin.Context) {
	var req volumeRequest
	if err := c.ShouldBindJSON(&req); nil != err {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"volume\": <number>}"})
		return
	}
	h.opts.Controller.SetVolume(*req.Volume)
	c.JSON(http.StatusOK, h.opts.Controller.Snapshot())
}

func (h *handlers) setFilter(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); nil != err {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"text\": <string>}"})
		return
	}
	h.opts.Controller.SetFilter(*req.Text)
	c.JSON(http.StatusOK, h.opts.Controller.Snapshot())
}

func (h *handlers) catalogStatus(c *gin.Context) {
	st := h.opts.CatalogStatus()
	resp := CatalogStatusResponse{State: st.State, Tracks: st.Catalog.Len(), Error: ""}
	if nil != st.Err {
		resp.Error = st.Err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) reload(c *gin.Context) {
	if err := h.opts.Reload(c.Request.Context()); nil != err {
		if _, ok := errutil.IsAny(err, context.Canceled, context.DeadlineExceeded); ok && nil != c.Request.Context().Err() {
			c.Status(http.StatusRequestTimeout)
			return
		}
		h.logger.Warn().Func(log.Flaw(err)).Msg("Catalog reload failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	h.catalogStatus(c)
}

func (h *handlers) websocket(c *gin.Context) {
	h.opts.Hub.Serve(c, h.opts.Controller.Snapshot)
}
