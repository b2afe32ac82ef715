package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/qlinear/internal/artifact"
	"github.com/samcharles93/qlinear/internal/logger"
	"github.com/samcharles93/qlinear/internal/registry"
	"github.com/samcharles93/qlinear/internal/report"
	"github.com/samcharles93/qlinear/internal/version"
	"github.com/samcharles93/qlinear/pkg/quant"
)

// RunStore is the read side of the run registry.
type RunStore interface {
	List(ctx context.Context, limit int) ([]registry.Run, error)
	Get(ctx context.Context, id string) (*registry.Run, error)
}

type Server struct {
	store  *artifact.Store
	models ModelProvider
	runs   RunStore
	log    logger.Logger
}

// NewServer builds the HTTP API. runs may be nil when no registry is
// configured; the run endpoints then answer 503.
func NewServer(store *artifact.Store, models ModelProvider, runs RunStore, log logger.Logger) *Server {
	if models == nil {
		models = NewCachedModelProvider(store)
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Server{store: store, models: models, runs: runs, log: log}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", handleMetrics)

	e.GET("/v1/params", s.handleParams, observe("params"))
	e.POST("/v1/predict", s.handlePredict, observe("predict"))
	e.POST("/v1/quantize", s.handleQuantize, observe("quantize"))

	e.GET("/v1/runs", s.handleListRuns, observe("runs"))
	e.GET("/v1/runs/:id", s.handleGetRun, observe("run"))
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: version.String()})
}

func (s *Server) handleParams(c *echo.Context) error {
	ctx := c.Request().Context()
	which := c.QueryParam("which")
	if which == "" {
		which = "original"
	}

	resp := ParamsResponse{Which: which}
	switch which {
	case "original":
		ps, _, err := s.store.LoadParams(ctx, artifact.FileModel)
		if err != nil {
			return writeDomainError(c, err)
		}
		resp.Params = fromParameterSet(ps)
	case "dequantized":
		ps, _, err := s.store.LoadParams(ctx, artifact.FileDequantized)
		if err != nil {
			return writeDomainError(c, err)
		}
		resp.Params = fromParameterSet(ps)
	case "quantized":
		q, _, err := s.store.LoadQuantized(ctx)
		if err != nil {
			return writeDomainError(c, err)
		}
		resp.Params = fromQuantized(q)
		resp.Scale = q.Scale
		resp.Clipped = q.Clipped
	default:
		return writeBadRequest(c, "which must be original, quantized or dequantized")
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handlePredict(c *echo.Context) error {
	req, err := decodeJSON[PredictRequest](c.Request().Body)
	if err != nil {
		return writeDomainError(c, err)
	}
	if len(req.Features) == 0 {
		return writeBadRequest(c, "features must not be empty")
	}
	if req.Which == "" {
		req.Which = "original"
	}

	model, err := s.models.Model(c.Request().Context(), req.Which)
	if err != nil {
		return writeDomainError(c, err)
	}
	preds, err := model.Predict(req.Features)
	if err != nil {
		return writeDomainError(c, err)
	}
	predictedRows.WithLabelValues(req.Which).Add(float64(len(preds)))
	return c.JSON(http.StatusOK, PredictResponse{Which: req.Which, Predictions: preds})
}

// handleQuantize runs the quantization core on the request body without
// touching the artifact store.
func (s *Server) handleQuantize(c *echo.Context) error {
	req, err := decodeJSON[QuantizeRequest](c.Request().Body)
	if err != nil {
		return writeDomainError(c, err)
	}
	ps, err := toParameterSet(req.Parameters)
	if err != nil {
		return writeDomainError(c, err)
	}

	var q quant.QuantizedParameterSet
	if req.Scale == 0 {
		q, err = quant.QuantizeAuto(ps)
	} else {
		q, err = quant.Quantize(ps, req.Scale)
	}
	if err != nil {
		return writeDomainError(c, err)
	}
	deq, err := quant.Dequantize(q)
	if err != nil {
		return writeDomainError(c, err)
	}
	metrics, err := quant.Evaluate(ps, deq)
	if err != nil {
		return writeDomainError(c, err)
	}

	clippedElements.Add(float64(q.Clipped))
	lastScale.Set(q.Scale)
	s.log.Debug("quantized request parameters", logger.KeyScale, q.Scale, "clipped", q.Clipped, "params", len(ps))
	return c.JSON(http.StatusOK, QuantizeResponse{
		Scale:       q.Scale,
		Clipped:     q.Clipped,
		Quantized:   fromQuantized(q),
		Dequantized: fromParameterSet(deq),
		Metrics:     report.Flatten(metrics, q.Scale),
	})
}

func (s *Server) handleListRuns(c *echo.Context) error {
	if s.runs == nil {
		return writeError(c, http.StatusServiceUnavailable, "unavailable_error", "run registry not configured")
	}
	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return writeBadRequest(c, "limit must be a non-negative integer")
		}
		limit = n
	}
	runs, err := s.runs.List(c.Request().Context(), limit)
	if err != nil {
		return writeDomainError(c, err)
	}
	if runs == nil {
		runs = []registry.Run{}
	}
	return c.JSON(http.StatusOK, RunsResponse{Runs: runs})
}

func (s *Server) handleGetRun(c *echo.Context) error {
	if s.runs == nil {
		return writeError(c, http.StatusServiceUnavailable, "unavailable_error", "run registry not configured")
	}
	run, err := s.runs.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, run)
}
