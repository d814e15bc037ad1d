package server

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"

	"sentiment-signal-engine/internal/features"
	"sentiment-signal-engine/internal/ingest"
	"sentiment-signal-engine/internal/interfaces"
	"sentiment-signal-engine/internal/logger"
	"sentiment-signal-engine/internal/pipeline"
	"sentiment-signal-engine/internal/scorer/prompt"
	"sentiment-signal-engine/internal/signal"
	"sentiment-signal-engine/internal/trace"
	"sentiment-signal-engine/internal/types"
)

// Runner evaluates the signal pipeline for one asset.
type Runner interface {
	Run(ctx context.Context, asset string, mode types.Mode) (*pipeline.Report, error)
}

type scoreRequest struct {
	Text  string `json:"text" validate:"required,min=1"`
	Asset string `json:"asset"`
}

type scoreResponse struct {
	Score  float64 `json:"score"`
	Engine string  `json:"engine"`
}

type signalRequest struct {
	Asset string `query:"asset"`
	Mode  string `query:"mode" default:"combined" validate:"oneof=price_only combined"`
}

type signalResponse struct {
	Asset           string   `json:"asset"`
	Mode            string   `json:"mode"`
	LatestTimestamp string   `json:"latest_timestamp"`
	LatestSignal    int      `json:"latest_signal"`
	LatestSentiment *float64 `json:"latest_sentiment"`
}

// Server exposes the scorer and the signal pipeline over HTTP.
type Server struct {
	echo         *echo.Echo
	runner       Runner
	scorer       interfaces.Scorer
	defaultAsset string
}

// New creates the echo instance and registers every route.
func New(runner Runner, scorer interfaces.Scorer, defaultAsset string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLogging())

	s := &Server{echo: e, runner: runner, scorer: scorer, defaultAsset: defaultAsset}
	s.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	return s
}

func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", s.Health)
	e.POST("/sentiment/score", s.Score)
	e.GET("/signal", s.Signal)
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start blocks serving on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) Score(c echo.Context) error {
	req := &scoreRequest{}
	if verr := readAndValidateRequest(c, req); verr != nil {
		return errorResponse(c, http.StatusBadRequest, verr)
	}

	score := prompt.Clamp(s.scorer.Score(c.Request().Context(), req.Text))
	return c.JSON(http.StatusOK, scoreResponse{Score: score, Engine: s.scorer.Name()})
}

func (s *Server) Signal(c echo.Context) error {
	req := &signalRequest{}
	if verr := readAndValidateRequest(c, req); verr != nil {
		return errorResponse(c, http.StatusBadRequest, verr)
	}
	if req.Asset == "" {
		req.Asset = s.defaultAsset
	}

	ctx := c.Request().Context()
	report, err := s.runner.Run(ctx, req.Asset, types.Mode(req.Mode))
	if err != nil {
		if isDataError(err) {
			logger.Warn(ctx, "Signal request rejected", "asset", req.Asset, "mode", req.Mode, "error", err.Error())
			return errorResponse(c, http.StatusUnprocessableEntity, err.Error())
		}
		logger.ErrorWithErr(ctx, "Signal pipeline failed", err, "asset", req.Asset, "mode", req.Mode)
		return errorResponse(c, http.StatusInternalServerError, "signal pipeline failed")
	}

	last, ok := report.Latest()
	if !ok {
		return errorResponse(c, http.StatusUnprocessableEntity, "no signal rows")
	}

	resp := signalResponse{
		Asset:           report.Asset,
		Mode:            string(report.Mode),
		LatestTimestamp: last.Timestamp.Format(types.NaiveLayout),
		LatestSignal:    int(last.Combined),
	}
	if report.Mode == types.ModeCombined {
		score := signal.NeutralScore
		if last.HasSentiment {
			score = last.SentimentScore
		}
		resp.LatestSentiment = &score
	}
	return c.JSON(http.StatusOK, resp)
}

// isDataError reports whether err comes from unusable input data rather than
// from the service itself.
func isDataError(err error) bool {
	var de *features.DataError
	switch {
	case errors.As(err, &de):
		return true
	case errors.Is(err, signal.ErrMissingIndicator),
		errors.Is(err, signal.ErrIndexMismatch),
		errors.Is(err, ingest.ErrNoPriceFile),
		errors.Is(err, fs.ErrNotExist),
		errors.Is(err, pipeline.ErrInvalidMode):
		return true
	}
	return false
}

func requestLogging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx, span := trace.StartSpan(req.Context(), "http "+req.Method+" "+c.Path())
			defer span.End()
			c.SetRequest(req.WithContext(ctx))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			span.SetAttributes(
				attribute.String("http.method", req.Method),
				attribute.String("http.route", c.Path()),
				attribute.Int("http.status_code", status),
			)
			if status >= http.StatusInternalServerError {
				trace.RecordError(span, errors.New(http.StatusText(status)))
			}
			logger.Debug(ctx, "HTTP request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return nil
		}
	}
}
