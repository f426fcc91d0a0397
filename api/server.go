package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/decipherlabs/payroll-keeper/internal/types"
	"github.com/decipherlabs/payroll-keeper/service"
	"github.com/decipherlabs/payroll-keeper/storage"
)

const (
	defaultTake = 20
	maxTake     = 100
)

type TokenValidator interface {
	ValidateToken(tokenString string) (*service.Claims, error)
}

type Server struct {
	host     string
	port     int64
	runs     service.Runs
	auth     TokenValidator
	sdClient statsd.ClientInterface
	logger   logrus.FieldLogger
	echo     *echo.Echo
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Message: message}
}

type echoValidator struct {
	validate *validator.Validate
}

func (v *echoValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func NewServer(host string, port int64, runs service.Runs, auth TokenValidator, sdClient statsd.ClientInterface, logger logrus.FieldLogger) *Server {
	if sdClient == nil {
		sdClient = &statsd.NoOpClient{}
	}
	s := &Server{
		host:     host,
		port:     port,
		runs:     runs,
		auth:     auth,
		sdClient: sdClient,
		logger:   logger,
	}
	s.echo = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &echoValidator{validate: validator.New()}
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(s.statsdMiddleware)

	e.GET("/ping", s.Ping)
	e.GET("/runs", s.ListRuns)
	e.GET("/runs/:id", s.GetRun)
	e.POST("/runs", s.TriggerRun, s.AuthMiddleware)
	e.GET("/contracts/:address/labels", s.GetEmployeeLabels)
	e.PUT("/contracts/:address/labels", s.ImportEmployeeLabels, s.AuthMiddleware)
	return e
}

func (s *Server) StartServer() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	s.logger.WithField("addr", addr).Info("Starting API server")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) statsdMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		tags := []string{"path:" + c.Path(), "method:" + c.Request().Method}
		if sdErr := s.sdClient.Timing("http.request.latency", time.Since(start), tags, 1); sdErr != nil {
			s.logger.Errorf("fail to measure time metric, err: %v", sdErr)
		}
		if sdErr := s.sdClient.Count("http.request", 1, tags, 1); sdErr != nil {
			s.logger.Errorf("fail to count metric, err: %v", sdErr)
		}
		return err
	}
}

func (s *Server) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.auth == nil {
			return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("authentication is not configured"))
		}
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			return c.JSON(http.StatusUnauthorized, NewErrorResponse("missing bearer token"))
		}
		if _, err := s.auth.ValidateToken(tokenString); err != nil {
			s.logger.WithError(err).Warn("Rejected API token")
			return c.JSON(http.StatusUnauthorized, NewErrorResponse("invalid token"))
		}
		return next(c)
	}
}

func (s *Server) Ping(c echo.Context) error {
	return c.String(http.StatusOK, "pong")
}

func (s *Server) ListRuns(c echo.Context) error {
	contract := c.QueryParam("contract")
	if contract != "" && !common.IsHexAddress(contract) {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid contract address"))
	}

	take := defaultTake
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid limit"))
		}
		take = min(n, maxTake)
	}
	skip := 0
	if v := c.QueryParam("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid skip"))
		}
		skip = n
	}

	runs, err := s.runs.ListRuns(c.Request().Context(), contract, take, skip)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list runs")
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("failed to list runs"))
	}
	return c.JSON(http.StatusOK, runs)
}

func (s *Server) GetRun(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid run id"))
	}

	run, err := s.runs.GetRun(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.JSON(http.StatusNotFound, NewErrorResponse("run not found"))
		}
		s.logger.WithError(err).Error("Failed to get run")
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("failed to get run"))
	}
	return c.JSON(http.StatusOK, run)
}

type TriggerRunResponse struct {
	TaskID          string `json:"task_id"`
	ContractAddress string `json:"contract_address"`
}

func (s *Server) TriggerRun(c echo.Context) error {
	var req types.PayrollRunEvent
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("contract_address must be a valid address"))
	}

	ti, err := s.runs.TriggerRun(c.Request().Context(), req.ContractAddress)
	if err != nil {
		s.logger.WithError(err).Error("Failed to trigger run")
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("failed to enqueue payroll run"))
	}
	return c.JSON(http.StatusAccepted, TriggerRunResponse{
		TaskID:          ti.ID,
		ContractAddress: common.HexToAddress(req.ContractAddress).Hex(),
	})
}

func (s *Server) GetEmployeeLabels(c echo.Context) error {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid contract address"))
	}
	labels, err := s.runs.GetEmployeeLabels(c.Request().Context(), address)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get employee labels")
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("failed to get employee labels"))
	}
	return c.JSON(http.StatusOK, labels)
}

func (s *Server) ImportEmployeeLabels(c echo.Context) error {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid contract address"))
	}
	var labels map[string]string
	if err := json.NewDecoder(c.Request().Body).Decode(&labels); err != nil || len(labels) == 0 {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid request body"))
	}
	if err := s.runs.ImportEmployeeLabels(c.Request().Context(), address, labels); err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return c.JSON(http.StatusBadRequest, NewErrorResponse(err.Error()))
		}
		s.logger.WithError(err).Error("Failed to import employee labels")
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("failed to import employee labels"))
	}
	return c.NoContent(http.StatusNoContent)
}
