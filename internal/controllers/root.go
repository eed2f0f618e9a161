package controllers

import (
	"database/sql"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	"github.com/toolbench/quotagate/internal/catalog"
	"github.com/toolbench/quotagate/internal/gate"
	"github.com/toolbench/quotagate/internal/ledger"
	"github.com/toolbench/quotagate/internal/model"
	"github.com/toolbench/quotagate/internal/usagecounter"
	"github.com/toolbench/quotagate/logging"
	"gorm.io/gorm"
)

var log = logging.GetLogger().WithFields(logrus.Fields{"package": "controllers"})

// ServiceVersion is reported by the root endpoints.
const ServiceVersion = "v0.1.0"

// Server carries the shared dependencies for all of the request handlers.
type Server struct {
	Router   *echo.Echo
	DB       *sql.DB
	GORMDB   *gorm.DB
	Service  string
	Title    string
	Version  string
	NATSConn *nats.EncodedConn
	Catalog  *catalog.PlanCatalog
	Ledger   *ledger.SubscriptionLedger
	Counter  *usagecounter.Counter
	Gate     *gate.QuotaGate
}

// ServiceInfo describes this service.
//
// swagger:model
type ServiceInfo struct {
	// The name of the service
	Service string `json:"service"`

	// A brief description of the service
	Title string `json:"title"`

	// The service version
	Version string `json:"version"`
}

// RootHandler handles the root endpoint, which doubles as a health check.
func (s Server) RootHandler(ctx echo.Context) error {
	resp := ServiceInfo{Service: s.Service, Title: s.Title, Version: s.Version}
	return model.Success(ctx, resp, http.StatusOK)
}

// V1RootHandler handles the root endpoint of the version 1 API.
func (s Server) V1RootHandler(ctx echo.Context) error {
	resp := ServiceInfo{Service: s.Service, Title: s.Title, Version: "v1"}
	return model.Success(ctx, resp, http.StatusOK)
}
