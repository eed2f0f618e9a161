package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	"github.com/toolbench/quotagate/config"
	"github.com/toolbench/quotagate/internal/catalog"
	"github.com/toolbench/quotagate/internal/controllers"
	"github.com/toolbench/quotagate/internal/db"
	"github.com/toolbench/quotagate/internal/gate"
	"github.com/toolbench/quotagate/internal/ledger"
	"github.com/toolbench/quotagate/internal/model"
	"github.com/toolbench/quotagate/internal/sweeper"
	"github.com/toolbench/quotagate/internal/usagecounter"
	"github.com/toolbench/quotagate/logging"
)

var log = logging.GetLogger().WithFields(logrus.Fields{"package": "server"})

func natsSubject(base string, fields ...string) string {
	trimmed := strings.TrimSuffix(
		strings.TrimSuffix(base, ".*"),
		".>",
	)
	addFields := strings.Join(fields, ".")
	return fmt.Sprintf("%s.%s", trimmed, addFields)
}

func natsQueue(qBase string, fields ...string) string {
	return fmt.Sprintf("%s.%s", qBase, strings.Join(fields, "."))
}

func queueSub(conn *nats.EncodedConn, spec *config.Specification, name string, handler nats.Handler) {
	var err error

	subject := natsSubject(spec.BaseSubject, name)
	queue := natsQueue(spec.BaseQueueName, name)

	if _, err = conn.QueueSubscribe(subject, queue, handler); err != nil {
		log.Fatal(err)
	}

	log.Infof("subscribed to %s on queue %s", subject, queue)
}

func InitNATS(spec *config.Specification) *nats.EncodedConn {
	nc, err := nats.Connect(
		spec.NatsCluster,
		nats.UserCredentials(spec.CredsPath),
		nats.RootCAs(spec.CACertPath),
		nats.ClientCert(spec.TLSCertPath, spec.TLSKeyPath),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(spec.MaxReconnects),
		nats.ReconnectWait(time.Duration(spec.ReconnectWait)*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Errorf("disconnected from nats: %s", err.Error())
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Errorf("connection closed: %s", nc.LastError().Error())
		}),
	)
	if err != nil {
		log.Fatal(err)
	}

	log.Infof("configured servers: %s", strings.Join(nc.Servers(), " "))
	log.Infof("connected to NATS host: %s", nc.ConnectedServerName())

	conn, err := nats.NewEncodedConn(nc, nats.JSON_ENCODER)
	if err != nil {
		log.Fatal(err)
	}

	log.Infof("set up encoded connection to NATS")

	return conn
}

func Init(spec *config.Specification) {
	log := log.WithFields(logrus.Fields{"context": "server init"})

	e := InitRouter()

	// Establish the database connection.
	log.Info("establishing the database connection")
	sqldb, gormdb, err := db.Init("postgres", spec.DatabaseURI)
	if err != nil {
		log.Fatalf("service initialization failed: %s", err.Error())
	}

	// Build the domain services.
	planCatalog := catalog.NewPlanCatalog(gormdb)
	subscriptionLedger := ledger.NewSubscriptionLedger(gormdb, planCatalog)
	counter := usagecounter.NewCounter(gormdb)
	quotaGate := gate.NewQuotaGate(subscriptionLedger, counter)

	// Make sure the default plans exist.
	if err = planCatalog.Bootstrap(context.Background(), model.DefaultPlans()); err != nil {
		log.Fatalf("unable to bootstrap the plan catalog: %s", err.Error())
	}

	// Expire lapsed subscriptions in the background.
	sweepInterval := time.Duration(spec.SweepIntervalHours) * time.Hour
	go sweeper.New(subscriptionLedger, sweepInterval).Run(context.Background())

	conn := InitNATS(spec)

	s := controllers.Server{
		Router:   e,
		DB:       sqldb,
		GORMDB:   gormdb,
		Service:  config.ServiceName,
		Title:    "QuotaGate",
		Version:  controllers.ServiceVersion,
		NATSConn: conn,
		Catalog:  planCatalog,
		Ledger:   subscriptionLedger,
		Counter:  counter,
		Gate:     quotaGate,
	}

	// Register the handlers.
	RegisterHandlers(s)

	queueSub(conn, spec, "user.admissions.add", s.AdmitNATS)

	// This should be safe to use to get the current usages.
	queueSub(conn, spec, "user.usages.get", s.GetUsagesNATS)

	// Advisory only. A favorable answer can be invalidated by a concurrent admission.
	queueSub(conn, spec, "user.quota.check", s.CheckQuotaNATS)

	log.Info("starting the service")
	log.Fatal(e.Start(fmt.Sprintf(":%d", spec.ListenPort)))
}
