package config

import (
	"errors"

	"github.com/cyverse-de/go-mod/cfg"
)

var ServiceName = "quotagate"

// Specification defines the configuration settings for the quotagate service.
type Specification struct {
	DatabaseURI         string
	RunSchemaMigrations bool
	ReinitDB            bool
	ListenPort          int
	NatsCluster         string
	DotEnvPath          string
	ConfigPath          string
	EnvPrefix           string
	MaxReconnects       int
	ReconnectWait       int
	CACertPath          string
	TLSKeyPath          string
	TLSCertPath         string
	CredsPath           string
	BaseSubject         string
	BaseQueueName       string
	SweepIntervalHours  int
}

// LoadConfig loads the configuration for the quotagate service.
func LoadConfig(envPrefix, configPath, dotEnvPath string) (*Specification, error) {
	k, err := cfg.Init(&cfg.Settings{
		EnvPrefix:   envPrefix,
		ConfigPath:  configPath,
		DotEnvPath:  dotEnvPath,
		StrictMerge: false,
		FileType:    cfg.YAML,
	})
	if err != nil {
		return nil, err
	}

	var s Specification

	s.DatabaseURI = k.String("database.uri")
	if s.DatabaseURI == "" {
		return nil, errors.New("database.uri or QUOTAGATE_DATABASE_URI must be set")
	}

	s.RunSchemaMigrations = k.Bool("database.migrate")
	s.ReinitDB = k.Bool("reinit.db")

	s.ListenPort = k.Int("listen.port")
	if s.ListenPort == 0 {
		s.ListenPort = 9000
	}

	s.NatsCluster = k.String("nats.cluster")
	if s.NatsCluster == "" {
		return nil, errors.New("nats.cluster must be set in the configuration file")
	}

	s.CredsPath = k.String("nats.creds.path")
	s.CACertPath = k.String("nats.tls.ca.path")
	s.TLSCertPath = k.String("nats.tls.cert.path")
	s.TLSKeyPath = k.String("nats.tls.key.path")

	s.MaxReconnects = k.Int("nats.reconnects.max")
	if s.MaxReconnects == 0 {
		s.MaxReconnects = 10
	}

	s.ReconnectWait = k.Int("nats.reconnects.wait")
	if s.ReconnectWait == 0 {
		s.ReconnectWait = 1
	}

	s.BaseSubject = k.String("nats.subject.base")
	if s.BaseSubject == "" {
		s.BaseSubject = "quotagate.>"
	}

	s.BaseQueueName = k.String("nats.queue.base")
	if s.BaseQueueName == "" {
		s.BaseQueueName = "quotagate_service"
	}

	// The expiry sweeper is a backstop for lazy expiry on the read path, so a
	// multi-hour period is enough.
	s.SweepIntervalHours = k.Int("sweep.interval.hours")
	if s.SweepIntervalHours == 0 {
		s.SweepIntervalHours = 6
	}

	return &s, nil
}
