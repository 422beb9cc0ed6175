// Copyright (c) 2019 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cassandra

import (
	"time"

	"github.com/gocql/gocql"
	log "github.com/sirupsen/logrus"
)

const (
	defaultConnectionsPerHost = 3
	defaultTimeout            = 20 * time.Second
	defaultProtoVersion       = 3
	defaultConsistency        = "LOCAL_QUORUM"
	defaultSocketKeepAlive    = 30 * time.Second
	defaultPageSize           = 1000
	defaultPort               = 9042
	defaultRetryCount         = 3
)

// Config is the yaml configuration of the Cassandra connector.
type Config struct {
	ContactPoints      []string      `yaml:"contactPoints" validate:"nonzero"`
	Port               int           `yaml:"port"`
	Keyspace           string        `yaml:"keyspace" validate:"nonzero"`
	Username           string        `yaml:"username"`
	Password           string        `yaml:"password"`
	Consistency        string        `yaml:"consistency"`
	ConnectionsPerHost int           `yaml:"connectionsPerHost"`
	Timeout            time.Duration `yaml:"timeout"`
	SocketKeepalive    time.Duration `yaml:"socketKeepalive"`
	ProtoVersion       int           `yaml:"protoVersion"`
	DataCenter         string        `yaml:"dataCenter"`
	PageSize           int           `yaml:"pageSize"`
	RetryCount         int           `yaml:"retryCount"`
	HostPolicy         string        `yaml:"hostPolicy"`
}

// CreateStoreSession creates a gocql session on the configured keyspace.
func CreateStoreSession(config *Config) (*gocql.Session, error) {
	cluster := newCluster(config)

	session, err := cluster.CreateSession()
	if err != nil {
		log.WithError(err).Error("Fail to create C* session")
		return nil, err
	}

	log.WithFields(log.Fields{
		"key_space":      config.Keyspace,
		"cassandra_port": cluster.Port,
	}).Info("C* Session Created.")
	return session, nil
}

// newCluster fills unset config values with defaults.
func newCluster(config *Config) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(config.ContactPoints...)
	cluster.Keyspace = config.Keyspace

	if len(config.Username) != 0 {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: config.Username,
			Password: config.Password,
		}
	}

	consistency := config.Consistency
	if consistency == "" {
		consistency = defaultConsistency
	}
	cluster.Consistency = gocql.ParseConsistency(consistency)

	cluster.Timeout = config.Timeout
	if cluster.Timeout == 0 {
		cluster.Timeout = defaultTimeout
	}

	cluster.NumConns = config.ConnectionsPerHost
	if cluster.NumConns == 0 {
		cluster.NumConns = defaultConnectionsPerHost
	}

	cluster.ProtoVersion = config.ProtoVersion
	if cluster.ProtoVersion == 0 {
		cluster.ProtoVersion = defaultProtoVersion
	}

	cluster.SocketKeepalive = config.SocketKeepalive
	if cluster.SocketKeepalive == 0 {
		cluster.SocketKeepalive = defaultSocketKeepAlive
	}

	cluster.PageSize = config.PageSize
	if cluster.PageSize == 0 {
		cluster.PageSize = defaultPageSize
	}

	cluster.Port = config.Port
	if cluster.Port == 0 {
		cluster.Port = defaultPort
	}

	dc := config.DataCenter
	if dc != "" {
		cluster.HostFilter = gocql.DataCentreHostFilter(dc)
	}

	if config.HostPolicy == "TokenAwareHostPolicy" {
		if dc != "" {
			cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(
				gocql.DCAwareRoundRobinPolicy(dc))
		} else {
			cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(
				gocql.RoundRobinHostPolicy())
		}
	} else {
		cluster.PoolConfig.HostSelectionPolicy = gocql.RoundRobinHostPolicy()
	}

	retries := config.RetryCount
	if retries == 0 {
		retries = defaultRetryCount
	}
	cluster.RetryPolicy = &gocql.SimpleRetryPolicy{NumRetries: retries}

	return cluster
}
