/*
 * Copyright 2026 The BotsCode Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package rpc provides the HTTP surface of BotsCode: code execution, AI
// assistance, the websocket store protocol and the health checks.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	grpcmiddleware "github.com/grpc-ecosystem/go-grpc-middleware"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/botscode-team/botscode/server/backend"
	"github.com/botscode-team/botscode/server/logging"
	"github.com/botscode-team/botscode/server/rpc/auth"
	rpchealth "github.com/botscode-team/botscode/server/rpc/health"
	"github.com/botscode-team/botscode/server/rpc/interceptors"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server is a normal server that processes the logic requested by the client.
type Server struct {
	conf          *Config
	router        *mux.Router
	httpServer    *http.Server
	grpcServer    *grpc.Server
	healthServer  *health.Server
	serviceCancel context.CancelFunc
}

// NewServer creates a new instance of Server.
func NewServer(conf *Config, be *backend.Backend) (*Server, error) {
	loggingInterceptor := interceptors.NewLoggingInterceptor()

	opts := []grpc.ServerOption{
		grpc.UnaryInterceptor(grpcmiddleware.ChainUnaryServer(
			loggingInterceptor.Unary(),
			be.Metrics.ServerMetrics().UnaryServerInterceptor(),
		)),
		grpc.StreamInterceptor(grpcmiddleware.ChainStreamServer(
			loggingInterceptor.Stream(),
			be.Metrics.ServerMetrics().StreamServerInterceptor(),
		)),
	}

	if conf.CertFile != "" && conf.KeyFile != "" {
		creds, err := credentials.NewServerTLSFromFile(conf.CertFile, conf.KeyFile)
		if err != nil {
			logging.DefaultLogger().Error(err)
			return nil, err
		}
		opts = append(opts, grpc.Creds(creds))
	}

	grpcServer := grpc.NewServer(opts...)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	be.Metrics.RegisterGRPCServer(grpcServer)

	serviceCtx, serviceCancel := context.WithCancel(context.Background())
	tokens := auth.NewTokenManager(be.Config.SecretKey, be.Config.ParseTokenDuration())
	maxRequestBytes := int64(conf.MaxRequestBytes)

	router := mux.NewRouter()
	router.Handle("/api/runCode", newExecutionHandler(be, maxRequestBytes))
	router.Handle("/api/assist", newAssistHandler(be, maxRequestBytes))
	router.Handle("/v1/store", newStoreHandler(serviceCtx, be, tokens, conf)).Methods(http.MethodGet)
	router.HandleFunc(VersionPath, serveVersion).Methods(http.MethodGet)
	healthPath, healthHandler := rpchealth.NewHTTPHandler(healthServer)
	router.Handle(healthPath, healthHandler)
	router.Use(loggingInterceptor.HTTP, interceptors.CORS(conf.AllowedOrigins))

	return &Server{
		conf:   conf,
		router: router,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", conf.Port),
			Handler:           router,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		grpcServer:    grpcServer,
		healthServer:  healthServer,
		serviceCancel: serviceCancel,
	}, nil
}

// Handler returns the HTTP handler of this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts this server by opening the rpc and admin ports.
func (s *Server) Start() error {
	if err := s.listenAndServeGRPC(); err != nil {
		return err
	}
	return s.listenAndServeHTTP()
}

// Shutdown shuts down this server.
func (s *Server) Shutdown(graceful bool) {
	s.healthServer.Shutdown()
	s.serviceCancel()

	if graceful {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			logging.DefaultLogger().Errorf("HTTP server shutdown: %v", err)
		}
		s.grpcServer.GracefulStop()
		return
	}

	if err := s.httpServer.Close(); err != nil {
		logging.DefaultLogger().Errorf("HTTP server close: %v", err)
	}
	s.grpcServer.Stop()
}

func (s *Server) listenAndServeHTTP() error {
	lis, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		logging.DefaultLogger().Error(err)
		return err
	}

	go func() {
		logging.DefaultLogger().Infof("serving RPC on %d", s.conf.Port)

		if s.conf.CertFile != "" && s.conf.KeyFile != "" {
			err = s.httpServer.ServeTLS(lis, s.conf.CertFile, s.conf.KeyFile)
		} else {
			err = s.httpServer.Serve(lis)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.DefaultLogger().Error(err)
		}
	}()

	return nil
}

func (s *Server) listenAndServeGRPC() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.conf.AdminPort))
	if err != nil {
		logging.DefaultLogger().Error(err)
		return err
	}

	go func() {
		logging.DefaultLogger().Infof("serving admin on %d", s.conf.AdminPort)

		if err := s.grpcServer.Serve(lis); err != nil {
			if err != grpc.ErrServerStopped {
				logging.DefaultLogger().Error(err)
			}
		}
	}()

	return nil
}
