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

package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/botscode-team/botscode/api/types"
	"github.com/botscode-team/botscode/pkg/errors"
	"github.com/botscode-team/botscode/pkg/store"
	"github.com/botscode-team/botscode/server/backend"
	"github.com/botscode-team/botscode/server/backend/background"
	"github.com/botscode-team/botscode/server/backend/nodes"
	"github.com/botscode-team/botscode/server/logging"
	"github.com/botscode-team/botscode/server/rpc/auth"
	"github.com/botscode-team/botscode/server/rpc/interceptors"
)

const (
	// writeWait is the time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// sendBufferSize is the number of frames buffered for a slow peer.
	sendBufferSize = 64
)

var (
	// ErrUnknownOp is returned for a frame with an unknown operation.
	ErrUnknownOp = errors.InvalidArgument("unknown operation").WithCode("ErrUnknownOp")

	// ErrInvalidFrame is returned for a frame that is not valid JSON.
	ErrInvalidFrame = errors.InvalidArgument("invalid frame").WithCode("ErrInvalidFrame")
)

// storeHandler serves the store protocol over websocket connections. Every
// websocket is one connection of the store: closing it runs the disconnect
// hooks registered through it.
type storeHandler struct {
	ctx          context.Context
	be           *backend.Backend
	tokens       *auth.TokenManager
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	maxBytes     int64
}

func newStoreHandler(
	ctx context.Context,
	be *backend.Backend,
	tokens *auth.TokenManager,
	conf *Config,
) *storeHandler {
	allowed := make(map[string]struct{}, len(conf.AllowedOrigins))
	for _, origin := range conf.AllowedOrigins {
		allowed[origin] = struct{}{}
	}

	return &storeHandler{
		ctx:    ctx,
		be:     be,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || interceptors.IsAllowedOrigin(allowed, origin)
			},
		},
		pingInterval: conf.ParsePingInterval(),
		maxBytes:     int64(conf.MaxRequestBytes),
	}
}

// ServeHTTP implements http.Handler.
func (h *storeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, err := auth.Authenticate(h.tokens, r)
	if err != nil {
		writeError(w, r, errors.HTTPStatusOf(err), err.Error())
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already replied to the client
		logging.From(r.Context()).Infof("upgrade: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(auth.With(r.Context(), user))
	defer cancel()
	go func() {
		select {
		case <-h.ctx.Done():
			_ = ws.Close()
		case <-ctx.Done():
		}
	}()

	storeConn := h.be.Store.Connect(ctx, user.ID)
	ctx = logging.WithFields(ctx, "user", user.ID, "conn", storeConn.ID().String())

	session := newStoreSession(storeConn, ws, h.pingInterval, h.maxBytes)
	session.run(ctx)

	conn := session.conn
	h.be.Background.AttachGoroutine(func(ctx context.Context) {
		if err := conn.Close(ctx); err != nil && !errors.Is(err, nodes.ErrConnectionClosed) {
			logging.From(ctx).Warnf("close %s: %v", conn.ID(), err)
		}
	}, background.TaskDisconnect)
}

// storeSession serves the frames of one websocket. Requests are handled in
// the order they are read, which keeps the per-client write order.
type storeSession struct {
	conn         *nodes.Conn
	ws           *websocket.Conn
	pingInterval time.Duration
	maxBytes     int64

	send      chan types.StoreResponse
	done      chan struct{}
	closeOnce sync.Once

	mu   sync.Mutex
	subs map[string]store.Unsubscribe
}

func newStoreSession(
	conn *nodes.Conn,
	ws *websocket.Conn,
	pingInterval time.Duration,
	maxBytes int64,
) *storeSession {
	return &storeSession{
		conn:         conn,
		ws:           ws,
		pingInterval: pingInterval,
		maxBytes:     maxBytes,
		send:         make(chan types.StoreResponse, sendBufferSize),
		done:         make(chan struct{}),
		subs:         make(map[string]store.Unsubscribe),
	}
}

// run serves the session until the websocket is closed.
func (s *storeSession) run(ctx context.Context) {
	logger := logging.From(ctx)
	logger.Debugf("WS  : open %s", s.conn.ID())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writeLoop(ctx)
	}()

	s.readLoop(ctx)
	s.close()
	wg.Wait()

	s.mu.Lock()
	for id, unsubscribe := range s.subs {
		unsubscribe()
		delete(s.subs, id)
	}
	s.mu.Unlock()

	if err := s.ws.Close(); err != nil {
		logger.Debugf("WS  : close %s: %v", s.conn.ID(), err)
	}
	logger.Debugf("WS  : closed %s", s.conn.ID())
}

func (s *storeSession) close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

func (s *storeSession) readLoop(ctx context.Context) {
	pongWait := 2 * s.pingInterval
	if s.maxBytes > 0 {
		s.ws.SetReadLimit(s.maxBytes)
	}
	_ = s.ws.SetReadDeadline(time.Now().Add(pongWait))
	s.ws.SetPongHandler(func(string) error {
		if err := s.conn.Refresh(ctx); err != nil {
			return err
		}
		return s.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.From(ctx).Infof("WS  : read %s: %v", s.conn.ID(), err)
			}
			return
		}
		_ = s.ws.SetReadDeadline(time.Now().Add(pongWait))

		var req types.StoreRequest
		if err := json.Unmarshal(data, &req); err != nil {
			s.enqueue(resultOf(types.StoreRequest{}, ErrInvalidFrame))
			continue
		}

		resp := s.handle(ctx, req)
		if !s.enqueue(resp) {
			return
		}
		if resp.Error != nil && resp.Error.Code == nodes.ErrConnectionClosed.Code() {
			return
		}
	}
}

func (s *storeSession) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame := <-s.send:
			_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.ws.WriteJSON(frame); err != nil {
				logging.From(ctx).Infof("WS  : write %s: %v", s.conn.ID(), err)
				s.close()
				_ = s.ws.Close()
				return
			}
		case <-ticker.C:
			if err := s.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.close()
				_ = s.ws.Close()
				return
			}
		case <-s.done:
			_ = s.ws.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait),
			)
			return
		}
	}
}

// enqueue queues the given frame for the peer. It returns false if the
// session is closed.
func (s *storeSession) enqueue(frame types.StoreResponse) bool {
	select {
	case s.send <- frame:
		return true
	case <-s.done:
		return false
	}
}

func (s *storeSession) handle(ctx context.Context, req types.StoreRequest) types.StoreResponse {
	switch req.Op {
	case types.OpWrite:
		return resultOf(req, s.conn.Write(ctx, req.Path, req.Value))
	case types.OpRead:
		snapshot, err := s.conn.Read(ctx, req.Path)
		resp := resultOf(req, err)
		if err == nil {
			resp.Value = snapshot.Raw
		}
		return resp
	case types.OpRemove:
		return resultOf(req, s.conn.Remove(ctx, req.Path))
	case types.OpPush:
		path, err := s.conn.Push(ctx, req.Path)
		resp := resultOf(req, err)
		resp.Path = path
		return resp
	case types.OpSubscribe:
		return s.subscribe(ctx, req)
	case types.OpUnsubscribe:
		s.mu.Lock()
		unsubscribe, ok := s.subs[req.Sub]
		delete(s.subs, req.Sub)
		s.mu.Unlock()
		if ok {
			unsubscribe()
		}
		return resultOf(req, nil)
	case types.OpDisconnectRemove:
		return resultOf(req, s.conn.OnDisconnect(req.Path).Remove(ctx))
	case types.OpDisconnectSet:
		return resultOf(req, s.conn.OnDisconnect(req.Path).Set(ctx, req.Value))
	default:
		return resultOf(req, ErrUnknownOp)
	}
}

// subscribe subscribes to the path of the request. The subscription id is
// chosen by the client so that it can route the initial value, which may
// arrive before the result of the request.
func (s *storeSession) subscribe(ctx context.Context, req types.StoreRequest) types.StoreResponse {
	subID := req.Sub
	if subID == "" {
		subID = types.NewID().String()
	}

	s.mu.Lock()
	_, exists := s.subs[subID]
	s.mu.Unlock()
	if exists {
		return resultOf(req, errors.AlreadyExists("subscription already exists").WithCode("ErrSubscriptionExists"))
	}

	unsubscribe, err := s.conn.Subscribe(ctx, req.Path, func(snapshot store.Snapshot) {
		s.enqueue(types.StoreResponse{
			Type:  types.FrameValue,
			Sub:   subID,
			Path:  snapshot.Path,
			Value: snapshot.Raw,
		})
	})
	if err != nil {
		return resultOf(req, err)
	}

	s.mu.Lock()
	s.subs[subID] = unsubscribe
	s.mu.Unlock()

	resp := resultOf(req, nil)
	resp.Sub = subID
	return resp
}

// resultOf builds the result frame of the given request.
func resultOf(req types.StoreRequest, err error) types.StoreResponse {
	resp := types.StoreResponse{
		ID:   req.ID,
		Type: types.FrameResult,
		Path: req.Path,
	}
	if err != nil {
		status := errors.StatusOf(err)
		if status == 0 {
			status = errors.ErrCodeInternal
		}
		resp.Error = &types.FrameError{
			Status:  int(status),
			Code:    errors.CodeOf(err),
			Message: err.Error(),
		}
	}
	return resp
}
