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

// Package client provides the Go client of the store served by BotsCode. A
// Client is a store.Store whose connection lasts as long as its websocket:
// the disconnect hooks registered through it run when the websocket closes or
// stops answering pings.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/botscode-team/botscode/api/types"
	"github.com/botscode-team/botscode/pkg/errors"
	"github.com/botscode-team/botscode/pkg/store"
)

// StorePath is the path of the store endpoint.
const StorePath = "/v1/store"

var (
	// ErrClientClosed is returned when a closed client is used.
	ErrClientClosed = errors.FailedPrecond("client closed").WithCode("ErrClientClosed")

	// ErrUnauthenticated is returned when the server rejects the token.
	ErrUnauthenticated = errors.Unauthenticated("unauthenticated").WithCode("ErrUnauthenticated")
)

// knownErrors restores the errors of the store carried by result frames.
var knownErrors = map[string]error{
	store.ErrInvalidPath.Code():    store.ErrInvalidPath,
	store.ErrRootNotAllowed.Code(): store.ErrRootNotAllowed,
}

// Client is a client of the store.
type Client struct {
	ws             *websocket.Conn
	logger         *zap.Logger
	requestTimeout time.Duration

	seq     atomic.Uint64
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[uint64]chan types.StoreResponse
	subs    map[string]*store.Listener
	closed  bool

	done chan struct{}
}

// Dial connects to the store of the server at the given address, e.g.
// "localhost:8080" or "https://botscode.example.com".
func Dial(ctx context.Context, rpcAddr string, opts ...Option) (*Client, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.RequestTimeout == 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	if o.Logger == nil {
		logger, err := zap.NewProduction()
		if err != nil {
			return nil, fmt.Errorf("create logger: %w", err)
		}
		o.Logger = logger
	}

	endpoint, err := storeURL(rpcAddr)
	if err != nil {
		return nil, err
	}

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, authHeader(o.Token))
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("dial %s: %w", endpoint, ErrUnauthenticated)
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	c := &Client{
		ws:             ws,
		logger:         o.Logger,
		requestTimeout: o.RequestTimeout,
		pending:        make(map[uint64]chan types.StoreResponse),
		subs:           make(map[string]*store.Listener),
		done:           make(chan struct{}),
	}
	go c.readLoop()

	return c, nil
}

// storeURL returns the websocket URL of the store of the given address.
func storeURL(rpcAddr string) (string, error) {
	if !strings.Contains(rpcAddr, "://") {
		rpcAddr = "http://" + rpcAddr
	}

	u, err := url.Parse(rpcAddr)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", rpcAddr, err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q of %s", u.Scheme, rpcAddr)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + StorePath

	return u.String(), nil
}

// Write replaces the value at the given path.
func (c *Client) Write(ctx context.Context, path string, value any) error {
	snapshot, err := store.NewSnapshot(path, value)
	if err != nil {
		return err
	}

	_, err = c.request(ctx, types.StoreRequest{Op: types.OpWrite, Path: path, Value: snapshot.Raw})
	return err
}

// Read returns the current value at the given path.
func (c *Client) Read(ctx context.Context, path string) (store.Snapshot, error) {
	resp, err := c.request(ctx, types.StoreRequest{Op: types.OpRead, Path: path})
	if err != nil {
		return store.Snapshot{}, err
	}

	return snapshotOf(path, resp.Value), nil
}

// Remove deletes the value at the given path.
func (c *Client) Remove(ctx context.Context, path string) error {
	_, err := c.request(ctx, types.StoreRequest{Op: types.OpRemove, Path: path})
	return err
}

// Push allocates a new child path under the given prefix.
func (c *Client) Push(ctx context.Context, prefix string) (string, error) {
	resp, err := c.request(ctx, types.StoreRequest{Op: types.OpPush, Path: prefix})
	if err != nil {
		return "", err
	}
	return resp.Path, nil
}

// Subscribe delivers the current value at the path and then every change.
// Values are delivered in order on a goroutine of the subscription.
func (c *Client) Subscribe(ctx context.Context, path string, fn store.Callback) (store.Unsubscribe, error) {
	subID := types.NewID().String()
	listener := store.NewListener(fn)

	// registered first: the initial value may arrive before the result
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClientClosed
	}
	c.subs[subID] = listener
	c.mu.Unlock()

	if _, err := c.request(ctx, types.StoreRequest{Op: types.OpSubscribe, Path: path, Sub: subID}); err != nil {
		c.removeSub(subID)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if !c.removeSub(subID) {
				return
			}

			ctx, cancel := context.WithTimeout(context.Background(), c.requestTimeout)
			defer cancel()
			if _, err := c.request(ctx, types.StoreRequest{Op: types.OpUnsubscribe, Sub: subID}); err != nil &&
				!errors.Is(err, ErrClientClosed) {
				c.logger.Sugar().Warnf("unsubscribe %s: %v", path, err)
			}
		})
	}, nil
}

// OnDisconnect returns the handle registering hooks at the given path.
func (c *Client) OnDisconnect(path string) store.Disconnect {
	return &disconnect{client: c, path: path}
}

// Close closes the connection. The server runs the disconnect hooks of the
// connection. Closing twice does nothing.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.writeMu.Lock()
	err := c.ws.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	c.writeMu.Unlock()
	if err != nil {
		c.logger.Sugar().Debugf("close message: %v", err)
	}

	_ = c.ws.Close()
	<-c.done

	return nil
}

// Done returns a channel closed when the connection is lost or closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) request(ctx context.Context, req types.StoreRequest) (types.StoreResponse, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	req.ID = c.seq.Add(1)
	result := make(chan types.StoreResponse, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return types.StoreResponse{}, ErrClientClosed
	}
	c.pending[req.ID] = result
	c.mu.Unlock()

	c.writeMu.Lock()
	err := c.ws.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		c.removePending(req.ID)
		return types.StoreResponse{}, fmt.Errorf("%s %s: %w", req.Op, req.Path, err)
	}

	select {
	case resp, ok := <-result:
		if !ok {
			return types.StoreResponse{}, ErrClientClosed
		}
		if resp.Error != nil {
			return resp, fmt.Errorf("%s %s: %w", req.Op, req.Path, errorOf(resp.Error))
		}
		return resp, nil
	case <-ctx.Done():
		c.removePending(req.ID)
		return types.StoreResponse{}, fmt.Errorf("%s %s: %w", req.Op, req.Path, ctx.Err())
	}
}

func (c *Client) readLoop() {
	defer c.shutdown()

	for {
		var frame types.StoreResponse
		if err := c.ws.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Sugar().Infof("read: %v", err)
			}
			return
		}

		switch frame.Type {
		case types.FrameResult:
			c.mu.Lock()
			result, ok := c.pending[frame.ID]
			delete(c.pending, frame.ID)
			c.mu.Unlock()
			if ok {
				result <- frame
			}
		case types.FrameValue:
			c.mu.Lock()
			listener, ok := c.subs[frame.Sub]
			c.mu.Unlock()
			if ok {
				listener.Notify(snapshotOf(frame.Path, frame.Value))
			}
		}
	}
}

// shutdown fails the pending requests and stops the subscriptions.
func (c *Client) shutdown() {
	c.mu.Lock()
	c.closed = true
	for id, result := range c.pending {
		close(result)
		delete(c.pending, id)
	}
	for id, listener := range c.subs {
		listener.Close()
		delete(c.subs, id)
	}
	c.mu.Unlock()

	_ = c.ws.Close()
	close(c.done)
}

func (c *Client) removePending(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, id)
}

func (c *Client) removeSub(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	listener, ok := c.subs[id]
	if !ok {
		return false
	}
	listener.Close()
	delete(c.subs, id)
	return true
}

type disconnect struct {
	client *Client
	path   string
}

// Remove registers the removal of the path.
func (d *disconnect) Remove(ctx context.Context) error {
	_, err := d.client.request(ctx, types.StoreRequest{Op: types.OpDisconnectRemove, Path: d.path})
	return err
}

// Set registers a write of the given value at the path.
func (d *disconnect) Set(ctx context.Context, value any) error {
	snapshot, err := store.NewSnapshot(d.path, value)
	if err != nil {
		return err
	}

	_, err = d.client.request(ctx, types.StoreRequest{Op: types.OpDisconnectSet, Path: d.path, Value: snapshot.Raw})
	return err
}

func snapshotOf(path string, raw json.RawMessage) store.Snapshot {
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	return store.Snapshot{Path: path, Raw: raw}
}

// errorOf restores the error of a result frame.
func errorOf(fe *types.FrameError) error {
	if known, ok := knownErrors[fe.Code]; ok {
		return known
	}

	err := errors.FromStatus(errors.StatusCode(fe.Status), fe.Message)
	if fe.Code != "" {
		return err.WithCode(fe.Code)
	}
	return err
}
