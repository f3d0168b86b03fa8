// Package node wires gossip, payload storage and metrics into a running relay.
package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/geanlabs/beaconcore/execution"
	"github.com/geanlabs/beaconcore/p2p"
	"github.com/geanlabs/beaconcore/params"
	"github.com/geanlabs/beaconcore/storage"
	"github.com/geanlabs/beaconcore/types"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Node struct {
	config  *Config
	store   storage.PayloadStore
	net     *p2p.Service
	metrics *http.Server
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Config struct {
	Spec        *params.ChainSpec
	Store       storage.PayloadStore
	PrivateKey  crypto.PrivKey
	ListenAddrs []string
	Bootnodes   []string
	Forks       []types.ForkName
	// MetricsAddr serves /metrics when set.
	MetricsAddr string
	Logger      *slog.Logger
}

// New creates a node. The node takes ownership of cfg.Store and closes it on Stop.
func New(ctx context.Context, cfg *Config) (*Node, error) {
	if cfg.Spec == nil || cfg.Store == nil {
		return nil, errors.New("node needs a chain spec and a payload store")
	}
	ctx, cancel := context.WithCancel(ctx)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	host, err := p2p.NewHost(p2p.HostConfig{
		PrivateKey:  cfg.PrivateKey,
		ListenAddrs: cfg.ListenAddrs,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create host: %w", err)
	}

	bootnodes, err := p2p.ParseBootnodes(cfg.Bootnodes)
	if err != nil {
		cancel()
		host.Close()
		return nil, fmt.Errorf("parse bootnodes: %w", err)
	}

	node := &Node{
		config: cfg,
		store:  cfg.Store,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	reg := prometheus.NewRegistry()
	handlers := &p2p.MessageHandlers{
		Spec:      cfg.Spec,
		OnPayload: node.handlePayload,
		Metrics:   p2p.NewMetrics(reg),
		Logger:    logger,
	}

	netSvc, err := p2p.NewService(ctx, p2p.ServiceConfig{
		Host:      host,
		Handlers:  handlers,
		Bootnodes: bootnodes,
		Forks:     cfg.Forks,
		Logger:    logger,
	})
	if err != nil {
		cancel()
		host.Close()
		return nil, fmt.Errorf("create p2p service: %w", err)
	}
	node.net = netSvc

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		node.metrics = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return node, nil
}

// Start begins node operation.
func (n *Node) Start() error {
	if n.metrics != nil {
		ln, err := net.Listen("tcp", n.metrics.Addr)
		if err != nil {
			return fmt.Errorf("listen metrics: %w", err)
		}
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			if err := n.metrics.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				n.logger.Error("metrics server failed", "error", err)
			}
		}()
		n.logger.Info("serving metrics", "addr", ln.Addr().String())
	}

	n.net.Start()
	n.logger.Info("node started", "peers", n.PeerCount())
	return nil
}

// Stop gracefully shuts down the node.
func (n *Node) Stop() {
	n.cancel()
	if n.metrics != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := n.metrics.Shutdown(shutdownCtx); err != nil {
			n.logger.Warn("metrics shutdown", "error", err)
		}
		cancel()
	}
	n.wg.Wait()
	n.net.Stop()
	if err := n.store.Close(); err != nil {
		n.logger.Warn("close payload store", "error", err)
	}
	n.logger.Info("node stopped")
}

// handlePayload stores a gossiped payload unless it is already known.
func (n *Node) handlePayload(_ context.Context, payload *execution.ExecutionPayload) error {
	hash := payload.BlockHash()
	known, err := n.store.HasPayload(hash)
	if err != nil {
		return fmt.Errorf("lookup payload: %w", err)
	}
	if known {
		return nil
	}
	if err := n.store.PutPayload(hash, payload); err != nil {
		return fmt.Errorf("store payload: %w", err)
	}
	n.logger.Info("stored payload",
		"fork", payload.ForkName(),
		"number", payload.BlockNumber(),
		"hash", hash,
	)
	return nil
}

// Publish gossips a locally produced payload and stores it.
func (n *Node) Publish(ctx context.Context, payload *execution.ExecutionPayload) error {
	if err := n.net.PublishPayload(ctx, payload); err != nil {
		return err
	}
	return n.handlePayload(ctx, payload)
}

// PeerCount returns the number of connected peers.
func (n *Node) PeerCount() int {
	return n.net.PeerCount()
}
