package p2p

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/geanlabs/beaconcore/execution"
	"github.com/geanlabs/beaconcore/types"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
)

// forkTopic is a joined payload topic and its subscription.
type forkTopic struct {
	fork  types.ForkName
	topic *pubsub.Topic
	sub   *pubsub.Subscription
}

// Service manages payload gossip.
type Service struct {
	host     host.Host
	pubsub   *pubsub.PubSub
	handlers *MessageHandlers
	logger   *slog.Logger
	topics   map[types.ForkName]*forkTopic

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService joins and subscribes to the payload topic of each configured fork
// and connects to the bootnodes.
func NewService(ctx context.Context, cfg ServiceConfig) (*Service, error) {
	if cfg.Handlers == nil || cfg.Handlers.Spec == nil {
		return nil, errors.New("p2p service needs handlers with a chain spec")
	}
	ctx, cancel := context.WithCancel(ctx)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	spec := cfg.Handlers.Spec
	var largest uint64
	for _, fork := range cfg.forks() {
		limit, err := decodeLimit(spec, fork, cfg.Handlers.maxMessageSize())
		if err != nil {
			cancel()
			return nil, err
		}
		largest = max(largest, limit)
	}

	ps, err := NewGossipSub(ctx, cfg.Host, DefaultGossipsubParams(spec.SlotsPerEpoch), largest)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create gossipsub: %w", err)
	}

	svc := &Service{
		host:     cfg.Host,
		pubsub:   ps,
		handlers: cfg.Handlers,
		logger:   logger,
		topics:   make(map[types.ForkName]*forkTopic),
		ctx:      ctx,
		cancel:   cancel,
	}

	for _, fork := range cfg.forks() {
		name := PayloadTopic(fork)
		topic, err := ps.Join(name)
		if err != nil {
			svc.closeTopics()
			cancel()
			return nil, fmt.Errorf("join topic %s: %w", name, err)
		}
		ft := &forkTopic{fork: fork, topic: topic}
		svc.topics[fork] = ft
		if ft.sub, err = topic.Subscribe(); err != nil {
			svc.closeTopics()
			cancel()
			return nil, fmt.Errorf("subscribe topic %s: %w", name, err)
		}
	}

	for _, pi := range cfg.Bootnodes {
		if err := cfg.Host.Connect(ctx, pi); err != nil {
			logger.Warn("failed to connect to bootnode",
				"peer", pi.ID,
				"error", err,
			)
		} else {
			logger.Info("connected to bootnode", "peer", pi.ID)
		}
	}

	return svc, nil
}

// Start begins processing incoming messages.
func (s *Service) Start() {
	for _, ft := range s.topics {
		s.wg.Add(1)
		go s.processTopic(ft)
	}
	s.logger.Info("p2p service started",
		"peer_id", s.host.ID(),
		"addrs", s.host.Addrs(),
		"topics", len(s.topics),
	)
}

// Stop shuts down the service and closes the host. Topics must close while the
// pubsub loop is still running.
func (s *Service) Stop() {
	s.closeTopics()
	s.cancel()
	s.wg.Wait()
	s.host.Close()
	s.logger.Info("p2p service stopped")
}

func (s *Service) closeTopics() {
	for _, ft := range s.topics {
		if ft.sub != nil {
			ft.sub.Cancel()
		}
		if err := ft.topic.Close(); err != nil {
			s.logger.Warn("failed to close topic",
				"fork", ft.fork,
				"topic", ft.topic.String(),
				"error", err,
			)
		}
	}
}

// PublishPayload publishes payload on its fork's topic.
func (s *Service) PublishPayload(ctx context.Context, payload *execution.ExecutionPayload) error {
	fork := payload.ForkName()
	ft, ok := s.topics[fork]
	if !ok {
		return fmt.Errorf("%w: not subscribed to %s", ErrUnknownTopic, PayloadTopic(fork))
	}
	data, err := s.handlers.EncodePayload(payload)
	if err != nil {
		return err
	}
	if err := ft.topic.Publish(ctx, data); err != nil {
		return fmt.Errorf("publish %s payload: %w", fork, err)
	}
	s.handlers.Metrics.incPublished(fork)
	return nil
}

// PeerCount returns the number of connected peers.
func (s *Service) PeerCount() int {
	return len(s.host.Network().Peers())
}

// processTopic handles incoming messages of one payload topic.
func (s *Service) processTopic(ft *forkTopic) {
	defer s.wg.Done()

	for {
		msg, err := ft.sub.Next(s.ctx)
		if err != nil {
			if s.ctx.Err() != nil || errors.Is(err, pubsub.ErrSubscriptionCancelled) {
				return
			}
			s.logger.Error("payload subscription error", "fork", ft.fork, "error", err)
			continue
		}

		// Skip self-published messages
		if msg.ReceivedFrom == s.host.ID() {
			continue
		}

		if err := s.handlers.HandlePayloadMessage(s.ctx, ft.fork, msg.Data); err != nil {
			s.logger.Warn("dropped payload message",
				"fork", ft.fork,
				"from", msg.ReceivedFrom,
				"error", err,
			)
		}
	}
}
