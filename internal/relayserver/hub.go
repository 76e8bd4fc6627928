// Package relayserver is a broadcast relay: every text message from one peer
// is forwarded to all connected peers.
package relayserver

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/rbright/capsync/internal/relay"
)

const peerQueueSize = 32

// Hub fans messages out to every joined peer.
type Hub struct {
	logger *slog.Logger
	// echo also delivers a message back to its sender, matching the public relay.
	echo bool

	mu     sync.RWMutex
	nextID uint64
	peers  map[uint64]*peer
}

type peer struct {
	id  uint64
	out chan string
}

// NewHub builds an empty hub.
func NewHub(echo bool, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{logger: logger, echo: echo, peers: make(map[uint64]*peer)}
}

// Peers reports the number of connected peers.
func (h *Hub) Peers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

func (h *Hub) join() *peer {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	p := &peer{id: h.nextID, out: make(chan string, peerQueueSize)}
	h.peers[p.id] = p
	return p
}

func (h *Hub) leave(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.peers, p.id)
}

func (h *Hub) broadcast(from *peer, text string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, p := range h.peers {
		if id == from.id && !h.echo {
			continue
		}
		select {
		case p.out <- text:
		default:
			h.logger.Warn("relay peer queue full; dropping message", "peer", id)
		}
	}
}

// Serve relays for one peer until its connection fails or ctx ends, then
// closes conn.
func (h *Hub) Serve(ctx context.Context, conn relay.Conn) error {
	p := h.join()
	logger := h.logger.With("peer", p.id)
	logger.Info("relay peer joined", "peers", h.Peers())

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case text := <-p.out:
				if err := conn.Send(ctx, text); err != nil {
					logger.Debug("relay send failed", "error", err.Error())
					return
				}
			}
		}
	}()

	var err error
	for {
		var text string
		text, err = conn.Receive(ctx)
		if err != nil {
			break
		}
		h.broadcast(p, text)
	}

	h.leave(p)
	cancel()
	_ = conn.Close()
	wg.Wait()
	logger.Info("relay peer left", "peers", h.Peers())

	if errors.Is(err, relay.ErrClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
