package messaging

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/dilloncoffman/BlazingPizzas/protocol"
)

// Heartbeater sends track.register on startup and track.heartbeat
// periodically, carrying the live watch count for the ops dashboard.
type Heartbeater struct {
	client        *Client
	nodeID        string
	version       string
	topic         string
	interval      time.Duration
	activeWatches func() int
	startTime     time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewHeartbeater creates a heartbeater for the given storefront identity.
func NewHeartbeater(client *Client, nodeID, version, statusTopic string, interval time.Duration, activeWatches func() int) *Heartbeater {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Heartbeater{
		client:        client,
		nodeID:        nodeID,
		version:       version,
		topic:         statusTopic,
		interval:      interval,
		activeWatches: activeWatches,
		stopCh:        make(chan struct{}),
	}
}

// Start sends an initial registration and begins the heartbeat loop.
func (h *Heartbeater) Start() {
	h.startTime = time.Now()
	h.sendRegister()
	go h.loop()
}

// Stop halts the heartbeat loop.
func (h *Heartbeater) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
}

func (h *Heartbeater) sendRegister() {
	hostname, _ := os.Hostname()
	env, err := protocol.NewEnvelope(
		protocol.TypeTrackRegister,
		protocol.Address{Role: protocol.RoleStorefront, Node: h.nodeID},
		protocol.Address{Role: protocol.RoleOps},
		&protocol.TrackRegister{
			NodeID:        h.nodeID,
			Hostname:      hostname,
			Version:       h.version,
			ActiveWatches: h.activeWatches(),
		},
	)
	if err != nil {
		log.Printf("heartbeater: build register: %v", err)
		return
	}
	if err := h.client.PublishEnvelope(h.topic, env); err != nil {
		log.Printf("heartbeater: send register: %v", err)
	} else {
		log.Printf("heartbeater: sent track.register (node=%s)", h.nodeID)
	}
}

func (h *Heartbeater) sendHeartbeat() {
	uptime := int64(time.Since(h.startTime).Seconds())
	env, err := protocol.NewEnvelope(
		protocol.TypeTrackHeartbeat,
		protocol.Address{Role: protocol.RoleStorefront, Node: h.nodeID},
		protocol.Address{Role: protocol.RoleOps},
		&protocol.TrackHeartbeat{
			NodeID:        h.nodeID,
			Uptime:        uptime,
			ActiveWatches: h.activeWatches(),
		},
	)
	if err != nil {
		log.Printf("heartbeater: build heartbeat: %v", err)
		return
	}
	if err := h.client.PublishEnvelope(h.topic, env); err != nil {
		log.Printf("heartbeater: send heartbeat: %v", err)
	}
}

func (h *Heartbeater) loop() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			h.sendHeartbeat()
		}
	}
}
