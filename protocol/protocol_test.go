package protocol

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	src := Address{Role: RoleStorefront, Node: "storefront-1"}
	dst := Address{Role: RoleOps, Node: ""}

	env, err := NewEnvelope(TypeOrderStatusChanged, src, dst, &OrderStatusChanged{
		OrderID:   42,
		OldStatus: "Preparing",
		NewStatus: "Out for delivery",
	})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}

	if env.Version != Version {
		t.Errorf("version = %d, want %d", env.Version, Version)
	}
	if env.Type != TypeOrderStatusChanged {
		t.Errorf("type = %q, want %q", env.Type, TypeOrderStatusChanged)
	}
	if env.Src != src {
		t.Errorf("src = %+v, want %+v", env.Src, src)
	}
	if env.ID == "" {
		t.Error("ID should not be empty")
	}

	data, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var decoded Envelope
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded.Type != TypeOrderStatusChanged {
		t.Errorf("decoded type = %q, want %q", decoded.Type, TypeOrderStatusChanged)
	}
	if decoded.ID != env.ID {
		t.Errorf("decoded id = %q, want %q", decoded.ID, env.ID)
	}

	var p OrderStatusChanged
	if err := decoded.DecodePayload(&p); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if p.OrderID != 42 {
		t.Errorf("order_id = %d, want 42", p.OrderID)
	}
	if p.NewStatus != "Out for delivery" {
		t.Errorf("new_status = %q, want %q", p.NewStatus, "Out for delivery")
	}
}

func TestNewReply(t *testing.T) {
	reply, err := NewReply(TypeTrackRegistered,
		Address{Role: RoleOps},
		Address{Role: RoleStorefront, Node: "storefront-1"},
		"orig-msg-id",
		&TrackRegistered{NodeID: "storefront-1"},
	)
	if err != nil {
		t.Fatalf("NewReply: %v", err)
	}
	if reply.CorID != "orig-msg-id" {
		t.Errorf("cor = %q, want %q", reply.CorID, "orig-msg-id")
	}
	if reply.Type != TypeTrackRegistered {
		t.Errorf("type = %q, want %q", reply.Type, TypeTrackRegistered)
	}
}

func TestExpiry(t *testing.T) {
	env := &Envelope{ExpiresAt: time.Now().UTC().Add(-1 * time.Minute)}
	if !IsExpired(env) {
		t.Error("expected expired envelope to be detected")
	}

	env.ExpiresAt = time.Now().UTC().Add(10 * time.Minute)
	if IsExpired(env) {
		t.Error("expected future-expiry envelope to not be expired")
	}

	env.ExpiresAt = time.Time{}
	if IsExpired(env) {
		t.Error("expected zero-expiry envelope to not be expired")
	}
}

func TestExpiryHeader(t *testing.T) {
	hdr := &RawHeader{ExpiresAt: time.Now().UTC().Add(-1 * time.Second)}
	if !IsExpiredHeader(hdr) {
		t.Error("expected expired header to be detected")
	}

	hdr.ExpiresAt = time.Now().UTC().Add(5 * time.Minute)
	if IsExpiredHeader(hdr) {
		t.Error("expected future header to not be expired")
	}
}

func TestDefaultTTLFor(t *testing.T) {
	if ttl := DefaultTTLFor(TypeTrackHeartbeat); ttl != 90*time.Second {
		t.Errorf("heartbeat TTL = %v, want 90s", ttl)
	}
	if ttl := DefaultTTLFor(TypeOrderDelivered); ttl != 60*time.Minute {
		t.Errorf("delivered TTL = %v, want 60m", ttl)
	}
	if ttl := DefaultTTLFor("unknown.type"); ttl != FallbackTTL {
		t.Errorf("unknown TTL = %v, want %v", ttl, FallbackTTL)
	}
}

func TestIngestorDispatch(t *testing.T) {
	handler := &testHandler{}
	ingestor := NewIngestor(handler, nil)

	env, _ := NewEnvelope(TypeTrackRequest,
		Address{Role: RoleOps},
		Address{Role: RoleStorefront, Node: "storefront-1"},
		&TrackRequest{OrderID: 42},
	)
	data, _ := env.Encode()

	ingestor.HandleRaw(data)

	if !handler.requestCalled {
		t.Error("expected HandleTrackRequest to be called")
	}
	if handler.requestPayload.OrderID != 42 {
		t.Errorf("order_id = %d, want 42", handler.requestPayload.OrderID)
	}
}

func TestIngestorFilter(t *testing.T) {
	handler := &testHandler{}
	// Filter that rejects everything
	ingestor := NewIngestor(handler, func(_ *RawHeader) bool { return false })

	env, _ := NewEnvelope(TypeTrackRequest,
		Address{Role: RoleOps},
		Address{Role: RoleStorefront, Node: "storefront-1"},
		&TrackRequest{OrderID: 42},
	)
	data, _ := env.Encode()

	ingestor.HandleRaw(data)

	if handler.requestCalled {
		t.Error("expected handler to NOT be called when filter rejects")
	}
}

func TestIngestorDropsExpired(t *testing.T) {
	handler := &testHandler{}
	ingestor := NewIngestor(handler, nil)

	env, _ := NewEnvelope(TypeTrackRequest,
		Address{Role: RoleOps},
		Address{Role: RoleStorefront, Node: "storefront-1"},
		&TrackRequest{OrderID: 42},
	)
	// Force expiry in the past
	env.ExpiresAt = time.Now().UTC().Add(-1 * time.Minute)
	data, _ := env.Encode()

	ingestor.HandleRaw(data)

	if handler.requestCalled {
		t.Error("expected handler to NOT be called for expired message")
	}
}

func TestNodeFilter(t *testing.T) {
	filter := func(hdr *RawHeader) bool {
		return hdr.Dst.Node == "storefront-1" || hdr.Dst.Node == NodeBroadcast
	}

	if !filter(&RawHeader{Dst: Address{Node: "storefront-1"}}) {
		t.Error("expected filter to accept matching node")
	}
	if !filter(&RawHeader{Dst: Address{Node: NodeBroadcast}}) {
		t.Error("expected filter to accept broadcast")
	}
	if filter(&RawHeader{Dst: Address{Node: "storefront-2"}}) {
		t.Error("expected filter to reject other node")
	}
}

func TestWireFormatKeys(t *testing.T) {
	env, _ := NewEnvelope(TypeTrackHeartbeat,
		Address{Role: RoleStorefront, Node: "storefront-1"},
		Address{Role: RoleOps},
		&TrackHeartbeat{NodeID: "storefront-1", Uptime: 60},
	)
	data, _ := env.Encode()

	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	// Verify short keys are used
	expected := []string{"v", "type", "id", "src", "dst", "ts", "exp", "p"}
	for _, k := range expected {
		if _, ok := m[k]; !ok {
			t.Errorf("expected key %q in wire format", k)
		}
	}
	// Verify long keys are NOT present
	long := []string{"version", "payload", "timestamp", "expires_at", "source", "destination"}
	for _, k := range long {
		if _, ok := m[k]; ok {
			t.Errorf("unexpected long key %q in wire format", k)
		}
	}
}

// testHandler tracks which methods were called.
type testHandler struct {
	NoOpHandler
	requestCalled  bool
	requestPayload TrackRequest
}

func (h *testHandler) HandleTrackRequest(env *Envelope, p *TrackRequest) {
	h.requestCalled = true
	h.requestPayload = *p
}
