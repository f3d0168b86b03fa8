package p2p

import (
	"bytes"
	"testing"
	"time"

	"github.com/geanlabs/beaconcore/types"
	pb "github.com/libp2p/go-libp2p-pubsub/pb"
)

func TestDefaultGossipsubParams(t *testing.T) {
	params := DefaultGossipsubParams(32)

	if params.D != 8 {
		t.Errorf("D = %d, want 8", params.D)
	}
	if params.DLow != 6 {
		t.Errorf("DLow = %d, want 6", params.DLow)
	}
	if params.DHigh != 12 {
		t.Errorf("DHigh = %d, want 12", params.DHigh)
	}
	if params.SeenTTL != 768*time.Second {
		t.Errorf("SeenTTL = %s, want 768s", params.SeenTTL)
	}
	if got := DefaultGossipsubParams(8).SeenTTL; got != 192*time.Second {
		t.Errorf("minimal SeenTTL = %s, want 192s", got)
	}

	gs := params.router()
	if gs.Dlo != 6 || gs.Dhi != 12 || gs.HeartbeatInterval != 700*time.Millisecond {
		t.Errorf("router params not carried over: %+v", gs)
	}
}

func TestComputeMessageID(t *testing.T) {
	topic := []byte(PayloadTopic(types.Capella))
	data := []byte{0x01, 0x02, 0x03, 0x04}

	id1 := ComputeMessageID(topic, data, true)
	id2 := ComputeMessageID(topic, data, false)

	if bytes.Equal(id1[:], id2[:]) {
		t.Error("expected different IDs for valid vs invalid snappy")
	}

	id3 := ComputeMessageID(topic, data, true)
	if !bytes.Equal(id1[:], id3[:]) {
		t.Error("expected same ID for same input")
	}
}

func TestComputeMessageID_DifferentTopics(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}

	id1 := ComputeMessageID([]byte(PayloadTopic(types.Merge)), data, true)
	id2 := ComputeMessageID([]byte(PayloadTopic(types.Deneb)), data, true)

	if bytes.Equal(id1[:], id2[:]) {
		t.Error("expected different IDs for different topics")
	}
}

func TestComputeMessageID_DifferentData(t *testing.T) {
	topic := []byte("topic")

	id1 := ComputeMessageID(topic, []byte{0x01}, true)
	id2 := ComputeMessageID(topic, []byte{0x02}, true)

	if bytes.Equal(id1[:], id2[:]) {
		t.Error("expected different IDs for different data")
	}
}

func TestMessageIDFn(t *testing.T) {
	topic := PayloadTopic(types.Merge)
	raw := []byte("payload bytes")
	compressed := CompressMessage(raw)

	idFn := messageIDFn(1024)
	got := idFn(&pb.Message{Topic: &topic, Data: compressed})
	want := ComputeMessageID([]byte(topic), raw, true)
	if got != string(want[:]) {
		t.Error("valid snappy message should hash the decompressed data")
	}

	// Over the limit the raw bytes are hashed under the invalid domain.
	got = messageIDFn(4)(&pb.Message{Topic: &topic, Data: compressed})
	want = ComputeMessageID([]byte(topic), compressed, false)
	if got != string(want[:]) {
		t.Error("oversized message should hash the raw data")
	}
}

func TestDecompressMessage(t *testing.T) {
	raw := bytes.Repeat([]byte{0xab}, 4096)
	compressed := CompressMessage(raw)

	got, err := DecompressMessage(compressed, 4096)
	if err != nil {
		t.Fatalf("DecompressMessage: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Error("round trip mismatch")
	}

	if _, err := DecompressMessage(compressed, 4095); err == nil {
		t.Error("expected error when declared length exceeds limit")
	}
	if _, err := DecompressMessage([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, 1<<20); err == nil {
		t.Error("expected error for corrupt input")
	}
}

func TestMaxEncodedLen(t *testing.T) {
	n, err := MaxEncodedLen(GossipMaxSize)
	if err != nil {
		t.Fatalf("MaxEncodedLen: %v", err)
	}
	if n <= GossipMaxSize {
		t.Errorf("MaxEncodedLen = %d, want more than %d", n, GossipMaxSize)
	}
	if _, err := MaxEncodedLen(1 << 40); err == nil {
		t.Error("expected error for a length snappy cannot encode")
	}
}
