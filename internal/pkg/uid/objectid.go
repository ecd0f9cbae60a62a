package uid

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"os"
	"sync/atomic"
	"time"
)

// ObjectIDGenerator generates 32-byte ids rendered as 64 hex characters.
//
// Layout: 6-byte unix millis, 6-byte node, 2-byte pid, 4-byte counter and
// 14 random bytes. The random tail makes ids unguessable, which is what
// session identifiers need.
type ObjectIDGenerator struct {
	nodeID  [6]byte
	pid     uint16
	counter atomic.Uint32
}

// NewObjectIDGenerator creates a generator with stable node identity.
func NewObjectIDGenerator() (*ObjectIDGenerator, error) {
	src, err := stableNodeIdentity()
	if err != nil {
		return nil, err
	}

	g := &ObjectIDGenerator{pid: uint16(os.Getpid())}

	sum := sha256.Sum256([]byte(src))
	copy(g.nodeID[:], sum[:6])

	var seed [4]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, err
	}
	g.counter.Store(binary.BigEndian.Uint32(seed[:]))

	return g, nil
}

// Generate returns a 64-char hex string.
func (g *ObjectIDGenerator) Generate() string {
	var raw [32]byte

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(time.Now().UnixMilli()))
	copy(raw[0:6], ts[2:])
	copy(raw[6:12], g.nodeID[:])
	binary.BigEndian.PutUint16(raw[12:14], g.pid)
	binary.BigEndian.PutUint32(raw[14:18], g.counter.Add(1))

	if _, err := rand.Read(raw[18:]); err != nil {
		sum := sha256.Sum256(raw[:18])
		copy(raw[18:], sum[:14])
	}

	return hex.EncodeToString(raw[:])
}
