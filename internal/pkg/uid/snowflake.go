package uid

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates time ordered int64 ids.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake builds a generator whose node number is derived from the
// machine identity, so replicas on different hosts do not collide.
func NewSnowflake() (*Snowflake, error) {
	src, err := stableNodeIdentity()
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256([]byte(src))
	nodeID := int64(binary.BigEndian.Uint16(sum[:2])) % (1 << snowflake.NodeBits)

	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: node}, nil
}

// Generate returns the next id.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
