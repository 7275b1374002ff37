// Package id issues time-ordered unique identifiers for memory entries.
package id

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator hands out Snowflake ids from one node. It is safe for
// concurrent use.
type Generator struct {
	node *snowflake.Node
}

// NewGenerator creates a generator for nodeID (0-1023).
func NewGenerator(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("creating snowflake node %d: %w", nodeID, err)
	}
	return &Generator{node: node}, nil
}

// New returns the next id. Ids increase strictly within one generator.
func (g *Generator) New() int64 {
	return g.node.Generate().Int64()
}
