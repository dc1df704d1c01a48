// Package worldgen seeds the map with resource nodes. Placement is
// deterministic for a given seed: noise fields decide where forest and rock
// cover the region, and nodes are dropped on a coarse grid wherever the
// density clears the configured thresholds.
package worldgen

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/hearthfall/internal/components"
	"github.com/talgya/hearthfall/internal/config"
)

// Node is one resource node to be spawned into the world.
type Node struct {
	Position    components.Vec3
	Resource    components.ResourceType
	Amount      int
	MaxAmount   int
	Regenerates bool
}

// Generate produces the resource-node layout for the given seed and
// parameters. Wood and stone use independent noise fields so forests and
// rock outcrops form separate clusters.
func Generate(seed int64, cfg config.WorldGen) []Node {
	forest := opensimplex.NewNormalized(seed)
	rock := opensimplex.NewNormalized(seed + 1)

	var nodes []Node
	half := float64(cfg.Size)
	for x := -half; x <= half; x += cfg.NodeSpacing {
		for z := -half; z <= half; z += cfg.NodeSpacing {
			pos := components.Vec3{X: x, Z: z}

			if octaveNoise(forest, x, z, 3, 0.04, 0.5) > cfg.WoodThreshold {
				nodes = append(nodes, Node{
					Position:    pos,
					Resource:    components.ResourceWood,
					Amount:      cfg.NodeAmount,
					MaxAmount:   cfg.NodeAmount,
					Regenerates: true,
				})
				continue
			}
			if octaveNoise(rock, x, z, 3, 0.04, 0.5) > cfg.StoneThreshold {
				nodes = append(nodes, Node{
					Position:    pos,
					Resource:    components.ResourceStone,
					Amount:      cfg.NodeAmount,
					MaxAmount:   cfg.NodeAmount,
					Regenerates: true,
				})
			}
		}
	}
	return nodes
}

// octaveNoise sums several noise octaves for a more natural field, each
// octave doubling frequency and halving amplitude.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / maxVal
}
