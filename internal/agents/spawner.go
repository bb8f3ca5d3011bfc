// Agent spawning: issues stable IDs and builds citizens for a population.
package agents

import "math/rand"

// Productivity range for freshly spawned citizens.
const (
	MinSpawnProductivity = 0.5
	MaxSpawnProductivity = 1.5
)

// Spawner creates agents with monotonically increasing IDs.
// A spawner belongs to exactly one population.
type Spawner struct {
	nextID AgentID
}

// NewSpawner creates a spawner whose first issued ID is 1.
func NewSpawner() *Spawner {
	return &Spawner{nextID: 1}
}

// SetNextID sets the next agent ID to be issued.
func (s *Spawner) SetNextID(id AgentID) {
	s.nextID = id
}

// NextID returns the ID the next spawned agent will receive.
func (s *Spawner) NextID() AgentID {
	return s.nextID
}

// Spawn creates one citizen with the given wealth and productivity.
func (s *Spawner) Spawn(wealth, productivity float64) *Agent {
	id := s.nextID
	s.nextID++
	return &Agent{
		ID:           id,
		Wealth:       wealth,
		Happiness:    DefaultHappiness,
		Productivity: productivity,
	}
}

// SpawnPopulation creates count citizens with equal starting wealth and
// productivity drawn uniformly from the spawn range using rng.
func (s *Spawner) SpawnPopulation(count int, wealth float64, rng *rand.Rand) []*Agent {
	pop := make([]*Agent, 0, count)
	for i := 0; i < count; i++ {
		pop = append(pop, s.Spawn(wealth, RandomProductivity(rng)))
	}
	return pop
}

// RandomProductivity draws a productivity uniformly from the spawn range.
func RandomProductivity(rng *rand.Rand) float64 {
	return MinSpawnProductivity + rng.Float64()*(MaxSpawnProductivity-MinSpawnProductivity)
}
