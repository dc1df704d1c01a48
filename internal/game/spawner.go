package game

import "math/rand"

// Spawner generates citizen names deterministically from the world seed.
type Spawner struct {
	rng *rand.Rand
}

func NewSpawner(seed int64) *Spawner {
	return &Spawner{rng: rand.New(rand.NewSource(seed))}
}

// Name returns a full name. Repeats are possible on long runs and fine;
// names are cosmetic, the entity id is the identity.
func (s *Spawner) Name() string {
	first := firstNames[s.rng.Intn(len(firstNames))]
	last := lastNames[s.rng.Intn(len(lastNames))]
	return first + " " + last
}

var firstNames = []string{
	"Alda", "Bram", "Cedric", "Dara", "Edwin", "Ferne", "Garrick", "Hilda",
	"Ivo", "Jorun", "Kellen", "Lysa", "Maren", "Nils", "Odette", "Piers",
	"Quenna", "Rolf", "Sigrid", "Tomas", "Una", "Viggo", "Wren", "Ysolde",
	"Anselm", "Birgit", "Corin", "Dagny", "Elof", "Freya", "Gunnar", "Helge",
	"Ingrid", "Joren", "Katla", "Leif", "Mira", "Njal", "Orla", "Petra",
}

var lastNames = []string{
	"Ashdown", "Birchwood", "Coldbrook", "Dunmore", "Elderfield", "Fenwick",
	"Greenhollow", "Hartley", "Ironwood", "Kestrel", "Longmeadow", "Marsh",
	"Northgate", "Oakhurst", "Pinewater", "Quarry", "Ridgeway", "Stonefield",
	"Thornbury", "Underhill", "Vale", "Westbrook", "Yarrow", "Ambleside",
	"Briarholm", "Claywood", "Dovendale", "Eastmere", "Foxglove", "Grimsby",
}
