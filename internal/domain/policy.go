package domain

// PetitionCategory is the category given to policies proposed by players.
const PetitionCategory = "Petition"

// Policy is a proposal that can be dealt, voted on and passed.
type Policy struct {
	ID          string  `json:"id"`
	Category    string  `json:"category"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	NewsFlash   string  `json:"newsFlash"`
	Effects     Effects `json:"effects"`
}

// PolicyOption is what players see on the table: no effect vector.
type PolicyOption struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ToOption strips the effect vector from p.
func (p Policy) ToOption() PolicyOption {
	return PolicyOption{
		ID:          p.ID,
		Category:    p.Category,
		Title:       p.Title,
		Description: p.Description,
	}
}

// Ideology is a hidden scoring profile assigned to a player.
type Ideology struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Coefficients Coefficients `json:"coefficients"`
}

// Score returns the dot product of the city statistics and the ideology
// coefficients.
func (i Ideology) Score(c CityParams) float64 {
	var score float64
	for _, p := range Params {
		score += float64(c.Get(p)) * i.Coefficients[p]
	}
	return score
}

// Catalog is the read-only source of policies and ideologies.
type Catalog interface {
	Policy(id string) (Policy, bool)
	Ideology(id string) (Ideology, bool)
	PolicyIDs() []string
	IdeologyIDs() []string
}

// Rand is the randomness used for shuffling, tie-breaks and ideology
// assignment. *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// PickIdeology returns a uniformly random ideology identifier from cat.
func PickIdeology(cat Catalog, rng Rand) (string, error) {
	ids := cat.IdeologyIDs()
	if len(ids) == 0 {
		return "", ErrIdeologyNotFound
	}
	return ids[rng.Intn(len(ids))], nil
}
