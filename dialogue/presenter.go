package dialogue

import (
	"fmt"
	"math/rand"
	"time"
)

// Presenter draws the options offered to the player each turn.
type Presenter struct {
	rng *rand.Rand
}

// NewPresenter creates a presenter. A zero seed picks a time-based one.
func NewPresenter(seed int64) *Presenter {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Presenter{rng: rand.New(rand.NewSource(seed))}
}

// Select returns k distinct options drawn uniformly without replacement from
// the whole catalog. Earlier turns have no influence on the draw.
func (p *Presenter) Select(c *Catalog, k int) ([]Option, error) {
	if k < 0 || k > c.Len() {
		return nil, fmt.Errorf("%w: cannot offer %d options from a catalog of %d", ErrInvalidConfiguration, k, c.Len())
	}

	// Partial Fisher-Yates over the index space; the catalog itself is never touched.
	idx := make([]int, c.Len())
	for i := range idx {
		idx[i] = i
	}
	out := make([]Option, 0, k)
	for i := 0; i < k; i++ {
		j := i + p.rng.Intn(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
		out = append(out, c.options[idx[i]])
	}
	return out, nil
}
