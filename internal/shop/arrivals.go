package shop

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// ArrivalSource produces arriving customers one at a time. Next blocks until
// the next customer shows up or ctx is done.
type ArrivalSource interface {
	Next(ctx context.Context) (*Customer, error)
}

var customerNames = []string{
	"Miguel", "Arthur", "Gael", "Théo", "Heitor", "Ravi", "Davi", "Bernardo", "Noah", "Gabriel",
	"Samuel", "Pedro", "Anthony", "Isaac", "Benício", "Benjamin", "Matheus", "Lucas", "Joaquim",
	"Nicolas", "Lucca", "Lorenzo", "Henrique", "João Miguel", "Rafael", "Henry", "Murilo", "Levi",
	"Guilherme", "Vicente", "Felipe", "Bryan", "Matteo", "Bento", "João Pedro", "Pietro", "Leonardo",
	"Daniel", "Gustavo", "Pedro Henrique", "João Lucas", "Emanuel", "João", "Caleb", "Davi Lucca",
	"Antônio", "Eduardo", "Enrico", "Caio", "José", "Enzo Gabriel", "Augusto", "Mathias", "Vitor",
	"Enzo", "Cauã", "Francisco", "Rael", "João Guilherme", "Thomas", "Yuri", "Yan", "Anthony Gabriel",
	"Oliver", "Otávio", "João Gabriel", "Nathan", "Davi Lucas", "Vinícius", "Theodoro", "Valentim",
	"Ryan", "Luiz Miguel", "Arthur Miguel", "João Vitor", "Léonovo", "Ravi Lucca", "Apollo", "Thiago",
	"Tomás", "Martin", "José Miguel", "Erick", "Liam", "Josué", "Luan", "Asafe", "Raul", "José Pedro",
	"Dominic", "Kauê", "Kalel", "Luiz Henrique", "Dom", "Davi Miguel", "Estevão", "Breno", "Davi Luiz",
	"Thales", "Israel",
}

// RandomArrivals emits customers with random names after a uniformly random
// delay in [0, MaxInterval].
type RandomArrivals struct {
	MaxInterval time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// NewRandomArrivals returns a source seeded from the runtime's random state.
func NewRandomArrivals(maxInterval time.Duration) *RandomArrivals {
	return &RandomArrivals{
		MaxInterval: maxInterval,
		rnd:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:         time.Now,
	}
}

func (a *RandomArrivals) Next(ctx context.Context) (*Customer, error) {
	a.mu.Lock()
	var delay time.Duration
	if a.MaxInterval > 0 {
		delay = time.Duration(a.rnd.Int64N(int64(a.MaxInterval) + 1))
	}
	name := customerNames[a.rnd.IntN(len(customerNames))]
	a.mu.Unlock()

	if err := sleepCtx(ctx, delay); err != nil {
		return nil, err
	}
	return NewCustomer(name, a.now()), nil
}

// uniform returns a function drawing durations uniformly from [lo, hi].
func uniform(lo, hi time.Duration) func() time.Duration {
	if hi < lo {
		lo, hi = hi, lo
	}
	var mu sync.Mutex
	rnd := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	return func() time.Duration {
		if hi == lo {
			return lo
		}
		mu.Lock()
		defer mu.Unlock()
		return lo + time.Duration(rnd.Int64N(int64(hi-lo)+1))
	}
}
