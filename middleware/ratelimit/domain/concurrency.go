package domain

import (
	"context"
	"errors"
)

// ErrNoSlot indica que nenhuma vaga foi liberada antes do prazo.
var ErrNoSlot = errors.New("no concurrency slot available")

// SlotPool limita requisições em voo.
//
// Acquire bloqueia até haver vaga ou até o ctx encerrar. O release devolvido
// pode ser chamado mais de uma vez; só a primeira chamada libera a vaga.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
	InFlight() int
	Capacity() int
}

// Occupancy é o retrato do pool exposto no /health.
type Occupancy struct {
	InFlight int
	Capacity int
}

func (o Occupancy) Saturated() bool {
	return o.Capacity > 0 && o.InFlight >= o.Capacity
}
