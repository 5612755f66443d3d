// Package application reúne as decisões de rate limit e de concorrência
// sem depender de net/http.
//
// Service.Decide consulta a janela fixa ou o token bucket e devolve uma
// domain.Decision; ConcurrencyService controla as vagas em voo.
package application
