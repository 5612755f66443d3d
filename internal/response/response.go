// Package response é o formatador único das respostas da API: todo caminho
// (gate, controller, recovery) termina em um Envelope {data, message, status}.
package response

import (
	"encoding/json"
	"net/http"
)

// Envelope é o corpo padrão das respostas. Status é espelhado no status HTTP.
type Envelope struct {
	Data    any    `json:"data"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// Rejection é o resultado de um gate que encerrou a requisição.
// Header carrega extras como Retry-After.
type Rejection struct {
	Envelope
	Header http.Header
}

func Format(data any, message string, status int) Envelope {
	return Envelope{Data: data, Message: message, Status: status}
}

func Reject(status int, message string) *Rejection {
	return &Rejection{
		Envelope: Envelope{Message: message, Status: status},
		Header:   make(http.Header),
	}
}

// Write serializa o envelope. Status fora da faixa HTTP vira 500.
func Write(w http.ResponseWriter, env Envelope) {
	if env.Status < 100 || env.Status > 599 {
		env.Status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(env.Status)
	_ = json.NewEncoder(w).Encode(env)
}

func (r *Rejection) Write(w http.ResponseWriter) {
	for k, vs := range r.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	Write(w, r.Envelope)
}
