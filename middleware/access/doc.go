// Package access é o gate de controle de acesso por papel (RBAC).
//
// A mesma checagem atende os quatro verbos de uma rota; só muda a Operation.
// Papel não resolvido resulta em 401; papel resolvido sem permissão, em 403.
package access
