// Package ratelimit é o adapter HTTP (net/http) do rate limit e do limite de concorrência.
//
// Camadas:
//
//   - domain: contratos e tipos (sem net/http)
//   - application: decisão allow/deny e acquire/timeout (sem net/http)
//   - infra: token bucket, janela fixa em memória/Redis, semáforo
//   - ratelimit (este pacote): Gate, middlewares, extração de chave, headers
//
// Fluxo por requisição:
//
//  1. Extrai a chave do cliente (header/XFF/RemoteAddr)
//  2. Pede a decisão à camada application
//  3. Bloqueado: 429 com Retry-After (ou 400 sem identidade, conforme a política)
//  4. Permitido: segue para o gate de acesso
package ratelimit
