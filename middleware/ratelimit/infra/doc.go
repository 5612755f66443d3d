// Package infra contém implementações concretas dos contratos do pacote domain.
//
//   - Store: token bucket por chave usando golang.org/x/time/rate
//   - MemoryWindowStore / RedisWindowStore: janela fixa (memória ou Redis)
//   - ChanPool: semáforo simples para limite de concorrência
package infra
