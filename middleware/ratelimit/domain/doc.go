// Package domain define chaves, decisões e contratos (janela, bucket, vagas)
// usados pelas camadas de cima.
package domain
