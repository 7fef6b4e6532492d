package modules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verityhq/verdict/pkg/contracts"
)

func TestNewWASMModuleRejectsBadConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown domain", func(t *testing.T) {
		_, err := NewWASMModule(ctx, WASMConfig{Domain: "astrology", Version: "1.0.0", Binary: []byte{0}})
		assert.ErrorContains(t, err, "unsupported domain")
	})

	t.Run("empty binary", func(t *testing.T) {
		_, err := NewWASMModule(ctx, WASMConfig{Domain: contracts.DomainLegal, Version: "1.0.0"})
		assert.ErrorContains(t, err, "empty wasm binary")
	})

	t.Run("invalid binary", func(t *testing.T) {
		_, err := NewWASMModule(ctx, WASMConfig{
			Domain:  contracts.DomainLegal,
			Version: "1.0.0",
			Binary:  []byte("not wasm at all"),
		})
		assert.ErrorContains(t, err, "compile wasm module")
	})
}
