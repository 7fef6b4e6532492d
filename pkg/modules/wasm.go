package modules

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	"github.com/verityhq/verdict/pkg/contracts"
)

// WASMConfig describes a sandboxed WebAssembly domain module.
type WASMConfig struct {
	Domain  contracts.Domain
	Version string
	// Binary is the compiled wasm module. It must read a ParsedContent
	// JSON document from stdin and write a ValidationResult JSON document
	// to stdout.
	Binary []byte
	// MemoryLimitBytes caps the module's linear memory. Zero means 16 MiB.
	MemoryLimitBytes int64
}

// WASMModule hosts a third-party validator compiled to WebAssembly.
// Deny-by-default: no filesystem, no network, no environment — the module
// sees only the content bytes on stdin. Execution respects ctx deadlines;
// a timed-out instance is closed, not orphaned.
type WASMModule struct {
	domain   contracts.Domain
	version  string
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
}

// NewWASMModule compiles the binary once and prepares a sandboxed runtime
// for it.
func NewWASMModule(ctx context.Context, cfg WASMConfig) (*WASMModule, error) {
	if !cfg.Domain.Valid() {
		return nil, fmt.Errorf("unsupported domain %q", cfg.Domain)
	}
	if len(cfg.Binary) == 0 {
		return nil, fmt.Errorf("empty wasm binary")
	}

	memLimit := cfg.MemoryLimitBytes
	if memLimit <= 0 {
		memLimit = 16 * 1024 * 1024
	}
	pages := uint32(memLimit / (64 * 1024)) // wazero measures memory in 64KiB pages
	if pages == 0 {
		pages = 1
	}

	runtimeCfg := wazero.NewRuntimeConfig().
		WithMemoryLimitPages(pages).
		WithCloseOnContextDone(true)
	r := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	wasi_snapshot_preview1.MustInstantiate(ctx, r)

	compiled, err := r.CompileModule(ctx, cfg.Binary)
	if err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("compile wasm module: %w", err)
	}

	return &WASMModule{
		domain:   cfg.Domain,
		version:  cfg.Version,
		runtime:  r,
		compiled: compiled,
	}, nil
}

// Domain implements DomainModule.
func (m *WASMModule) Domain() contracts.Domain { return m.domain }

// Version implements DomainModule.
func (m *WASMModule) Version() string { return m.version }

// ModuleID names this module in results and audit entries.
func (m *WASMModule) ModuleID() string { return "wasm-" + string(m.domain) }

// ValidateContent implements DomainModule by instantiating the compiled
// module with the content on stdin and decoding its stdout.
func (m *WASMModule) ValidateContent(ctx context.Context, content contracts.ParsedContent) (contracts.ValidationResult, error) {
	input, err := json.Marshal(content)
	if err != nil {
		return contracts.ValidationResult{}, fmt.Errorf("encode content: %w", err)
	}

	var stdout, stderr bytes.Buffer
	modCfg := wazero.NewModuleConfig().
		WithName(uuid.NewString()). // unique per instantiation so calls can overlap
		WithStartFunctions("_start").
		WithStdin(bytes.NewReader(input)).
		WithStdout(&stdout).
		WithStderr(&stderr)
	// Deny-by-default: no WithFSConfig, no WithEnv, no WithRandSource.

	started := time.Now()
	instance, err := m.runtime.InstantiateModule(ctx, m.compiled, modCfg)
	if err != nil {
		// wasi-libc reports a clean main return through proc_exit(0), which
		// wazero surfaces as an ExitError.
		var exitErr *sys.ExitError
		switch {
		case errors.As(err, &exitErr) && exitErr.ExitCode() == 0:
		case ctx.Err() != nil:
			return contracts.ValidationResult{}, fmt.Errorf("wasm module %s: %w", m.ModuleID(), ctx.Err())
		default:
			return contracts.ValidationResult{}, fmt.Errorf("wasm module %s failed: %w (stderr: %s)", m.ModuleID(), err, stderr.String())
		}
	}
	if instance != nil {
		_ = instance.Close(ctx)
	}

	var result contracts.ValidationResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return contracts.ValidationResult{}, fmt.Errorf("wasm module %s produced invalid output: %w", m.ModuleID(), err)
	}

	if result.ModuleID == "" {
		result.ModuleID = m.ModuleID()
	}
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 100 {
		result.Confidence = 100
	}
	result.ProcessingTime = time.Since(started)
	return result, nil
}

// Close releases the wazero runtime and all compiled state.
func (m *WASMModule) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.runtime.Close(ctx)
}
