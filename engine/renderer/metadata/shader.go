package metadata

import "sync"

/**
 * @brief Represents the current state of a given shader program.
 */
type ShaderState int

const (
	/** @brief The program has not been compiled yet, or its source changed since. */
	SHADER_STATE_NOT_CREATED ShaderState = iota
	/** @brief The program is compiled and linked, and is ready for use. */
	SHADER_STATE_INITIALIZED
	/** @brief The current source failed to compile or link. It is unusable until the source changes. */
	SHADER_STATE_FAILED
)

/**
 * @brief A shader program made of a vertex and a fragment stage. Compiled
 * lazily by the render goroutine; changing the source triggers a recompile on
 * the next use.
 */
type ShaderProgram struct {
	ResourceHandle

	mu             sync.Mutex
	vertexSource   string
	fragmentSource string
	version        uint64

	// render goroutine only
	compiled uint64
	failed   uint64
}

func NewShaderProgram(name, vertexSource, fragmentSource string) *ShaderProgram {
	p := &ShaderProgram{
		vertexSource:   vertexSource,
		fragmentSource: fragmentSource,
		version:        1,
	}
	p.setName(name)
	return p
}

// SetSource replaces both stages. Safe to call from any goroutine.
func (p *ShaderProgram) SetSource(vertexSource, fragmentSource string) {
	p.mu.Lock()
	p.vertexSource = vertexSource
	p.fragmentSource = fragmentSource
	p.version++
	p.mu.Unlock()
}

// Source returns both stages and the version they belong to.
func (p *ShaderProgram) Source() (vertex, fragment string, version uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vertexSource, p.fragmentSource, p.version
}

func (p *ShaderProgram) Version() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.version
}

/** @brief The state of the program as seen by the render goroutine. */
func (p *ShaderProgram) State() ShaderState {
	v := p.Version()
	switch {
	case p.failed == v:
		return SHADER_STATE_FAILED
	case p.compiled == v && p.Realized():
		return SHADER_STATE_INITIALIZED
	}
	return SHADER_STATE_NOT_CREATED
}

func (p *ShaderProgram) MarkCompiled(version uint64) {
	p.compiled = version
	p.failed = 0
}

func (p *ShaderProgram) MarkFailed(version uint64) {
	p.failed = version
}

func (p *ShaderProgram) CompiledVersion() uint64 {
	return p.compiled
}
