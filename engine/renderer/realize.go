package renderer

import (
	"github.com/spaghettifunk/cinder/engine/core"
	"github.com/spaghettifunk/cinder/engine/renderer/backend"
	"github.com/spaghettifunk/cinder/engine/renderer/metadata"
)

// The realize functions create backend objects on first use and keep them in
// sync with their wrapper. They return false when the draw that needs the
// resource has to be skipped.

func (r *Renderer) realizeProgram(p *metadata.ShaderProgram) (backend.ProgramObject, bool) {
	vs, fs, version := p.Source()
	if p.Realized() && p.CompiledVersion() == version {
		return r.programs.Get(p.Handle()), true
	}
	if p.State() == metadata.SHADER_STATE_FAILED {
		return r.previousProgram(p)
	}
	// a realized program owns its slot, anything else needs a free one
	if !p.Realized() && r.programs.Len() == r.programs.Capacity() {
		r.cacheFull("program", p.Name())
		return nil, false
	}

	obj, log, err := r.backend.CompileProgram(vs, fs)
	r.counters.Compiles++
	if err != nil {
		core.LogError("shader program %q (version %d): %s\n%s", p.Name(), version, err, log)
		p.MarkFailed(version)
		return r.previousProgram(p)
	}
	if log != "" {
		core.LogDebug("shader program %q: %s", p.Name(), log)
	}
	if err := r.programs.Add(p, obj); err != nil {
		// not a build failure, the next frame tries again
		obj.Dispose()
		r.cacheFull("program", p.Name())
		return nil, false
	}
	p.MarkCompiled(version)
	return obj, true
}

// previousProgram keeps drawing with the last good build of a program whose
// new source failed.
func (r *Renderer) previousProgram(p *metadata.ShaderProgram) (backend.ProgramObject, bool) {
	if p.Realized() {
		return r.programs.Get(p.Handle()), true
	}
	return nil, false
}

func (r *Renderer) realizeBuffer(b *metadata.Buffer) (backend.BufferObject, bool) {
	data, version := b.Data()
	if b.Realized() {
		obj := r.buffers.Get(b.Handle())
		if b.UploadedVersion() != version {
			if err := r.backend.UpdateBuffer(obj, data); err != nil {
				core.LogError("%s buffer %q: upload failed: %s", b.Kind, b.Name(), err)
				return nil, false
			}
			b.SetUploadedVersion(version)
			r.counters.Uploads++
		}
		return obj, true
	}

	if !r.buffers.AddDeferred(b) {
		r.cacheFull("buffer", b.Name())
		return nil, false
	}
	obj, err := r.backend.CreateBuffer(b.Kind, b.Usage, data)
	if err != nil {
		core.LogError("%s buffer %q: %s", b.Kind, b.Name(), err)
		return nil, false
	}
	if err := r.buffers.SetResource(b, obj); err != nil {
		core.LogError("%s buffer %q: %s", b.Kind, b.Name(), err)
		obj.Dispose()
		return nil, false
	}
	b.SetUploadedVersion(version)
	r.counters.Uploads++
	return obj, true
}

func (r *Renderer) realizeTexture(t *metadata.Texture) (backend.TextureObject, bool) {
	pixels, version := t.Pixels()
	if t.Realized() {
		obj := r.textures.Get(t.Handle())
		if t.UploadedVersion() != version {
			if err := r.backend.UpdateTexture(obj, pixels); err != nil {
				core.LogError("texture %q: upload failed: %s", t.Name(), err)
				return nil, false
			}
			t.SetUploadedVersion(version)
			r.counters.Uploads++
		}
		return obj, true
	}

	if !r.textures.AddDeferred(t) {
		r.cacheFull("texture", t.Name())
		return nil, false
	}
	obj, err := r.backend.CreateTexture(t.Width, t.Height, t.Format, pixels)
	if err != nil {
		core.LogError("texture %q: %s", t.Name(), err)
		return nil, false
	}
	if err := r.textures.SetResource(t, obj); err != nil {
		core.LogError("texture %q: %s", t.Name(), err)
		obj.Dispose()
		return nil, false
	}
	t.SetUploadedVersion(version)
	r.counters.Uploads++
	return obj, true
}

func (r *Renderer) realizeSampler(s *metadata.Sampler) (backend.SamplerObject, bool) {
	if s.Realized() {
		return r.samplers.Get(s.Handle()), true
	}
	if !r.samplers.AddDeferred(s) {
		r.cacheFull("sampler", s.Name())
		return nil, false
	}
	obj, err := r.backend.CreateSampler(s)
	if err != nil {
		core.LogError("sampler %q: %s", s.Name(), err)
		return nil, false
	}
	if err := r.samplers.SetResource(s, obj); err != nil {
		core.LogError("sampler %q: %s", s.Name(), err)
		obj.Dispose()
		return nil, false
	}
	return obj, true
}

func (r *Renderer) cacheFull(kind, name string) {
	if r.warnOnce(kind + " cache") {
		core.LogWarn("%s cache is full, %q and possibly more resources are not drawn this frame", kind, name)
	}
}

// warnOnce reports whether topic has not been warned about in this frame yet.
func (r *Renderer) warnOnce(topic string) bool {
	if _, ok := r.warned[topic]; ok {
		return false
	}
	r.warned[topic] = struct{}{}
	return true
}

// clean reclaims the objects of dropped wrappers. One frame passes between a
// wrapper being found dead and its object being disposed.
func (r *Renderer) clean() int {
	return r.buffers.Clean(false) + r.programs.Clean(false) + r.textures.Clean(false) + r.samplers.Clean(false)
}
