package renderer

import (
	"github.com/spaghettifunk/cinder/engine/core"
	"github.com/spaghettifunk/cinder/engine/math"
	"github.com/spaghettifunk/cinder/engine/renderer/backend"
	"github.com/spaghettifunk/cinder/engine/renderer/metadata"
)

var (
	defaultBlend  = *metadata.DefaultBlendState()
	defaultDepth  = *metadata.DefaultDepthState()
	defaultRaster = *metadata.DefaultRasterState()
)

func (r *Renderer) renderFrame(f *frame) {
	r.clock.Start()
	r.counters = FrameStats{Commands: len(f.commands)}
	clear(r.warned)

	if f.resize != nil {
		r.width, r.height = f.resize.width, f.resize.height
		r.backend.Resize(r.width, r.height)
		r.state.reset()
		core.LogDebug("renderer reset to %dx%d", r.width, r.height)
	}
	if f.views != nil {
		r.renderViews = *f.views
	}
	// every frame enters its first view again so it gets cleared
	r.state.view = noView
	clear(r.cleared[:])

	for _, cmd := range f.commands {
		if r.draw(cmd) {
			r.counters.Draws++
		} else {
			r.counters.Skipped++
		}
	}
	r.backend.SwapBuffers()

	// the merged list must not keep wrappers alive
	clear(f.commands)
	r.counters.Disposed = r.clean()

	r.clock.Update()
	r.metrics.Update(r.clock.Elapsed())

	r.statsMu.Lock()
	frames := r.stats.Frames + 1
	r.stats = r.counters
	r.stats.Frames = frames
	r.stats.FPS = r.metrics.FPS()
	r.stats.FrameTime = r.metrics.FrameTime()
	r.statsMu.Unlock()
}

// draw replays one command, issuing only the backend calls needed to go from
// the bound state to the command's state. It returns false when the command
// was skipped.
func (r *Renderer) draw(cmd *Command) bool {
	if cmd.program == nil {
		if r.warnOnce("program") {
			core.LogWarn("command with key %d in view %d has no shader program, skipped", cmd.key, cmd.view)
		}
		return false
	}
	if cmd.vertex == nil {
		if r.warnOnce("vertex") {
			core.LogWarn("command with key %d in view %d has no vertex buffer, skipped", cmd.key, cmd.view)
		}
		return false
	}

	program, ok := r.realizeProgram(cmd.program)
	if !ok {
		return false
	}
	vertex, ok := r.realizeBuffer(cmd.vertex)
	if !ok {
		return false
	}
	var index backend.BufferObject
	if cmd.index != nil {
		if index, ok = r.realizeBuffer(cmd.index); !ok {
			return false
		}
	}
	var textures [metadata.MaxTextureSlots]textureSlot
	for slot := 0; slot < cmd.textureCount; slot++ {
		binding := &cmd.textures[slot]
		if binding.Texture == nil {
			continue
		}
		if textures[slot].texture, ok = r.realizeTexture(binding.Texture); !ok {
			return false
		}
		if binding.Sampler != nil {
			if textures[slot].sampler, ok = r.realizeSampler(binding.Sampler); !ok {
				return false
			}
		}
	}

	fs := r.state
	if fs.view != int(cmd.view) {
		r.applyView(cmd.view)
	}
	if fs.program != program {
		r.backend.UseProgram(program)
		fs.program = program
		fs.invalidateProgram()
		r.counters.ProgramBinds++
	}
	if !fs.viewProjectionSet {
		r.uploadViewProjection(cmd.view)
	}
	if u := cmd.uniforms; u != nil && (fs.uniforms != u || fs.uniformsVersion != u.Version()) {
		u.Each(func(name string, value *metadata.UniformValue) {
			if loc := fs.location(r.backend, name); loc >= 0 {
				r.backend.SetUniform(loc, value)
				r.counters.UniformUploads++
			}
		})
		fs.uniforms = u
		fs.uniformsVersion = u.Version()
	}

	r.applyStates(cmd)

	if !fs.vertexKnown || fs.vertex != vertex {
		r.backend.BindVertexBuffer(vertex, cmd.vertex.Stride)
		fs.vertex = vertex
		fs.vertexKnown = true
		r.counters.VertexBinds++
	}
	if index != nil && (!fs.indexKnown || fs.index != index) {
		r.backend.BindIndexBuffer(index, cmd.index.IndexFormat)
		fs.index = index
		fs.indexKnown = true
		r.counters.IndexBinds++
	}

	for slot := 0; slot < cmd.textureCount; slot++ {
		binding := &cmd.textures[slot]
		if binding.Texture == nil {
			continue
		}
		bound := &fs.textures[slot]
		if bound.texture != textures[slot].texture || bound.sampler != textures[slot].sampler {
			r.backend.BindTexture(slot, textures[slot].texture, textures[slot].sampler)
			bound.texture = textures[slot].texture
			bound.sampler = textures[slot].sampler
			r.counters.TextureBinds++
		}
		if binding.Uniform != "" && !bound.uniformSet {
			if loc := fs.location(r.backend, binding.Uniform); loc >= 0 {
				value := metadata.Int(int32(slot))
				r.backend.SetUniform(loc, &value)
				r.counters.UniformUploads++
			}
			bound.uniformSet = true
		}
	}

	r.uploadTransform(cmd.transform)

	fs.primitive = cmd.primitive
	if index != nil {
		count := cmd.count
		if count == 0 {
			count = subtractFloor(cmd.index.Count(), cmd.first)
		}
		r.backend.DrawIndexed(cmd.primitive, cmd.first, count)
	} else {
		count := cmd.count
		if count == 0 {
			count = subtractFloor(cmd.vertex.Count(), cmd.first)
		}
		r.backend.DrawArrays(cmd.primitive, cmd.first, count)
	}
	return true
}

// applyView starts drawing into view. A view is cleared the first time it is
// entered in a frame only.
func (r *Renderer) applyView(id uint8) {
	cfg := r.viewConfig(id)
	state := backend.ViewState{
		Viewport:    cfg.Viewport,
		Scissor:     cfg.Scissor,
		ClearColour: cfg.ClearColour,
		ClearDepth:  cfg.ClearDepth,
	}
	if cfg.Fullscreen() {
		state.Viewport = math.Rect{Width: int32(r.width), Height: int32(r.height)}
	}
	if !r.cleared[id] {
		state.ClearFlags = cfg.ClearFlags
		r.cleared[id] = true
	}
	r.backend.SetView(state)
	r.state.view = int(id)
	r.state.viewProjectionSet = false
	r.counters.ViewChanges++
}

func (r *Renderer) viewConfig(id uint8) metadata.ViewConfig {
	if r.renderViews.registered[id] {
		return r.renderViews.configs[id]
	}
	return metadata.ViewConfig{
		ID:         id,
		View:       math.NewMat4Identity(),
		Projection: math.NewMat4Identity(),
	}
}

func (r *Renderer) uploadViewProjection(id uint8) {
	fs := r.state
	fs.viewProjectionSet = true
	loc := fs.location(r.backend, metadata.ViewProjectionUniform)
	if loc < 0 {
		return
	}
	cfg := r.viewConfig(id)
	value := metadata.Matrix(cfg.Projection.Mul(cfg.View))
	r.backend.SetUniform(loc, &value)
	r.counters.UniformUploads++
}

func (r *Renderer) uploadTransform(m math.Mat4) {
	fs := r.state
	if fs.transformSet && fs.transform == m {
		return
	}
	if !fs.transformKnown {
		fs.transformLocation = fs.location(r.backend, metadata.TransformUniform)
		fs.transformKnown = true
	}
	fs.transform = m
	fs.transformSet = true
	if fs.transformLocation < 0 {
		return
	}
	value := metadata.Matrix(m)
	r.backend.SetUniform(fs.transformLocation, &value)
	r.counters.UniformUploads++
}

// applyStates binds the blend, depth and raster state of cmd, substituting
// the defaults for the ones it leaves unset.
func (r *Renderer) applyStates(cmd *Command) {
	fs := r.state

	blend := defaultBlend
	if cmd.blend != nil {
		blend = *cmd.blend
	}
	if !fs.blendKnown || fs.blend != blend {
		r.backend.SetBlendState(blend)
		fs.blend = blend
		fs.blendKnown = true
		r.counters.StateChanges++
	}

	depth := defaultDepth
	if cmd.depth != nil {
		depth = *cmd.depth
	}
	if !fs.depthKnown || fs.depth != depth {
		r.backend.SetDepthState(depth)
		fs.depth = depth
		fs.depthKnown = true
		r.counters.StateChanges++
	}

	raster := defaultRaster
	if cmd.raster != nil {
		raster = *cmd.raster
	}
	if !fs.rasterKnown || fs.raster != raster {
		r.backend.SetRasterState(raster)
		fs.raster = raster
		fs.rasterKnown = true
		r.counters.StateChanges++
	}
}

func subtractFloor(total, first uint32) uint32 {
	if first >= total {
		return 0
	}
	return total - first
}
