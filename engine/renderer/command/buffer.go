// Package command provides an API-agnostic command buffer. The
// pipeline "pre-bakes" its rendering work into a Buffer which a
// graphics context consumes later, possibly on another thread.
package command

import (
	gomath "math"
	"sync"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// The command buffer stores a series of rendering commands, represented
// by the following values. Each one is followed in the buffer by a
// number of command arguments, after which the next command follows.
// Comments after each command briefly describe its arguments. Strings
// (shader pass and material names, debug labels) are interned in a side
// table and referenced by index.
const (
	CmdGetTemporaryTexture     = iota // 6: target id, width, height, format, samples, name index
	CmdReleaseTemporaryTexture        // 1: target id
	CmdSetupCameraProperties          // 33: 16 float32 view, 16 float32 projection, eye
	CmdSetRenderTarget                // 2: colour target id, depth target id
	CmdClear                          // 6: clear flags, 4 float32 colour, float32 depth
	CmdSetViewport                    // 4: 4 float32 x, y, width, height
	CmdDrawRenderers                  // 4: queue, sort flags, pass name index, override material index
	CmdBlit                           // 3: src target id, dst target id, material name index
	CmdSetGlobalVector                // 5: constant id, 4 float32
	CmdSetGlobalVectorArray           // 2+4n: constant id, count n, then n vectors
	CmdSetGlobalMatrix                // 17: constant id, 16 float32
	CmdSetGlobalMatrixArray           // 2+16n: constant id, count n, then n matrices
	CmdSetGlobalTexture               // 2: constant id, target id
	CmdSetKeyword                     // 2: keyword index, enabled
)

// noString marks an absent string argument (e.g. no override material).
const noString = ^uint32(0)

// Buffer encodes a sequence of rendering commands in an API-agnostic
// manner. One Buffer cannot refer to state recorded in another Buffer.
type Buffer struct {
	Buf     []uint32
	strings []string
	lookup  map[string]uint32
}

// Buffers are managed using a sync.Pool so that their slice
// allocations persist across multiple uses.
var bufferPool = sync.Pool{New: func() any { return &Buffer{} }}

func GetBuffer() *Buffer {
	return bufferPool.Get().(*Buffer)
}

func ReturnBuffer(cb *Buffer) {
	cb.Reset()
	bufferPool.Put(cb)
}

// Reset resets the command buffer's length to zero so that it can be
// reused.
func (cb *Buffer) Reset() {
	cb.Buf = cb.Buf[:0]
	cb.strings = cb.strings[:0]
	cb.lookup = nil
}

func (cb *Buffer) appendFloats(floats ...float32) {
	for _, f := range floats {
		// Stored as the raw bit pattern since the buffer is uint32.
		cb.Buf = append(cb.Buf, gomath.Float32bits(f))
	}
}

func (cb *Buffer) appendInts(ints ...int) {
	for _, i := range ints {
		if i != int(uint32(i)) && i >= 0 {
			core.LogError("%d: attempting to add non-32-bit value to command buffer", i)
		}
		cb.Buf = append(cb.Buf, uint32(i))
	}
}

func (cb *Buffer) appendMatrix(m math.Mat4) {
	cb.appendFloats(m.Data[:]...)
}

// intern stores s once and returns its index. The empty string maps to
// the absent-string marker.
func (cb *Buffer) intern(s string) uint32 {
	if s == "" {
		return noString
	}
	if cb.lookup == nil {
		cb.lookup = make(map[string]uint32)
	}
	if idx, ok := cb.lookup[s]; ok {
		return idx
	}
	idx := uint32(len(cb.strings))
	cb.strings = append(cb.strings, s)
	cb.lookup[s] = idx
	return idx
}

// StringAt resolves a string argument recorded in the buffer.
func (cb *Buffer) StringAt(idx uint32) string {
	if idx == noString || int(idx) >= len(cb.strings) {
		return ""
	}
	return cb.strings[idx]
}

func (cb *Buffer) GetTemporaryTexture(id metadata.TargetID, desc metadata.TextureDescriptor) {
	cb.appendInts(CmdGetTemporaryTexture, int(id), int(desc.Width), int(desc.Height), int(desc.Format), int(desc.SampleCount))
	cb.Buf = append(cb.Buf, cb.intern(desc.DebugName))
}

func (cb *Buffer) ReleaseTemporaryTexture(id metadata.TargetID) {
	cb.appendInts(CmdReleaseTemporaryTexture, int(id))
}

func (cb *Buffer) SetupCameraProperties(props metadata.CameraProperties) {
	cb.appendInts(CmdSetupCameraProperties)
	cb.appendMatrix(props.View)
	cb.appendMatrix(props.Projection)
	cb.appendInts(int(props.Eye))
}

func (cb *Buffer) SetRenderTarget(colour, depth metadata.TargetID) {
	cb.appendInts(CmdSetRenderTarget, int(colour), int(depth))
}

func (cb *Buffer) Clear(flags metadata.ClearFlag, colour math.Vec4, depth float32) {
	cb.appendInts(CmdClear, int(flags))
	cb.appendFloats(colour.X, colour.Y, colour.Z, colour.W, depth)
}

func (cb *Buffer) SetViewport(viewport metadata.Viewport) {
	cb.appendInts(CmdSetViewport)
	cb.appendFloats(viewport.X, viewport.Y, viewport.Width, viewport.Height)
}

func (cb *Buffer) DrawRenderers(settings metadata.DrawSettings) {
	cb.appendInts(CmdDrawRenderers, int(settings.Queue), int(settings.Sort))
	cb.Buf = append(cb.Buf, cb.intern(settings.PassName), cb.intern(settings.OverrideMaterial))
}

func (cb *Buffer) Blit(src, dst metadata.TargetID, material string) {
	cb.appendInts(CmdBlit, int(src), int(dst))
	cb.Buf = append(cb.Buf, cb.intern(material))
}

func (cb *Buffer) SetGlobalVector(id metadata.ConstantID, value math.Vec4) {
	cb.appendInts(CmdSetGlobalVector, int(id))
	cb.appendFloats(value.X, value.Y, value.Z, value.W)
}

func (cb *Buffer) SetGlobalVectorArray(id metadata.ConstantID, values []math.Vec4) {
	cb.appendInts(CmdSetGlobalVectorArray, int(id), len(values))
	for _, v := range values {
		cb.appendFloats(v.X, v.Y, v.Z, v.W)
	}
}

func (cb *Buffer) SetGlobalMatrix(id metadata.ConstantID, value math.Mat4) {
	cb.appendInts(CmdSetGlobalMatrix, int(id))
	cb.appendMatrix(value)
}

func (cb *Buffer) SetGlobalMatrixArray(id metadata.ConstantID, values []math.Mat4) {
	cb.appendInts(CmdSetGlobalMatrixArray, int(id), len(values))
	for _, m := range values {
		cb.appendMatrix(m)
	}
}

func (cb *Buffer) SetGlobalTexture(id metadata.ConstantID, target metadata.TargetID) {
	cb.appendInts(CmdSetGlobalTexture, int(id), int(target))
}

func (cb *Buffer) SetKeyword(keyword string, enabled bool) {
	cb.appendInts(CmdSetKeyword)
	e := 0
	if enabled {
		e = 1
	}
	cb.Buf = append(cb.Buf, cb.intern(keyword), uint32(e))
}

// Command is one decoded entry of the buffer, used by backends and
// tests that replay the stream.
type Command struct {
	Op   uint32
	Args []uint32
}

// Float returns argument i reinterpreted as a float32.
func (c Command) Float(i int) float32 {
	return gomath.Float32frombits(c.Args[i])
}

// Decode walks the buffer and splits it into commands. A malformed
// stream (truncated arguments) stops the walk.
func (cb *Buffer) Decode() []Command {
	var out []Command
	i := 0
	for i < len(cb.Buf) {
		op := cb.Buf[i]
		i++
		n := 0
		switch op {
		case CmdGetTemporaryTexture:
			n = 6
		case CmdReleaseTemporaryTexture:
			n = 1
		case CmdSetupCameraProperties:
			n = 33
		case CmdSetRenderTarget:
			n = 2
		case CmdClear:
			n = 6
		case CmdSetViewport:
			n = 4
		case CmdDrawRenderers:
			n = 4
		case CmdBlit:
			n = 3
		case CmdSetGlobalVector:
			n = 5
		case CmdSetGlobalVectorArray:
			if i+1 >= len(cb.Buf) {
				core.LogError("command buffer truncated at vector array header")
				return out
			}
			n = 2 + 4*int(cb.Buf[i+1])
		case CmdSetGlobalMatrix:
			n = 17
		case CmdSetGlobalMatrixArray:
			if i+1 >= len(cb.Buf) {
				core.LogError("command buffer truncated at matrix array header")
				return out
			}
			n = 2 + 16*int(cb.Buf[i+1])
		case CmdSetGlobalTexture:
			n = 2
		case CmdSetKeyword:
			n = 2
		default:
			core.LogError("unknown opcode %d in command buffer", op)
			return out
		}
		if i+n > len(cb.Buf) {
			core.LogError("command buffer truncated in opcode %d", op)
			return out
		}
		out = append(out, Command{Op: op, Args: cb.Buf[i : i+n]})
		i += n
	}
	return out
}
