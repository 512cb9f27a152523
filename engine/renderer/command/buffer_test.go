package command

import (
	"testing"

	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

func TestBufferRecordAndDecode(t *testing.T) {
	cb := GetBuffer()
	defer ReturnBuffer(cb)

	cb.GetTemporaryTexture(metadata.TARGET_SHADOWMAP, metadata.TextureDescriptor{
		Width: 2048, Height: 2048, Format: metadata.TEXTURE_FORMAT_SHADOWMAP, SampleCount: 1,
		DebugName: "shadow-atlas",
	})
	cb.SetRenderTarget(metadata.TARGET_NONE, metadata.TARGET_SHADOWMAP)
	cb.Clear(metadata.CLEAR_DEPTH_FLAG, math.NewVec4(0, 0, 0, 0), 0.0)
	cb.SetViewport(metadata.Viewport{X: 1024, Y: 0, Width: 1024, Height: 1024})
	cb.DrawRenderers(metadata.DrawSettings{
		Queue:    metadata.RENDER_QUEUE_OPAQUE,
		Sort:     metadata.SORT_FLAGS_FRONT_TO_BACK,
		PassName: metadata.PASS_SHADOW_CASTER,
	})
	cb.Blit(metadata.TARGET_CAMERA_COLOR, metadata.TARGET_BACKBUFFER, metadata.PASS_BLIT)
	cb.SetKeyword("_MAIN_LIGHT_SHADOWS", true)
	cb.ReleaseTemporaryTexture(metadata.TARGET_SHADOWMAP)

	commands := cb.Decode()
	wantOps := []uint32{
		CmdGetTemporaryTexture,
		CmdSetRenderTarget,
		CmdClear,
		CmdSetViewport,
		CmdDrawRenderers,
		CmdBlit,
		CmdSetKeyword,
		CmdReleaseTemporaryTexture,
	}
	if len(commands) != len(wantOps) {
		t.Fatalf("decoded %d commands, want %d", len(commands), len(wantOps))
	}
	for i, want := range wantOps {
		if commands[i].Op != want {
			t.Errorf("command %d op = %d, want %d", i, commands[i].Op, want)
		}
	}

	acquire := commands[0]
	if acquire.Args[0] != uint32(metadata.TARGET_SHADOWMAP) || acquire.Args[1] != 2048 {
		t.Errorf("acquire args = %v", acquire.Args)
	}
	if got := cb.StringAt(acquire.Args[5]); got != "shadow-atlas" {
		t.Errorf("debug name = %q, want 'shadow-atlas'", got)
	}

	target := commands[1]
	if int32(target.Args[0]) != int32(metadata.TARGET_NONE) {
		t.Errorf("colour target = %d, want TARGET_NONE", int32(target.Args[0]))
	}

	viewport := commands[3]
	if viewport.Float(0) != 1024 || viewport.Float(2) != 1024 {
		t.Errorf("viewport args decode to (%f, %f)", viewport.Float(0), viewport.Float(2))
	}

	draw := commands[4]
	if got := cb.StringAt(draw.Args[2]); got != metadata.PASS_SHADOW_CASTER {
		t.Errorf("pass name = %q, want %q", got, metadata.PASS_SHADOW_CASTER)
	}
	if draw.Args[3] != noString {
		t.Error("absent override material must decode to the no-string marker")
	}

	keyword := commands[6]
	if got := cb.StringAt(keyword.Args[0]); got != "_MAIN_LIGHT_SHADOWS" {
		t.Errorf("keyword = %q", got)
	}
	if keyword.Args[1] != 1 {
		t.Error("keyword must decode as enabled")
	}
}

func TestBufferMatrixArrayRoundTrip(t *testing.T) {
	cb := GetBuffer()
	defer ReturnBuffer(cb)

	matrices := []math.Mat4{
		math.NewMat4Identity(),
		math.NewMat4Translation(math.NewVec3(1, 2, 3)),
	}
	cb.SetGlobalMatrixArray(7, matrices)

	commands := cb.Decode()
	if len(commands) != 1 {
		t.Fatalf("decoded %d commands, want 1", len(commands))
	}
	cmd := commands[0]
	if cmd.Args[0] != 7 || cmd.Args[1] != 2 {
		t.Fatalf("header args = %v", cmd.Args[:2])
	}
	// second matrix, translation row
	base := 2 + 16
	if cmd.Float(base+12) != 1 || cmd.Float(base+13) != 2 || cmd.Float(base+14) != 3 {
		t.Error("matrix payload does not round-trip bit-exact")
	}
}

func TestBufferStringInterning(t *testing.T) {
	cb := GetBuffer()
	defer ReturnBuffer(cb)

	for i := 0; i < 3; i++ {
		cb.Blit(metadata.TARGET_CAMERA_COLOR, metadata.TARGET_BACKBUFFER, metadata.PASS_BLIT)
	}
	commands := cb.Decode()
	first := commands[0].Args[2]
	for i, cmd := range commands {
		if cmd.Args[2] != first {
			t.Errorf("blit %d does not reuse the interned material index", i)
		}
	}
}

func TestBufferPoolReuseStartsClean(t *testing.T) {
	cb := GetBuffer()
	cb.SetKeyword("_X", true)
	ReturnBuffer(cb)

	again := GetBuffer()
	defer ReturnBuffer(again)
	if len(again.Buf) != 0 {
		t.Error("pooled buffer must come back empty")
	}
	if again.StringAt(0) != "" {
		t.Error("pooled buffer must not leak interned strings")
	}
}

func TestBufferTruncatedStreamStops(t *testing.T) {
	cb := GetBuffer()
	defer ReturnBuffer(cb)

	cb.SetRenderTarget(metadata.TARGET_BACKBUFFER, metadata.TARGET_NONE)
	cb.Buf = append(cb.Buf, CmdSetGlobalMatrix) // opcode with no payload

	commands := cb.Decode()
	if len(commands) != 1 {
		t.Fatalf("decoded %d commands, want only the complete one", len(commands))
	}
}
