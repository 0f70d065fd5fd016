package webgpu

import (
	"fmt"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/plus3/cubeview/gpu"
)

var textureFormats = map[gpu.TextureFormat]wgpu.TextureFormat{
	gpu.TextureFormatRGBA8UnormSrgb: wgpu.TextureFormatRGBA8UnormSrgb,
	gpu.TextureFormatBGRA8UnormSrgb: wgpu.TextureFormatBGRA8UnormSrgb,
	gpu.TextureFormatRGBA8Unorm:     wgpu.TextureFormatRGBA8Unorm,
	gpu.TextureFormatBGRA8Unorm:     wgpu.TextureFormatBGRA8Unorm,
	gpu.TextureFormatDepth32Float:   wgpu.TextureFormatDepth32Float,
}

func toTextureFormat(f gpu.TextureFormat) wgpu.TextureFormat {
	if tf, ok := textureFormats[f]; ok {
		return tf
	}
	return wgpu.TextureFormatUndefined
}

func fromTextureFormat(f wgpu.TextureFormat) (gpu.TextureFormat, bool) {
	for k, v := range textureFormats {
		if v == f && k != gpu.TextureFormatDepth32Float {
			return k, true
		}
	}
	return gpu.TextureFormatUndefined, false
}

func toPresentMode(m gpu.PresentMode) wgpu.PresentMode {
	switch m {
	case gpu.PresentModeMailbox:
		return wgpu.PresentModeMailbox
	case gpu.PresentModeImmediate:
		return wgpu.PresentModeImmediate
	}
	return wgpu.PresentModeFifo
}

func toBufferUsage(u gpu.BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	if u&gpu.BufferUsageVertex != 0 {
		out |= wgpu.BufferUsageVertex
	}
	if u&gpu.BufferUsageIndex != 0 {
		out |= wgpu.BufferUsageIndex
	}
	if u&gpu.BufferUsageUniform != 0 {
		out |= wgpu.BufferUsageUniform
	}
	if u&gpu.BufferUsageCopyDst != 0 {
		out |= wgpu.BufferUsageCopyDst
	}
	return out
}

func toShaderStage(s gpu.ShaderStage) wgpu.ShaderStage {
	var out wgpu.ShaderStage
	if s&gpu.StageVertex != 0 {
		out |= wgpu.ShaderStageVertex
	}
	if s&gpu.StageFragment != 0 {
		out |= wgpu.ShaderStageFragment
	}
	return out
}

func toFilterMode(f gpu.FilterMode) wgpu.FilterMode {
	if f == gpu.FilterLinear {
		return wgpu.FilterModeLinear
	}
	return wgpu.FilterModeNearest
}

func toVertexFormat(f gpu.VertexFormat) wgpu.VertexFormat {
	if f == gpu.VertexFloat32x2 {
		return wgpu.VertexFormatFloat32x2
	}
	return wgpu.VertexFormatFloat32x3
}

// classify wraps err with the gpu sentinel that matches its status text.
// wgpu-native reports surface status through error messages only.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(strings.ReplaceAll(err.Error(), "_", ""))
	switch {
	case strings.Contains(msg, "outofmemory"), strings.Contains(msg, "out of memory"):
		return fmt.Errorf("%w: %w", gpu.ErrOutOfMemory, err)
	case strings.Contains(msg, "lost"):
		return fmt.Errorf("%w: %w", gpu.ErrSurfaceLost, err)
	case strings.Contains(msg, "outdated"):
		return fmt.Errorf("%w: %w", gpu.ErrSurfaceOutdated, err)
	case strings.Contains(msg, "timeout"):
		return fmt.Errorf("%w: %w", gpu.ErrSurfaceTimeout, err)
	}
	return err
}
