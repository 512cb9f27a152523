package platform

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// QueryCapabilities inspects the first suitable physical device and
// derives the immutable capability set the pipeline resolves frame
// configurations against. It is called once at pipeline construction.
func QueryCapabilities(appName string) (metadata.PlatformCaps, error) {
	caps := metadata.PlatformCaps{}

	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return caps, fmt.Errorf("QueryCapabilities - no Vulkan loader available")
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return caps, fmt.Errorf("QueryCapabilities - initializing Vulkan: %w", err)
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   vulkanSafeString(appName),
		PEngineName:        vulkanSafeString("Prism"),
	}
	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, nil, &instance); res != vk.Success {
		return caps, fmt.Errorf("QueryCapabilities - creating instance: %d", res)
	}
	defer vk.DestroyInstance(instance, nil)
	if err := vk.InitInstance(instance); err != nil {
		return caps, fmt.Errorf("QueryCapabilities - initializing instance: %w", err)
	}

	var deviceCount uint32
	if res := vk.EnumeratePhysicalDevices(instance, &deviceCount, nil); res != vk.Success || deviceCount == 0 {
		return caps, fmt.Errorf("QueryCapabilities - no devices which support Vulkan were found")
	}
	devices := make([]vk.PhysicalDevice, deviceCount)
	if res := vk.EnumeratePhysicalDevices(instance, &deviceCount, devices); res != vk.Success {
		return caps, fmt.Errorf("QueryCapabilities - enumerating devices: %d", res)
	}
	gpu := devices[0]

	properties := vk.PhysicalDeviceProperties{}
	vk.GetPhysicalDeviceProperties(gpu, &properties)
	properties.Deref()
	properties.Limits.Deref()

	// Vulkan clip space with a [0,1] depth range always allows the
	// reversed convention; the pipeline standardizes on it for the
	// precision win.
	caps.ReversedZ = true
	// Multiview stereo needs explicit device extension wiring the
	// pipeline does not carry yet.
	caps.StereoSupported = false
	caps.FastTextureCopy = true
	caps.DepthCopyShader = true
	caps.ScreenSpaceShadows = true
	caps.MaxCascades = metadata.MaxShadowCascades

	sampleCounts := vk.SampleCountFlags(properties.Limits.FramebufferColorSampleCounts) &
		vk.SampleCountFlags(properties.Limits.FramebufferDepthSampleCounts)
	caps.MaxSampleCount = maxSampleCount(sampleCounts)
	// The swapchain itself is single-sampled; multisampled rendering
	// resolves into it through an intermediate target.
	caps.MSAABackbuffer = false

	// A device without a dedicated blit-capable depth format falls
	// back to the depth prepass path.
	depthFormats := []vk.Format{vk.FormatD32Sfloat, vk.FormatD24UnormS8Uint}
	blittable := false
	for _, format := range depthFormats {
		formatProps := vk.FormatProperties{}
		vk.GetPhysicalDeviceFormatProperties(gpu, format, &formatProps)
		formatProps.Deref()
		flags := vk.FormatFeatureFlagBits(formatProps.OptimalTilingFeatures)
		if flags&vk.FormatFeatureBlitSrcBit != 0 {
			blittable = true
			break
		}
	}
	caps.FastTextureCopy = blittable

	core.LogInfo("platform caps: reversedZ=%t msaa=%dx fastCopy=%t screenSpaceShadows=%t",
		caps.ReversedZ, caps.MaxSampleCount, caps.FastTextureCopy, caps.ScreenSpaceShadows)
	return caps, nil
}

func maxSampleCount(flags vk.SampleCountFlags) uint32 {
	counts := []struct {
		bit     vk.SampleCountFlagBits
		samples uint32
	}{
		{vk.SampleCount8Bit, 8},
		{vk.SampleCount4Bit, 4},
		{vk.SampleCount2Bit, 2},
	}
	for _, c := range counts {
		if flags&vk.SampleCountFlags(c.bit) != 0 {
			return c.samples
		}
	}
	return 1
}

func vulkanSafeString(s string) string {
	return s + "\x00"
}
