package vkr

import "errors"

// Startup failures an application may want to tell apart, for example to fall
// back to running without validation when the SDK layers aren't installed.
// Each is wrapped with detail at the failure site, so test with errors.Is.
var (
	// ErrMissingLayer is returned when a requested instance layer is not
	// offered by the Vulkan runtime.
	ErrMissingLayer = errors.New("requested layer not available")

	// ErrInstanceCreation is returned when the Vulkan instance could not be
	// created.
	ErrInstanceCreation = errors.New("unable to create instance")

	// ErrNoSuitableDevice is returned when no physical device satisfies the
	// application's requirements (queues, extensions, surface support).
	ErrNoSuitableDevice = errors.New("no suitable physical device")

	// ErrDeviceCreation is returned when the logical device could not be
	// created on the selected physical device.
	ErrDeviceCreation = errors.New("unable to create logical device")
)
