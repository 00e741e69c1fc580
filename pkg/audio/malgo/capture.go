// Package malgo provides a microphone capture backend built on the miniaudio
// bindings (github.com/gen2brain/malgo). It fills an [audio.Ring] from the
// device data callback and exposes it as an [audio.Source] for the segmenter,
// plus pause/resume control for the dictation toggle.
package malgo

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/voxtype/voxtype/pkg/audio"
)

// Config holds the capture parameters.
type Config struct {
	// SampleRate in Hz; must match what the downstream classifier and
	// recognizer expect (typically 16000).
	SampleRate int

	// BufferMs is the ring capacity, i.e. the longest snapshot the segmenter
	// may request.
	BufferMs int

	// DeviceID selects a capture device by its index in [ListDevices] order.
	// Negative means the system default device.
	DeviceID int
}

// Capture owns a miniaudio context and capture device writing f32 mono
// samples into a ring buffer. It implements [audio.Source] via the embedded
// ring. All methods are safe for concurrent use.
type Capture struct {
	ring *audio.Ring

	mu      sync.Mutex
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	running bool
	closed  bool
}

// New initializes the miniaudio context and capture device but does not start
// capturing; call [Capture.Start]. The caller must call [Capture.Close].
func New(cfg Config) (*Capture, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("malgo: sample rate must be positive, got %d", cfg.SampleRate)
	}
	if cfg.BufferMs <= 0 {
		return nil, fmt.Errorf("malgo: buffer duration must be positive, got %d", cfg.BufferMs)
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("malgo: init context: %w", err)
	}

	c := &Capture{
		ring: audio.NewRing(cfg.BufferMs, cfg.SampleRate),
		ctx:  ctx,
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	if cfg.DeviceID >= 0 {
		infos, err := ctx.Devices(malgo.Capture)
		if err != nil {
			_ = ctx.Uninit()
			ctx.Free()
			return nil, fmt.Errorf("malgo: enumerate devices: %w", err)
		}
		if cfg.DeviceID >= len(infos) {
			_ = ctx.Uninit()
			ctx.Free()
			return nil, fmt.Errorf("malgo: capture device %d not found (%d available)", cfg.DeviceID, len(infos))
		}
		id := infos[cfg.DeviceID].ID
		deviceConfig.Capture.DeviceID = id.Pointer()
		slog.Info("using capture device", "id", cfg.DeviceID, "name", infos[cfg.DeviceID].Name())
	}

	onRecvFrames := func(_, pSamples []byte, frameCount uint32) {
		if frameCount == 0 {
			return
		}
		c.ring.Write(audio.SamplesFromBytes(pSamples))
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onRecvFrames})
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("malgo: init device: %w", err)
	}
	c.device = device

	return c, nil
}

// Start begins capturing. Calling Start on a running capture is a no-op.
func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("malgo: capture is closed")
	}
	if c.running {
		return nil
	}
	if err := c.device.Start(); err != nil {
		return fmt.Errorf("malgo: start device: %w", err)
	}
	c.running = true
	return nil
}

// Stop pauses capturing and discards buffered samples so a later Start does
// not replay stale audio. Calling Stop on a stopped capture is a no-op.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.running {
		return nil
	}
	if err := c.device.Stop(); err != nil {
		return fmt.Errorf("malgo: stop device: %w", err)
	}
	c.running = false
	c.ring.Reset()
	return nil
}

// Toggle flips between capturing and paused and reports whether capture is
// running afterwards.
func (c *Capture) Toggle() (bool, error) {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()

	if running {
		return false, c.Stop()
	}
	return true, c.Start()
}

// Running reports whether the device is currently capturing.
func (c *Capture) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Fetch implements [audio.Source].
func (c *Capture) Fetch(durationMs int) []float32 { return c.ring.Fetch(durationMs) }

// SampleRate implements [audio.Source].
func (c *Capture) SampleRate() int { return c.ring.SampleRate() }

// Close stops the device and releases the miniaudio context. Safe to call
// more than once.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.running = false
	c.device.Uninit()
	err := c.ctx.Uninit()
	c.ctx.Free()
	if err != nil {
		return fmt.Errorf("malgo: uninit context: %w", err)
	}
	return nil
}

// Device describes one capture device for --list-devices output.
type Device struct {
	ID   int
	Name string
}

// ListDevices enumerates the available capture devices. The returned IDs are
// positional and valid for [Config.DeviceID] until devices are added or
// removed.
func ListDevices() ([]Device, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("malgo: init context: %w", err)
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("malgo: enumerate devices: %w", err)
	}

	devices := make([]Device, 0, len(infos))
	for i, info := range infos {
		devices = append(devices, Device{ID: i, Name: info.Name()})
	}
	return devices, nil
}

// Compile-time assertion that Capture implements audio.Source.
var _ audio.Source = (*Capture)(nil)
