// Package gfx presents software-rendered frames on a Wayland surface
// through wl_shm.
package gfx

import (
	"errors"
	"fmt"
	"image"

	"github.com/bnema/waypick/internal/logger"
	"github.com/rajveermalviya/go-wayland/wayland/client"
	"golang.org/x/sys/unix"
)

// ErrNoBuffer means both buffers are still held by the compositor.
var ErrNoBuffer = errors.New("no free buffer")

const bufferCount = 2

type shmBuffer struct {
	wl     *client.Buffer
	offset int
	busy   bool
}

// Binding owns the shm pool and the two buffers presented on one surface.
// Sizes are physical pixels.
type Binding struct {
	shm     *client.Shm
	surface *client.Surface

	width, height int
	stride        int
	data          []byte
	buffers       [bufferCount]*shmBuffer
	back          *shmBuffer
	canvas        *image.RGBA

	framePending bool
	resources    releaseStack
}

// CreateWindowSurface allocates a drawable of width x height physical
// pixels for surface and makes it current. Partial allocations are freed
// on failure.
func CreateWindowSurface(shm *client.Shm, surface *client.Surface, width, height int) (*Binding, error) {
	b := &Binding{shm: shm, surface: surface}
	if err := b.allocate(width, height); err != nil {
		return nil, err
	}
	if err := b.MakeCurrent(); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

// allocate acquires, in order, the memfd, its mapping, the pool and the
// buffers. resources releases them in the reverse order.
func (b *Binding) allocate(width, height int) error {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	stride := width * 4
	frameSize := stride * height
	size := frameSize * bufferCount

	fd, err := unix.MemfdCreate("waypick-shm", unix.MFD_CLOEXEC|unix.MFD_ALLOW_SEALING)
	if err != nil {
		return fmt.Errorf("memfd_create: %w", err)
	}
	b.resources.push("memfd", func() error { return unix.Close(fd) })

	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		b.resources.run()
		return fmt.Errorf("ftruncate: %w", err)
	}

	pool, err := b.shm.CreatePool(fd, int32(size))
	if err != nil {
		b.resources.run()
		return fmt.Errorf("failed to create shm pool: %w", err)
	}
	b.resources.push("pool", pool.Destroy)

	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		b.resources.run()
		return fmt.Errorf("mmap: %w", err)
	}
	b.resources.push("mapping", func() error { return unix.Munmap(data) })

	for i := range b.buffers {
		offset := i * frameSize
		wlBuf, err := pool.CreateBuffer(int32(offset), int32(width), int32(height), int32(stride), uint32(client.ShmFormatArgb8888))
		if err != nil {
			b.resources.run()
			return fmt.Errorf("failed to create buffer %d: %w", i, err)
		}
		buf := &shmBuffer{wl: wlBuf, offset: offset}
		wlBuf.SetReleaseHandler(func(client.BufferReleaseEvent) {
			buf.busy = false
		})
		b.resources.push("buffer", wlBuf.Destroy)
		b.buffers[i] = buf
	}

	b.width, b.height, b.stride = width, height, stride
	b.data = data
	b.canvas = image.NewRGBA(image.Rect(0, 0, width, height))
	b.back = nil
	logger.Debug("Allocated shm buffers", "width", width, "height", height)
	return nil
}

func (b *Binding) release() {
	b.resources.run()
	b.buffers = [bufferCount]*shmBuffer{}
	b.back = nil
	b.data = nil
}

// Resize reallocates the drawable at the new physical size. The pending
// frame callback stays valid.
func (b *Binding) Resize(width, height int) error {
	if width == b.width && height == b.height && !b.resources.empty() {
		return nil
	}
	b.release()
	return b.allocate(width, height)
}

// MakeCurrent picks a free buffer to render into.
func (b *Binding) MakeCurrent() error {
	if b.back != nil && !b.back.busy {
		return nil
	}
	for _, buf := range b.buffers {
		if buf != nil && !buf.busy {
			b.back = buf
			return nil
		}
	}
	return ErrNoBuffer
}

// Image is the RGBA canvas frames draw into.
func (b *Binding) Image() *image.RGBA { return b.canvas }

// BufferSize reports the drawable size in physical pixels.
func (b *Binding) BufferSize() (int, int) { return b.width, b.height }

// FramePending reports whether the last presented frame is still waiting
// for its frame callback.
func (b *Binding) FramePending() bool { return b.framePending }

// SwapBuffers copies the canvas into the back buffer and presents it.
func (b *Binding) SwapBuffers() error {
	if err := b.MakeCurrent(); err != nil {
		return err
	}
	buf := b.back
	frame := b.data[buf.offset : buf.offset+b.stride*b.height]
	copyBGRA(frame, b.canvas.Pix)

	if err := b.surface.Attach(buf.wl, 0, 0); err != nil {
		return fmt.Errorf("attach: %w", err)
	}
	if err := b.surface.DamageBuffer(0, 0, int32(b.width), int32(b.height)); err != nil {
		return fmt.Errorf("damage: %w", err)
	}
	callback, err := b.surface.Frame()
	if err != nil {
		return fmt.Errorf("frame callback: %w", err)
	}
	b.framePending = true
	callback.SetDoneHandler(func(client.CallbackDoneEvent) {
		b.framePending = false
	})
	if err := b.surface.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	buf.busy = true
	b.back = nil
	return nil
}

// Close releases buffers, mapping, pool and memfd in that order.
func (b *Binding) Close() {
	b.release()
	b.canvas = nil
}

// copyBGRA converts premultiplied RGBA into little-endian ARGB8888.
func copyBGRA(dst, src []byte) {
	n := min(len(dst), len(src))
	for i := 0; i+3 < n; i += 4 {
		dst[i+0] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i+0]
		dst[i+3] = src[i+3]
	}
}
