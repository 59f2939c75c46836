// Package gocvdecoder implements videosource.Decoder over GoCV's
// gocv.VideoCapture, letting a VideoSource drive a webcam, RTSP stream, or
// video file through OpenCV's capture API.
package gocvdecoder

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/mverra/videosource"
)

// Options configures the capture device/file before Open, mirroring the
// capability knobs OpenCV exposes through VideoCapture property setters.
type Options struct {
	Width  int
	Height int
	FPS    float64
}

// Decoder adapts a gocv.VideoCapture to videosource.Decoder. A handle
// returned by Open is always the *Decoder itself; callers never touch the
// underlying gocv.Mat or gocv.VideoCapture directly.
type Decoder struct {
	opts Options

	capture *gocv.VideoCapture
	frame   gocv.Mat
	grabbed bool
}

// New constructs a Decoder. reference passed to Open may be an int device
// index, or a string path/URL, matching gocv.OpenVideoCapture's overloads.
func New(opts Options) *Decoder {
	return &Decoder{opts: opts}
}

// Open establishes the capture device or file referenced by reference.
// reference must be an int (device index) or a string (file path or
// network URL).
func (d *Decoder) Open(reference any) (any, error) {
	var (
		capture *gocv.VideoCapture
		err     error
	)
	switch ref := reference.(type) {
	case int:
		capture, err = gocv.OpenVideoCapture(ref)
	case string:
		capture, err = gocv.OpenVideoCapture(ref)
	default:
		return nil, fmt.Errorf("gocvdecoder: unsupported reference type %T", reference)
	}
	if err != nil {
		return nil, fmt.Errorf("gocvdecoder: failed to open capture: %w", err)
	}

	if d.opts.Width > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(d.opts.Width))
	}
	if d.opts.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameHeight, float64(d.opts.Height))
	}
	if d.opts.FPS > 0 {
		capture.Set(gocv.VideoCaptureFPS, d.opts.FPS)
	}

	d.capture = capture
	d.frame = gocv.NewMat()
	return d, nil
}

// IsOpen reports whether the underlying capture is still usable.
func (d *Decoder) IsOpen(handle any) bool {
	return d.capture != nil && d.capture.IsOpened()
}

// Grab advances the capture cursor to the next frame without decoding
// pixel data, per VideoCapture.Grab's semantics.
func (d *Decoder) Grab(handle any) bool {
	if d.capture == nil {
		return false
	}
	d.grabbed = d.capture.Grab(1) > 0
	return d.grabbed
}

// Retrieve decodes the frame most recently advanced to by Grab into a
// gocv.Mat and returns a cloned copy, since the internal Mat is reused on
// the next Grab/Retrieve cycle.
func (d *Decoder) Retrieve(handle any) (any, bool) {
	if d.capture == nil || !d.grabbed {
		return nil, false
	}
	if ok := d.capture.Retrieve(&d.frame); !ok || d.frame.Empty() {
		return nil, false
	}
	return d.frame.Clone(), true
}

// Release closes the capture device and frees the reusable Mat.
func (d *Decoder) Release(handle any) {
	if d.capture != nil {
		d.capture.Close()
		d.capture = nil
	}
	d.frame.Close()
}

// Properties reports the capture's intrinsic properties, read back from the
// device after Open (which may differ from the requested Options, per
// VideoCaptureFrameWidth/Height/FPS's get-after-set contract).
func (d *Decoder) Properties(handle any) (videosource.SourceProperties, error) {
	if d.capture == nil {
		return videosource.SourceProperties{}, fmt.Errorf("gocvdecoder: capture not open")
	}
	total := int(d.capture.Get(gocv.VideoCaptureFrameCount))
	return videosource.SourceProperties{
		Width:       int(d.capture.Get(gocv.VideoCaptureFrameWidth)),
		Height:      int(d.capture.Get(gocv.VideoCaptureFrameHeight)),
		TotalFrames: total,
		FPS:         d.capture.Get(gocv.VideoCaptureFPS),
	}, nil
}
