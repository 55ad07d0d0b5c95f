package render

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
	"golang.org/x/image/draw"
	"golang.org/x/term"

	"github.com/jmylchreest/allcolour/internal/colour"
	"github.com/jmylchreest/allcolour/internal/placement"
)

// FileSink encodes each snapshot to a path, replacing the previous content.
// A path of "-" writes to Stdout.
type FileSink struct {
	Path   string
	Format Format
	Stdout io.Writer
}

// NewFileSink creates a FileSink, choosing the format from the path when
// format is empty.
func NewFileSink(path string, format Format) *FileSink {
	if format == "" {
		format = FormatFromPath(path)
	}
	return &FileSink{Path: path, Format: format, Stdout: os.Stdout}
}

// Render implements Sink.
func (s *FileSink) Render(snap *placement.Snapshot) error {
	img := ToImage(snap, Background)

	if s.Path == "-" || s.Path == "" {
		w := bufio.NewWriter(s.Stdout)
		if err := Encode(w, img, s.Format); err != nil {
			return fmt.Errorf("failed to encode %s: %w", s.Format, err)
		}
		return w.Flush()
	}

	file, err := os.Create(s.Path) // #nosec G304 - User-specified output path
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	w := bufio.NewWriter(file)
	encErr := Encode(w, img, s.Format)
	flushErr := w.Flush()
	closeErr := file.Close()

	if encErr != nil {
		return fmt.Errorf("failed to encode %s: %w", s.Format, encErr)
	}
	if flushErr != nil {
		return fmt.Errorf("failed to write output file: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output file: %w", closeErr)
	}
	return nil
}

// PPMStream appends one P6 frame per snapshot to a writer, producing a
// stream that video tools read as consecutive frames.
type PPMStream struct {
	w      *bufio.Writer
	xz     *xz.Writer
	closer io.Closer
	frames int
	closed bool
}

// NewPPMStream wraps out. When compress is set the stream is xz-compressed.
// Closing the stream closes out if it implements io.Closer.
func NewPPMStream(out io.Writer, compress bool) (*PPMStream, error) {
	s := &PPMStream{}
	if c, ok := out.(io.Closer); ok {
		s.closer = c
	}
	if compress {
		xzw, err := xz.NewWriter(out)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz writer: %w", err)
		}
		s.xz = xzw
		out = xzw
	}
	s.w = bufio.NewWriter(out)
	return s, nil
}

// Render implements Sink.
func (s *PPMStream) Render(snap *placement.Snapshot) error {
	if err := EncodePPM(s.w, ToImage(snap, Background)); err != nil {
		return fmt.Errorf("frame %d: %w", s.frames, err)
	}
	s.frames++
	return nil
}

// Frames returns the number of frames written.
func (s *PPMStream) Frames() int {
	return s.frames
}

// Close flushes buffered frames and finishes compression. Calls after the
// first are no-ops.
func (s *PPMStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush stream: %w", err)
	}
	if s.xz != nil {
		if err := s.xz.Close(); err != nil {
			return fmt.Errorf("failed to finish xz stream: %w", err)
		}
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// TerminalSink prints a downscaled preview with ANSI half blocks, two image
// rows per terminal line.
type TerminalSink struct {
	Out io.Writer
	// Columns is the preview width in cells. Zero means the terminal width.
	Columns int
	fd      int
}

// NewTerminalSink creates a sink drawing to os.Stdout.
func NewTerminalSink(columns int) *TerminalSink {
	return &TerminalSink{Out: os.Stdout, Columns: columns, fd: int(os.Stdout.Fd())} // #nosec G115 -- file descriptors fit in int
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) // #nosec G115 -- file descriptors fit in int
}

func (s *TerminalSink) columns(width int) int {
	cols := s.Columns
	if cols <= 0 {
		if w, _, err := term.GetSize(s.fd); err == nil && w > 0 {
			cols = w
		} else {
			cols = 80
		}
	}
	return min(cols, width)
}

// Render implements Sink.
func (s *TerminalSink) Render(snap *placement.Snapshot) error {
	img := ToImage(snap, Background)
	cols := s.columns(snap.Width())
	rows := max(1, snap.Height()*cols/snap.Width())
	if rows%2 == 1 {
		rows++
	}

	scaled := Scale(img, cols, rows)

	var b strings.Builder
	for y := 0; y < rows; y += 2 {
		for x := 0; x < cols; x++ {
			top := colour.ToRGB(scaled.RGBAAt(x, y))
			bottom := colour.ToRGB(scaled.RGBAAt(x, y+1))
			b.WriteString(colour.HalfBlock(top, bottom))
		}
		b.WriteString(colour.ResetSequence())
		b.WriteByte('\n')
	}
	_, err := io.WriteString(s.Out, b.String())
	return err
}

// Scale resamples img to width x height with nearest-neighbour sampling so
// individual palette colours survive.
func Scale(img *image.RGBA, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// MultiSink fans a snapshot out to several sinks, stopping at the first error.
type MultiSink []Sink

// Render implements Sink.
func (m MultiSink) Render(snap *placement.Snapshot) error {
	for _, s := range m {
		if err := s.Render(snap); err != nil {
			return err
		}
	}
	return nil
}
