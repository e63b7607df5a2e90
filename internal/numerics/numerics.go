// Package numerics implements the debug scan for abnormal floating-point
// values in tensor buffers. It is wired behind a configuration flag and
// sits outside every hot path.
package numerics

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/x448/float16"
	"go.uber.org/zap"

	"github.com/solaiys/MIOpen/internal/status"
	"github.com/solaiys/MIOpen/internal/tensor"
)

// Report summarizes one buffer scan.
type Report struct {
	Checked int
	NaNs    int
	Infs    int
	Zeros   int
}

// Abnormal reports whether the scan found values that poison arithmetic.
func (r Report) Abnormal() bool { return r.NaNs > 0 || r.Infs > 0 }

// Scan decodes buf according to the descriptor's data type and counts
// NaN, Inf and zero values. Integer types have no abnormal encodings and
// yield an all-zero report. A buffer shorter than the descriptor demands
// is an error.
func Scan(desc tensor.Descriptor, buf []byte) (Report, error) {
	var r Report
	elems := desc.Elements()
	size := desc.DataType().Size()
	if len(buf) < elems*size {
		return r, status.Errorf(status.BadParm,
			"buffer of %d bytes is too small for %s (%d bytes required)",
			len(buf), desc.String(), elems*size)
	}

	switch desc.DataType() {
	case tensor.Float:
		for i := 0; i < elems; i++ {
			v := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
			tally(&r, float64(v))
		}
	case tensor.Half:
		for i := 0; i < elems; i++ {
			v := float16.Frombits(binary.LittleEndian.Uint16(buf[i*2:]))
			switch {
			case v.IsNaN():
				r.NaNs++
			case v.IsInf(0):
				r.Infs++
			case v.Float32() == 0:
				r.Zeros++
			}
			r.Checked++
		}
	case tensor.BFloat16:
		for i := 0; i < elems; i++ {
			bits := uint32(binary.LittleEndian.Uint16(buf[i*2:])) << 16
			v := math.Float32frombits(bits)
			tally(&r, float64(v))
		}
	default:
		// Integer formats cannot encode NaN or Inf.
	}
	return r, nil
}

func tally(r *Report, v float64) {
	switch {
	case math.IsNaN(v):
		r.NaNs++
	case math.IsInf(v, 0):
		r.Infs++
	case v == 0:
		r.Zeros++
	}
	r.Checked++
}

// CheckBuffer scans one named buffer and logs the outcome. When the scan
// finds abnormal values it optionally dumps the raw bytes under dumpDir
// and returns an InternalError. name identifies the tensor in logs and
// dump filenames, e.g. "x" or "dy".
func CheckBuffer(log *zap.Logger, name string, desc tensor.Descriptor, buf []byte, dumpDir string) error {
	r, err := Scan(desc, buf)
	if err != nil {
		return err
	}
	if !r.Abnormal() {
		log.Debug("numerics check passed",
			zap.String("tensor", name),
			zap.Int("checked", r.Checked),
			zap.Int("zeros", r.Zeros))
		return nil
	}
	log.Error("abnormal values in tensor",
		zap.String("tensor", name),
		zap.String("desc", desc.String()),
		zap.Int("nans", r.NaNs),
		zap.Int("infs", r.Infs))
	if dumpDir != "" {
		if derr := Dump(dumpDir, name, desc, buf); derr != nil {
			log.Warn("failed to dump tensor", zap.String("tensor", name), zap.Error(derr))
		}
	}
	return status.Errorf(status.InternalError,
		"tensor %s contains %d NaN and %d Inf values", name, r.NaNs, r.Infs)
}

// Dump writes the raw tensor bytes to dir, named after the tensor and its
// shape so a dump from a multi-tensor call stays attributable.
func Dump(dir, name string, desc tensor.Descriptor, buf []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	n := desc.Elements() * desc.DataType().Size()
	if n > len(buf) {
		n = len(buf)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s_%s.bin", name, desc.String(), desc.DataType()))
	return os.WriteFile(path, buf[:n], 0o644)
}
