// Package report renders pipeline results for humans (text) or tools
// (newline-delimited JSON).
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/cwbudde/algo-accel/device"
	"github.com/cwbudde/algo-accel/dsp/spectrum"
)

// Section titles of the transform round trip.
const (
	TitleInput         = "Input array:"
	TitleBeforeScaling = "Output transforms before scaling:"
	TitleAfterScaling  = "Output transforms after scaling:"
	TitleOutput        = "Output array after R2C and C2R:"
)

const separator = "====="

// Format selects the report encoding.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
)

// ParseFormat resolves a format name. The empty name selects Text.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text":
		return Text, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("report: unknown format %q (expected text or json)", name)
	}
}

// Reporter writes report sections to w.
type Reporter struct {
	w      io.Writer
	format Format
	runID  string
	enc    *json.Encoder
}

// New creates a reporter. Each reporter carries a fresh run id that tags
// every JSON record.
func New(w io.Writer, format Format) *Reporter {
	r := &Reporter{w: w, format: format, runID: uuid.NewString()}
	if format == JSON {
		r.enc = json.NewEncoder(w)
	}
	return r
}

// RunID identifies the run in JSON output.
func (r *Reporter) RunID() string { return r.runID }

type realRecord struct {
	RunID   string    `json:"run_id"`
	Section string    `json:"section"`
	Title   string    `json:"title"`
	Values  []float64 `json:"values"`
}

type complexRecord struct {
	RunID     string       `json:"run_id"`
	Section   string       `json:"section"`
	Title     string       `json:"title"`
	Bins      [][2]float64 `json:"bins"`
	Magnitude []float64    `json:"magnitude"`
}

type checkRecord struct {
	RunID   string `json:"run_id"`
	Section string `json:"section"`
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
}

type failureRecord struct {
	RunID   string `json:"run_id"`
	Section string `json:"section"`
	Error   string `json:"error"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
}

// Input writes the input sample listing.
func (r *Reporter) Input(values []float64) error {
	if r.format == JSON {
		return r.encode(realRecord{RunID: r.runID, Section: "input", Title: TitleInput, Values: values})
	}
	return r.reals(TitleInput, "%f \n", values)
}

// Output writes the final sample listing.
func (r *Reporter) Output(values []float64) error {
	if r.format == JSON {
		return r.encode(realRecord{RunID: r.runID, Section: "output", Title: TitleOutput, Values: values})
	}
	return r.reals(TitleOutput, "%f\n", values)
}

// Spectrum writes a complex listing under title.
func (r *Reporter) Spectrum(title string, bins []complex128) error {
	if r.format == JSON {
		pairs := make([][2]float64, len(bins))
		for i, c := range bins {
			pairs[i] = [2]float64{real(c), imag(c)}
		}
		return r.encode(complexRecord{
			RunID:     r.runID,
			Section:   "spectrum",
			Title:     title,
			Bins:      pairs,
			Magnitude: spectrum.Magnitude(bins),
		})
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteByte('\n')
	for _, c := range bins {
		fmt.Fprintf(&b, "%f + %fj\n", real(c), imag(c))
	}
	b.WriteString(separator)
	b.WriteByte('\n')
	_, err := io.WriteString(r.w, b.String())
	return err
}

// Check writes the self-check verdict for the example name.
func (r *Reporter) Check(name string, passed bool) error {
	if r.format == JSON {
		return r.encode(checkRecord{RunID: r.runID, Section: "check", Name: name, Passed: passed})
	}
	verdict := "PASSED"
	if !passed {
		verdict = "FAILED: wrong result"
	}
	_, err := fmt.Fprintf(r.w, "%s test %s\n", name, verdict)
	return err
}

// Failure writes the diagnostic for a fatal error.
func (r *Reporter) Failure(err error) error {
	if err == nil {
		return nil
	}
	if r.format == JSON {
		st := device.StatusOf(err)
		return r.encode(failureRecord{
			RunID:   r.runID,
			Section: "failure",
			Error:   err.Error(),
			Status:  st.String(),
			Code:    int(st),
		})
	}
	_, werr := fmt.Fprintln(r.w, err.Error())
	return werr
}

func (r *Reporter) reals(title, line string, values []float64) error {
	var b strings.Builder
	b.WriteString(title)
	b.WriteByte('\n')
	for _, v := range values {
		fmt.Fprintf(&b, line, v)
	}
	b.WriteString(separator)
	b.WriteByte('\n')
	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *Reporter) encode(v any) error {
	if err := r.enc.Encode(v); err != nil {
		return fmt.Errorf("report: encode: %w", err)
	}
	return nil
}
