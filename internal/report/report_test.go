package report

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/cwbudde/algo-accel/device"
)

func TestParseFormat(t *testing.T) {
	for name, want := range map[string]Format{"": Text, "text": Text, " JSON ": JSON} {
		got, err := ParseFormat(name)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v, want %q", name, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatal("expected error for xml")
	}
}

func TestTextSections(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, Text)
	if err := r.Input([]float64{1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := r.Spectrum(TitleBeforeScaling, []complex128{3 - 1.5i}); err != nil {
		t.Fatal(err)
	}
	if err := r.Output([]float64{1.0000001}); err != nil {
		t.Fatal(err)
	}

	want := "Input array:\n" +
		"1.000000 \n" +
		"2.000000 \n" +
		"=====\n" +
		"Output transforms before scaling:\n" +
		"3.000000 + -1.500000j\n" +
		"=====\n" +
		"Output array after R2C and C2R:\n" +
		"1.000000\n" +
		"=====\n"
	if got := buf.String(); got != want {
		t.Fatalf("text report =\n%s\nwant\n%s", got, want)
	}
}

func TestCheck(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, Text)
	_ = r.Check("rot_example", true)
	_ = r.Check("rot_example", false)
	want := "rot_example test PASSED\nrot_example test FAILED: wrong result\n"
	if buf.String() != want {
		t.Fatalf("Check output = %q, want %q", buf.String(), want)
	}
}

func TestTextFailure(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, Text)
	err := device.Check("CUSPARSE", "rot", device.ErrInvalidValue)
	if werr := r.Failure(err); werr != nil {
		t.Fatal(werr)
	}
	got := buf.String()
	if !strings.HasPrefix(got, "CUSPARSE API failed at line ") || !strings.HasSuffix(got, "invalid argument (1): rot\n") {
		t.Fatalf("Failure output = %q", got)
	}
	if err := r.Failure(nil); err != nil {
		t.Fatalf("Failure(nil) = %v", err)
	}
}

func TestJSONRecords(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, JSON)
	_ = r.Input([]float64{1, 2, 3})
	_ = r.Spectrum(TitleAfterScaling, []complex128{3 + 4i, -1})
	_ = r.Check("rot_example", false)
	_ = r.Failure(fmt.Errorf("wrapped: %w", device.ErrMemoryAllocation))

	type record struct {
		RunID     string       `json:"run_id"`
		Section   string       `json:"section"`
		Title     string       `json:"title"`
		Values    []float64    `json:"values"`
		Bins      [][2]float64 `json:"bins"`
		Magnitude []float64    `json:"magnitude"`
		Passed    *bool        `json:"passed"`
		Status    string       `json:"status"`
		Code      int          `json:"code"`
	}
	var recs []record
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var rec record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}
		recs = append(recs, rec)
	}
	if len(recs) != 4 {
		t.Fatalf("got %d records, want 4", len(recs))
	}
	for i, rec := range recs {
		if rec.RunID != r.RunID() || rec.RunID == "" {
			t.Fatalf("record %d run_id = %q, want %q", i, rec.RunID, r.RunID())
		}
	}
	if recs[0].Section != "input" || len(recs[0].Values) != 3 {
		t.Fatalf("input record = %+v", recs[0])
	}
	if recs[1].Bins[0] != [2]float64{3, 4} || recs[1].Magnitude[0] != 5 {
		t.Fatalf("spectrum record = %+v", recs[1])
	}
	if recs[2].Passed == nil || *recs[2].Passed {
		t.Fatalf("check record = %+v", recs[2])
	}
	if recs[3].Status != "out of memory" || recs[3].Code != int(device.StatusMemoryAllocation) {
		t.Fatalf("failure record = %+v", recs[3])
	}
}

func TestRunIDsDiffer(t *testing.T) {
	a := New(&bytes.Buffer{}, JSON)
	b := New(&bytes.Buffer{}, JSON)
	if a.RunID() == b.RunID() {
		t.Fatal("run ids repeat across reporters")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestWriteErrorsPropagate(t *testing.T) {
	if err := New(failingWriter{}, Text).Input([]float64{1}); err == nil {
		t.Fatal("expected text write error")
	}
	if err := New(failingWriter{}, JSON).Input([]float64{1}); err == nil {
		t.Fatal("expected JSON write error")
	}
}
