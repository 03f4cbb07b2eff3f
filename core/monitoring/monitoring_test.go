package monitoring

import (
	"errors"
	"testing"
	"time"
)

type recordMonitor struct {
	errs    []error
	tags    []map[string]string
	flushed bool
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.errs = append(r.errs, err)
	r.tags = append(r.tags, tags)
}
func (r *recordMonitor) Flush(time.Duration) { r.flushed = true }

func TestCaptureException(t *testing.T) {
	rec := &recordMonitor{}
	Init(rec)
	defer Init(NopMonitor{})

	CaptureException(nil, nil)
	CaptureException(errors.New("solver crashed"), map[string]string{"module": "app"})
	if len(rec.errs) != 1 || rec.tags[0]["module"] != "app" {
		t.Fatalf("unexpected captures %v %v", rec.errs, rec.tags)
	}
	Init(nil)
	CaptureException(errors.New("again"), nil)
	if len(rec.errs) != 2 {
		t.Fatal("Init(nil) must keep the current monitor")
	}
}

func TestRecoverReportsAndRepanics(t *testing.T) {
	rec := &recordMonitor{}
	Init(rec)
	defer Init(NopMonitor{})

	func() {
		defer func() {
			if r := recover(); r != "boom" {
				t.Fatalf("expected re-panic, got %v", r)
			}
		}()
		defer Recover()
		panic("boom")
	}()
	if len(rec.errs) != 1 || rec.tags[0]["panic"] != "true" || !rec.flushed {
		t.Fatalf("panic not reported: %+v", rec)
	}
}
