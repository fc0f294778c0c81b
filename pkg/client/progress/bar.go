package progress

import (
	"fmt"
	"io"
	"strings"

	"mljet.io/mljet/pkg/client/units"
)

type Bar struct {
	Name      string
	Total     int64 // total bytes, -1 for indeterminate
	Completed int64
	Width     int
	Status    string
	Done      bool
	mp        *MultiBar
}

func (b *Bar) Write(w io.Writer) {
	if b.Width == 0 {
		b.Width = 40
	}
	var completed int
	var status string

	if b.Done {
		completed = b.Width
		status = b.Status
	} else if b.Total <= 0 {
		completed = 0
		status = b.Status
	} else {
		completed = int(float64(b.Width) * float64(b.Completed) / float64(b.Total))
		if completed < 0 {
			completed = 0
		}
		if completed > b.Width {
			completed = b.Width
		}
		status = units.HumanSize(float64(b.Completed)) + "/" + units.HumanSize(float64(b.Total))
	}

	fmt.Fprintf(w, "%s [%s%s] %s\n",
		b.Name,
		strings.Repeat("+", completed),
		strings.Repeat("-", b.Width-completed),
		status,
	)
}

func (b *Bar) SetProgress(completed, total int64) {
	b.Completed, b.Total = completed, total
	b.Notify()
}

func (b *Bar) SetStatus(name, status string) {
	b.Name, b.Status = name, status
	b.Notify()
}

func (b *Bar) Notify() {
	if b.mp != nil {
		b.mp.haschange = true
	}
}

// WrapReader counts everything read through rc into the bar.
func (b *Bar) WrapReader(rc io.ReadCloser, name string, total int64, onProcess, onComplete, onFailed string) io.ReadCloser {
	b.Total = total
	b.Name = name
	b.Status = onProcess
	defer b.Notify()
	return &barReader{rc: rc, b: b, onComplete: onComplete, onFailed: onFailed}
}

type barReader struct {
	rc         io.ReadCloser
	b          *Bar
	onComplete string
	onFailed   string
}

func (r *barReader) Read(p []byte) (int, error) {
	n, err := r.rc.Read(p)
	r.b.Completed += int64(n)
	if r.b.Completed >= r.b.Total {
		r.b.Status = r.onComplete
		r.b.Done = true
	}
	r.b.Notify()
	return n, err
}

func (r *barReader) Close() error {
	if r.b.Completed < r.b.Total {
		r.b.Status = r.onFailed
	}
	r.b.Notify()
	return r.rc.Close()
}

// WrapWriter counts everything written through w into the bar.
func (b *Bar) WrapWriter(w io.Writer, name string, total int64, onProcess, onComplete, onFailed string) io.Writer {
	b.Name = name
	b.Total = total
	b.Status = onProcess
	b.Notify()
	return &barWriter{w: w, b: b, onComplete: onComplete, onFailed: onFailed}
}

type barWriter struct {
	w          io.Writer
	b          *Bar
	onComplete string
	onFailed   string
}

func (r *barWriter) Write(p []byte) (int, error) {
	n, err := r.w.Write(p)
	if err != nil {
		r.b.Done = true
		r.b.Status = r.onFailed
		r.b.Notify()
		return n, err
	}
	r.b.Completed += int64(n)
	if r.b.Completed >= r.b.Total {
		r.b.Status = r.onComplete
		r.b.Done = true
	}
	r.b.Notify()
	return n, nil
}
