// Package mock generates synthetic EMIS records after a simulated network
// delay. It stands in for the real EMIS service during development.
package mock

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/JonMunkholm/emis-viewer/internal/viewer"
)

// DefaultLatency is the simulated round trip of a fetch.
const DefaultLatency = 1500 * time.Millisecond

var (
	grades   = []string{"A", "B", "C", "D", "E"}
	subjects = []string{"Math", "Science", "History", "English", "Art"}
)

// Source is a viewer.DataSource returning 10-39 random records per fetch.
type Source struct {
	latency time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Source with the given latency and a randomly seeded generator.
// A negative latency selects DefaultLatency.
func New(latency time.Duration) *Source {
	return NewSeeded(latency, rand.Uint64(), rand.Uint64())
}

// NewSeeded returns a Source whose output is fully determined by the seeds.
func NewSeeded(latency time.Duration, seed1, seed2 uint64) *Source {
	if latency < 0 {
		latency = DefaultLatency
	}
	return &Source{
		latency: latency,
		rng:     rand.New(rand.NewPCG(seed1, seed2)),
	}
}

// Fetch waits for the configured latency, then generates records shaped by
// params.Type(). Unknown or missing types produce an empty result.
func (s *Source) Fetch(ctx context.Context, params viewer.QueryParameters) (viewer.ResultSet, error) {
	if s.latency > 0 {
		t := time.NewTimer(s.latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generate(params), nil
}

// between returns a random integer in [lo, lo+n).
func (s *Source) between(lo, n int) int {
	return s.rng.IntN(n) + lo
}

func (s *Source) pick(values []string) string {
	return values[s.rng.IntN(len(values))]
}

func (s *Source) generate(params viewer.QueryParameters) viewer.ResultSet {
	count := s.between(10, 30)
	result := make(viewer.ResultSet, 0, count)

	for i := 1; i <= count; i++ {
		var rec viewer.Record
		switch params.Type() {
		case viewer.TypeStudents:
			rec = viewer.Record{}.
				With("ID", fmt.Sprintf("STD%03d", i)).
				With("Name", fmt.Sprintf("Student %d", i)).
				With("Age", s.between(10, 10)).
				With("Class", fmt.Sprintf("Class %d", s.between(1, 5))).
				With("Grade", s.pick(grades)).
				With("Attendance", fmt.Sprintf("%d%%", s.between(70, 30)))
		case viewer.TypeTeachers:
			rec = viewer.Record{}.
				With("ID", fmt.Sprintf("TCH%03d", i)).
				With("Name", fmt.Sprintf("Teacher %d", i)).
				With("Subject", s.pick(subjects)).
				With("Classes", s.between(1, 5)).
				With("Students", s.between(20, 50))
		case viewer.TypeClasses:
			rec = viewer.Record{}.
				With("ID", fmt.Sprintf("CLS%03d", i)).
				With("Name", fmt.Sprintf("Class %d", i)).
				With("Teacher", fmt.Sprintf("Teacher %d", s.between(1, 10))).
				With("Students", s.between(15, 20)).
				With("Room", fmt.Sprintf("Room %d", s.between(101, 10)))
		case viewer.TypeAttendance:
			rec = viewer.Record{}.
				With("Date", params.Date()).
				With("Class", fmt.Sprintf("Class %d", s.between(1, 5))).
				With("Present", s.between(10, 20)).
				With("Absent", s.between(0, 5)).
				With("Percentage", fmt.Sprintf("%d%%", s.between(80, 20)))
		default:
			continue
		}
		result = append(result, rec)
	}

	return result
}
