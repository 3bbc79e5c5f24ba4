package policy

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Kacegz/teactl/pkg/catalog"
	"github.com/Kacegz/teactl/pkg/session"
)

func newTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	e, err := NewEvaluator(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewEvaluator failed: %v", err)
	}
	return e
}

func snapshotFor(subject string, authenticated, elevated bool) session.Snapshot {
	s := session.Snapshot{Authenticated: authenticated, Elevated: elevated}
	if subject != "" {
		s.Claims = &session.Claims{
			Subject:   subject,
			ExpiresAt: time.Now().Add(time.Hour),
		}
	}
	return s
}

func TestCanMutate(t *testing.T) {
	t.Parallel()
	e := newTestEvaluator(t)
	tea := catalog.Tea{ID: "t1", Name: "Sencha", CreatedBy: "alice"}

	tests := []struct {
		name string
		snap session.Snapshot
		want bool
	}{
		{"Anonymous", snapshotFor("", false, false), false},
		{"OwnerAuthenticated", snapshotFor("alice", true, false), true},
		{"NonOwnerAuthenticated", snapshotFor("bob", true, false), false},
		{"NonOwnerElevated", snapshotFor("bob", true, true), true},
		{"OwnerElevated", snapshotFor("alice", true, true), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := e.CanMutate(tt.snap, tea); got != tt.want {
				t.Errorf("CanMutate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanMutateElevationIsMonotonic(t *testing.T) {
	t.Parallel()
	e := newTestEvaluator(t)
	tea := catalog.Tea{ID: "t1", CreatedBy: "alice"}

	// Gaining elevation may only widen what a session can do, never narrow it.
	for _, subject := range []string{"alice", "bob"} {
		base := e.CanMutate(snapshotFor(subject, true, false), tea)
		elevated := e.CanMutate(snapshotFor(subject, true, true), tea)
		if base && !elevated {
			t.Errorf("subject %q lost mutate permission when elevated", subject)
		}
	}
}

func TestCanCreate(t *testing.T) {
	t.Parallel()
	e := newTestEvaluator(t)

	tests := []struct {
		name string
		snap session.Snapshot
		want bool
	}{
		{"Anonymous", snapshotFor("", false, false), false},
		{"Authenticated", snapshotFor("bob", true, false), true},
		{"Elevated", snapshotFor("root", true, true), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := e.CanCreate(tt.snap); got != tt.want {
				t.Errorf("CanCreate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanRate(t *testing.T) {
	t.Parallel()
	e := newTestEvaluator(t)
	tea := catalog.Tea{ID: "t1", CreatedBy: "alice"}

	tests := []struct {
		name  string
		snap  session.Snapshot
		prior catalog.RatingStatus
		want  bool
	}{
		{"Anonymous", snapshotFor("", false, false), catalog.RatingStatus{}, false},
		{"AuthenticatedUnrated", snapshotFor("bob", true, false), catalog.RatingStatus{}, true},
		{"AuthenticatedAlreadyRated", snapshotFor("bob", true, false), catalog.RatingStatus{Rating: 4}, false},
		// Elevation grants no rating exemption: once rated, always rated.
		{"ElevatedAlreadyRated", snapshotFor("root", true, true), catalog.RatingStatus{Rating: 5}, false},
		{"OwnerUnrated", snapshotFor("alice", true, false), catalog.RatingStatus{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := e.CanRate(tt.snap, tea, tt.prior); got != tt.want {
				t.Errorf("CanRate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEvaluatorFromBytesRejectsBadPolicy(t *testing.T) {
	t.Parallel()
	if _, err := NewEvaluatorFromBytes([]byte("permit (principal"), nil); err == nil {
		t.Error("expected a parse error for a malformed policy set")
	}
}
