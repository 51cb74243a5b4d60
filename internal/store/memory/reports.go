package memory

import (
	"context"

	"github.com/ariefcatur/go-restaurant-pos/internal/reports"
)

type snapshotStore struct{ v view }

func (s snapshotStore) Upsert(ctx context.Context, snap reports.Snapshot) error {
	return s.v.do(func(st *state) error {
		st.snapshots[snap.Date] = snap
		return nil
	})
}

func (s snapshotStore) Get(ctx context.Context, date string) (reports.Snapshot, error) {
	var out reports.Snapshot
	err := s.v.do(func(st *state) error {
		snap, ok := st.snapshots[date]
		if !ok {
			return reports.ErrSnapshotNotFound
		}
		out = snap
		return nil
	})
	return out, err
}
