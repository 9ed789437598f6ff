package service

import (
	"sort"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

// Occupancy returns the display names of users whose latest action is
// enter, most recently acted first. Equal timestamps fall back to id, so the
// output is fully determined by the input.
func Occupancy(latest map[string]types.UserState) []string {
	present := make([]types.UserState, 0, len(latest))
	for _, st := range latest {
		if st.Action == types.ActionEnter {
			present = append(present, st)
		}
	}

	sort.Slice(present, func(i, j int) bool {
		if !present[i].Timestamp.Equal(present[j].Timestamp) {
			return present[i].Timestamp.After(present[j].Timestamp)
		}
		return present[i].ID > present[j].ID
	})

	names := make([]string, len(present))
	for i, st := range present {
		names[i] = st.UserName
	}
	return names
}
