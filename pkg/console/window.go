package console

import (
	"sort"
	"strings"

	"github.com/invigilo/proctord/pkg/api"
)

// Window is the visible slice of the roster: one page of at most Size
// users matching the Filter. Ordering is by external id (peer id breaks
// ties) so pagination stays stable across presence updates.
type Window struct {
	Size   int
	Page   int
	Filter string
}

// Visible returns the peer ids on the current page, in order.
func (w Window) Visible(roster map[string]api.UserInfo) []string {
	type entry struct{ ext, id string }
	matched := make([]entry, 0, len(roster))
	needle := strings.ToLower(w.Filter)
	for id, info := range roster {
		if needle != "" && !strings.Contains(strings.ToLower(info.ExternalId), needle) {
			continue
		}
		matched = append(matched, entry{ext: info.ExternalId, id: id})
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].ext != matched[j].ext {
			return matched[i].ext < matched[j].ext
		}
		return matched[i].id < matched[j].id
	})

	lo := w.Page * w.Size
	if lo >= len(matched) || lo < 0 {
		return nil
	}
	hi := lo + w.Size
	if hi > len(matched) {
		hi = len(matched)
	}
	out := make([]string, 0, hi-lo)
	for _, e := range matched[lo:hi] {
		out = append(out, e.id)
	}
	return out
}
