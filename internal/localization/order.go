package localization

import (
	"math"
	"sort"
	"strings"

	"figmatext/internal/domain"
)

// OrderedScreen is a screen with its texts in display order.
type OrderedScreen struct {
	Name     string
	ScreenID string
	Texts    []domain.TextItem
}

// OrderScreens returns the page's screens sorted top to bottom by their
// topmost text, each with texts sorted by vertical position. Ties keep the
// stored order.
func OrderScreens(page domain.Page) []OrderedScreen {
	if page.Screens == nil {
		return nil
	}

	screens := make([]OrderedScreen, 0, page.Screens.Len())
	for p := page.Screens.Oldest(); p != nil; p = p.Next() {
		screens = append(screens, OrderedScreen{
			Name:     p.Key,
			ScreenID: p.Value.ScreenID,
			Texts:    SortTexts(p.Value.Texts),
		})
	}

	sort.SliceStable(screens, func(i, j int) bool {
		return topY(screens[i].Texts) < topY(screens[j].Texts)
	})
	return screens
}

// SortTexts returns a copy of texts sorted by AxisY, stable on ties.
func SortTexts(texts []domain.TextItem) []domain.TextItem {
	sorted := make([]domain.TextItem, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AxisY < sorted[j].AxisY
	})
	return sorted
}

// topY is the smallest AxisY among texts, 0 for none.
func topY(texts []domain.TextItem) float64 {
	if len(texts) == 0 {
		return 0
	}
	min := math.Inf(1)
	for _, t := range texts {
		if t.AxisY < min {
			min = t.AxisY
		}
	}
	return min
}

// FindPage looks a page up by name, ignoring case. The first match in stored
// order wins.
func FindPage(snap *domain.Snapshot, name string) (domain.Page, bool) {
	if snap == nil || snap.Pages == nil {
		return domain.Page{}, false
	}
	for p := snap.Pages.Oldest(); p != nil; p = p.Next() {
		if strings.EqualFold(p.Key, name) {
			return p.Value, true
		}
	}
	return domain.Page{}, false
}
