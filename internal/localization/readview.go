package localization

import (
	"fmt"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"figmatext/internal/domain"
)

// TextView is one text entry of the nested read view.
type TextView struct {
	TextContent string  `json:"text_content"`
	AxisX       float64 `json:"axis_x"`
	AxisY       float64 `json:"axis_y"`
	PageID      string  `json:"page_id"`
	ScreenID    string  `json:"screen_id"`
}

// ScreenTexts maps numbered text keys ("01_title", "02_title_1") to texts.
type ScreenTexts = orderedmap.OrderedMap[string, TextView]

// PageScreens maps screen names to their texts, screens in display order.
type PageScreens = orderedmap.OrderedMap[string, *ScreenTexts]

// ReadView is the nested Page → Screen → Text structure served to clients.
type ReadView struct {
	TotalTexts  int                                          `json:"total_texts"`
	Pages       *orderedmap.OrderedMap[string, *PageScreens] `json:"pages"`
	LastUpdated *string                                      `json:"last_updated"`
}

// BuildReadView renders every page of snap. Pages keep stored order; screens
// and texts follow OrderScreens. Text keys are numbered from 01 in display
// order, and a raw text name repeated within a screen gets "_1", "_2", ...
// Only repeats are suffixed; the number prefix keeps keys unique.
func BuildReadView(snap *domain.Snapshot) *ReadView {
	view := &ReadView{Pages: orderedmap.New[string, *PageScreens]()}
	if snap == nil || snap.Pages == nil {
		return view
	}

	for p := snap.Pages.Oldest(); p != nil; p = p.Next() {
		screens := orderedmap.New[string, *ScreenTexts]()
		for _, screen := range OrderScreens(p.Value) {
			texts := orderedmap.New[string, TextView]()
			seen := make(map[string]int)
			for i, text := range screen.Texts {
				name := text.Name
				if n := seen[text.Name]; n > 0 {
					name = fmt.Sprintf("%s_%d", text.Name, n)
				}
				seen[text.Name]++
				key := fmt.Sprintf("%02d_%s", i+1, name)
				texts.Set(key, TextView{
					TextContent: text.Content,
					AxisX:       text.AxisX,
					AxisY:       text.AxisY,
					PageID:      p.Value.PageID,
					ScreenID:    screen.ScreenID,
				})
				view.TotalTexts++
			}
			screens.Set(screen.Name, texts)
		}
		view.Pages.Set(p.Key, screens)
	}

	if !snap.LastUpdated.IsZero() {
		ts := FormatTimestamp(snap.LastUpdated)
		view.LastUpdated = &ts
	}
	return view
}

// SortedPage returns a copy of page with screens and texts in display order.
func SortedPage(page domain.Page) domain.Page {
	out := domain.Page{PageID: page.PageID, Screens: domain.NewScreens()}
	for _, screen := range OrderScreens(page) {
		out.Screens.Set(screen.Name, domain.Screen{ScreenID: screen.ScreenID, Texts: screen.Texts})
	}
	return out
}

// SortedScreen returns a copy of screen with texts in display order.
func SortedScreen(screen domain.Screen) domain.Screen {
	return domain.Screen{ScreenID: screen.ScreenID, Texts: SortTexts(screen.Texts)}
}

// FormatTimestamp renders t the way every API response does.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
