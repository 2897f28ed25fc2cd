package extract

import (
	"figmatext/internal/domain"
)

const (
	unnamedPage   = "Unnamed Page"
	unnamedScreen = "Unnamed Screen"
)

// Result is the organized hierarchy of one document.
type Result struct {
	Pages *domain.Pages
	// Overwritten lists "page" or "page/screen" names that appeared more than
	// once at the same level. The later occurrence wins and keeps the position
	// of the first.
	Overwritten []string
}

// Organize groups the document's visible texts by page and screen.
//
// Pages are the CANVAS children of the root. Screens are the FRAME children
// of a page; deeper frames stay part of their top-level frame. Screens
// without any visible text are dropped. Pages are kept even when all their
// screens were dropped.
func Organize(root *domain.Node) *Result {
	res := &Result{Pages: domain.NewPages()}
	if root == nil {
		return res
	}

	for _, pageNode := range root.Children {
		if pageNode == nil || pageNode.Type != domain.NodeCanvas {
			continue
		}
		pageName := orDefault(pageNode.Name, unnamedPage)

		page := domain.Page{PageID: pageNode.ID, Screens: domain.NewScreens()}
		for _, screenNode := range pageNode.Children {
			if screenNode == nil || screenNode.Type != domain.NodeFrame {
				continue
			}
			screenName := orDefault(screenNode.Name, unnamedScreen)

			texts := ExtractTexts(screenNode, screenName)
			if len(texts) == 0 {
				continue
			}
			if _, dup := page.Screens.Set(screenName, domain.Screen{
				ScreenID: screenNode.ID,
				Texts:    texts,
			}); dup {
				res.Overwritten = append(res.Overwritten, pageName+"/"+screenName)
			}
		}

		if _, dup := res.Pages.Set(pageName, page); dup {
			res.Overwritten = append(res.Overwritten, pageName)
		}
	}
	return res
}

// OrganizeDocument is Organize applied to a parsed document.
func OrganizeDocument(doc *domain.Document) *Result {
	if doc == nil {
		return Organize(nil)
	}
	return Organize(doc.Root)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
