// Package extract turns a design document tree into the Page → Screen → Text
// hierarchy that gets stored and exported.
package extract

import "figmatext/internal/domain"

// maxDepth bounds recursion on pathological documents.
const maxDepth = 256

// ExtractTexts returns the visible text items under node, in document order.
// screen is the name of the enclosing frame, inherited by descendants until a
// nested frame overrides it.
//
// A hidden node prunes its whole subtree, whatever its descendants say. Only
// container types (frame, group, component, instance) are descended into.
func ExtractTexts(node *domain.Node, screen string) []domain.TextItem {
	return walk(node, screen, 0)
}

func walk(node *domain.Node, screen string, depth int) []domain.TextItem {
	if node == nil || !node.IsVisible() || depth > maxDepth {
		return nil
	}

	var items []domain.TextItem

	switch node.Type {
	case domain.NodeText:
		x, y := node.Position()
		items = append(items, domain.TextItem{
			Name:    node.Name,
			Content: node.Characters,
			AxisX:   x,
			AxisY:   y,
			Screen:  screen,
		})
	case domain.NodeFrame:
		// an unnamed frame keeps the enclosing screen
		if node.Name != "" {
			screen = node.Name
		}
	case domain.NodeGroup, domain.NodeComponent, domain.NodeInstance, domain.NodeCanvas, domain.NodeOther:
	}

	if !node.Type.IsContainer() {
		return items
	}
	for _, child := range node.Children {
		items = append(items, walk(child, screen, depth+1)...)
	}
	return items
}
