// Package shopping builds consolidated shopping lists from recipes and pushes
// them to the retailer cart.
package shopping

import (
	"sort"

	"git.home.luguber.info/inful/mealprep/internal/ingredient"
	"git.home.luguber.info/inful/mealprep/internal/store"
	"git.home.luguber.info/inful/mealprep/internal/units"
)

type groupKey struct {
	name string
	unit units.Unit
}

// Consolidate merges the ingredient lines of the given recipes into shopping
// list items: names are canonicalized through the alias map, pantry staples
// are skipped, quantities are unified to g/ml per dimension and summed.
// Items come back in stable alphabetical order with the contributing recipe
// names attached.
func Consolidate(recipes []*store.Recipe, aliases ingredient.AliasMap, staples []string) ([]store.ShoppingListItem, error) {
	stapleSet := make(map[string]bool, len(staples))
	for _, s := range staples {
		stapleSet[ingredient.Clean(s)] = true
	}

	groups := make(map[groupKey]*store.ShoppingListItem)
	for _, r := range recipes {
		for _, ing := range r.Ingredients {
			name := ingredient.Canonical(aliases, ing.Name)
			if name == "" || stapleSet[name] {
				continue
			}

			unit, err := units.Normalize(ing.Unit)
			if err != nil {
				return nil, err
			}

			// Unify to the dimension base so "1 kg" and "500 g" merge.
			qty := ing.Quantity
			switch dim, _ := units.DimensionOf(unit); dim {
			case units.Mass:
				res, err := units.Convert(qty, unit, units.Gram, 0)
				if err != nil {
					return nil, err
				}
				qty, unit = res.Quantity, units.Gram
			case units.Volume:
				res, err := units.Convert(qty, unit, units.Milliliter, 0)
				if err != nil {
					return nil, err
				}
				qty, unit = res.Quantity, units.Milliliter
			}

			key := groupKey{name: name, unit: unit}
			item, ok := groups[key]
			if !ok {
				item = &store.ShoppingListItem{Name: name, Unit: string(unit)}
				groups[key] = item
			}
			item.Quantity += qty
			if !contains(item.Recipes, r.Name) {
				item.Recipes = append(item.Recipes, r.Name)
			}
		}
	}

	items := make([]store.ShoppingListItem, 0, len(groups))
	for _, item := range groups {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].Unit < items[j].Unit
	})
	return items, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
