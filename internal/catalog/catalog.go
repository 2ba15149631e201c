// Package catalog maps product categories to the two product classes the
// dashboard reports on. Categories outside the map are not electronics and are
// dropped at load time.
package catalog

import (
	"slices"

	"tech-insights/internal/models"
)

var (
	coreCategories = []string{
		"telefonia",
		"consoles_games",
		"pcs",
		"pc_gamer",
		"tablets_impressao_imagem",
	}

	accessoryCategories = []string{
		"informatica_acessorios",
		"audio",
		"eletronicos",
		"telefonia_fixa",
	}

	byCategory = buildIndex()
)

func buildIndex() map[string]models.ProductType {
	idx := make(map[string]models.ProductType, len(coreCategories)+len(accessoryCategories))
	for _, c := range coreCategories {
		idx[c] = models.ProductCore
	}
	for _, c := range accessoryCategories {
		idx[c] = models.ProductAccessory
	}
	return idx
}

// Classify reports the product class of category and whether it is tracked.
func Classify(category string) (models.ProductType, bool) {
	t, ok := byCategory[category]
	return t, ok
}

func CoreCategories() []string {
	return slices.Clone(coreCategories)
}

func AccessoryCategories() []string {
	return slices.Clone(accessoryCategories)
}
