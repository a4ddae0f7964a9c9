package catalog

import (
	"strings"

	"github.com/spherical-ai/spherical/libs/showroom/internal/storage"
)

// Subcategory values.
const (
	SubTreRuote    = "tre-ruote"
	SubDueRuote    = "due-ruote"
	SubMountain    = "mountain"
	SubCargo       = "cargo"
	SubCity        = "city"
	SubScooter     = "scooter"
	SubMoto        = "moto"
	SubQuadriciclo = "quadriciclo"
	SubCityCar     = "city-car"
)

// Subcategory derives a vehicle's subcategory from its category and the
// words in its name or model. Rules are checked in order per category; an
// unknown category has no subcategory.
func Subcategory(v storage.Vehicle) string {
	name := strings.ToLower(v.Name)
	model := strings.ToLower(v.Model)
	either := func(subs ...string) bool {
		for _, s := range subs {
			if strings.Contains(name, s) || strings.Contains(model, s) {
				return true
			}
		}
		return false
	}

	switch categoryKind(v) {
	case "monopattini":
		if either("tre-ruote", "tre ruote", "3 ruote") {
			return SubTreRuote
		}
		return SubDueRuote
	case "biciclette":
		if strings.Contains(name, "fat") {
			return SubMountain
		}
		if strings.Contains(name, "cargo") {
			return SubCargo
		}
		return SubCity
	case "moto":
		if either("scooter") {
			return SubScooter
		}
		return SubMoto
	case "auto":
		if either("l6e", "l7e") {
			return SubQuadriciclo
		}
		return SubCityCar
	}
	return ""
}

// SubcategoriesOf lists the subcategories a category can produce, in display
// order.
func SubcategoriesOf(categorySlug string) []string {
	switch normalizeCategory(categorySlug) {
	case "monopattini":
		return []string{SubDueRuote, SubTreRuote}
	case "biciclette":
		return []string{SubCity, SubMountain, SubCargo}
	case "moto":
		return []string{SubMoto, SubScooter}
	case "auto":
		return []string{SubCityCar, SubQuadriciclo}
	}
	return nil
}

func categoryKind(v storage.Vehicle) string {
	if k := normalizeCategory(v.CategorySlug); k != "" {
		return k
	}
	return normalizeCategory(v.Category)
}

func normalizeCategory(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monopattini", "monopattino", "scooters", "e-scooter":
		return "monopattini"
	case "biciclette", "bicicletta", "bici", "bikes", "e-bike", "bicycles":
		return "biciclette"
	case "moto", "motorcycles", "motorbikes", "scooter-moto":
		return "moto"
	case "auto", "microcar", "microcars", "cars":
		return "auto"
	}
	return ""
}
