package domain

import (
	"strings"
)

// neighborhoodAliases — распространённые сокращения и варианты написания районов.
var neighborhoodAliases = map[string]string{
	"dt":          "downtown",
	"down town":   "downtown",
	"city centre": "city center",
	"centre":      "center",
	"fidi":        "financial district",
	"les":         "lower east side",
	"ues":         "upper east side",
	"uws":         "upper west side",
}

// NormalizeNeighborhood приводит название района к единому виду:
// обрезает пробелы, схлопывает повторяющиеся, переводит в нижний регистр
// и раскрывает известные сокращения.
func NormalizeNeighborhood(name string) string {
	name = strings.ToLower(strings.Join(strings.Fields(name), " "))
	name = strings.ReplaceAll(name, "neighbourhood", "neighborhood")

	if normalized, ok := neighborhoodAliases[name]; ok {
		return normalized
	}

	return name
}

// NeighborhoodsMatch проверяет, совпадают ли два района (с учётом нормализации).
func NeighborhoodsMatch(a, b string) bool {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return false
	}
	return NormalizeNeighborhood(a) == NormalizeNeighborhood(b)
}

// NeighborhoodsOverlap проверяет, что одно название района содержит другое
// ("Downtown" и "Downtown East"). Полное совпадение тоже считается пересечением.
func NeighborhoodsOverlap(a, b string) bool {
	na, nb := NormalizeNeighborhood(a), NormalizeNeighborhood(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}
