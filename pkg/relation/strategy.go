package relation

// strategy shapes the session for one relationship category: the field
// draft, the initial relation records, and the recompute rules that keep the
// derived proposals consistent.
type strategy interface {
	init(s *Session)
	rules() []rule
}

var strategies = map[Category]strategy{
	CategoryStandard:     standardStrategy{},
	CategoryFile:         fileStrategy{},
	CategoryM2O:          m2oStrategy{},
	CategoryO2M:          o2mStrategy{},
	CategoryM2M:          junctionStrategy{category: CategoryM2M},
	CategoryFiles:        junctionStrategy{category: CategoryFiles},
	CategoryTranslations: junctionStrategy{category: CategoryTranslations},
	CategoryM2A:          m2aStrategy{},
	CategoryPresentation: presentationStrategy{},
}
