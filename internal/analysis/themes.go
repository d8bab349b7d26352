package analysis

// Theme is one of the fixed categories statements are classified into.
type Theme struct {
	ID   int    `json:"theme_id"`
	Name string `json:"theme_name"`
}

// themes is the canonical classification taxonomy. IDs are stable and
// referenced by downstream reporting; never renumber.
var themes = []Theme{
	{1, "Poverty and Economic Barriers"},
	{2, "Legal Document-linked Barriers"},
	{3, "Early Marriage"},
	{4, "Distance and Accessibility Issues"},
	{5, "Parental Attitudes and Socio-Cultural Barriers"},
	{6, "School Infrastructure and Facility Issues"},
	{7, "Unknown/Unclear"},
}

// Themes returns a copy of the taxonomy for display and prompt building.
func Themes() []Theme {
	out := make([]Theme, len(themes))
	copy(out, themes)
	return out
}

// themeByID resolves an ID to its canonical theme. ok is false for IDs
// outside the taxonomy.
func themeByID(id int) (Theme, bool) {
	for _, t := range themes {
		if t.ID == id {
			return t, true
		}
	}
	return Theme{}, false
}
