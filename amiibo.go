package main

// Amiibo is a single catalog record: one collectible figure as served
// by AmiiboAPI and cached locally.
type Amiibo struct {
	// ID is the head+tail hex pair AmiiboAPI uses as the stable
	// identifier for a figure.
	ID           string
	Name         string
	Character    string
	GameSeries   string
	AmiiboSeries string
	Type         string
	ImageURL     string

	// Regional release dates as YYYY-MM-DD, empty when the figure
	// never shipped in that region.
	ReleaseNA string
	ReleaseEU string
	ReleaseJP string
	ReleaseAU string
}
