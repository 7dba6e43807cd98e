// Package web renders the discovery page.
package web

import (
	"vinivici/internal/algorithms"
	"vinivici/internal/models"
)

// PlaceholderImageURL replaces images that fail to load.
const PlaceholderImageURL = "https://placehold.co/600x400/cccccc/333333?text=Image+Not+Found"

// Chip is one clickable attribute value.
type Chip struct {
	Type   models.AttributeType
	Value  string
	Banned bool
}

// AttributeRow groups the chips of one attribute type under its label.
type AttributeRow struct {
	Label string
	Chips []Chip
}

// PageView is the data handed to index.html.
type PageView struct {
	Phase        models.Phase
	Loading      bool
	ErrorMessage string
	FormError    string
	Current      *models.Candidate
	AltText      string
	Attributes   []AttributeRow
	Bans         []models.BanRule
	Version      uint64
	Placeholder  string
}

// ShowIdleHint is true before the first cat is shown and nothing failed.
func (v PageView) ShowIdleHint() bool {
	return !v.Loading && v.Current == nil && v.ErrorMessage == ""
}

// ButtonLabel mirrors the loading state on the discover button.
func (v PageView) ButtonLabel() string {
	if v.Loading {
		return "Discovering..."
	}
	return "Discover New Cat!"
}

// NewPageView derives the chips from the current candidate and ban list.
// Temperament gets one chip per token, because bans match single tokens.
func NewPageView(snap models.Snapshot) PageView {
	view := PageView{
		Phase:        snap.State.Phase,
		Loading:      snap.State.Loading(),
		ErrorMessage: snap.State.ErrorMessage,
		Bans:         snap.Bans,
		Version:      snap.Version,
		Placeholder:  PlaceholderImageURL,
	}
	if view.Loading || snap.State.Current == nil {
		return view
	}

	view.Current = snap.State.Current
	view.AltText = snap.State.Current.AltText()

	breed := snap.State.Current.PrimaryBreed()
	if breed == nil {
		return view
	}

	add := func(t models.AttributeType, values ...string) {
		row := AttributeRow{Label: t.Label()}
		for _, v := range values {
			if v == "" {
				continue
			}
			row.Chips = append(row.Chips, Chip{Type: t, Value: v, Banned: snap.IsBanned(t, v)})
		}
		if len(row.Chips) > 0 {
			view.Attributes = append(view.Attributes, row)
		}
	}
	add(models.AttributeBreedName, breed.Name)
	add(models.AttributeTemperament, algorithms.TemperamentTokens(breed.Temperament)...)
	add(models.AttributeOrigin, breed.Origin)

	return view
}
