package models

// Breed is the breed metadata attached to an image by the search API.
type Breed struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Temperament  string `json:"temperament"` // "Active, Energetic, Independent"
	Origin       string `json:"origin"`
	Description  string `json:"description,omitempty"`
	LifeSpan     string `json:"life_span,omitempty"`
	WikipediaURL string `json:"wikipedia_url,omitempty"`
}

// Candidate is one fetched image. It is read-only once received and
// replaced by the next discovery.
type Candidate struct {
	ID     string  `json:"id"`
	URL    string  `json:"url"`
	Width  int     `json:"width,omitempty"`
	Height int     `json:"height,omitempty"`
	Breeds []Breed `json:"breeds"`
}

// PrimaryBreed returns the first breed entry, or nil when the image has none.
func (c *Candidate) PrimaryBreed() *Breed {
	if c == nil || len(c.Breeds) == 0 {
		return nil
	}
	return &c.Breeds[0]
}

// AltText is used for the <img> alt attribute.
func (c *Candidate) AltText() string {
	if b := c.PrimaryBreed(); b != nil && b.Name != "" {
		return b.Name
	}
	return "A cat"
}
