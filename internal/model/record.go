package model

// PartialRecord is a sparse bag of company facts. Each enrichment stage
// produces one and the scheduler merges them into the result table; an
// empty string means the fact is unknown.
type PartialRecord struct {
	Homepage    string   `json:"homepage,omitempty"`
	ContactPage string   `json:"contact_page,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Country     string   `json:"country,omitempty"`
	City        string   `json:"city,omitempty"`
	CEO         string   `json:"ceo,omitempty"`
	Cofounders  []string `json:"cofounders,omitempty"`
	RawText     string   `json:"raw_text,omitempty"`
	SourceURLs  []string `json:"source_urls,omitempty"`
}

// IsEmpty reports whether no fact field is populated. RawText and
// SourceURLs are audit data and do not count.
func (r PartialRecord) IsEmpty() bool {
	return r.Homepage == "" &&
		r.ContactPage == "" &&
		r.Phone == "" &&
		r.Country == "" &&
		r.City == "" &&
		r.CEO == "" &&
		len(r.Cofounders) == 0
}

// Merge folds other into r. A non-empty incoming value replaces the
// current one; an empty incoming value never clobbers an existing fact.
// When both sides are non-empty the later arrival wins. Cofounders are
// replaced wholesale when the incoming slice is non-empty; SourceURLs
// are appended with duplicates dropped; RawText segments are concatenated
// so every collaborator response stays available for audit.
func (r *PartialRecord) Merge(other PartialRecord) {
	if other.Homepage != "" {
		r.Homepage = other.Homepage
	}
	if other.ContactPage != "" {
		r.ContactPage = other.ContactPage
	}
	if other.Phone != "" {
		r.Phone = other.Phone
	}
	if other.Country != "" {
		r.Country = other.Country
	}
	if other.City != "" {
		r.City = other.City
	}
	if other.CEO != "" {
		r.CEO = other.CEO
	}
	if len(other.Cofounders) > 0 {
		r.Cofounders = append([]string(nil), other.Cofounders...)
	}
	if other.RawText != "" {
		if r.RawText != "" {
			r.RawText += "\n\n"
		}
		r.RawText += other.RawText
	}
	for _, u := range other.SourceURLs {
		if u == "" || containsString(r.SourceURLs, u) {
			continue
		}
		r.SourceURLs = append(r.SourceURLs, u)
	}
}

// Clone returns a deep copy safe to hand to observers.
func (r PartialRecord) Clone() PartialRecord {
	out := r
	if r.Cofounders != nil {
		out.Cofounders = append([]string(nil), r.Cofounders...)
	}
	if r.SourceURLs != nil {
		out.SourceURLs = append([]string(nil), r.SourceURLs...)
	}
	return out
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
