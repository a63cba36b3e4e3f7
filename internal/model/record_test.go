package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge_NonEmptyWins(t *testing.T) {
	r := PartialRecord{Homepage: "https://acme.com", Phone: "+41 22 555 1234"}
	r.Merge(PartialRecord{Phone: "", Country: "Switzerland"})

	assert.Equal(t, "https://acme.com", r.Homepage)
	assert.Equal(t, "+41 22 555 1234", r.Phone, "empty incoming value must not clobber")
	assert.Equal(t, "Switzerland", r.Country)
}

func TestMerge_LaterNonEmptyOverrides(t *testing.T) {
	r := PartialRecord{City: "Geneva"}
	r.Merge(PartialRecord{City: "Zurich"})
	assert.Equal(t, "Zurich", r.City)
}

func TestMerge_CofoundersReplacedWholesale(t *testing.T) {
	r := PartialRecord{Cofounders: []string{"A. Founder"}}
	r.Merge(PartialRecord{Cofounders: []string{"B. Founder", "C. Founder"}})
	assert.Equal(t, []string{"B. Founder", "C. Founder"}, r.Cofounders)

	r.Merge(PartialRecord{})
	assert.Equal(t, []string{"B. Founder", "C. Founder"}, r.Cofounders)
}

func TestMerge_SourceURLsAppendDedup(t *testing.T) {
	r := PartialRecord{SourceURLs: []string{"https://dir.example/profile/1"}}
	r.Merge(PartialRecord{SourceURLs: []string{"https://dir.example/profile/1", "https://acme.com"}})
	assert.Equal(t, []string{"https://dir.example/profile/1", "https://acme.com"}, r.SourceURLs)
}

func TestMerge_RawTextConcatenated(t *testing.T) {
	r := PartialRecord{RawText: "first response"}
	r.Merge(PartialRecord{RawText: "second response"})
	assert.Equal(t, "first response\n\nsecond response", r.RawText)
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, PartialRecord{}.IsEmpty())
	assert.True(t, PartialRecord{RawText: "audit only", SourceURLs: []string{"x"}}.IsEmpty())
	assert.False(t, PartialRecord{Phone: "+1"}.IsEmpty())
	assert.False(t, PartialRecord{Cofounders: []string{"x"}}.IsEmpty())
}

func TestClone_Independent(t *testing.T) {
	r := PartialRecord{Cofounders: []string{"a"}, SourceURLs: []string{"u"}}
	c := r.Clone()
	c.Cofounders[0] = "b"
	c.SourceURLs[0] = "v"
	assert.Equal(t, "a", r.Cofounders[0])
	assert.Equal(t, "u", r.SourceURLs[0])
}
