package domain

import "slices"

// Partial is the update a step returns: a subset of State fields.
// Only fields recorded in its FieldSet take part in a merge, so an
// explicitly empty value is distinct from an absent one.
//
// Partial is immutable; every With method returns a modified copy.
type Partial struct {
	fields FieldSet

	topic         string
	searchQueries []string
	searchResults []SearchResult
	keyFindings   []string
	summary       string
	currentStep   string
	err           string
}

// Fields reports which fields are present.
func (p Partial) Fields() FieldSet { return p.fields }

// IsEmpty reports whether no field is present.
func (p Partial) IsEmpty() bool { return p.fields.Empty() }

// WithTopic sets the topic.
func (p Partial) WithTopic(v string) Partial {
	p.topic = v
	p.fields |= FieldSet(FieldTopic)
	return p
}

// WithSearchQueries sets the search queries.
func (p Partial) WithSearchQueries(v []string) Partial {
	p.searchQueries = cloneStrings(v)
	p.fields |= FieldSet(FieldSearchQueries)
	return p
}

// WithSearchResults sets the search results. A nil slice is stored as empty.
func (p Partial) WithSearchResults(v []SearchResult) Partial {
	p.searchResults = cloneResults(v)
	if p.searchResults == nil {
		p.searchResults = []SearchResult{}
	}
	p.fields |= FieldSet(FieldSearchResults)
	return p
}

// WithKeyFindings sets the key findings.
func (p Partial) WithKeyFindings(v []string) Partial {
	p.keyFindings = cloneStrings(v)
	p.fields |= FieldSet(FieldKeyFindings)
	return p
}

// WithSummary sets the summary.
func (p Partial) WithSummary(v string) Partial {
	p.summary = v
	p.fields |= FieldSet(FieldSummary)
	return p
}

// WithCurrentStep sets the progress marker.
func (p Partial) WithCurrentStep(v string) Partial {
	p.currentStep = v
	p.fields |= FieldSet(FieldCurrentStep)
	return p
}

// WithError sets the run error message.
func (p Partial) WithError(v string) Partial {
	p.err = v
	p.fields |= FieldSet(FieldError)
	return p
}

// Topic returns the topic and whether it is present.
func (p Partial) Topic() (string, bool) { return p.topic, p.fields.Has(FieldTopic) }

// Summary returns the summary and whether it is present.
func (p Partial) Summary() (string, bool) { return p.summary, p.fields.Has(FieldSummary) }

// CurrentStep returns the progress marker and whether it is present.
func (p Partial) CurrentStep() (string, bool) {
	return p.currentStep, p.fields.Has(FieldCurrentStep)
}

// ErrorMessage returns the error message and whether it is present.
func (p Partial) ErrorMessage() (string, bool) { return p.err, p.fields.Has(FieldError) }

// SearchQueries returns a copy of the queries and whether they are present.
func (p Partial) SearchQueries() ([]string, bool) {
	return slices.Clone(p.searchQueries), p.fields.Has(FieldSearchQueries)
}

// SearchResults returns a copy of the results and whether they are present.
func (p Partial) SearchResults() ([]SearchResult, bool) {
	return cloneResults(p.searchResults), p.fields.Has(FieldSearchResults)
}

// KeyFindings returns a copy of the findings and whether they are present.
func (p Partial) KeyFindings() ([]string, bool) {
	return slices.Clone(p.keyFindings), p.fields.Has(FieldKeyFindings)
}

func cloneStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return slices.Clone(v)
}
