package domain

// Merge folds p into base following the field schema and returns the result.
// Fields absent from p carry over unchanged. The returned State never shares
// slices with base or p.
func Merge(base State, p Partial) State {
	out := base.Clone()
	for _, spec := range schema {
		if !p.fields.Has(spec.Field) {
			continue
		}
		switch spec.Field {
		case FieldTopic:
			out.Topic = p.topic
		case FieldSearchQueries:
			out.SearchQueries = combine(out.SearchQueries, p.searchQueries, spec.Policy)
		case FieldSearchResults:
			out.SearchResults = combine(out.SearchResults, cloneResults(p.searchResults), spec.Policy)
		case FieldKeyFindings:
			out.KeyFindings = combine(out.KeyFindings, p.keyFindings, spec.Policy)
		case FieldSummary:
			out.Summary = p.summary
		case FieldCurrentStep:
			out.CurrentStep = p.currentStep
		case FieldError:
			out.Error = p.err
		}
	}
	return out
}

// combine applies a sequence policy. current is already owned by the caller.
func combine[T any](current, update []T, policy MergePolicy) []T {
	if policy == PolicyAppend {
		out := make([]T, 0, len(current)+len(update))
		out = append(out, current...)
		return append(out, update...)
	}
	out := make([]T, len(update))
	copy(out, update)
	return out
}
