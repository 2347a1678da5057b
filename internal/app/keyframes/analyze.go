// internal/app/keyframes/analyze.go
package keyframes

// The analysis path inspects the full project payload a client is about to
// save (elements carrying transient embedded keyframes arrays) and reports
// what a real merge would accept. The embedded representation is never
// persisted; the keyed blob on the project document stays the single
// source of truth.

// SavePayload is the client-side project shape submitted for analysis.
type SavePayload struct {
	Elements []PayloadElement `json:"elements"`
}

// PayloadElement is one element with its transient keyframes.
type PayloadElement struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Keyframes []Input `json:"keyframes"`
}

// ElementReport summarizes one element's keyframes.
type ElementReport struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Total        int    `json:"total"`
	Valid        int    `json:"valid"`
	HasKeyframes bool   `json:"hasKeyframes"`
}

// AnalysisReport is the whole-payload summary.
type AnalysisReport struct {
	ElementCount          int             `json:"elementCount"`
	ElementsWithKeyframes int             `json:"elementsWithKeyframes"`
	TotalKeyframes        int             `json:"totalKeyframes"`
	ValidKeyframes        int             `json:"validKeyframes"`
	Elements              []ElementReport `json:"elements"`
}

// Analyze reports per-element valid vs. total keyframe counts without
// persisting anything. It applies the same Valid predicate the merge uses,
// so diagnostics and real saves never disagree.
func Analyze(p SavePayload) AnalysisReport {
	report := AnalysisReport{
		ElementCount: len(p.Elements),
		Elements:     make([]ElementReport, 0, len(p.Elements)),
	}
	for _, el := range p.Elements {
		er := ElementReport{
			ID:           el.ID,
			Type:         el.Type,
			Total:        len(el.Keyframes),
			Valid:        len(Filter(el.Keyframes)),
			HasKeyframes: el.Keyframes != nil,
		}
		if er.Total > 0 {
			report.ElementsWithKeyframes++
		}
		report.TotalKeyframes += er.Total
		report.ValidKeyframes += er.Valid
		report.Elements = append(report.Elements, er)
	}
	return report
}
