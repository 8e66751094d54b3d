package summary

import (
	"encoding/json"
	"strings"

	"github.com/RianMcHale/Container-Security-Scanner/internal/model"
)

// Minimal view of a trivy report. Anything the counter does not need is
// left undecoded so novel report shapes degrade to zero counts instead
// of failing.
type reportDoc struct {
	Results []struct {
		Vulnerabilities []struct {
			Severity string `json:"Severity"`
		} `json:"Vulnerabilities"`
	} `json:"Results"`
}

// Summarize counts vulnerabilities per severity label. It is pure and
// total: a report missing the Results section, carrying null
// vulnerability lists, or not shaped like a report at all yields the
// canonical labels at zero. Labels are normalized to upper case and
// unrecognized labels get their own bucket.
func Summarize(report json.RawMessage) model.SeverityCounts {
	counts := make(model.SeverityCounts, len(model.CanonicalSeverities))
	for _, s := range model.CanonicalSeverities {
		counts[string(s)] = 0
	}

	var doc reportDoc
	if err := json.Unmarshal(report, &doc); err != nil {
		return counts
	}

	for _, r := range doc.Results {
		for _, v := range r.Vulnerabilities {
			sev := strings.ToUpper(strings.TrimSpace(v.Severity))
			if sev == "" {
				sev = string(model.SevUnknown)
			}
			counts[sev]++
		}
	}
	return counts
}
