package scoring

import "math"

// NominationCounts holds resolved nomination counts for one person within a
// scope, overall and per nomination category.
type NominationCounts struct {
	Total    int `json:"total"`
	National int `json:"national"`
	Rising   int `json:"rising"`
	Regional int `json:"regional"`
	Digital  int `json:"digital"`
	Clinical int `json:"clinical"`
}

// SurveyScores is the normalized 0-100 outcome for one person
type SurveyScores struct {
	Counts   NominationCounts
	Overall  float64
	National float64
	Rising   float64
	Regional float64
	Digital  float64
	Clinical float64
}

// normalizeCount scales a count against the scope maximum so the
// most-nominated person scores exactly 100. A zero maximum means nobody in
// scope has nominations and everybody scores 0.
func normalizeCount(count, max int) float64 {
	if max == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(max)*10000) / 100
}

// ComputeSurveyScores derives survey scores for every person from their
// resolved nomination counts. Pure: same counts in, same scores out. The
// overall score and each per-type score are normalized independently
// against their own scope maximum.
func ComputeSurveyScores(byPerson map[string]NominationCounts) map[string]SurveyScores {
	var maxTotal, maxNational, maxRising, maxRegional, maxDigital, maxClinical int
	for _, c := range byPerson {
		if c.Total > maxTotal {
			maxTotal = c.Total
		}
		if c.National > maxNational {
			maxNational = c.National
		}
		if c.Rising > maxRising {
			maxRising = c.Rising
		}
		if c.Regional > maxRegional {
			maxRegional = c.Regional
		}
		if c.Digital > maxDigital {
			maxDigital = c.Digital
		}
		if c.Clinical > maxClinical {
			maxClinical = c.Clinical
		}
	}

	scores := make(map[string]SurveyScores, len(byPerson))
	for npi, c := range byPerson {
		scores[npi] = SurveyScores{
			Counts:   c,
			Overall:  normalizeCount(c.Total, maxTotal),
			National: normalizeCount(c.National, maxNational),
			Rising:   normalizeCount(c.Rising, maxRising),
			Regional: normalizeCount(c.Regional, maxRegional),
			Digital:  normalizeCount(c.Digital, maxDigital),
			Clinical: normalizeCount(c.Clinical, maxClinical),
		}
	}

	return scores
}
