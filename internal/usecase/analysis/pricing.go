package analysis

// Credit pricing for analysis operations.
const (
	shortAnalysisCredits = 10
	longAnalysisCredits  = 20

	// shortWordThreshold separates short from long transcripts. The word
	// count is estimated from character length at five characters per word,
	// so pricing is deterministic for a given transcript and cheap to check
	// before any external call.
	shortWordThreshold = 500

	// EmailCredits is the flat price of regenerating a follow-up email.
	EmailCredits = 1
)

// EstimateCost prices one transcript analysis from its character length
func EstimateCost(transcript string) int {
	wordCount := len(transcript) / 5
	if wordCount < shortWordThreshold {
		return shortAnalysisCredits
	}
	return longAnalysisCredits
}
