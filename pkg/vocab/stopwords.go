package vocab

// englishStopwords is the filter list applied during candidate mining.
var englishStopwords = map[string]bool{}

func init() {
	words := []string{
		"a", "about", "above", "after", "again", "against", "all", "almost",
		"alone", "along", "already", "although", "always", "am", "among", "an",
		"and", "another", "any", "anyhow", "anyone", "anything", "anywhere",
		"are", "around", "as", "at", "back", "be", "became", "because",
		"become", "becomes", "been", "before", "behind", "being", "below",
		"beside", "besides", "between", "beyond", "both", "but", "by", "can",
		"cannot", "could", "did", "do", "does", "doing", "done", "down",
		"during", "each", "either", "else", "elsewhere", "enough", "etc",
		"even", "ever", "every", "everyone", "everything", "everywhere",
		"few", "first", "for", "former", "from", "further", "get", "give",
		"go", "had", "has", "have", "having", "he", "hence", "her", "here",
		"hers", "herself", "him", "himself", "his", "how", "however", "i",
		"if", "in", "indeed", "into", "is", "it", "its", "itself", "keep",
		"last", "latter", "least", "less", "many", "may", "me", "meanwhile",
		"might", "mine", "more", "moreover", "most", "mostly", "much", "must",
		"my", "myself", "neither", "never", "nevertheless", "next", "no",
		"nobody", "none", "nor", "not", "nothing", "now", "nowhere", "of",
		"off", "often", "on", "once", "one", "only", "onto", "or", "other",
		"others", "otherwise", "our", "ours", "ourselves", "out", "over",
		"own", "per", "perhaps", "please", "put", "rather", "same", "see",
		"seem", "seemed", "seeming", "seems", "several", "she", "should",
		"since", "so", "some", "somehow", "someone", "something", "sometime",
		"sometimes", "somewhere", "still", "such", "take", "than", "that",
		"the", "their", "theirs", "them", "themselves", "then", "thence",
		"there", "thereafter", "thereby", "therefore", "therein", "these",
		"they", "this", "those", "though", "through", "throughout", "thus",
		"to", "together", "too", "toward", "towards", "under", "until", "up",
		"upon", "us", "very", "was", "we", "well", "were", "what", "whatever",
		"when", "whence", "whenever", "where", "whereas", "whereby",
		"wherein", "whereupon", "wherever", "whether", "which", "while",
		"who", "whoever", "whole", "whom", "whose", "why", "will", "with",
		"within", "without", "would", "yet", "you", "your", "yours",
		"yourself", "yourselves",
	}
	for _, w := range words {
		englishStopwords[w] = true
	}

	// Extra fillers that often slip through clinical free text
	extra := []string{
		"also", "really", "quite", "just", "like",
		"ive", "im", "dont", "cant", "wont",
		"morning", "today", "yesterday", "recently",
	}
	for _, w := range extra {
		englishStopwords[w] = true
	}
}

// IsStopword reports whether a token is on the english stopword list.
func IsStopword(token string) bool {
	return englishStopwords[token]
}

// stopPhrases are bigrams that carry no symptom signal.
var stopPhrases = map[string]bool{
	"have been":    true,
	"has been":     true,
	"had been":     true,
	"been feeling": true,
	"been having":  true,
	"there is":     true,
	"there are":    true,
	"in my":        true,
	"on my":        true,
	"for me":       true,
	"the itching":  true,
	"the skin":     true,
}
