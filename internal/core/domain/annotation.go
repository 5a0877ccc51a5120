package domain

// POSTag pairs a token with its part-of-speech tag.
type POSTag struct {
	Token string `json:"token" bson:"token"`
	Tag   string `json:"tag" bson:"tag"`
}

// NamedEntity is a span of tokens with an entity class label.
// Start and End are token indices, End exclusive.
type NamedEntity struct {
	Text  string `json:"text" bson:"text"`
	Label string `json:"label" bson:"label"`
	Start int    `json:"start" bson:"start"`
	End   int    `json:"end" bson:"end"`
}

// Annotation is the linguistic enrichment of one chunk.
type Annotation struct {
	Tokens        []string      `json:"tokens"`
	POSTags       []POSTag      `json:"pos_tags"`
	NamedEntities []NamedEntity `json:"named_entities"`
}

// Aligned reports whether POS tags line up one-to-one with tokens.
func (a Annotation) Aligned() bool {
	if len(a.Tokens) != len(a.POSTags) {
		return false
	}
	for i, tok := range a.Tokens {
		if a.POSTags[i].Token != tok {
			return false
		}
	}
	return true
}
