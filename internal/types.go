package internal

// Sentence is one redacted segment of a note as produced by the pipeline.
// Final is always nil on delivery; it is only ever set through the
// persistence service's review endpoints.
type Sentence struct {
	Index    int     `json:"index"`
	Original string  `json:"original"`
	LLM      string  `json:"llm"`
	Final    *string `json:"final"`
}

// StoredSentence is a sentence row as served back by the persistence
// service. LLM and Final mirror nullable columns.
type StoredSentence struct {
	ID       int     `json:"id"`
	NoteID   int     `json:"note_id"`
	Index    int     `json:"index"`
	Original string  `json:"original_sentence"`
	LLM      *string `json:"llm_sentence"`
	Final    *string `json:"final_sentence"`
}
