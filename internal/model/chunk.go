package model

// Chunk is a bounded-length slice of excerpt text sized for embedding and
// retrieval. Stateless once created.
type Chunk struct {
	ID        string // pointID in the vector store (uuid)
	ExcerptID string // back-reference to the source excerpt
	RunID     string
	Seq       int    // position within the excerpt's chunk sequence
	Text      string
	Tokens    int // estimated token count
}
