package ai

// Inferer is a network run forward-only with frozen weights.
type Inferer[In, Out any] interface {
	Infer(in In) (Out, error)
}

var (
	_ Inferer[EmbedInput, *Tensor] = (*Embedder)(nil)
	_ Inferer[*Tensor, []float32]  = (*Extractor)(nil)
	_ Inferer[*Tensor, float32]    = (*Detector)(nil)
)
