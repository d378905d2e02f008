package ai

import (
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/checkpoint"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/logger"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/nn"
)

// Checkpoint tensor prefixes, one per network.
const (
	PrefixEmbedder  = "generator"
	PrefixExtractor = "decoder"
	PrefixDetector  = "discriminator"
)

// Options configures NewModelContext.
type Options struct {
	CheckpointPath string
	Seed           uint64
	Threads        int
	Logger         *logger.Logger
}

// ModelContext owns the three networks. It is built once and only read afterwards,
// so any number of goroutines may run inference against it.
type ModelContext struct {
	embedder  *Embedder
	extractor *Extractor
	detector  *Detector

	threads int
	loaded  bool
	source  string
}

type networks struct {
	embedder  *Embedder
	extractor *Extractor
	detector  *Detector
}

func newNetworks(threads int) *networks {
	return &networks{
		embedder:  newEmbedder(threads),
		extractor: newExtractor(threads),
		detector:  newDetector(threads),
	}
}

func (n *networks) params() nn.ParamSet {
	set := nn.ParamSet{}
	set.Merge(PrefixEmbedder, n.embedder.layers.params())
	set.Merge(PrefixExtractor, n.extractor.layers.params())
	set.Merge(PrefixDetector, n.detector.layers.params())
	return set
}

// NewModelContext seeds every network with a deterministic random initialisation and
// then tries to apply the checkpoint. A checkpoint that is missing or invalid is
// logged as a warning and the random weights stay in place.
func NewModelContext(opts Options) (*ModelContext, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	threads := max(opts.Threads, 1)

	nets := newNetworks(threads)
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	nets.embedder.layers.init(rng)
	nets.extractor.layers.init(rng)
	nets.detector.layers.init(rng)
	if err := nets.detector.prepare(); err != nil {
		return nil, fmt.Errorf("initialising detector: %w", err)
	}

	m := &ModelContext{threads: threads, source: fmt.Sprintf("random(seed=%d)", opts.Seed)}
	m.install(nets)

	if opts.CheckpointPath == "" {
		log.Warning("No checkpoint configured, using random weights")
		return m, nil
	}
	loaded, err := loadNetworks(opts.CheckpointPath, threads)
	if err != nil {
		log.Warning("Could not load checkpoint %s: %v", opts.CheckpointPath, err)
		return m, nil
	}
	m.install(loaded)
	m.loaded = true
	m.source = opts.CheckpointPath
	log.Info("Model checkpoint loaded from %s", opts.CheckpointPath)
	return m, nil
}

func (m *ModelContext) install(n *networks) {
	m.embedder, m.extractor, m.detector = n.embedder, n.extractor, n.detector
}

// loadNetworks decodes the whole file into a fresh set of networks. Nothing is
// returned unless every tensor is present and has the right shape.
func loadNetworks(path string, threads int) (*networks, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("checkpoint file not found: %s", path)
	}
	file, err := checkpoint.Open(path)
	if err != nil {
		return nil, err
	}

	nets := newNetworks(threads)
	want := nets.params()
	for name, p := range want {
		t, ok := file.Tensors[name]
		if !ok {
			return nil, fmt.Errorf("missing tensor %s", name)
		}
		if err := p.Assign(t.Shape, t.Data); err != nil {
			return nil, fmt.Errorf("tensor %s: %w", name, err)
		}
	}
	for name := range file.Tensors {
		if _, ok := want[name]; ok {
			continue
		}
		if strings.HasPrefix(name, PrefixEmbedder+".") ||
			strings.HasPrefix(name, PrefixExtractor+".") ||
			strings.HasPrefix(name, PrefixDetector+".") {
			return nil, fmt.Errorf("unexpected tensor %s", name)
		}
	}
	if err := nets.detector.prepare(); err != nil {
		return nil, err
	}
	return nets, nil
}

// Loaded reports whether a checkpoint was applied.
func (m *ModelContext) Loaded() bool {
	return m.loaded
}

// Source is the checkpoint path, or a description of the random initialisation.
func (m *ModelContext) Source() string {
	return m.source
}

// Threads is the goroutine fan-out used inside one forward pass.
func (m *ModelContext) Threads() int {
	return m.threads
}

// ParameterCount is the number of scalars across all three networks.
func (m *ModelContext) ParameterCount() int {
	return m.networks().params().Count()
}

func (m *ModelContext) networks() *networks {
	return &networks{embedder: m.embedder, extractor: m.extractor, detector: m.detector}
}

// Export returns every tensor under its checkpoint name.
func (m *ModelContext) Export() map[string]checkpoint.Tensor {
	params := m.networks().params()
	out := make(map[string]checkpoint.Tensor, len(params))
	for name, p := range params {
		data := make([]float32, len(p.Data))
		copy(data, p.Data)
		out[name] = checkpoint.Tensor{Shape: append([]int(nil), p.Shape...), Data: data}
	}
	return out
}

// Save writes the current weights to path.
func (m *ModelContext) Save(path string) error {
	return checkpoint.Save(path, m.Export(), map[string]string{"source": m.source})
}
