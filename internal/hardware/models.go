package hardware

import (
	"errors"
	"fmt"
	"strings"
)

// ModelSize names a Whisper checkpoint.
type ModelSize string

const (
	ModelTiny          ModelSize = "tiny"
	ModelBase          ModelSize = "base"
	ModelSmall         ModelSize = "small"
	ModelMedium        ModelSize = "medium"
	ModelLarge         ModelSize = "large"
	ModelLargeV2       ModelSize = "large-v2"
	ModelLargeV3       ModelSize = "large-v3"
	ModelDistilLargeV3 ModelSize = "distil-large-v3"
)

// AutoModel requests memory based selection.
const AutoModel = "auto"

// FallbackModel is used when available memory cannot be determined.
const FallbackModel = ModelMedium

// ErrUnknownModel marks a model name outside KnownModels.
var ErrUnknownModel = errors.New("unknown model")

const headroomRatio = 0.7

const (
	mib = 1024 * 1024
	gib = 1024 * mib
)

// Approximate resident memory per model, largest first.
var autoCandidates = []struct {
	model ModelSize
	bytes float64
}{
	{ModelLarge, 6 * gib},
	{ModelMedium, 2.5 * gib},
	{ModelSmall, 1 * gib},
	{ModelBase, 500 * mib},
	{ModelTiny, 150 * mib},
}

// KnownModels lists every model name accepted by ParseModel.
func KnownModels() []ModelSize {
	return []ModelSize{
		ModelTiny, ModelBase, ModelSmall, ModelMedium,
		ModelLarge, ModelLargeV2, ModelLargeV3, ModelDistilLargeV3,
	}
}

// ParseModel validates a model name.
func ParseModel(name string) (ModelSize, error) {
	normalized := ModelSize(strings.ToLower(strings.TrimSpace(name)))
	for _, m := range KnownModels() {
		if m == normalized {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownModel, name)
}

// SelectModel returns the largest model that fits in 70% of availableBytes,
// or tiny when none does.
func SelectModel(availableBytes uint64) ModelSize {
	usable := float64(availableBytes) * headroomRatio
	for _, candidate := range autoCandidates {
		if candidate.bytes < usable {
			return candidate.model
		}
	}
	return ModelTiny
}

// MemoryProbe reports available memory in bytes.
type MemoryProbe func() (uint64, error)

// Selection records how the model was chosen.
type Selection struct {
	Model          ModelSize
	Auto           bool
	AvailableBytes uint64
	// Reason is "requested", "memory", or "probe_failed".
	Reason string
	// ProbeErr is set when Reason is "probe_failed".
	ProbeErr error
}

// ResolveModel turns a requested model name into a concrete model. "auto" and
// the empty string consult probe; probe errors fall back to medium.
func ResolveModel(requested string, probe MemoryProbe) (Selection, error) {
	requested = strings.TrimSpace(requested)
	if requested != "" && !strings.EqualFold(requested, AutoModel) {
		model, err := ParseModel(requested)
		if err != nil {
			return Selection{}, err
		}
		return Selection{Model: model, Reason: "requested"}, nil
	}

	if probe == nil {
		probe = AvailableMemory
	}
	available, err := probe()
	if err != nil {
		return Selection{Model: FallbackModel, Auto: true, Reason: "probe_failed", ProbeErr: err}, nil
	}
	return Selection{
		Model:          SelectModel(available),
		Auto:           true,
		AvailableBytes: available,
		Reason:         "memory",
	}, nil
}
