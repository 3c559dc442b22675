package processor

import (
	"sort"

	"github.com/amankumarsingh77/tg-video-relay/internal/models"
	"github.com/amankumarsingh77/tg-video-relay/pkg/apperrors"
)

// Registry maps source and destination kinds to their processors. It is
// filled once at startup and only read afterwards, so lookups take no lock.
type Registry struct {
	sources      map[models.SourceType]SourceProcessor
	destinations map[models.DestinationType]DestinationProcessor
}

func NewRegistry() *Registry {
	return &Registry{
		sources:      make(map[models.SourceType]SourceProcessor),
		destinations: make(map[models.DestinationType]DestinationProcessor),
	}
}

func (r *Registry) RegisterSource(p SourceProcessor) *Registry {
	r.sources[p.SupportedType()] = p
	return r
}

func (r *Registry) RegisterDestination(p DestinationProcessor) *Registry {
	r.destinations[p.SupportedType()] = p
	return r
}

func (r *Registry) Source(kind models.SourceType) (SourceProcessor, error) {
	p, ok := r.sources[kind]
	if !ok {
		return nil, apperrors.Newf(apperrors.KindValidation, "unsupported source type: %s", kind)
	}
	return p, nil
}

func (r *Registry) Destination(kind models.DestinationType) (DestinationProcessor, error) {
	p, ok := r.destinations[kind]
	if !ok {
		return nil, apperrors.Newf(apperrors.KindValidation, "unsupported destination type: %s", kind)
	}
	return p, nil
}

// SourceFor picks the processor registered for the kind url classifies as.
func (r *Registry) SourceFor(url string) (SourceProcessor, error) {
	return r.Source(models.SourceTypeFromURL(url))
}

func (r *Registry) SourceTypes() []models.SourceType {
	kinds := make([]models.SourceType, 0, len(r.sources))
	for kind := range r.sources {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func (r *Registry) DestinationTypes() []models.DestinationType {
	kinds := make([]models.DestinationType, 0, len(r.destinations))
	for kind := range r.destinations {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
