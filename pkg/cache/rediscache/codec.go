package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goliatone/go-tplengine/pkg/cache"
	"github.com/goliatone/go-tplengine/pkg/model"
	"github.com/goliatone/go-tplengine/pkg/template"
)

// ErrDetachedResource is returned when opening the resource of a decoded
// model. Only its name and description travel through the cache.
var ErrDetachedResource = errors.New("rediscache: resource content is not stored in the cache")

// ErrValidityNotPortable is returned when encoding a model whose validity
// depends on state that cannot be stored, such as a resolver check.
var ErrValidityNotPortable = errors.New("rediscache: validity cannot be stored")

// Validity kinds stored with each entry.
const (
	validityAlways = "always"
	validityTTL    = "ttl"
)

type entryWire struct {
	Key        cache.Key      `json:"key"`
	Descriptor descriptorWire `json:"descriptor"`
	Events     []model.Event  `json:"events"`
	StoredAt   time.Time      `json:"storedAt"`
}

type descriptorWire struct {
	Name        string        `json:"name"`
	Selectors   []string      `json:"selectors,omitempty"`
	Mode        template.Mode `json:"mode"`
	Resource    string        `json:"resource,omitempty"`
	Description string        `json:"description,omitempty"`
	Validity    string        `json:"validity"`
	TTL         time.Duration `json:"ttl,omitempty"`
}

func encode(key cache.Key, m *model.Model, storedAt time.Time) ([]byte, error) {
	descriptor := m.Descriptor()
	kind, ttl, err := encodeValidity(descriptor.Validity)
	if err != nil {
		return nil, fmt.Errorf("rediscache: encode %s: %w", key, err)
	}
	wire := entryWire{
		Key: key,
		Descriptor: descriptorWire{
			Name:      descriptor.Name,
			Selectors: descriptor.Selectors,
			Mode:      descriptor.Mode,
			Validity:  kind,
			TTL:       ttl,
		},
		Events:   m.Events(),
		StoredAt: storedAt,
	}
	if descriptor.Resource != nil {
		wire.Descriptor.Resource = descriptor.Resource.Name()
		wire.Descriptor.Description = descriptor.Resource.Description()
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("rediscache: encode %s: %w", key, err)
	}
	return data, nil
}

func decode(data []byte) (cache.Key, *model.Model, time.Time, error) {
	var wire entryWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return cache.Key{}, nil, time.Time{}, fmt.Errorf("rediscache: decode entry: %w", err)
	}
	var validity template.Validity
	switch wire.Descriptor.Validity {
	case validityAlways:
		validity = template.AlwaysValid
	case validityTTL:
		validity = template.NewTTLValidity(wire.Descriptor.TTL)
	default:
		return cache.Key{}, nil, time.Time{}, fmt.Errorf("rediscache: decode entry: unknown validity %q", wire.Descriptor.Validity)
	}
	descriptor := template.Descriptor{
		Name:      wire.Descriptor.Name,
		Selectors: wire.Descriptor.Selectors,
		Mode:      wire.Descriptor.Mode,
		Validity:  validity,
	}
	if wire.Descriptor.Resource != "" {
		descriptor.Resource = detachedResource{name: wire.Descriptor.Resource, description: wire.Descriptor.Description}
	}
	return wire.Key, model.New(model.Origin{}, descriptor, wire.Events), wire.StoredAt, nil
}

// encodeValidity maps the validities that can be rebuilt from data alone.
func encodeValidity(validity template.Validity) (string, time.Duration, error) {
	switch v := validity.(type) {
	case template.TTLValidity:
		if v.TTL <= 0 {
			return validityAlways, 0, nil
		}
		return validityTTL, v.TTL, nil
	}
	if validity == template.AlwaysValid {
		return validityAlways, 0, nil
	}
	return "", 0, ErrValidityNotPortable
}

type detachedResource struct {
	name        string
	description string
}

func (r detachedResource) Name() string {
	return r.name
}

func (r detachedResource) Description() string {
	return r.description
}

func (r detachedResource) Open(context.Context) (io.ReadCloser, error) {
	return nil, ErrDetachedResource
}
