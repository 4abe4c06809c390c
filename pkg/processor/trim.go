package processor

import (
	"strings"

	"github.com/goliatone/go-tplengine/pkg/model"
	"github.com/goliatone/go-tplengine/pkg/pipeline"
)

// TrimName is the stage name of the whitespace trimming pre-processor.
const TrimName = "trim-whitespace"

// NewTrimFactory returns a pre-processor dropping text events made only of
// whitespace.
func NewTrimFactory() pipeline.Factory {
	return pipeline.NewFactory(TrimName, func() (pipeline.Handler, error) {
		return pipeline.HandlerFunc(trimWhitespace), nil
	})
}

func trimWhitespace(ev model.Event, emit pipeline.Emit) error {
	if ev.Kind == model.EventText && strings.TrimSpace(ev.Content) == "" {
		return nil
	}
	return emit(ev)
}
