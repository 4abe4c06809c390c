package processor

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-tplengine/pkg/model"
	"github.com/goliatone/go-tplengine/pkg/pipeline"
)

// SanitizerName is the stage name of the markup sanitizing post-processor.
const SanitizerName = "sanitize"

var (
	defaultPolicyOnce sync.Once
	defaultPolicy     *bluemonday.Policy
)

// DefaultPolicy returns the shared user generated content policy.
func DefaultPolicy() *bluemonday.Policy {
	defaultPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowAttrs("class").Globally()
		defaultPolicy = policy
	})
	return defaultPolicy
}

// Sanitizer cleans text events after inlining, so unescaped expression output
// cannot inject markup the policy rejects. Text inside script and style
// elements is left alone.
type Sanitizer struct {
	policy *bluemonday.Policy
	raw    int
}

// NewSanitizerFactory returns a post-processor factory using policy, or
// DefaultPolicy when nil.
func NewSanitizerFactory(policy *bluemonday.Policy) pipeline.Factory {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return pipeline.NewFactory(SanitizerName, func() (pipeline.Handler, error) {
		return &Sanitizer{policy: policy}, nil
	})
}

func (s *Sanitizer) Bind(*pipeline.EngineContext) error {
	return nil
}

func (s *Sanitizer) Handle(ev model.Event, emit pipeline.Emit) error {
	switch ev.Kind {
	case model.EventOpenElement:
		if isRawTextElement(ev.Name) {
			s.raw++
		}
	case model.EventCloseElement:
		if isRawTextElement(ev.Name) && s.raw > 0 {
			s.raw--
		}
	case model.EventText:
		if s.raw == 0 && strings.ContainsAny(ev.Content, "<>") {
			ev.Content = s.policy.Sanitize(ev.Content)
		}
	}
	return emit(ev)
}

func isRawTextElement(name string) bool {
	return strings.EqualFold(name, "script") || strings.EqualFold(name, "style")
}
