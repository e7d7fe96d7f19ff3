package engine

import (
	"fmt"

	"github.com/danmuck/scenesave/internal/graph"
	"github.com/danmuck/scenesave/internal/wire/value"
	"github.com/google/uuid"
)

// templateRefs resolves cross-references through the template registry: a
// live target is written as the template id of its tracked owner.
type templateRefs struct {
	templates graph.Templates
}

func (r templateRefs) TemplateFor(target any) (uuid.UUID, error) {
	e, ok := target.(graph.Entity)
	if !ok || e == nil {
		return uuid.Nil, fmt.Errorf("%w: %T", value.ErrEntityNotTrackable, target)
	}
	owner, ok := graph.TrackedOwner(e)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: %s", value.ErrEntityNotTrackable, e.Name())
	}
	id := owner.TemplateID()
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: %s has no template", value.ErrTemplateNotRegistered, owner.Name())
	}
	if _, ok := r.templates.Template(id); !ok {
		return uuid.Nil, fmt.Errorf("%w: %s", value.ErrTemplateNotRegistered, id)
	}
	return id, nil
}

func (r templateRefs) Template(id uuid.UUID) (any, error) {
	t, ok := r.templates.Template(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", value.ErrTemplateNotRegistered, id)
	}
	return t, nil
}
