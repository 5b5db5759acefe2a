package flowchart

import (
	"context"
	"errors"
	"fmt"

	"github.com/flowgraph/flowchart/pkg/validation"
	"github.com/google/uuid"
)

// SaveDocument stores the current diagram under id, generating a UUID when
// id is empty. Saving over an existing document keeps its creation time.
func (c *Controller) SaveDocument(ctx context.Context, store Store, id, name string, tags ...string) (*Document, error) {
	if err := c.requireReady(); err != nil {
		return nil, err
	}
	if id == "" {
		id = uuid.NewString()
	}
	now := c.now().UTC()
	doc := &Document{
		ID:        id,
		Name:      name,
		Direction: c.Direction(),
		Data:      c.engine.Save(),
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}

	prev, err := store.Load(ctx, id)
	switch {
	case err == nil:
		doc.CreatedAt = prev.CreatedAt
	case !errors.Is(err, ErrDocumentNotFound):
		return nil, fmt.Errorf("save document %s: %w", id, err)
	}

	if err := store.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document %s: %w", id, err)
	}
	c.logger.Info("document saved", "id", id, "name", name, "nodes", len(doc.Data.Nodes))
	return doc, nil
}

// LoadDocument replaces the diagram with a stored document. History is
// reset and the free-node set is reseeded from the document's roots, since
// earlier actions no longer describe the diagram.
func (c *Controller) LoadDocument(ctx context.Context, store Store, id string) (*Document, error) {
	if err := c.requireReady(); err != nil {
		return nil, err
	}
	doc, err := store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", id, err)
	}
	if err := validation.ValidateData(doc.Data); err != nil {
		return nil, fmt.Errorf("load document %s: %w", id, err)
	}
	if doc.Direction != "" && doc.Direction != c.Direction() {
		c.logger.Warn("document direction differs from diagram",
			"id", id, "document", doc.Direction, "diagram", c.Direction())
	}
	if err := c.engine.ChangeData(doc.Data.Clone()); err != nil {
		return nil, fmt.Errorf("load document %s: %w", id, err)
	}
	c.freeNodes = doc.Data.Roots()
	c.log.Reset()
	return doc, nil
}
