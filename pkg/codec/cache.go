package codec

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/ssargent/attrdata/pkg/schema"
)

// cacheEntry remembers the outcome of one compilation. Errors are cached
// too: a group that fails to compile keeps failing until its model is
// forgotten.
type cacheEntry struct {
	root *CompositeInfo
	err  error
}

// schemaCache maps data models to the compiled trees of their groups. A
// given group is compiled at most once, even under concurrent first use.
type schemaCache struct {
	mu     sync.RWMutex
	models map[*schema.Model]map[*schema.AttributeGroup]*cacheEntry
	flight singleflight.Group
}

func newSchemaCache() *schemaCache {
	return &schemaCache{models: make(map[*schema.Model]map[*schema.AttributeGroup]*cacheEntry)}
}

// groups is the process-wide cache shared by every codec.
var groups = newSchemaCache()

func (c *schemaCache) lookup(model *schema.Model, group *schema.AttributeGroup) (*cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.models[model][group]
	return e, ok
}

func (c *schemaCache) get(group *schema.AttributeGroup) (*CompositeInfo, error) {
	model := group.Model()
	if e, ok := c.lookup(model, group); ok {
		cacheLookupsTotal.WithLabelValues("hit").Inc()
		return e.root, e.err
	}
	cacheLookupsTotal.WithLabelValues("miss").Inc()

	key := fmt.Sprintf("%p/%p", model, group)
	v, _, _ := c.flight.Do(key, func() (interface{}, error) {
		// A concurrent caller may have stored the entry between the
		// lookup above and entering the flight.
		if e, ok := c.lookup(model, group); ok {
			return e, nil
		}

		root, err := Compile(group)
		e := &cacheEntry{root: root, err: err}
		if err != nil {
			compilationsTotal.WithLabelValues(statusError).Inc()
			currentLogger().Warn("attribute group failed to compile", "group", group.PID, "error", err)
		} else {
			compilationsTotal.WithLabelValues(statusSuccess).Inc()
			currentLogger().Debug("compiled attribute group", "group", group.PID, "items", root.ItemCount(), "fixed_size", root.FixedSize())
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		byGroup, ok := c.models[model]
		if !ok {
			byGroup = make(map[*schema.AttributeGroup]*cacheEntry)
			c.models[model] = byGroup
		}
		byGroup[group] = e
		cachedGroups.Inc()
		return e, nil
	})
	e := v.(*cacheEntry)
	return e.root, e.err
}

// forget drops every tree compiled for model.
func (c *schemaCache) forget(model *schema.Model) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if byGroup, ok := c.models[model]; ok {
		cachedGroups.Sub(float64(len(byGroup)))
		delete(c.models, model)
		name := ""
		if model != nil {
			name = model.Name()
		}
		currentLogger().Debug("forgot data model", "model", name, "groups", len(byGroup))
	}
}
