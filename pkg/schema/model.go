package schema

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
)

// Model is a data-model instance: the source of attribute groups and the
// object lookup for references. Models are safe for concurrent use.
type Model struct {
	name string

	mu     sync.RWMutex
	types  map[string]AttributeType
	groups map[string]*AttributeGroup
	byID   map[int64]*Object
	byPID  map[string]*Object
}

// NewModel creates an empty data model.
func NewModel(name string) *Model {
	return &Model{
		name:   name,
		types:  make(map[string]AttributeType),
		groups: make(map[string]*AttributeGroup),
		byID:   make(map[int64]*Object),
		byPID:  make(map[string]*Object),
	}
}

// Name returns the model name.
func (m *Model) Name() string {
	return m.name
}

// AddType registers an attribute type under its PID.
func (m *Model) AddType(t AttributeType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.types[t.TypePID()]; exists {
		return errors.Newf("attribute type %s already defined", t.TypePID())
	}
	m.types[t.TypePID()] = t
	return nil
}

// Type returns the attribute type registered under pid.
func (m *Model) Type(pid string) (AttributeType, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.types[pid]
	return t, ok
}

// NewGroup creates an attribute group owned by the model.
func (m *Model) NewGroup(pid string, attrs ...*Attribute) (*AttributeGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.groups[pid]; exists {
		return nil, errors.Newf("attribute group %s already defined", pid)
	}
	g := &AttributeGroup{PID: pid, Attributes: attrs, model: m}
	m.groups[pid] = g
	return g, nil
}

// Group returns the attribute group registered under pid.
func (m *Model) Group(pid string) (*AttributeGroup, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.groups[pid]
	return g, ok
}

// Groups returns all attribute groups sorted by PID.
func (m *Model) Groups() []*AttributeGroup {
	m.mu.RLock()
	defer m.mu.RUnlock()
	groups := make([]*AttributeGroup, 0, len(m.groups))
	for _, g := range m.groups {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].PID < groups[j].PID })
	return groups
}

// AddObject registers an object. Id 0 is reserved for the undefined
// reference.
func (m *Model) AddObject(obj *Object) error {
	if obj.ID == 0 {
		return errors.Newf("object %q: id 0 is reserved", obj.PID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[obj.ID]; exists {
		return errors.Newf("object id %d already defined", obj.ID)
	}
	m.byID[obj.ID] = obj
	if obj.PID != "" {
		m.byPID[obj.PID] = obj
	}
	return nil
}

// ObjectByID implements ObjectLookup.
func (m *Model) ObjectByID(id int64) *Object {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byID[id]
}

// ObjectByPID implements ObjectLookup.
func (m *Model) ObjectByPID(pid string) *Object {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byPID[pid]
}
