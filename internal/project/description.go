package project

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"boardcore/internal/blob"
)

// namespace seeds name-derived UUIDs for entries without an explicit uuid.
var namespace = uuid.MustParse("6f1c2d3e-8a4b-4c5d-9e6f-0a1b2c3d4e5f")

// Description is the YAML form of a project's circuit.
//
//	name: demo
//	components:
//	  - name: R1
//	    value: 10k
//	  - name: LOGO
//	    schematic_only: true
//	netsignals:
//	  - name: GND
type Description struct {
	UUID       string                 `yaml:"uuid,omitempty"`
	Name       string                 `yaml:"name"`
	Components []ComponentDescription `yaml:"components"`
	NetSignals []NetSignalDescription `yaml:"netsignals"`
}

// ComponentDescription describes one component instance.
type ComponentDescription struct {
	UUID          string `yaml:"uuid,omitempty"`
	Name          string `yaml:"name"`
	Value         string `yaml:"value,omitempty"`
	SchematicOnly bool   `yaml:"schematic_only,omitempty"`
}

// NetSignalDescription describes one net signal.
type NetSignalDescription struct {
	UUID string `yaml:"uuid,omitempty"`
	Name string `yaml:"name"`
}

// DecodeDescription parses a YAML project description.
func DecodeDescription(r io.Reader) (Description, error) {
	var d Description
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil && !errors.Is(err, io.EOF) {
		return Description{}, fmt.Errorf("decode project description: %w", err)
	}
	if d.Name == "" {
		return Description{}, fmt.Errorf("decode project description: name required")
	}
	return d, nil
}

// Build creates a project with the described circuit rooted at dir.
func (d Description) Build(dir *blob.Directory, opts ...Option) (*Project, error) {
	id, err := parseOrDerive(d.UUID, "project/"+d.Name)
	if err != nil {
		return nil, err
	}
	p := New(d.Name, dir, append([]Option{WithUUID(id)}, opts...)...)
	for _, cd := range d.Components {
		cid, err := parseOrDerive(cd.UUID, "component/"+cd.Name)
		if err != nil {
			return nil, err
		}
		if err := p.circuit.AddComponent(NewComponentInstance(cid, cd.Name, cd.Value, cd.SchematicOnly)); err != nil {
			return nil, fmt.Errorf("component %q: %w", cd.Name, err)
		}
	}
	for _, sd := range d.NetSignals {
		sid, err := parseOrDerive(sd.UUID, "netsignal/"+sd.Name)
		if err != nil {
			return nil, err
		}
		if err := p.circuit.AddNetSignal(NewNetSignal(sid, sd.Name)); err != nil {
			return nil, fmt.Errorf("net signal %q: %w", sd.Name, err)
		}
	}
	return p, nil
}

// Describe returns the description of p's circuit.
func Describe(p *Project) Description {
	d := Description{UUID: p.uuid.String(), Name: p.name}
	for _, c := range p.circuit.Components() {
		d.Components = append(d.Components, ComponentDescription{UUID: c.uuid.String(), Name: c.name, Value: c.value, SchematicOnly: c.schematicOnly})
	}
	for _, s := range p.circuit.NetSignals() {
		d.NetSignals = append(d.NetSignals, NetSignalDescription{UUID: s.uuid.String(), Name: s.name})
	}
	return d
}

// EncodeDescription writes d as YAML.
func EncodeDescription(w io.Writer, d Description) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return err
	}
	return enc.Close()
}

func parseOrDerive(s, seed string) (uuid.UUID, error) {
	if s == "" {
		return uuid.NewSHA1(namespace, []byte(seed)), nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid uuid %q: %w", s, err)
	}
	return id, nil
}
