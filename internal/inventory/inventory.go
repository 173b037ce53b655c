// Package inventory defines where a party's rooms and guests come from.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Shivanand-hulikatti/group-rooming/internal/model"
)

// ErrNotFound is returned when a source knows nothing about a head guest.
var ErrNotFound = errors.New("party not found")

// Source loads the allocations, guests and saved room groups of one head guest.
type Source interface {
	Load(ctx context.Context, headGuestID string) (*model.Party, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, headGuestID string) (*model.Party, error)

// Load calls f.
func (f SourceFunc) Load(ctx context.Context, headGuestID string) (*model.Party, error) {
	return f(ctx, headGuestID)
}

// fileDocument is the layout of an inventory YAML file.
type fileDocument struct {
	Parties []model.Party `yaml:"parties"`
}

// FileSource serves parties from a YAML file, read once on first use.
// It is meant for demos, fixtures and offline planning.
type FileSource struct {
	path string

	once    sync.Once
	parties map[string]model.Party
	err     error
}

// NewFileSource constructs a FileSource reading path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load returns a copy of the party for headGuestID.
func (s *FileSource) Load(_ context.Context, headGuestID string) (*model.Party, error) {
	s.once.Do(s.read)
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.parties[headGuestID]
	if !ok {
		return nil, fmt.Errorf("head guest %q: %w", headGuestID, ErrNotFound)
	}
	return copyParty(p), nil
}

func (s *FileSource) read() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.err = fmt.Errorf("read inventory file: %w", err)
		return
	}
	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		s.err = fmt.Errorf("parse inventory file %s: %w", s.path, err)
		return
	}

	s.parties = make(map[string]model.Party, len(doc.Parties))
	for _, p := range doc.Parties {
		if p.HeadGuestID == "" {
			s.err = fmt.Errorf("inventory file %s: party without head_guest_id", s.path)
			return
		}
		// Entries inherit the party's head guest when they leave it out.
		for i := range p.Allocations {
			if p.Allocations[i].HeadGuestID == "" {
				p.Allocations[i].HeadGuestID = p.HeadGuestID
			}
		}
		for i := range p.Guests {
			if p.Guests[i].HeadGuestID == "" {
				p.Guests[i].HeadGuestID = p.HeadGuestID
			}
		}
		s.parties[p.HeadGuestID] = p
	}
}

func copyParty(p model.Party) *model.Party {
	out := model.Party{
		HeadGuestID: p.HeadGuestID,
		Allocations: append([]model.Allocation(nil), p.Allocations...),
		Guests:      append([]model.Guest(nil), p.Guests...),
	}
	for _, g := range p.Groups {
		out.Groups = append(out.Groups, g.Clone())
	}
	return &out
}
