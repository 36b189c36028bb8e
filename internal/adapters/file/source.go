// Package file loads a catalog from a YAML or JSON document on disk.
package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"go.yaml.in/yaml/v3"

	"github.com/ewilliams-labs/moodmix/internal/core/domain"
	"github.com/ewilliams-labs/moodmix/internal/core/ports"
)

var _ ports.CatalogSource = (*Source)(nil)

// catalogDocument is the on-disk catalog layout:
//
//	tracks:
//	  - id: A
//	    title: Sunrise
//	    artist: The Larks
//	    popularity: 80
//	    emotions: {joy: 0.9, love: 0.2}
type catalogDocument struct {
	Tracks []trackRecord `json:"tracks" yaml:"tracks"`
}

type trackRecord struct {
	ID         string             `json:"id" yaml:"id"`
	Title      string             `json:"title" yaml:"title"`
	Artist     string             `json:"artist" yaml:"artist"`
	Album      string             `json:"album" yaml:"album"`
	URI        string             `json:"uri" yaml:"uri"`
	Popularity int                `json:"popularity" yaml:"popularity"`
	Emotions   map[string]float64 `json:"emotions" yaml:"emotions"`
}

// Source reads the file on every LoadTracks, so edits are picked up by a
// catalog reload.
type Source struct {
	path string
}

func NewSource(path string) *Source {
	return &Source{path: path}
}

func (s *Source) Path() string {
	return s.path
}

func (s *Source) LoadTracks(ctx context.Context) ([]domain.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("file: failed to read catalog %s: %w", s.path, err)
	}

	doc, err := decode(s.path, data)
	if err != nil {
		return nil, fmt.Errorf("file: failed to parse catalog %s: %w", s.path, err)
	}

	tracks := make([]domain.Track, 0, len(doc.Tracks))
	for _, rec := range doc.Tracks {
		tracks = append(tracks, rec.toDomain())
	}
	return tracks, nil
}

func decode(path string, data []byte) (catalogDocument, error) {
	var doc catalogDocument
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return catalogDocument{}, err
		}
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return catalogDocument{}, err
		}
	default:
		return catalogDocument{}, fmt.Errorf("unsupported catalog format %q", ext)
	}
	return doc, nil
}

func (r trackRecord) toDomain() domain.Track {
	profile := make(domain.EmotionProfile, len(r.Emotions))
	for label, weight := range r.Emotions {
		profile[domain.EmotionLabel(label)] = weight
	}
	return domain.Track{
		ID:         r.ID,
		Title:      r.Title,
		Artist:     r.Artist,
		Album:      r.Album,
		URI:        r.URI,
		Popularity: r.Popularity,
		Profile:    profile,
	}
}
