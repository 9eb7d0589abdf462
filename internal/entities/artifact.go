package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ArtifactFormat string

const (
	ArtifactFormatPDF      ArtifactFormat = "pdf"
	ArtifactFormatPNG      ArtifactFormat = "png"
	ArtifactFormatMarkdown ArtifactFormat = "md"
)

type ArtifactKind string

const (
	ArtifactKindSong     ArtifactKind = "song"
	ArtifactKindSongbook ArtifactKind = "songbook"
)

// Artifact records one generated document.
type Artifact struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Kind      ArtifactKind   `gorm:"index;size:20" json:"kind"`
	Format    ArtifactFormat `gorm:"size:10" json:"format"`
	Locale    string         `gorm:"index;size:16" json:"locale"`
	SongKey   string         `gorm:"size:32" json:"song_key,omitempty"`
	Transpose int            `json:"transpose"`
	Songs     int            `json:"songs"`
	Pages     int            `json:"pages"`
	Bytes     int64          `json:"bytes"`
	Digest    string         `gorm:"size:64" json:"digest"`
	Path      string         `gorm:"size:1024" json:"path"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (Artifact) TableName() string {
	return "artifacts"
}

// BeforeCreate assigns a UUID to artifacts created without one.
func (a *Artifact) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
