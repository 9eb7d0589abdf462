package entities

import (
	"time"
)

// Song is a catalog row mirroring one index.json entry in one locale.
type Song struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex:idx_song_key_locale;size:32" json:"key"`
	Locale    string    `gorm:"uniqueIndex:idx_song_key_locale;size:16" json:"locale"`
	Stage     string    `gorm:"index;size:50" json:"stage"`
	Title     string    `gorm:"index;size:512" json:"title"`
	Source    string    `gorm:"size:512" json:"source"`
	FileName  string    `gorm:"size:1024" json:"file_name"`
	Lines     int       `json:"lines"`
	Chords    bool      `json:"chords"`
	Bytes     int64     `json:"bytes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Song) TableName() string {
	return "songs"
}
