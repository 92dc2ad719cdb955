package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"tte/tracker"
)

const userIDKey = "user_id"

// SessionFile persists the session record inside the config file. Other
// keys of the file are preserved on save.
type SessionFile struct {
	Path string
}

func NewSessionFile(path string) *SessionFile {
	return &SessionFile{Path: path}
}

func (f *SessionFile) read() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(f.Path)
	v.SetConfigType("toml")
	if err := readConfig(v); err != nil {
		return nil, err
	}
	return v, nil
}

// Load returns the stored session. A missing file means nobody is logged
// in.
func (f *SessionFile) Load() (tracker.Session, error) {
	v, err := f.read()
	if err != nil {
		return tracker.Session{}, err
	}
	return tracker.Session{UserID: v.GetString(userIDKey)}, nil
}

// Save writes sess back, dropping user_id entirely when it is empty.
func (f *SessionFile) Save(sess tracker.Session) error {
	current, err := f.read()
	if err != nil {
		return err
	}

	out := viper.New()
	out.SetConfigType("toml")
	for key, value := range current.AllSettings() {
		if key == userIDKey {
			continue
		}
		out.Set(key, value)
	}
	if sess.UserID != "" {
		out.Set(userIDKey, sess.UserID)
	}

	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return fmt.Errorf("%w: creating config directory: %w", tracker.ErrConfigIO, err)
	}
	if err := out.WriteConfigAs(f.Path); err != nil {
		return fmt.Errorf("%w: writing config file: %w", tracker.ErrConfigIO, err)
	}
	return nil
}
