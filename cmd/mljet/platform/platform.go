package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/spf13/cobra"

	"mljet.io/mljet/pkg/client"
)

func BaseContext() (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	if os.Getenv("DEBUG") == "1" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		ctx = logr.NewContext(ctx, stdr.NewWithOptions(log.Default(), stdr.Options{LogCaller: stdr.Error}))
	}
	return ctx, cancel
}

func NewPlatformCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "platform",
		Short: "Platform management",
		Long:  "Platform management",
	}
	cmd.AddCommand(NewPlatformAddCmd())
	cmd.AddCommand(NewPlatformListCmd())
	cmd.AddCommand(NewPlatformRemoveCmd())

	return cmd
}

type PlatformFile struct {
	Platforms []PlatformDetails `json:"platforms,omitempty"`
}

type PlatformDetails struct {
	Name  string `json:"name,omitempty"`
	URL   string `json:"url,omitempty"`
	Token string `json:"token,omitempty"`
}

func (p PlatformDetails) Client() *client.Client {
	if p.Token == "" {
		return client.NewClient(p.URL, "")
	}
	return client.NewClient(p.URL, "Bearer "+p.Token)
}

var DefaultPlatformManager = PlatformManager{
	Path: func() string {
		home, err := os.UserHomeDir()
		if err != nil {
			panic(err)
		}
		return filepath.Join(home, ".mljet", "platforms.json")
	}(),
}

type PlatformManager struct {
	Path      string
	platforms PlatformFile
}

func (r *PlatformManager) Set(item PlatformDetails) error {
	// check url
	if _, err := url.ParseRequestURI(item.URL); err != nil {
		return fmt.Errorf("invalid url: %s", item.URL)
	}

	if err := r.load(); err != nil {
		return err
	}
	var exists bool
	for i, platform := range r.platforms.Platforms {
		if platform.Name == item.Name {
			r.platforms.Platforms[i] = item
			exists = true
			break
		}
	}
	if !exists {
		r.platforms.Platforms = append(r.platforms.Platforms, item)
	}
	return r.save()
}

func (r *PlatformManager) Get(name string) (PlatformDetails, error) {
	if err := r.load(); err != nil {
		return PlatformDetails{}, err
	}
	for _, platform := range r.platforms.Platforms {
		if platform.Name == name || platform.URL == name {
			return platform, nil
		}
	}
	return PlatformDetails{}, fmt.Errorf("platform %s not found", name)
}

func (r *PlatformManager) Remove(name string) error {
	if err := r.load(); err != nil {
		return err
	}
	for i, platform := range r.platforms.Platforms {
		if platform.Name == name {
			r.platforms.Platforms = append(r.platforms.Platforms[:i], r.platforms.Platforms[i+1:]...)
			return r.save()
		}
	}
	return fmt.Errorf("platform %s not found", name)
}

func (r *PlatformManager) List() []PlatformDetails {
	if err := r.load(); err != nil {
		return []PlatformDetails{}
	}
	return r.platforms.Platforms
}

func (r *PlatformManager) load() error {
	content, err := os.ReadFile(r.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(r.Path), 0o755); err != nil {
			return err
		}
		content = []byte("{}")
	}
	return json.Unmarshal(content, &r.platforms)
}

func (r *PlatformManager) save() error {
	content, err := json.MarshalIndent(r.platforms, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.Path, content, 0o644)
}
