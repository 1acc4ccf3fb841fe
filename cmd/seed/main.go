package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"bookstore/internal/config"
	"bookstore/internal/db"
	"bookstore/internal/logging"
	"bookstore/internal/model"
	"bookstore/internal/repository"
	"bookstore/internal/service"
)

// SeedData is the layout of the locations seed file.
type SeedData struct {
	States []model.State `yaml:"states"`
	Cities []model.City  `yaml:"cities"`
}

func main() {
	source := flag.String("file", "seed/locations.yaml", "path or http(s) URL of the locations YAML")
	flag.Parse()

	cfg, err := config.LoadDatabase()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.InitLogger(cfg.LogLevel)
	logger.Info("starting seed script", "source", *source)

	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		fatal("connect to database", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		fatal("run migrations", err)
	}

	raw, err := readSource(*source)
	if err != nil {
		fatal("read seed data", err)
	}
	data, err := parseSeed(raw)
	if err != nil {
		fatal("parse seed data", err)
	}
	logger.Info("loaded seed data", "states", len(data.States), "cities", len(data.Cities))

	locations := service.NewLocationService(repository.NewLocationRepository(gormDB))
	if err := locations.Seed(context.Background(), data.States, data.Cities); err != nil {
		fatal("seed locations", err)
	}
	logger.Info("seed completed")
}

// readSource loads the seed file from disk or over HTTP.
func readSource(source string) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return os.ReadFile(source)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(source)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status code %d", source, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// parseSeed decodes the YAML and drops entries without identifiers.
func parseSeed(raw []byte) (*SeedData, error) {
	var data SeedData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	states := data.States[:0]
	for _, s := range data.States {
		if s.StateID == "" || s.StateName == "" {
			slog.Warn("skipping state without id or name", "state", s.StateName)
			continue
		}
		states = append(states, s)
	}
	cities := data.Cities[:0]
	for _, c := range data.Cities {
		if c.CityID == "" || c.StateID == "" {
			slog.Warn("skipping city without id or state", "city", c.CityName)
			continue
		}
		cities = append(cities, c)
	}
	data.States, data.Cities = states, cities
	return &data, nil
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
