package interest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"newsletter-curator/internal/domain/entity"
	"newsletter-curator/internal/repository"
)

// Service provides the registry use cases.
type Service struct {
	Repo repository.InterestRepository
}

// List returns all interests ordered by name.
func (s *Service) List(ctx context.Context) ([]*entity.Interest, error) {
	interests, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list interests: %w", err)
	}
	return interests, nil
}

// Get returns ErrInterestNotFound when id is unknown.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Interest, error) {
	if id <= 0 {
		return nil, &entity.ValidationError{Field: "id", Message: "must be positive"}
	}
	in, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get interest: %w", err)
	}
	if in == nil {
		return nil, ErrInterestNotFound
	}
	return in, nil
}

// FindByName is an exact, case-insensitive lookup.
func (s *Service) FindByName(ctx context.Context, name string) (*entity.Interest, error) {
	in, err := s.Repo.FindByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("find interest by name: %w", err)
	}
	if in == nil {
		return nil, &NameNotFoundError{Name: name}
	}
	return in, nil
}

// Describe returns the description of the named interest, or a stock sentence
// when the interest has none.
func (s *Service) Describe(ctx context.Context, name string) (string, error) {
	in, err := s.FindByName(ctx, name)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(in.Description) == "" {
		return fmt.Sprintf("No specific description for %s.", in.Name), nil
	}
	return in.Description, nil
}

// Create registers a new interest. Names are unique ignoring case.
func (s *Service) Create(ctx context.Context, name, description string) (*entity.Interest, error) {
	in := &entity.Interest{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.Repo.FindByName(ctx, in.Name)
	if err != nil {
		return nil, fmt.Errorf("find interest by name: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateInterest
	}

	if err := s.Repo.Create(ctx, in); err != nil {
		if errors.Is(err, entity.ErrDuplicate) {
			return nil, ErrDuplicateInterest
		}
		return nil, fmt.Errorf("create interest: %w", err)
	}
	return in, nil
}

// Index builds a fresh keyword index from the whole registry.
func (s *Service) Index(ctx context.Context) (*Index, error) {
	interests, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return BuildIndex(interests), nil
}

// seedFile is the YAML layout accepted by Seed.
type seedFile struct {
	Interests []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"interests"`
}

// Seed creates every interest listed in the YAML file at path that is not
// registered yet and returns how many were created. Running it twice is a no-op.
func (s *Service) Seed(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}
	return s.SeedYAML(ctx, data)
}

// SeedYAML is Seed for in-memory content.
func (s *Service) SeedYAML(ctx context.Context, data []byte) (int, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("parse seed file: %w", err)
	}

	created := 0
	for _, item := range f.Interests {
		_, err := s.Create(ctx, item.Name, item.Description)
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrDuplicateInterest):
			slog.Debug("interest already present", slog.String("name", item.Name))
		default:
			return created, fmt.Errorf("seed interest %q: %w", item.Name, err)
		}
	}
	slog.Info("interests seeded",
		slog.Int("listed", len(f.Interests)),
		slog.Int("created", created))
	return created, nil
}
