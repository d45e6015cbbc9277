package auth

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type usersFile struct {
	Users []struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Premium  bool   `yaml:"premium"`
	} `yaml:"users"`
}

// SeedFromFile registers every user listed in a YAML file. Existing usernames
// and incomplete entries are skipped. It returns the number of users created.
func (s *Service) SeedFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var uf usersFile
	if err := yaml.Unmarshal(data, &uf); err != nil {
		return 0, fmt.Errorf("parse users file %s: %w", path, err)
	}
	created := 0
	for _, u := range uf.Users {
		if u.Username == "" || u.Password == "" {
			continue
		}
		user, _, err := s.Register(ctx, u.Username, u.Password)
		if errors.Is(err, ErrUsernameTaken) {
			continue
		}
		if err != nil {
			return created, err
		}
		if u.Premium {
			if err := s.store.SetPremium(ctx, user.ID, true); err != nil {
				return created, err
			}
		}
		created++
	}
	return created, nil
}
