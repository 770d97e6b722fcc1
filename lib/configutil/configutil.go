package configutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// LocalPath returns the override file for a config path,
// "dir/jobcan.json5" becomes "dir/jobcan.local.json5".
func LocalPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

func readJson5[T any](path string) (T, bool, error) {
	var out T
	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return out, false, nil
	}
	if err != nil {
		return out, false, err
	}
	err = json5.Unmarshal(contents, &out)
	if err != nil {
		return out, false, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, true, nil
}

// ReadConfig reads a json5 config file and merges its `.local` sibling over
// it, non-zero values in the local file win. os.ErrNotExist is returned only
// if neither file exists.
func ReadConfig[T any](path string) (T, error) {
	out, foundBase, err := readJson5[T](path)
	if err != nil {
		return out, err
	}

	localPath := LocalPath(path)
	override, foundLocal, err := readJson5[T](localPath)
	if err != nil {
		return out, err
	}
	if foundLocal {
		err = mergo.Merge(&out, override, mergo.WithOverride)
		if err != nil {
			return out, fmt.Errorf("merge %s: %w", localPath, err)
		}
		slog.Debug("merging config with local overrides", "local", localPath)
	}

	if !foundBase && !foundLocal {
		return out, os.ErrNotExist
	}
	return out, nil
}

// FindUp walks from dir towards the filesystem root and returns the first
// path dir/name where name or its `.local` sibling exists.
func FindUp(dir, name string) (string, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(current, name)
		for _, p := range []string{candidate, LocalPath(candidate)} {
			_, err := os.Stat(p)
			if err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", os.ErrNotExist
		}
		current = parent
	}
}

// ReadRecursively is ReadConfig on the closest `name` found from the working
// directory upwards.
func ReadRecursively[T any](name string) (T, string, error) {
	var out T
	cwd, err := os.Getwd()
	if err != nil {
		return out, "", err
	}
	path, err := FindUp(cwd, name)
	if err != nil {
		return out, "", err
	}
	out, err = ReadConfig[T](path)
	return out, path, err
}
