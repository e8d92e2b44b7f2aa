package mcc

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// registryFile is the YAML layout of a registry override file:
//
//	clear: false
//	tags:
//	  VRSN: string
//	  ABCD: uint
//	remove: [FBCA]
type registryFile struct {
	Clear  bool              `yaml:"clear"`
	Tags   map[string]string `yaml:"tags"`
	Remove []string          `yaml:"remove"`
}

// LoadRegistry reads YAML overrides from r and applies them on top of base.
// A nil base means DefaultRegistry.
func LoadRegistry(r io.Reader, base *Registry) (*Registry, error) {
	if base == nil {
		base = DefaultRegistry()
	}

	var rf registryFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&rf); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "decoding registry overrides")
	}

	var opts []RegistryOption
	if rf.Clear {
		opts = append(opts, WithoutTypes())
	}
	for _, name := range rf.Remove {
		tag, err := ParseTag(name)
		if err != nil {
			return nil, errors.Wrap(err, "registry remove list")
		}
		opts = append(opts, WithoutTag(tag))
	}
	for name, typ := range rf.Tags {
		tag, err := ParseTag(name)
		if err != nil {
			return nil, errors.Wrap(err, "registry tags")
		}
		dt := DataType(typ)
		if !base.HasType(dt) {
			return nil, errors.Errorf("registry tags: unknown type %q for %s", typ, name)
		}
		opts = append(opts, WithTagType(tag, dt))
	}
	return base.With(opts...), nil
}

// LoadRegistryFile is LoadRegistry on the named file.
func LoadRegistryFile(path string, base *Registry) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening registry file")
	}
	defer f.Close()
	reg, err := LoadRegistry(f, base)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return reg, nil
}
