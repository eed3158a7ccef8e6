package profile

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"go.yaml.in/yaml/v3"

	"github.com/jdai-explore/beyond-reqif/pkg/reqif"
)

// Format selects a profile serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks YAML for .yaml/.yml files and JSON otherwise.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Marshal serializes p in the requested format.
func Marshal(p *Profile, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return nil, errors.Wrap(err, "encode profile yaml")
		}
		if err := enc.Close(); err != nil {
			return nil, errors.Wrap(err, "encode profile yaml")
		}
		return buf.Bytes(), nil
	default:
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "encode profile json")
		}
		return append(data, '\n'), nil
	}
}

// Unmarshal decodes a profile. Missing keys take their defaults, weights and
// the threshold are clamped to [0,1], and an attribute without a name takes
// its map key.
func Unmarshal(data []byte, format Format) (*Profile, error) {
	p := &Profile{Name: "Unnamed Profile", Version: DefaultVersion}
	p.resetRules()

	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, p)
	default:
		err = json.Unmarshal(data, p)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode profile %s", format)
	}
	p.fill()
	return p, nil
}

func (p *Profile) fill() {
	ts := timestamp()
	if p.CreatedDate == "" {
		p.CreatedDate = ts
	}
	if p.ModifiedDate == "" {
		p.ModifiedDate = ts
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	p.SimilarityThreshold = clamp01(p.SimilarityThreshold)

	attrs := make(map[string]*AttributeConfig, len(p.Attributes))
	for key, cfg := range p.Attributes {
		if cfg == nil {
			continue
		}
		if cfg.Name == "" {
			cfg.Name = key
		}
		if cfg.DisplayName == "" {
			cfg.DisplayName = DisplayNameFor(cfg.Name)
		}
		if cfg.FieldType == "" {
			cfg.FieldType = FieldAttribute
			if reqif.IsStandardField(cfg.Name) {
				cfg.FieldType = FieldStandard
			}
		}
		if cfg.DataType == "" {
			cfg.DataType = DataText
		}
		cfg.Weight = clamp01(cfg.Weight)
		cfg.Coverage = clamp01(cfg.Coverage)
		attrs[cfg.Name] = cfg
	}
	p.Attributes = attrs
}

// attributeDefaults is what a decoded attribute holds for absent keys.
func attributeDefaults() AttributeConfig {
	return AttributeConfig{Enabled: true, Weight: 1.0}
}

func (a *AttributeConfig) UnmarshalJSON(data []byte) error {
	type plain AttributeConfig
	cfg := plain(attributeDefaults())
	if err := json.Unmarshal(data, &cfg); err != nil {
		return err
	}
	*a = AttributeConfig(cfg)
	return nil
}

func (a *AttributeConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain AttributeConfig
	cfg := plain(attributeDefaults())
	if err := value.Decode(&cfg); err != nil {
		return err
	}
	*a = AttributeConfig(cfg)
	return nil
}
