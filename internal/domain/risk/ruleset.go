package risk

import (
	"context"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// RuleSet bundles the scoring and alerting tables loaded from a rules file.
type RuleSet struct {
	Risk       Rules          `yaml:"risk" json:"risk"`
	Thresholds ThresholdRules `yaml:"thresholds" json:"thresholds"`
}

func DefaultRuleSet() RuleSet {
	return RuleSet{Risk: DefaultRules(), Thresholds: DefaultThresholdRules()}
}

func (rs RuleSet) Validate() error {
	if err := rs.Risk.Validate(); err != nil {
		return fmt.Errorf("risk: %w", err)
	}
	if err := rs.Thresholds.Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	return nil
}

// ParseRuleSet overlays YAML onto the default rule set. Keys not present in
// data keep their default values; a symptoms list replaces the default list.
func ParseRuleSet(data []byte) (RuleSet, error) {
	rs := DefaultRuleSet()
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("decode rules: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return RuleSet{}, err
	}
	return rs, nil
}

// LoadRuleSet reads and validates a rules file.
func LoadRuleSet(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("read rules file: %w", err)
	}
	rs, err := ParseRuleSet(data)
	if err != nil {
		return RuleSet{}, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// WatchRuleSet calls onChange with the reloaded rule set each time path is
// written or recreated. A file that fails to load is logged and skipped, so
// the caller keeps its previous rules. It blocks until ctx is cancelled.
func WatchRuleSet(ctx context.Context, path string, logger zerolog.Logger, onChange func(RuleSet)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	logger.Info().Str("path", path).Msg("watching rules file")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors that save atomically replace the file, which shows up as Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			rs, err := LoadRuleSet(path)
			if err != nil {
				logger.Error().Err(err).Str("path", path).Msg("rules reload failed, keeping previous rules")
				continue
			}
			logger.Info().Str("path", path).Msg("rules reloaded")
			onChange(rs)

			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("rules watcher error")
		}
	}
}
